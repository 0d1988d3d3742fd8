// Package transcript derives round numbers and intra-round positions from
// a session's raw message log. Segmentation is a pure function of the log
// prefix: it stores nothing and always walks the full history, so the same
// log always yields the same round numbering no matter how many times a
// session has been resumed.
package transcript

import (
	"github.com/alienxp03/rostrum/internal/core"
)

// Segment walks the full log and returns the round-segmented transcript.
// Moderator entries are turn-management cues: they consume a scheduler turn
// but never appear in the output and do not advance the intra-round offset.
// The round number starts at 1 and increments immediately after each judge
// entry, never before.
func Segment(roster []core.Participant, log []core.Entry) []core.Message {
	return SegmentFrom(roster, log, 0)
}

// SegmentFrom segments the full log but only returns messages whose log
// index is >= startIndex. Crucially, the walk still starts at the beginning
// of the history so that round numbers in the returned suffix agree with a
// from-scratch segmentation of the same log.
func SegmentFrom(roster []core.Participant, log []core.Entry, startIndex int) []core.Message {
	roles := roleIndex(roster)

	var out []core.Message
	round := 1
	position := 0

	for _, entry := range log {
		role, ok := roles[entry.Speaker]
		if !ok || role == core.RoleModerator {
			continue
		}

		if entry.Index >= startIndex {
			out = append(out, core.Message{
				Index:     entry.Index,
				Round:     round,
				Position:  position,
				Agent:     entry.Speaker,
				Role:      role,
				Content:   entry.Text,
				Timestamp: entry.Timestamp,
			})
		}
		position++

		if role == core.RoleJudge {
			round++
			position = 0
		}
	}

	return out
}

// NextRound returns the round the next produced message would land in.
func NextRound(roster []core.Participant, log []core.Entry) int {
	roles := roleIndex(roster)
	round := 1
	for _, entry := range log {
		if roles[entry.Speaker] == core.RoleJudge {
			round++
		}
	}
	return round
}

// TotalRounds returns the highest round number present in a segmented
// transcript, or 0 for an empty one.
func TotalRounds(messages []core.Message) int {
	total := 0
	for _, m := range messages {
		if m.Round > total {
			total = m.Round
		}
	}
	return total
}

func roleIndex(roster []core.Participant) map[string]core.Role {
	roles := make(map[string]core.Role, len(roster))
	for _, p := range roster {
		roles[p.ID] = p.Role
	}
	return roles
}

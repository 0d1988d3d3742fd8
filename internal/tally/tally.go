// Package tally scans judge messages for verdict tokens and aggregates
// per-round wins into an overall outcome.
package tally

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/alienxp03/rostrum/internal/core"
)

// Tie is the overall result when no participant has a strictly highest
// score, including when no round produced a valid verdict.
const Tie = "Tie"

// verdictPrefix matches the literal verdict prefix "Round Winner:",
// case-insensitive. The participant id that must follow is compared
// against the roster rather than captured, so ids with spaces or any
// other characters the roster accepts are matched too.
var verdictPrefix = regexp.MustCompile(`(?i)round\s+winner:\s*`)

// Result holds the aggregated verdicts for a session.
type Result struct {
	// Scores maps each debater id to the number of rounds it won.
	Scores map[string]int `json:"scores"`

	// RoundWinners maps round number to the winning participant id, for
	// rounds whose judge message carried exactly one well-formed verdict.
	RoundWinners map[int]string `json:"round_winners"`

	// Winner is the participant with the strictly highest score, or Tie.
	Winner string `json:"winner"`

	// Warnings lists rounds excluded because of malformed verdicts.
	// Malformed verdicts are never fatal; they only degrade completeness.
	Warnings []string `json:"warnings,omitempty"`
}

// Count aggregates verdicts over a segmented transcript. Every judge
// message is inspected for a verdict token; a round counts only when the
// judge named exactly one roster participant. Rounds with zero or multiple
// matches are excluded with a warning and do not affect the numbering of
// later rounds.
func Count(roster []core.Participant, messages []core.Message) Result {
	result := Result{
		Scores:       make(map[string]int),
		RoundWinners: make(map[int]string),
		Winner:       Tie,
	}
	for _, p := range roster {
		if p.Role == core.RoleDebater {
			result.Scores[p.ID] = 0
		}
	}

	for _, msg := range messages {
		if msg.Role != core.RoleJudge {
			continue
		}

		winners := extractWinners(roster, msg.Content)
		switch len(winners) {
		case 1:
			result.Scores[winners[0]]++
			result.RoundWinners[msg.Round] = winners[0]
		case 0:
			warn := fmt.Sprintf("round %d: no well-formed verdict in judge message", msg.Round)
			result.Warnings = append(result.Warnings, warn)
			slog.Warn("Excluding round from tally", "round", msg.Round, "reason", "no verdict")
		default:
			warn := fmt.Sprintf("round %d: multiple verdicts in judge message", msg.Round)
			result.Warnings = append(result.Warnings, warn)
			slog.Warn("Excluding round from tally", "round", msg.Round, "reason", "multiple verdicts")
		}
	}

	result.Winner = overallWinner(result.Scores)
	return result
}

// extractWinners returns the canonical roster ids named by verdict tokens
// in a judge message. Text after each verdict prefix that does not start
// with a roster participant id (ignoring case) is not a match.
func extractWinners(roster []core.Participant, content string) []string {
	var winners []string
	for _, loc := range verdictPrefix.FindAllStringIndex(content, -1) {
		if id, ok := matchParticipant(roster, content[loc[1]:]); ok {
			winners = append(winners, id)
		}
	}
	return winners
}

// matchParticipant reports which roster id the text starts with. The
// longest id wins, so a verdict for "Debater A" is never credited to a
// debater named "Debater", and the id must end at a word boundary so
// "Alicette" does not count for "Alice".
func matchParticipant(roster []core.Participant, text string) (string, bool) {
	var best string
	for _, p := range roster {
		n := len(p.ID)
		if n == 0 || len(text) < n || !strings.EqualFold(text[:n], p.ID) {
			continue
		}
		if len(text) > n && isWordChar(rune(text[n])) {
			continue
		}
		if n > len(best) {
			best = p.ID
		}
	}
	return best, best != ""
}

func isWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// overallWinner picks the participant with the strictly highest score.
// A duplicate maximum, or an empty tally, is a tie by definition.
func overallWinner(scores map[string]int) string {
	best := ""
	bestCount := 0
	duplicate := false

	for id, count := range scores {
		switch {
		case count > bestCount:
			best = id
			bestCount = count
			duplicate = false
		case count == bestCount && count > 0:
			duplicate = true
		}
	}

	if best == "" || duplicate || bestCount == 0 {
		return Tie
	}
	return best
}

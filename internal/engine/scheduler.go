package engine

import (
	"github.com/alienxp03/rostrum/internal/core"
)

// Scheduler maintains the cyclic speaking order over a session's roster
// together with a remaining-turn budget. Round-robin order is deliberate:
// given the same roster and topic the speaking order is identical on every
// run, which the tally and archive depend on.
//
// NextSpeaker only peeks; a turn is consumed with Commit once its message
// has been committed to the log, so a failed generation leaves the cursor
// pointing at the same speaker for the next resume.
type Scheduler struct {
	order  []core.Participant
	cursor int
	budget int
}

// NewScheduler builds a scheduler over the roster, restoring the cursor
// and budget recorded on the session.
func NewScheduler(order []core.Participant, cursor, budget int) *Scheduler {
	return &Scheduler{order: order, cursor: cursor, budget: budget}
}

// NextSpeaker returns roster[cursor mod roster length].
func (s *Scheduler) NextSpeaker() core.Participant {
	return s.order[s.cursor%len(s.order)]
}

// Commit consumes the current turn.
func (s *Scheduler) Commit() {
	s.cursor++
}

// Advance extends the budget by n participant-turns.
func (s *Scheduler) Advance(n int) {
	s.budget += n
}

// Exhausted is true when every granted turn has been consumed.
func (s *Scheduler) Exhausted() bool {
	return s.cursor >= s.budget
}

// RoundLength is the number of turns in one full cycle through the roster.
func (s *Scheduler) RoundLength() int {
	return len(s.order)
}

// TurnsToRoundEnd returns how many turns remain until the next round
// boundary: the rest of the current round if one is underway, otherwise a
// whole fresh round.
func (s *Scheduler) TurnsToRoundEnd() int {
	if rem := s.cursor % len(s.order); rem != 0 {
		return len(s.order) - rem
	}
	return len(s.order)
}

// ExtendToRoundBoundary advances the budget so it reaches the next round
// boundary strictly past the cursor. A budget already at or beyond that
// boundary is left alone, so interrupted rounds are completed rather than
// stacked.
func (s *Scheduler) ExtendToRoundBoundary() {
	target := s.cursor + s.TurnsToRoundEnd()
	if target > s.budget {
		s.Advance(target - s.budget)
	}
}

// Cursor returns the current cursor value.
func (s *Scheduler) Cursor() int { return s.cursor }

// Budget returns the current budget value.
func (s *Scheduler) Budget() int { return s.budget }

package engine

import (
	"context"
	"errors"

	"github.com/alienxp03/rostrum/internal/core"
	"github.com/alienxp03/rostrum/internal/transcript"
)

// Frame is one event on a streamed round. Status is "started" or
// "completed" on the bracketing frames and empty on message frames;
// Error is set instead of Status when the round aborts.
type Frame struct {
	Status    string `json:"status,omitempty"`
	Round     int    `json:"round,omitempty"`
	Agent     string `json:"agent,omitempty"`
	Content   string `json:"content,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Stream runs one round of the session, delivering each utterance as it
// is produced. The returned channel is closed once the round ends, fails,
// or the context is cancelled. Cancellation is cooperative: the turn in
// flight finishes and commits, later turns never start, and the session
// stays resumable with Continue.
func (e *Engine) Stream(ctx context.Context, id string) (<-chan Frame, error) {
	sess, err := e.store.Acquire(id)
	if err != nil {
		return nil, err
	}
	sess.SetStatus(core.StatusStreaming)

	sched := e.schedulerFor(sess)
	sched.ExtendToRoundBoundary()
	sess.SetProgress(sched.Cursor(), sched.Budget())
	round := transcript.NextRound(sess.Roster, sess.Log)

	// Buffered past the worst case so the producer never blocks on a
	// consumer that has already walked away.
	frames := make(chan Frame, sched.RoundLength()+2)

	go func() {
		defer close(frames)
		defer e.store.Release(id)

		frames <- Frame{Status: "started", Round: round}

		runErr := e.runRound(ctx, sess, sched, func(entry core.Entry, speaker core.Participant) {
			frames <- Frame{
				Round:     round,
				Agent:     entry.Speaker,
				Content:   entry.Text,
				Timestamp: entry.Timestamp.Unix(),
			}
		})

		sess.SetStatus(core.StatusActive)

		switch {
		case runErr == nil:
			frames <- Frame{Status: "completed", Round: round}
		case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
			// Consumer disconnected; nothing left to tell it.
		default:
			frames <- Frame{Round: round, Error: runErr.Error()}
		}
	}()

	return frames, nil
}

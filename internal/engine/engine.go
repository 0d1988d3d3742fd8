// Package engine orchestrates debate sessions: it walks the roster in
// round-robin order, collects one utterance per participant turn, and
// commits each utterance to the session's append-only log. Moderator
// turns are synthesized locally and never hit the generator.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alienxp03/rostrum/internal/core"
	"github.com/alienxp03/rostrum/internal/provider"
	"github.com/alienxp03/rostrum/internal/session"
	"github.com/alienxp03/rostrum/internal/transcript"
)

const nextRoundCue = "Proceed to the next round of arguments."

// Engine runs debate rounds against the session store.
type Engine struct {
	store *session.Store
	gen   provider.Generator
}

// New creates an engine backed by the given store and generator.
func New(store *session.Store, gen provider.Generator) *Engine {
	return &Engine{store: store, gen: gen}
}

// StartResult is the outcome of starting a debate. SessionID is always
// set once the session exists, even when the first round failed partway,
// so callers can resume with Continue.
type StartResult struct {
	SessionID string
	Messages  []core.Message
}

// Start validates the roster, creates a session, and runs the opening
// round. On a generation failure the partial log is kept and the result
// still carries the session id.
func (e *Engine) Start(ctx context.Context, topic string, entries []core.RosterEntry) (*StartResult, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("%w: topic cannot be empty", core.ErrInvalidRoster)
	}

	roster, err := core.BuildRoster(entries)
	if err != nil {
		return nil, err
	}

	sess := e.store.Create(topic, roster)
	if _, err := e.store.Acquire(sess.ID); err != nil {
		return nil, err
	}
	defer e.store.Release(sess.ID)

	slog.Info("Starting debate", "session", sess.ID, "topic", topic, "participants", len(roster))

	sched := e.schedulerFor(sess)
	sched.ExtendToRoundBoundary()
	sess.SetProgress(sched.Cursor(), sched.Budget())

	runErr := e.runRound(ctx, sess, sched, nil)
	res := &StartResult{
		SessionID: sess.ID,
		Messages:  transcript.Segment(sess.Roster, sess.Log),
	}
	if runErr != nil {
		return res, runErr
	}
	return res, nil
}

// Continue resumes a session for one more round and returns only the
// messages produced by this call. A round cut short by an earlier failure
// is completed first; the budget never extends past the next round
// boundary.
func (e *Engine) Continue(ctx context.Context, id string) ([]core.Message, error) {
	sess, err := e.store.Acquire(id)
	if err != nil {
		return nil, err
	}
	defer e.store.Release(id)

	startIndex := len(sess.Log)
	sched := e.schedulerFor(sess)
	sched.ExtendToRoundBoundary()
	sess.SetProgress(sched.Cursor(), sched.Budget())

	slog.Info("Continuing debate", "session", sess.ID, "round", transcript.NextRound(sess.Roster, sess.Log))

	runErr := e.runRound(ctx, sess, sched, nil)
	messages := transcript.SegmentFrom(sess.Roster, sess.Log, startIndex)
	if runErr != nil {
		return messages, runErr
	}
	return messages, nil
}

// Transcript returns the full structured transcript of a session. It
// reads through a log snapshot so it is safe to call while a streamed
// round is in flight.
func (e *Engine) Transcript(id string) (*core.Session, []core.Message, error) {
	sess, err := e.store.Get(id)
	if err != nil {
		return nil, nil, err
	}
	log, _ := sess.Snapshot()
	return sess, transcript.Segment(sess.Roster, log), nil
}

type emitFunc func(entry core.Entry, speaker core.Participant)

// runRound consumes scheduler turns until the budget is exhausted. The
// cursor advances only after an utterance has been appended, so any error
// leaves the log and cursor agreeing on who speaks next. emit, when set,
// is called for every non-moderator entry as it lands.
func (e *Engine) runRound(ctx context.Context, sess *core.Session, sched *Scheduler, emit emitFunc) error {
	for !sched.Exhausted() {
		if err := ctx.Err(); err != nil {
			return err
		}

		speaker := sched.NextSpeaker()

		var text string
		if speaker.Role == core.RoleModerator {
			if len(sess.Log) == 0 {
				text = fmt.Sprintf("Debate Topic: %s", sess.Topic)
			} else {
				text = nextRoundCue
			}
		} else {
			out, err := e.gen.Generate(ctx, speaker.Persona, historyFor(sess))
			if err != nil {
				slog.Error("Generation failed", "session", sess.ID, "speaker", speaker.ID, "error", err)
				return &core.GenerationError{Speaker: speaker.ID, Err: err}
			}
			text = out
		}

		entry := sess.Append(speaker.ID, text)
		sched.Commit()
		sess.SetProgress(sched.Cursor(), sched.Budget())

		if emit != nil && speaker.Role != core.RoleModerator {
			emit(entry, speaker)
		}
	}
	return nil
}

func (e *Engine) schedulerFor(sess *core.Session) *Scheduler {
	return NewScheduler(sess.Roster, sess.Cursor, sess.Budget)
}

// historyFor flattens the whole log, moderator cues included, into the
// generator's context. The opening cue carries the topic, which is how
// participants learn what they are debating.
func historyFor(sess *core.Session) []provider.Message {
	history := make([]provider.Message, 0, len(sess.Log))
	for _, entry := range sess.Log {
		history = append(history, provider.Message{Speaker: entry.Speaker, Content: entry.Text})
	}
	return history
}

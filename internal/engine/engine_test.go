package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alienxp03/rostrum/internal/core"
	"github.com/alienxp03/rostrum/internal/provider"
	"github.com/alienxp03/rostrum/internal/session"
)

// scriptedGenerator is a deterministic generator for engine tests. It can
// fail on a given call or cancel a context after a given number of
// successful calls to simulate a client disconnect.
type scriptedGenerator struct {
	calls       int
	failOnCall  int
	cancelAfter int
	cancel      context.CancelFunc
}

func (g *scriptedGenerator) Name() string    { return "scripted" }
func (g *scriptedGenerator) Available() bool { return true }

func (g *scriptedGenerator) Generate(ctx context.Context, persona string, history []provider.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.calls++
	if g.failOnCall > 0 && g.calls == g.failOnCall {
		return "", errors.New("generator exploded")
	}
	response := fmt.Sprintf("utterance %d", g.calls)
	if g.cancelAfter > 0 && g.calls == g.cancelAfter && g.cancel != nil {
		g.cancel()
	}
	return response, nil
}

func testEntries() []core.RosterEntry {
	return []core.RosterEntry{
		{Name: "Alice", Role: core.RoleDebater, SystemMessage: "You are Alice."},
		{Name: "Bob", Role: core.RoleDebater, SystemMessage: "You are Bob."},
		{Name: "Judge", Role: core.RoleJudge, SystemMessage: "You are the judge."},
	}
}

func setupEngine(gen provider.Generator) (*Engine, *session.Store) {
	store := session.NewStore()
	return New(store, gen), store
}

func TestEngineStart(t *testing.T) {
	gen := &scriptedGenerator{}
	eng, store := setupEngine(gen)

	result, err := eng.Start(context.Background(), "Test topic", testEntries())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if result.SessionID == "" {
		t.Fatal("expected a session id")
	}

	// One round: moderator cue plus three generated turns. The cue is
	// excluded from the transcript.
	if len(result.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(result.Messages))
	}
	wantOrder := []string{"Alice", "Bob", "Judge"}
	for i, msg := range result.Messages {
		if msg.Agent != wantOrder[i] {
			t.Errorf("message %d: agent = %q, want %q", i, msg.Agent, wantOrder[i])
		}
		if msg.Round != 1 {
			t.Errorf("message %d: round = %d, want 1", i, msg.Round)
		}
	}
	if gen.calls != 3 {
		t.Errorf("generator calls = %d, want 3", gen.calls)
	}

	sess, err := store.Get(result.SessionID)
	if err != nil {
		t.Fatalf("session missing after start: %v", err)
	}
	if len(sess.Log) != 4 {
		t.Errorf("log length = %d, want 4 (cue + 3 turns)", len(sess.Log))
	}
	if sess.Log[0].Speaker != "Moderator" {
		t.Errorf("first log entry speaker = %q, want Moderator", sess.Log[0].Speaker)
	}
	if sess.Cursor != 4 || sess.Budget != 4 {
		t.Errorf("cursor/budget = %d/%d, want 4/4", sess.Cursor, sess.Budget)
	}
}

func TestEngineStartValidation(t *testing.T) {
	eng, store := setupEngine(&scriptedGenerator{})

	t.Run("empty topic", func(t *testing.T) {
		_, err := eng.Start(context.Background(), "  ", testEntries())
		if !errors.Is(err, core.ErrInvalidRoster) {
			t.Errorf("expected ErrInvalidRoster, got %v", err)
		}
	})

	t.Run("bad roster", func(t *testing.T) {
		_, err := eng.Start(context.Background(), "Topic", []core.RosterEntry{
			{Name: "Alice", Role: core.RoleDebater},
		})
		if !errors.Is(err, core.ErrInvalidRoster) {
			t.Errorf("expected ErrInvalidRoster, got %v", err)
		}
	})

	t.Run("no session is left behind", func(t *testing.T) {
		if store.Len() != 0 {
			t.Errorf("store has %d sessions after rejected starts, want 0", store.Len())
		}
	})
}

func TestEngineContinue(t *testing.T) {
	gen := &scriptedGenerator{}
	eng, store := setupEngine(gen)

	result, err := eng.Start(context.Background(), "Topic", testEntries())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	messages, err := eng.Continue(context.Background(), result.SessionID)
	if err != nil {
		t.Fatalf("Continue failed: %v", err)
	}

	// Only the delta comes back, and it lands in round two.
	if len(messages) != 3 {
		t.Fatalf("expected 3 new messages, got %d", len(messages))
	}
	for i, msg := range messages {
		if msg.Round != 2 {
			t.Errorf("message %d: round = %d, want 2", i, msg.Round)
		}
	}

	sess, _ := store.Get(result.SessionID)
	if len(sess.Log) != 8 {
		t.Errorf("log length = %d, want 8", len(sess.Log))
	}
}

func TestEngineContinueUnknownSession(t *testing.T) {
	eng, _ := setupEngine(&scriptedGenerator{})

	_, err := eng.Continue(context.Background(), "no-such-id")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEngineGenerationFailure(t *testing.T) {
	gen := &scriptedGenerator{failOnCall: 2}
	eng, store := setupEngine(gen)

	result, err := eng.Start(context.Background(), "Topic", testEntries())

	var genErr *core.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Speaker != "Bob" {
		t.Errorf("failed speaker = %q, want Bob", genErr.Speaker)
	}
	if result == nil || result.SessionID == "" {
		t.Fatal("expected a session id alongside the failure")
	}

	// Everything before the failure is preserved.
	sess, err := store.Get(result.SessionID)
	if err != nil {
		t.Fatalf("session missing after failed start: %v", err)
	}
	if len(sess.Log) != 2 {
		t.Fatalf("log length = %d, want 2 (cue + Alice)", len(sess.Log))
	}
	if len(result.Messages) != 1 || result.Messages[0].Agent != "Alice" {
		t.Fatalf("partial transcript = %+v, want just Alice", result.Messages)
	}

	// Resuming completes the interrupted round instead of starting a
	// fresh one.
	messages, err := eng.Continue(context.Background(), result.SessionID)
	if err != nil {
		t.Fatalf("Continue after failure: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages (Bob, Judge), got %d", len(messages))
	}
	if messages[0].Agent != "Bob" || messages[1].Agent != "Judge" {
		t.Errorf("resume order = %q, %q; want Bob, Judge", messages[0].Agent, messages[1].Agent)
	}
	for _, msg := range messages {
		if msg.Round != 1 {
			t.Errorf("resumed message round = %d, want 1", msg.Round)
		}
	}
}

func TestEngineCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &scriptedGenerator{cancelAfter: 2, cancel: cancel}
	eng, store := setupEngine(gen)

	_, err := eng.Start(ctx, "Topic", testEntries())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// The two committed turns survive; the judge never spoke.
	summaries := store.List()
	if len(summaries) != 1 {
		t.Fatalf("expected 1 session, got %d", len(summaries))
	}
	sess, _ := store.Get(summaries[0].ID)
	if len(sess.Log) != 3 {
		t.Fatalf("log length = %d, want 3 (cue + Alice + Bob)", len(sess.Log))
	}

	// A fresh continue finishes the round with the judge's turn.
	messages, err := eng.Continue(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Continue after cancellation: %v", err)
	}
	if len(messages) != 1 || messages[0].Agent != "Judge" {
		t.Fatalf("resume messages = %+v, want just Judge", messages)
	}
	if messages[0].Round != 1 {
		t.Errorf("resumed round = %d, want 1", messages[0].Round)
	}
}

func TestEngineBusySession(t *testing.T) {
	eng, store := setupEngine(&scriptedGenerator{})

	result, err := eng.Start(context.Background(), "Topic", testEntries())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := store.Acquire(result.SessionID); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer store.Release(result.SessionID)

	_, err = eng.Continue(context.Background(), result.SessionID)
	if !errors.Is(err, core.ErrSessionBusy) {
		t.Errorf("expected ErrSessionBusy, got %v", err)
	}
}

func TestEngineTranscript(t *testing.T) {
	eng, _ := setupEngine(&scriptedGenerator{})

	result, err := eng.Start(context.Background(), "Topic", testEntries())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	sess, messages, err := eng.Transcript(result.SessionID)
	if err != nil {
		t.Fatalf("Transcript failed: %v", err)
	}
	if sess.Topic != "Topic" {
		t.Errorf("topic = %q, want Topic", sess.Topic)
	}
	if len(messages) != 3 {
		t.Errorf("transcript length = %d, want 3", len(messages))
	}
}

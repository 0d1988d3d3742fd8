// Package session provides the in-memory store for live debate sessions.
//
// The store is the single source of truth for session existence: every
// other component operates on a session obtained (and locked) through it.
// Sessions live only in process memory; durability goes through the
// archiver, never through the store.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alienxp03/rostrum/internal/core"
)

// Summary is a lightweight representation for listing live sessions.
type Summary struct {
	ID           string             `json:"id"`
	Topic        string             `json:"topic"`
	Status       core.SessionStatus `json:"status"`
	Participants int                `json:"participants"`
	MessageCount int                `json:"message_count"`
	CreatedAt    time.Time          `json:"created_at"`
}

// Store holds live sessions keyed by an opaque, unguessable identifier.
// Access across different session ids never contends beyond the map lock;
// mutation of a single session is serialized by Acquire/Release.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
	inFlight map[string]bool
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*core.Session),
		inFlight: make(map[string]bool),
	}
}

// Create registers a new session for the given topic and roster and
// returns it. Identifiers are 128-bit random tokens.
func (s *Store) Create(topic string, roster []core.Participant) *core.Session {
	now := time.Now()
	sess := &core.Session{
		ID:        uuid.NewString(),
		Topic:     topic,
		Roster:    roster,
		Status:    core.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess
}

// Get returns the session for id, or ErrNotFound. Callers must not mutate
// the returned session without holding it via Acquire.
func (s *Store) Get(id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return sess, nil
}

// Acquire returns the session for id with exclusive orchestration rights.
// Exactly one in-flight operation (continue, stream, or save) is permitted
// per session; a concurrent attempt fails with ErrSessionBusy rather than
// queueing, because the turn cursor and message log are not safe for
// concurrent mutation.
func (s *Store) Acquire(id string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if s.inFlight[id] {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionBusy, id)
	}
	s.inFlight[id] = true
	return sess, nil
}

// Release gives up the exclusive hold on a session. Releasing an id that
// was deleted while held is a no-op.
func (s *Store) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

// Delete removes a session. Further operations on the id fail with
// ErrNotFound.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

// List returns summaries of all live sessions.
func (s *Store) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]Summary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		// Stats synchronizes with a streamed round appending to the log.
		status, count := sess.Stats()
		summaries = append(summaries, Summary{
			ID:           sess.ID,
			Topic:        sess.Topic,
			Status:       status,
			Participants: len(sess.Roster),
			MessageCount: count,
			CreatedAt:    sess.CreatedAt,
		})
	}
	return summaries
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

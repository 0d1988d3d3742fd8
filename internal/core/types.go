// Package core contains the core domain types for rostrum.
package core

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Role identifies what a participant does in the debate.
type Role string

const (
	RoleDebater   Role = "debater"
	RoleJudge     Role = "judge"
	RoleModerator Role = "moderator"
)

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	switch r {
	case RoleDebater, RoleJudge, RoleModerator:
		return true
	}
	return false
}

// SessionStatus represents the current status of a debate session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusStreaming SessionStatus = "streaming"
	StatusFinalized SessionStatus = "finalized"
)

// Participant is one scheduled speaker in a debate. Immutable once the
// session starts; the roster order defines the round-robin turn order.
type Participant struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Persona string `json:"persona"` // system instructions for the generator
}

// RosterEntry is the caller-facing participant configuration used when
// starting a session.
type RosterEntry struct {
	Name          string `json:"name"`
	Role          Role   `json:"role"`
	SystemMessage string `json:"system_message"`
}

// Entry is a single raw record in a session's append-only message log.
// Round numbers are never stored here; they are derived by segmentation.
type Entry struct {
	Index     int       `json:"index"`
	Speaker   string    `json:"speaker"` // Participant.ID
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Message is a caller-facing transcript entry with its derived round
// number and intra-round position populated.
type Message struct {
	Index     int       `json:"index"`
	Round     int       `json:"round"`
	Position  int       `json:"position"`
	Agent     string    `json:"agent"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one stateful, resumable debate. Mutation is serialized by
// the session store's Acquire/Release, but the log and status may be read
// by endpoints that do not acquire the session (list, transcript) while a
// streamed round is appending — those paths must go through Snapshot,
// Stats, or CurrentStatus, and writers through Append, SetStatus, and
// SetProgress, so both sides share the session mutex.
type Session struct {
	ID        string        `json:"id"`
	Topic     string        `json:"topic"`
	Roster    []Participant `json:"roster"`
	Log       []Entry       `json:"log"`
	Cursor    int           `json:"cursor"` // next roster offset = Cursor mod len(Roster)
	Budget    int           `json:"budget"` // turns granted so far
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	mu sync.RWMutex
}

// Append adds an utterance to the log and returns the committed entry.
// Indices are assigned sequentially so the log stays gapless.
func (s *Session) Append(speaker, text string) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{
		Index:     len(s.Log),
		Speaker:   speaker,
		Text:      text,
		Timestamp: time.Now(),
	}
	s.Log = append(s.Log, entry)
	s.UpdatedAt = entry.Timestamp
	return entry
}

// SetStatus updates the session status.
func (s *Session) SetStatus(status SessionStatus) {
	s.mu.Lock()
	s.Status = status
	s.mu.Unlock()
}

// CurrentStatus reads the session status.
func (s *Session) CurrentStatus() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// SetProgress records the scheduler's cursor and budget on the session.
func (s *Session) SetProgress(cursor, budget int) {
	s.mu.Lock()
	s.Cursor = cursor
	s.Budget = budget
	s.mu.Unlock()
}

// Snapshot returns a copy of the log together with the status, for
// readers that do not hold the session through the store.
func (s *Session) Snapshot() ([]Entry, SessionStatus) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := make([]Entry, len(s.Log))
	copy(log, s.Log)
	return log, s.Status
}

// Stats returns the status and message count without copying the log.
func (s *Session) Stats() (SessionStatus, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status, len(s.Log)
}

// ParticipantByID looks up a roster participant, ignoring case.
func (s *Session) ParticipantByID(id string) (Participant, bool) {
	for _, p := range s.Roster {
		if strings.EqualFold(p.ID, id) {
			return p, true
		}
	}
	return Participant{}, false
}

// Debaters returns the roster's debaters in turn order.
func (s *Session) Debaters() []Participant {
	var debaters []Participant
	for _, p := range s.Roster {
		if p.Role == RoleDebater {
			debaters = append(debaters, p)
		}
	}
	return debaters
}

// BuildRoster validates a caller-supplied participant configuration and
// produces the session roster. The moderator always speaks first; if the
// caller did not configure one, a default moderator is inserted. The judge
// must close the roster so that every full cycle through it ends a round.
func BuildRoster(entries []RosterEntry) ([]Participant, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no participants configured", ErrInvalidRoster)
	}

	var (
		roster    []Participant
		moderator *Participant
		debaters  int
		judges    int
		seen      = make(map[string]bool)
	)

	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: participant name cannot be empty", ErrInvalidRoster)
		}
		if !e.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q for %s", ErrInvalidRoster, e.Role, name)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate participant %s", ErrInvalidRoster, name)
		}
		seen[key] = true

		p := Participant{ID: name, Role: e.Role, Persona: e.SystemMessage}
		switch e.Role {
		case RoleDebater:
			debaters++
			roster = append(roster, p)
		case RoleJudge:
			judges++
			roster = append(roster, p)
		case RoleModerator:
			if moderator != nil {
				return nil, fmt.Errorf("%w: more than one moderator", ErrInvalidRoster)
			}
			m := p
			moderator = &m
		}
	}

	if debaters == 0 {
		return nil, fmt.Errorf("%w: at least one debater is required", ErrInvalidRoster)
	}
	if judges != 1 {
		return nil, fmt.Errorf("%w: exactly one judge is required, got %d", ErrInvalidRoster, judges)
	}
	if roster[len(roster)-1].Role != RoleJudge {
		return nil, fmt.Errorf("%w: the judge must be the final roster entry", ErrInvalidRoster)
	}

	if moderator == nil {
		moderator = &Participant{ID: "Moderator", Role: RoleModerator}
	}
	return append([]Participant{*moderator}, roster...), nil
}

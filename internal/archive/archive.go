// Package archive finalizes debate sessions into self-contained JSON
// records on disk. Archiving is the terminal operation: a successfully
// archived session is removed from the store, while a failed write keeps
// it so the save can be retried.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alienxp03/rostrum/internal/core"
	"github.com/alienxp03/rostrum/internal/session"
	"github.com/alienxp03/rostrum/internal/tally"
	"github.com/alienxp03/rostrum/internal/transcript"
)

// ErrWriteFailed marks a finalize attempt that could not persist the
// record. The session survives the failure.
var ErrWriteFailed = errors.New("archive write failed")

// Archiver writes finalized debates into a flat directory.
type Archiver struct {
	store *session.Store
	dir   string
}

// New creates an archiver writing into dir.
func New(store *session.Store, dir string) *Archiver {
	return &Archiver{store: store, dir: dir}
}

// Record is the on-disk shape of a finalized debate.
type Record struct {
	Metadata      Metadata              `json:"metadata"`
	Configuration []ParticipantSnapshot `json:"configuration"`
	Transcript    []core.Message        `json:"transcript"`
	Analysis      json.RawMessage       `json:"analysis,omitempty"`
}

// Metadata summarizes the debate outcome.
type Metadata struct {
	Topic       string         `json:"topic"`
	TotalRounds int            `json:"total_rounds"`
	Winner      string         `json:"winner"`
	FinalScores map[string]int `json:"final_scores"`
}

// ParticipantSnapshot captures one roster entry as configured.
type ParticipantSnapshot struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Persona string `json:"persona,omitempty"`
}

// Finalize archives the session and, on success, removes it from the
// store. It returns the written filename and the record. The optional
// analysis payload is embedded verbatim.
func (a *Archiver) Finalize(id string, analysis json.RawMessage) (string, *Record, error) {
	sess, err := a.store.Acquire(id)
	if err != nil {
		return "", nil, err
	}
	defer a.store.Release(id)

	log, _ := sess.Snapshot()
	messages := transcript.Segment(sess.Roster, log)
	result := tally.Count(sess.Roster, messages)

	record := &Record{
		Metadata: Metadata{
			Topic:       sess.Topic,
			TotalRounds: transcript.TotalRounds(messages),
			Winner:      result.Winner,
			FinalScores: result.Scores,
		},
		Configuration: snapshotRoster(sess.Roster),
		Transcript:    messages,
		Analysis:      analysis,
	}

	filename := Slug(sess.Topic) + ".json"
	path := filepath.Join(a.dir, filename)

	if err := a.write(path, record); err != nil {
		slog.Error("Archive write failed", "session", id, "path", path, "error", err)
		return "", nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	if err := a.store.Delete(id); err != nil {
		slog.Debug("Session already removed", "session", id, "error", err)
	}
	slog.Info("Debate archived", "session", id, "file", filename, "winner", result.Winner)
	return filename, record, nil
}

func (a *Archiver) write(path string, record *Record) error {
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Slug derives a filesystem-safe name from a topic: the first 30
// characters with every non-alphanumeric character replaced by an
// underscore.
func Slug(topic string) string {
	runes := []rune(topic)
	if len(runes) > 30 {
		runes = runes[:30]
	}
	out := make([]rune, len(runes))
	for i, r := range runes {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out[i] = r
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

func snapshotRoster(roster []core.Participant) []ParticipantSnapshot {
	snaps := make([]ParticipantSnapshot, 0, len(roster))
	for _, p := range roster {
		snaps = append(snaps, ParticipantSnapshot{Name: p.ID, Role: string(p.Role), Persona: p.Persona})
	}
	return snaps
}

// Load reads a previously written archive record back from disk.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parsing archive %s: %w", path, err)
	}
	return &record, nil
}

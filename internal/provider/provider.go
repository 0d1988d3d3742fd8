// Package provider contains the generation-service client used to produce
// participant utterances. The orchestrator treats generation as an opaque,
// fallible collaborator behind the Generator interface.
package provider

import (
	"context"
	"time"
)

// Message is one prior utterance handed to the generator as context.
type Message struct {
	Speaker string
	Content string
}

// Generator produces the next utterance for a participant given its
// persona and the conversation so far. Any failure aborts the current
// turn; the caller must not mutate its log past the last success.
type Generator interface {
	// Name returns the generator's identifier.
	Name() string

	// Generate returns the participant's next utterance.
	Generate(ctx context.Context, persona string, history []Message) (string, error)

	// Available checks whether the generator can be used at all.
	Available() bool
}

// Config holds the settings for constructing a generator.
type Config struct {
	Command    string
	Args       []string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// New builds a generator from config. The command "mock" selects the
// simulated generator used in tests and demos.
func New(cfg Config) Generator {
	if cfg.Command == "" || cfg.Command == "mock" {
		return NewMockGenerator()
	}
	return NewCLIGenerator(cfg)
}

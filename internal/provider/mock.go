package provider

import (
	"context"
	"fmt"
	"strings"
)

// MockGenerator produces simulated utterances for tests and demo runs. It
// is deterministic: the response depends only on the persona and how much
// history it has seen.
type MockGenerator struct{}

// NewMockGenerator creates a mock generator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Name returns the generator identifier.
func (g *MockGenerator) Name() string { return "mock" }

// Available always returns true for the mock generator.
func (g *MockGenerator) Available() bool { return true }

// Generate returns a canned utterance. Judge personas get a well-formed
// verdict naming the first debater-like speaker found in the history, so
// simulated debates still produce a meaningful tally.
func (g *MockGenerator) Generate(ctx context.Context, persona string, history []Message) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	if strings.Contains(strings.ToLower(persona), "judge") {
		if winner := lastNonModeratorSpeaker(history); winner != "" {
			return fmt.Sprintf("A close round. Round Winner: %s", winner), nil
		}
		return "No arguments were presented this round.", nil
	}

	return fmt.Sprintf("Simulated argument #%d: this position holds on the merits.", len(history)+1), nil
}

func lastNonModeratorSpeaker(history []Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		speaker := history[i].Speaker
		if !strings.EqualFold(speaker, "Moderator") && !strings.EqualFold(speaker, "Judge") {
			return speaker
		}
	}
	return ""
}

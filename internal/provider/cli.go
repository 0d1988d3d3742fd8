package provider

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// CLIGenerator shells out to a local AI CLI (claude, gemini, and friends)
// to produce utterances. One invocation per turn; the full conversation is
// folded into the prompt.
type CLIGenerator struct {
	command    string
	args       []string
	model      string
	timeout    time.Duration
	maxRetries int
}

// NewCLIGenerator creates a CLI-backed generator from config.
func NewCLIGenerator(cfg Config) *CLIGenerator {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	return &CLIGenerator{
		command:    cfg.Command,
		args:       cfg.Args,
		model:      cfg.Model,
		timeout:    timeout,
		maxRetries: cfg.MaxRetries,
	}
}

// Name returns the generator identifier.
func (g *CLIGenerator) Name() string { return g.command }

// Available checks if the CLI is installed.
func (g *CLIGenerator) Available() bool {
	_, err := exec.LookPath(g.command)
	return err == nil
}

// Generate builds the turn prompt and runs the CLI, retrying transient
// failures up to the configured limit.
func (g *CLIGenerator) Generate(ctx context.Context, persona string, history []Message) (string, error) {
	prompt := buildPrompt(persona, history)

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			slog.Debug("Retrying generation", "command", g.command, "attempt", attempt)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		response, err := g.execute(ctx, prompt)
		if err == nil {
			return response, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

// execute runs a single CLI invocation with the configured timeout.
func (g *CLIGenerator) execute(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	args := append([]string{}, g.args...)
	if g.model != "" {
		args = append(args, "--model", g.model)
	}
	args = append(args, prompt)

	cmd := exec.CommandContext(ctx, g.command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", &CLIError{Command: g.command, Message: "command timed out", Err: ctx.Err()}
		}
		if stderr.Len() > 0 {
			return "", &CLIError{Command: g.command, Message: strings.TrimSpace(stderr.String()), Err: err}
		}
		return "", &CLIError{Command: g.command, Message: "command failed", Err: err}
	}

	return strings.TrimSpace(stdout.String()), nil
}

// buildPrompt folds the persona and conversation history into one prompt.
func buildPrompt(persona string, history []Message) string {
	var sb strings.Builder
	if persona != "" {
		sb.WriteString(persona)
		sb.WriteString("\n\n")
	}

	if len(history) > 0 {
		sb.WriteString("The debate so far:\n")
		for _, msg := range history {
			sb.WriteString(fmt.Sprintf("\n--- %s ---\n%s\n", msg.Speaker, msg.Content))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("It is your turn to speak. Respond with your next utterance only.")
	return sb.String()
}

// Package analysis forwards debate transcripts to an external analysis
// service. The service's response is treated as opaque JSON and returned
// verbatim.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alienxp03/rostrum/internal/core"
)

// Analyzer produces an analysis document for a transcript.
type Analyzer interface {
	Analyze(ctx context.Context, messages []core.Message) (json.RawMessage, error)
}

// Client calls an HTTP analysis endpoint.
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient creates a client for the given endpoint. A zero timeout
// defaults to 30 seconds.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Analyze posts the transcript and returns the response body untouched.
func (c *Client) Analyze(ctx context.Context, messages []core.Message) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]any{"messages": messages})
	if err != nil {
		return nil, fmt.Errorf("encoding analysis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling analysis service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading analysis response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis service returned %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alienxp03/rostrum/internal/analysis"
	"github.com/alienxp03/rostrum/internal/archive"
	"github.com/alienxp03/rostrum/internal/core"
	"github.com/alienxp03/rostrum/internal/engine"
	"github.com/alienxp03/rostrum/internal/provider"
	"github.com/alienxp03/rostrum/internal/session"
)

func setupHandler(t *testing.T, analyzer analysis.Analyzer) (http.Handler, *session.Store, string) {
	t.Helper()
	store := session.NewStore()
	eng := engine.New(store, provider.NewMockGenerator())
	dir := t.TempDir()
	archiver := archive.New(store, dir)
	h := New(eng, archiver, analyzer, store)
	return h.Router(), store, dir
}

func startBody() *bytes.Buffer {
	body := map[string]any{
		"topic": "Is testing worthwhile?",
		"agents": []map[string]string{
			{"name": "Alice", "role": "debater", "system_message": "You are Alice, a debater."},
			{"name": "Bob", "role": "debater", "system_message": "You are Bob, a debater."},
			{"name": "Judge", "role": "judge", "system_message": "You are the judge."},
		},
	}
	data, _ := json.Marshal(body)
	return bytes.NewBuffer(data)
}

func startDebate(t *testing.T, router http.Handler) string {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/debates", startBody())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("start returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		SessionID string         `json:"session_id"`
		Messages  []core.Message `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding start response: %v", err)
	}
	if resp.SessionID == "" || len(resp.Messages) != 3 {
		t.Fatalf("unexpected start response: %s", rec.Body.String())
	}
	return resp.SessionID
}

func TestStartDebate(t *testing.T) {
	router, store, _ := setupHandler(t, nil)

	id := startDebate(t, router)
	if _, err := store.Get(id); err != nil {
		t.Errorf("session missing after start: %v", err)
	}

	t.Run("invalid roster", func(t *testing.T) {
		body := bytes.NewBufferString(`{"topic":"T","agents":[{"name":"Solo","role":"debater"}]}`)
		req := httptest.NewRequest("POST", "/api/debates", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/debates", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestContinueDebate(t *testing.T) {
	router, _, _ := setupHandler(t, nil)
	id := startDebate(t, router)

	req := httptest.NewRequest("POST", fmt.Sprintf("/api/debates/%s/continue", id), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("continue returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Messages []core.Message `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding continue response: %v", err)
	}
	if len(resp.Messages) != 3 {
		t.Fatalf("expected 3 new messages, got %d", len(resp.Messages))
	}
	for _, msg := range resp.Messages {
		if msg.Round != 2 {
			t.Errorf("message round = %d, want 2", msg.Round)
		}
	}

	t.Run("unknown session", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/debates/nope/continue", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestGetAndListDebates(t *testing.T) {
	router, _, _ := setupHandler(t, nil)
	id := startDebate(t, router)

	t.Run("get", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/debates/"+id, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("get returned %d", rec.Code)
		}
		var resp struct {
			Topic    string         `json:"topic"`
			Messages []core.Message `json:"messages"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Topic != "Is testing worthwhile?" || len(resp.Messages) != 3 {
			t.Errorf("unexpected response: %s", rec.Body.String())
		}
	})

	t.Run("list", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/debates", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("list returned %d", rec.Code)
		}
		var resp struct {
			Debates []session.Summary `json:"debates"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if len(resp.Debates) != 1 {
			t.Errorf("expected 1 debate, got %d", len(resp.Debates))
		}
	})
}

func TestStreamDebate(t *testing.T) {
	router, _, _ := setupHandler(t, nil)
	id := startDebate(t, router)

	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/debates/" + id + "/stream")
	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream returned %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q, want text/event-stream", ct)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading stream: %v", err)
	}

	var frames []engine.Frame
	for _, line := range strings.Split(string(body), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame engine.Frame
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			t.Fatalf("decoding frame %q: %v", line, err)
		}
		frames = append(frames, frame)
	}

	if len(frames) != 5 {
		t.Fatalf("expected 5 frames, got %d: %+v", len(frames), frames)
	}
	if frames[0].Status != "started" || frames[len(frames)-1].Status != "completed" {
		t.Errorf("frames not bracketed by started/completed: %+v", frames)
	}

	t.Run("unknown session", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/debates/nope/stream")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})
}

func TestAnalyzeDebate(t *testing.T) {
	t.Run("pass-through", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Messages []core.Message `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("backend got bad payload: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"summary":"analyzed %d messages"}`, len(req.Messages))
		}))
		defer backend.Close()

		router, _, _ := setupHandler(t, analysis.NewClient(backend.URL, 0))

		body := bytes.NewBufferString(`{"messages":[{"round":1,"agent":"Alice","role":"debater","content":"hi"}]}`)
		req := httptest.NewRequest("POST", "/api/analyze", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("analyze returned %d: %s", rec.Code, rec.Body.String())
		}
		if got := rec.Body.String(); got != `{"summary":"analyzed 1 messages"}` {
			t.Errorf("response not relayed verbatim: %s", got)
		}
	})

	t.Run("backend failure", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusInternalServerError)
		}))
		defer backend.Close()

		router, _, _ := setupHandler(t, analysis.NewClient(backend.URL, 0))

		req := httptest.NewRequest("POST", "/api/analyze", bytes.NewBufferString(`{"messages":[]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", rec.Code)
		}
	})

	t.Run("not configured", func(t *testing.T) {
		router, _, _ := setupHandler(t, nil)

		req := httptest.NewRequest("POST", "/api/analyze", bytes.NewBufferString(`{"messages":[]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}

func TestSaveDebate(t *testing.T) {
	router, store, dir := setupHandler(t, nil)
	id := startDebate(t, router)

	req := httptest.NewRequest("POST", fmt.Sprintf("/api/debates/%s/save", id), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("save returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		File string `json:"file"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, resp.File)); err != nil {
		t.Errorf("archive file missing: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("store has %d sessions after save, want 0", store.Len())
	}

	t.Run("save is one-shot", func(t *testing.T) {
		req := httptest.NewRequest("POST", fmt.Sprintf("/api/debates/%s/save", id), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("second save status = %d, want 404", rec.Code)
		}
	})
}

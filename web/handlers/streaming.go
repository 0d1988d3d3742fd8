package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleStreamDebate runs one round and streams each utterance as a
// server-sent event. Closing the connection cancels the round
// cooperatively; the session stays resumable.
func (h *Handler) handleStreamDebate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	slog.Debug("New debate stream connection", "id", id, "remote_addr", r.RemoteAddr)

	flusher, ok := w.(http.Flusher)
	if !ok {
		slog.Error("Streaming unsupported: ResponseWriter does not implement http.Flusher")
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	frames, err := h.engine.Stream(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for frame := range frames {
		data, err := json.Marshal(frame)
		if err != nil {
			slog.Error("Failed to marshal SSE frame", "error", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			slog.Debug("Stream client gone", "id", id, "error", err)
			// Keep draining; the producer stops on its own once the
			// request context is cancelled.
			continue
		}
		flusher.Flush()
	}
}

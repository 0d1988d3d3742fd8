// Package handlers provides the HTTP API for debate sessions.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alienxp03/rostrum/internal/analysis"
	"github.com/alienxp03/rostrum/internal/archive"
	"github.com/alienxp03/rostrum/internal/core"
	"github.com/alienxp03/rostrum/internal/engine"
	"github.com/alienxp03/rostrum/internal/session"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine   *engine.Engine
	archiver *archive.Archiver
	analyzer analysis.Analyzer
	store    *session.Store
}

// New creates a new Handler. analyzer may be nil when no analysis
// service is configured.
func New(eng *engine.Engine, archiver *archive.Archiver, analyzer analysis.Analyzer, store *session.Store) *Handler {
	return &Handler{
		engine:   eng,
		archiver: archiver,
		analyzer: analyzer,
		store:    store,
	}
}

// Router builds the chi router with all API routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/debates", h.handleListDebates)
		r.Post("/debates", h.handleStartDebate)
		r.Get("/debates/{id}", h.handleGetDebate)
		r.Post("/debates/{id}/continue", h.handleContinueDebate)
		r.Get("/debates/{id}/stream", h.handleStreamDebate)
		r.Post("/debates/{id}/save", h.handleSaveDebate)
		r.Post("/analyze", h.handleAnalyzeDebate)
	})

	return r
}

type startRequest struct {
	Topic  string             `json:"topic"`
	Agents []core.RosterEntry `json:"agents"`
}

type startResponse struct {
	SessionID string         `json:"session_id"`
	Messages  []core.Message `json:"messages"`
}

func (h *Handler) handleStartDebate(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.engine.Start(r.Context(), req.Topic, req.Agents)
	if err != nil {
		// A generation failure after the session exists is reported with
		// the id so the client can resume.
		var genErr *core.GenerationError
		if errors.As(err, &genErr) && result != nil {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"session_id": result.SessionID,
				"messages":   result.Messages,
				"error":      genErr.Error(),
			})
			return
		}
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, startResponse{SessionID: result.SessionID, Messages: result.Messages})
}

func (h *Handler) handleContinueDebate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	messages, err := h.engine.Continue(r.Context(), id)
	if err != nil {
		var genErr *core.GenerationError
		if errors.As(err, &genErr) {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"session_id": id,
				"messages":   messages,
				"error":      genErr.Error(),
			})
			return
		}
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "messages": messages})
}

func (h *Handler) handleGetDebate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, messages, err := h.engine.Transcript(id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"topic":      sess.Topic,
		"status":     sess.CurrentStatus(),
		"messages":   messages,
	})
}

func (h *Handler) handleListDebates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"debates": h.store.List()})
}

type analyzeRequest struct {
	Messages []core.Message `json:"messages"`
}

// handleAnalyzeDebate forwards a transcript to the analysis service and
// relays its response verbatim.
func (h *Handler) handleAnalyzeDebate(w http.ResponseWriter, r *http.Request) {
	if h.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "analysis service not configured")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), req.Messages)
	if err != nil {
		slog.Error("Analysis failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(result)
}

type saveRequest struct {
	Analysis json.RawMessage `json:"analysis,omitempty"`
}

func (h *Handler) handleSaveDebate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req saveRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	filename, record, err := h.archiver.Finalize(id, req.Analysis)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"file":     filename,
		"metadata": record.Metadata,
	})
}

// writeDomainError maps domain errors onto HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var genErr *core.GenerationError
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidRoster):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrSessionBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &genErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Package admin exposes the suggestion workflow and direct extraction as a
// thin JSON API for server-to-server use.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"foodmap-video-importer/internal/models"
	"foodmap-video-importer/internal/orchestrator"
	errs "foodmap-video-importer/pkg/errors"
	"foodmap-video-importer/pkg/logging"
)

// SuggestionService is the workflow slice the handlers drive.
type SuggestionService interface {
	Submit(ctx context.Context, sourceURL, submitterName string) (*models.Suggestion, error)
	Approve(ctx context.Context, id string) (*models.Suggestion, error)
	Reject(ctx context.Context, id string) (*models.Suggestion, error)
	Reprocess(ctx context.Context, id string) (*models.Suggestion, error)
	Get(ctx context.Context, id string) (*models.Suggestion, error)
	List(ctx context.Context, limit int) ([]models.Suggestion, error)
}

// Extractor runs the pipeline directly, bypassing the suggestion workflow.
type Extractor interface {
	Extract(ctx context.Context, sourceURL, creatorName string, opts orchestrator.Options) (*models.ExtractionResult, error)
	GetStats() orchestrator.Stats
}

// Pinger reports primary-store reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	suggestions SuggestionService
	extractor   Extractor
	db          Pinger
	log         *logging.Logger
}

func NewHandler(suggestions SuggestionService, ext Extractor, db Pinger, log *logging.Logger) *Handler {
	return &Handler{suggestions: suggestions, extractor: ext, db: db, log: log.WithComponent("admin")}
}

// Register mounts all routes on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/extract", h.extract).Methods(http.MethodPost)
	api.HandleFunc("/stats", h.stats).Methods(http.MethodGet)
	api.HandleFunc("/suggestions", h.submit).Methods(http.MethodPost)
	api.HandleFunc("/suggestions", h.list).Methods(http.MethodGet)
	api.HandleFunc("/suggestions/{id}", h.get).Methods(http.MethodGet)
	api.HandleFunc("/suggestions/{id}/approve", h.approve).Methods(http.MethodPost)
	api.HandleFunc("/suggestions/{id}/reject", h.reject).Methods(http.MethodPost)
	api.HandleFunc("/suggestions/{id}/reprocess", h.reprocess).Methods(http.MethodPost)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.respondError(w, errs.NewDB("admin.health", "database unreachable", err))
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type extractRequest struct {
	SourceURL   string `json:"source_url"`
	CreatorName string `json:"creator_name"`
	Preview     bool   `json:"preview"`
}

func (h *Handler) extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, errs.NewInput("admin.extract", "invalid request body", err))
		return
	}
	result, err := h.extractor.Extract(r.Context(), req.SourceURL, req.CreatorName, orchestrator.Options{Preview: req.Preview})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.extractor.GetStats())
}

type submitRequest struct {
	SourceURL     string `json:"source_url"`
	SubmitterName string `json:"submitter_name"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, errs.NewInput("admin.submit", "invalid request body", err))
		return
	}
	sug, err := h.suggestions.Submit(r.Context(), req.SourceURL, req.SubmitterName)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, sug)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := h.suggestions.List(r.Context(), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if out == nil {
		out = []models.Suggestion{}
	}
	h.respondJSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sug, err := h.suggestions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err)
		return
	}
	if sug == nil {
		h.respondJSON(w, http.StatusNotFound, map[string]string{"error": "suggestion not found"})
		return
	}
	h.respondJSON(w, http.StatusOK, sug)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.suggestions.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.suggestions.Reject)
}

func (h *Handler) reprocess(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.suggestions.Reprocess)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) (*models.Suggestion, error)) {
	sug, err := fn(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, sug)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("response encoding failed", logging.Err(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.Is(err, errs.ErrInput):
		status = http.StatusBadRequest
	case errs.Is(err, errs.ErrRateLimit):
		status = http.StatusTooManyRequests
	case errs.Is(err, errs.ErrExternal):
		status = http.StatusBadGateway
	case errs.Is(err, errs.ErrDB):
		status = http.StatusServiceUnavailable
	}
	h.log.Warn("request failed", logging.Int("status", status), logging.Err(err))
	h.respondJSON(w, status, map[string]string{"error": err.Error()})
}

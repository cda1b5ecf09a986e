package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fortuna/nbaquant/internal/export"
	"github.com/fortuna/nbaquant/internal/pbp"
)

// HealthChecker is satisfied by store.Database.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StatusReporter is satisfied by scheduler.Orchestrator.
type StatusReporter interface {
	GetStatus() map[string]interface{}
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	rawPath   string
	db        HealthChecker
	scheduler StatusReporter
}

// NewHandler creates a new handler. db may be nil when no database sink is
// configured.
func NewHandler(rawPath string, db HealthChecker) *Handler {
	return &Handler{rawPath: rawPath, db: db}
}

// WithScheduler adds the refresh scheduler's status to /health.
func (h *Handler) WithScheduler(s StatusReporter) *Handler {
	h.scheduler = s
	return h
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "healthy",
		"service": "nbaquant",
	}
	if h.scheduler != nil {
		status["scheduler"] = h.scheduler.GetStatus()
	}

	if h.db != nil {
		if err := h.db.HealthCheck(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			respondJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}

	respondJSON(w, http.StatusOK, status)
}

// GetRebounds returns the rows derived from the saved raw file.
func (h *Handler) GetRebounds(w http.ResponseWriter, r *http.Request) {
	env, err := export.ReadEnvelope(h.rawPath)
	if errors.Is(err, fs.ErrNotExist) {
		respondError(w, http.StatusNotFound, "No stats file has been fetched yet", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read stats file", err)
		return
	}

	rows := export.Rows(env)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"raw_path": h.rawPath,
		"count":    len(rows),
		"rows":     rows,
	})
}

// GetReboundsSpreadsheet renders the same rows as GetRebounds as an xlsx
// download without touching the exported file.
func (h *Handler) GetReboundsSpreadsheet(w http.ResponseWriter, r *http.Request) {
	env, err := export.ReadEnvelope(h.rawPath)
	if errors.Is(err, fs.ErrNotExist) {
		respondError(w, http.StatusNotFound, "No stats file has been fetched yet", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read stats file", err)
		return
	}

	var buf bytes.Buffer
	if err := export.NewXLSXWriter("").Stream(r.Context(), &buf, export.Rows(env)); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to render spreadsheet", err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="rebounds.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

type actionPayload struct {
	Type     pbp.ActionType `json:"type"`
	SubTypes []string       `json:"sub_types"`
}

// GetActions returns the full play-by-play taxonomy.
func (h *Handler) GetActions(w http.ResponseWriter, r *http.Request) {
	types := pbp.ActionTypes()
	payload := make([]actionPayload, len(types))
	for i, a := range types {
		payload[i] = actionPayload{Type: a, SubTypes: nonNil(pbp.SubTypes(a))}
	}
	respondJSON(w, http.StatusOK, payload)
}

// GetActionSubTypes returns the subtypes of one action type. With ?sub_type=
// it classifies that pair instead.
func (h *Handler) GetActionSubTypes(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["type"]
	a, err := pbp.ParseActionType(raw)
	if err != nil {
		respondError(w, http.StatusNotFound, "Unknown action type", err)
		return
	}

	if r.URL.Query().Has("sub_type") {
		action, err := pbp.Classify(raw, r.URL.Query().Get("sub_type"))
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "Unknown subtype", err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"action":          action,
			"coach_challenge": action.IsCoachChallenge(),
		})
		return
	}

	respondJSON(w, http.StatusOK, actionPayload{Type: a, SubTypes: nonNil(pbp.SubTypes(a))})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

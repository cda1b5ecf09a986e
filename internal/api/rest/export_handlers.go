package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fortuna/nbaquant/internal/export"
	"github.com/fortuna/nbaquant/internal/ingest/balldontlie"
	"github.com/fortuna/nbaquant/internal/pipeline"
	"github.com/fortuna/nbaquant/internal/store"
	"github.com/fortuna/nbaquant/internal/store/repository"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, spec pipeline.Spec, reporter pipeline.Reporter) (*pipeline.Result, error)
}

// Broadcaster pushes finished runs to live subscribers.
type Broadcaster interface {
	Broadcast(data []byte)
}

// RunStore reads export runs back from the database sink.
type RunStore interface {
	LatestRun(ctx context.Context) (*store.ExportRun, error)
	GetRunRows(ctx context.Context, runID int64) ([]export.Row, error)
}

// ExportHandler starts pipeline runs and serves their output.
type ExportHandler struct {
	runner       Runner
	query        balldontlie.StatsQuery
	spreadsheet  string
	broadcasters []Broadcaster
	runs         RunStore
	logger       *zap.Logger
}

// NewExportHandler wires the REST layer to the pipeline. query is used for
// every field a request leaves empty.
func NewExportHandler(runner Runner, query balldontlie.StatsQuery, spreadsheet string, logger *zap.Logger, broadcasters ...Broadcaster) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{
		runner:       runner,
		query:        query,
		spreadsheet:  spreadsheet,
		broadcasters: broadcasters,
		logger:       logger,
	}
}

type apiExportRequest struct {
	Seasons   []int `json:"seasons"`
	PlayerIDs []int `json:"player_ids"`
	PerPage   int   `json:"per_page"`
	SkipFetch bool  `json:"skip_fetch"`
	DryRun    bool  `json:"dry_run"`
}

// HandleExportRequest handles POST /api/v1/exports
func (h *ExportHandler) HandleExportRequest(w http.ResponseWriter, r *http.Request) {
	var req apiExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	spec, err := h.specFor(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid export request", err)
		return
	}

	result, err := h.runner.Run(r.Context(), spec, pipeline.LogReporter{Logger: h.logger})
	if err != nil {
		var statusErr *balldontlie.StatusError
		if errors.As(err, &statusErr) {
			respondError(w, http.StatusBadGateway, "Stats API rejected the request", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "Export failed", err)
		return
	}

	h.Publish(result)
	respondJSON(w, http.StatusCreated, result)
}

// Publish sends result to every broadcaster.
func (h *ExportHandler) Publish(result *pipeline.Result) {
	if len(h.broadcasters) == 0 {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		h.logger.Warn("encoding export result", zap.Error(err))
		return
	}
	for _, b := range h.broadcasters {
		b.Broadcast(data)
	}
}

func (h *ExportHandler) specFor(req apiExportRequest) (pipeline.Spec, error) {
	q := balldontlie.StatsQuery{
		Seasons:   append([]int{}, h.query.Seasons...),
		PerPage:   h.query.PerPage,
		PlayerIDs: append([]int{}, h.query.PlayerIDs...),
	}
	if len(req.Seasons) > 0 {
		q.Seasons = req.Seasons
	}
	if len(req.PlayerIDs) > 0 {
		q.PlayerIDs = req.PlayerIDs
	}
	if req.PerPage != 0 {
		if req.PerPage < 1 || req.PerPage > 100 {
			return pipeline.Spec{}, fmt.Errorf("per_page must be between 1 and 100, got %d", req.PerPage)
		}
		q.PerPage = req.PerPage
	}
	return pipeline.Spec{Query: q, SkipFetch: req.SkipFetch, DryRun: req.DryRun}, nil
}

// WithRunStore enables GET /api/v1/exports/latest.
func (h *ExportHandler) WithRunStore(runs RunStore) *ExportHandler {
	h.runs = runs
	return h
}

// HandleLatestRun handles GET /api/v1/exports/latest
func (h *ExportHandler) HandleLatestRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusNotFound, "Database sink is not configured", nil)
		return
	}

	run, err := h.runs.LatestRun(r.Context())
	if errors.Is(err, repository.ErrNoRuns) {
		respondError(w, http.StatusNotFound, "No export runs stored", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load latest run", err)
		return
	}

	rows, err := h.runs.GetRunRows(r.Context(), run.RunID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load run rows", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run":  run,
		"rows": rows,
	})
}

// HandleLatestSpreadsheet handles GET /api/v1/exports/latest.xlsx
func (h *ExportHandler) HandleLatestSpreadsheet(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(h.spreadsheet)
	if errors.Is(err, os.ErrNotExist) {
		respondError(w, http.StatusNotFound, "No spreadsheet has been exported yet", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to open spreadsheet", err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to stat spreadsheet", err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(h.spreadsheet)))
	http.ServeContent(w, r, filepath.Base(h.spreadsheet), info.ModTime(), f)
}

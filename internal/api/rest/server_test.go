package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/fortuna/nbaquant/internal/export"
	"github.com/fortuna/nbaquant/internal/ingest/balldontlie"
	"github.com/fortuna/nbaquant/internal/pipeline"
	"github.com/fortuna/nbaquant/internal/store"
	"github.com/fortuna/nbaquant/internal/store/repository"
)

type fakeRunner struct {
	specs  []pipeline.Spec
	result *pipeline.Result
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, spec pipeline.Spec, reporter pipeline.Reporter) (*pipeline.Result, error) {
	f.specs = append(f.specs, spec)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	messages [][]byte
}

func (b *fakeBroadcaster) Broadcast(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, data)
}

type fakeDB struct{ err error }

func (f fakeDB) HealthCheck(context.Context) error { return f.err }

type fixture struct {
	router      http.Handler
	runner      *fakeRunner
	broadcaster *fakeBroadcaster
	rawPath     string
	xlsxPath    string
}

func newFixture(t *testing.T, db HealthChecker) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		runner: &fakeRunner{result: &pipeline.Result{
			Rows:  []export.Row{{GameID: 2, Rebounds: 7}},
			Sinks: []string{"xlsx:giannis_rebounds.xlsx"},
		}},
		broadcaster: &fakeBroadcaster{},
		rawPath:     filepath.Join(dir, "file.json"),
		xlsxPath:    filepath.Join(dir, "giannis_rebounds.xlsx"),
	}
	handler := NewHandler(f.rawPath, db)
	exports := NewExportHandler(f.runner, balldontlie.DefaultStatsQuery(), f.xlsxPath, nil, f.broadcaster)
	f.router = NewRouter(handler, exports, nil)
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.JSONEq(t, `{"status":"healthy","service":"nbaquant"}`, rec.Body.String())
}

type staticStatus map[string]interface{}

func (s staticStatus) GetStatus() map[string]interface{} { return s }

func TestHealthCheckSchedulerStatus(t *testing.T) {
	handler := NewHandler("", nil).WithScheduler(staticStatus{"refresh_enabled": true})
	rec := httptest.NewRecorder()
	handler.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"healthy","service":"nbaquant","scheduler":{"refresh_enabled":true}}`, rec.Body.String())
}

func TestHealthCheckDatabaseDown(t *testing.T) {
	f := newFixture(t, fakeDB{err: errors.New("connection refused")})
	rec := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "connection refused")
}

func TestGetRebounds(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/v1/rebounds", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, os.WriteFile(f.rawPath, []byte(`{"data":[
		{"min":"00","reb":3,"game":{"id":1}},
		{"min":"34","reb":7,"game":{"id":2}}
	]}`), 0o644))

	rec = f.do(http.MethodGet, "/api/v1/rebounds", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int          `json:"count"`
		Rows  []export.Row `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	require.Equal(t, []export.Row{{GameID: 2, Rebounds: 7}}, body.Rows)
}

func TestGetReboundsSpreadsheet(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/v1/rebounds.xlsx", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, os.WriteFile(f.rawPath, []byte(`{"data":[{"min":"34","reb":7,"game":{"id":2}}]}`), 0o644))

	rec = f.do(http.MethodGet, "/api/v1/rebounds.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))

	wb, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(export.DefaultSheet)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"game_id", "rebounds"}, {"2", "7"}}, rows)
	require.NoFileExists(t, f.xlsxPath)
}

func TestGetReboundsMalformedFile(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, os.WriteFile(f.rawPath, []byte("not json"), 0o644))

	rec := f.do(http.MethodGet, "/api/v1/rebounds", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetActions(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodGet, "/api/v1/actions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []actionPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 13)
	require.Equal(t, "Period", string(body[0].Type))
}

func TestGetActionSubTypes(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/v1/actions/Substitution", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"type":"Substitution","sub_types":[]}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/v1/actions/instant%20reply", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"Instant Replay"`)

	rec = f.do(http.MethodGet, "/api/v1/actions/dunk", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClassifyAction(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/v1/actions/Timeout?sub_type=coach%20challenge", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"action":{"type":"Timeout","sub_type":"Coach Challenge"},"coach_challenge":true}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/v1/actions/Timeout?sub_type=", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"action":{"type":"Timeout"},"coach_challenge":false}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/v1/actions/Timeout?sub_type=dunk", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateExport(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodPost, "/api/v1/exports", `{"seasons":[2022],"dry_run":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, f.runner.specs, 1)
	spec := f.runner.specs[0]
	require.Equal(t, []int{2022}, spec.Query.Seasons)
	require.Equal(t, []int{95}, spec.Query.PlayerIDs)
	require.Equal(t, 100, spec.Query.PerPage)
	require.True(t, spec.DryRun)

	require.Len(t, f.broadcaster.messages, 1)
	require.JSONEq(t, rec.Body.String(), string(f.broadcaster.messages[0]))
}

func TestCreateExportEmptyBody(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodPost, "/api/v1/exports", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, balldontlie.DefaultStatsQuery(), f.runner.specs[0].Query)
}

func TestCreateExportValidation(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPost, "/api/v1/exports", `{"per_page":500}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/exports", `{`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, f.runner.specs)
}

func TestCreateExportUpstreamError(t *testing.T) {
	f := newFixture(t, nil)
	f.runner.err = &balldontlie.StatusError{Code: 401}

	rec := f.do(http.MethodPost, "/api/v1/exports", `{}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Empty(t, f.broadcaster.messages)

	f.runner.err = errors.New("disk full")
	rec = f.do(http.MethodPost, "/api/v1/exports", `{}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLatestSpreadsheet(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/v1/exports/latest.xlsx", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, export.NewXLSXWriter(f.xlsxPath).Write(context.Background(), []export.Row{{GameID: 2, Rebounds: 7}}))

	rec = f.do(http.MethodGet, "/api/v1/exports/latest.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "giannis_rebounds.xlsx")
	require.NotZero(t, rec.Body.Len())
}

type fakeRunStore struct {
	run *store.ExportRun
	err error
}

func (f *fakeRunStore) LatestRun(context.Context) (*store.ExportRun, error) {
	return f.run, f.err
}

func (f *fakeRunStore) GetRunRows(_ context.Context, runID int64) ([]export.Row, error) {
	return []export.Row{{GameID: runID, Rebounds: 7}}, nil
}

func TestLatestRun(t *testing.T) {
	runner := &fakeRunner{}
	handler := NewHandler(filepath.Join(t.TempDir(), "file.json"), nil)

	exports := NewExportHandler(runner, balldontlie.DefaultStatsQuery(), "", nil)
	router := NewRouter(handler, exports, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/exports/latest", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	runs := &fakeRunStore{err: repository.ErrNoRuns}
	exports.WithRunStore(runs)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/exports/latest", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	runs.err = nil
	runs.run = &store.ExportRun{RunID: 2, RowCount: 1}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/exports/latest", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Run  store.ExportRun `json:"run"`
		Rows []export.Row    `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(2), body.Run.RunID)
	require.Equal(t, []export.Row{{GameID: 2, Rebounds: 7}}, body.Rows)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodOptions, "/api/v1/exports", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, f.runner.specs)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

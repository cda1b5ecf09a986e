package balldontlie

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleBody = `{"data":[{"id":1,"min":"00","reb":3,"game":{"id":1}},{"id":2,"min":"24","reb":7,"game":{"id":2}}],"meta":{"next_cursor":null,"per_page":100}}`

func TestStatsURL(t *testing.T) {
	c := New("https://api.balldontlie.io/v1/", "key")

	require.Equal(t,
		"https://api.balldontlie.io/v1/stats?seasons[]=2023&per_page=100&player_ids[]=95",
		c.StatsURL(DefaultStatsQuery()),
	)
	require.Equal(t, "https://api.balldontlie.io/v1/stats", c.StatsURL(StatsQuery{}))
	require.Equal(t,
		"https://api.balldontlie.io/v1/stats?seasons[]=2022&seasons[]=2023&player_ids[]=1&player_ids[]=2",
		c.StatsURL(StatsQuery{Seasons: []int{2022, 2023}, PlayerIDs: []int{1, 2}}),
	)
}

func TestNewDefaultsBaseURL(t *testing.T) {
	c := New("", "")
	require.Equal(t, BaseURL+"/stats", c.StatsURL(StatsQuery{}))
}

func TestFetchStats(t *testing.T) {
	var gotAuth, gotPath string
	var gotQuery map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-key", WithTimeout(5*time.Second))
	body, err := c.FetchStats(context.Background(), DefaultStatsQuery())
	require.NoError(t, err)
	require.JSONEq(t, sampleBody, string(body))

	require.Equal(t, "secret-key", gotAuth)
	require.Equal(t, "/stats", gotPath)
	require.Equal(t, []string{"2023"}, gotQuery["seasons[]"])
	require.Equal(t, []string{"100"}, gotQuery["per_page"])
	require.Equal(t, []string{"95"}, gotQuery["player_ids[]"])
}

func TestFetchStatsNonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Unauthorized"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "bad")
	_, err := c.FetchStats(context.Background(), DefaultStatsQuery())
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusUnauthorized, statusErr.Code)
	require.Contains(t, statusErr.Body, "Unauthorized")
}

func TestFetchStatsCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL, "k").FetchStats(ctx, DefaultStatsQuery())
	require.Error(t, err)
}

func TestFetchEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	env, err := New(srv.URL, "k").FetchEnvelope(context.Background(), DefaultStatsQuery())
	require.NoError(t, err)
	require.Len(t, env.Data, 2)
	require.True(t, env.Data[0].DidNotPlay())
	require.False(t, env.Data[1].DidNotPlay())
	require.Equal(t, int64(2), env.Data[1].Game.ID)
	require.Equal(t, 7, env.Data[1].Reb)
	require.JSONEq(t, `{"next_cursor":null,"per_page":100}`, string(env.Meta))
}

func TestFetchEnvelopeMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "k").FetchEnvelope(context.Background(), DefaultStatsQuery())
	require.Error(t, err)
}

func TestSave(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "nested", "file.json")
	require.NoError(t, Save(path, []byte(`{"data":[],"meta":{}}`)))
	out, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "{\n    \"data\": [],\n    \"meta\": {}\n}", string(out))

	raw := filepath.Join(dir, "raw.txt")
	require.NoError(t, Save(raw, []byte("not json")))
	out, err = os.ReadFile(raw)
	require.NoError(t, err)
	require.Equal(t, "not json", string(out))
}

func TestFetchStatsRateLimited(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c := New(srv.URL, "key", WithRateLimit(1, 1))
	_, err := c.FetchStats(context.Background(), DefaultStatsQuery())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.FetchStats(ctx, DefaultStatsQuery())
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fortuna/nbaquant/internal/ingest/balldontlie"
)

func noEnv(string) string { return "" }

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("", noEnv)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, balldontlie.DefaultStatsQuery(), cfg.StatsQuery())
	require.Equal(t, "file.json", cfg.Files.Raw)
	require.Equal(t, "giannis_rebounds.xlsx", cfg.Files.Spreadsheet)
	require.Equal(t, 15*time.Second, cfg.Timeout())
	require.Zero(t, cfg.RefreshInterval())
}

func TestLoadMissingDefaultFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	cfg, err := load(DefaultFile, noEnv)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "custom.toml"), noEnv)
	require.Error(t, err)
}

func TestLoadFileMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nbaquant.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[query]
seasons = [2022, 2023]
player_ids = [237]

[files]
spreadsheet = "lebron_rebounds.xlsx"

[redis]
url = "redis://localhost:6379"
`), 0o644))

	cfg, err := load(path, noEnv)
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, []int{2022, 2023}, cfg.Query.Seasons)
	require.Equal(t, []int{237}, cfg.Query.PlayerIDs)
	require.Equal(t, 100, cfg.Query.PerPage)
	require.Equal(t, "lebron_rebounds.xlsx", cfg.Files.Spreadsheet)
	require.Equal(t, "file.json", cfg.Files.Raw)
	require.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
	require.Empty(t, cfg.Database.DSN)
	require.Equal(t, balldontlie.BaseURL, cfg.API.BaseURL)
}

func TestLoadEnvOverrides(t *testing.T) {
	env := map[string]string{
		"BALLDONTLIE_API_KEY": "from-env",
		"NBAQUANT_DSN":        "postgres://localhost/nbaquant?sslmode=disable",
		"NBAQUANT_PORT":       "9090",
	}

	cfg, err := load("", func(key string) string { return env[key] })
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.API.Key)
	require.Equal(t, "postgres://localhost/nbaquant?sslmode=disable", cfg.Database.DSN)
	require.Equal(t, "9090", cfg.Server.RESTPort)
	require.Equal(t, "8081", cfg.Server.WSPort)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Query.PerPage = 101
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Server.RefreshMinutes = -1
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.API.RequestsPerMinute = -5
	require.Error(t, cfg.Validate())
}

func TestStatsQueryIsCopy(t *testing.T) {
	cfg := Default()
	q := cfg.StatsQuery()
	q.Seasons[0] = 1999
	require.Equal(t, 2023, cfg.Query.Seasons[0])
}

package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fortuna/nbaquant/internal/ingest/balldontlie"
)

const (
	DefaultInputPath  = "file.json"
	DefaultOutputPath = "giannis_rebounds.xlsx"
)

// Header is the first spreadsheet row.
var Header = []string{"game_id", "rebounds"}

// Row is one exported (game, rebounds) pair.
type Row struct {
	GameID   int64 `json:"game_id"`
	Rebounds int   `json:"rebounds"`
}

// Sink receives the derived rows.
type Sink interface {
	Name() string
	Write(ctx context.Context, rows []Row) error
}

// ReadEnvelope loads a saved stats response from disk.
func ReadEnvelope(path string) (*balldontlie.Envelope, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	env, err := DecodeEnvelope(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return env, nil
}

// DecodeEnvelope parses a stats response.
func DecodeEnvelope(r io.Reader) (*balldontlie.Envelope, error) {
	var env balldontlie.Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}
	return &env, nil
}

// FilterPlayed drops zero-minute entries, keeping source order.
func FilterPlayed(records []balldontlie.StatRecord) []balldontlie.StatRecord {
	played := make([]balldontlie.StatRecord, 0, len(records))
	for _, rec := range records {
		if rec.DidNotPlay() {
			continue
		}
		played = append(played, rec)
	}
	return played
}

// ReboundRows projects each record down to its game id and rebound count.
func ReboundRows(records []balldontlie.StatRecord) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = Row{GameID: rec.Game.ID, Rebounds: rec.Reb}
	}
	return rows
}

// Rows derives the export rows for env.
func Rows(env *balldontlie.Envelope) []Row {
	if env == nil {
		return []Row{}
	}
	return ReboundRows(FilterPlayed(env.Data))
}

// Export reads inPath, derives rows and writes them to every sink in order.
// The first sink failure stops the export.
func Export(ctx context.Context, inPath string, sinks ...Sink) ([]Row, error) {
	env, err := ReadEnvelope(inPath)
	if err != nil {
		return nil, err
	}

	rows := Rows(env)
	for _, sink := range sinks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := sink.Write(ctx, rows); err != nil {
			return nil, fmt.Errorf("writing %s: %w", sink.Name(), err)
		}
	}
	return rows, nil
}

package store

import (
	"time"

	"github.com/lib/pq"
)

// ExportRun is one pipeline run written to the database sink.
type ExportRun struct {
	RunID     int64         `json:"run_id" db:"run_id"`
	SourceURL string        `json:"source_url" db:"source_url"`
	Seasons   pq.Int64Array `json:"seasons" db:"seasons"`
	PlayerIDs pq.Int64Array `json:"player_ids" db:"player_ids"`
	RowCount  int           `json:"row_count" db:"row_count"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// ExportRow is a stored (game, rebounds) pair. Ordinal keeps source order.
type ExportRow struct {
	RunID    int64 `json:"run_id" db:"run_id"`
	Ordinal  int   `json:"ordinal" db:"ordinal"`
	GameID   int64 `json:"game_id" db:"game_id"`
	Rebounds int   `json:"rebounds" db:"rebounds"`
}

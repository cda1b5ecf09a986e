package balldontlie

import "encoding/json"

// ZeroMinutes is how the API encodes a game the player was listed for but did not play.
const ZeroMinutes = "00"

// Envelope is the top-level body of a stats response.
type Envelope struct {
	Data []StatRecord   `json:"data"`
	Meta json.RawMessage `json:"meta,omitempty"`
}

// StatRecord is one player's box-score line for a single game.
type StatRecord struct {
	ID       int64  `json:"id"`
	Min      string `json:"min"`
	Pts      int    `json:"pts"`
	Reb      int    `json:"reb"`
	Oreb     int    `json:"oreb"`
	Dreb     int    `json:"dreb"`
	Ast      int    `json:"ast"`
	Stl      int    `json:"stl"`
	Blk      int    `json:"blk"`
	Turnover int    `json:"turnover"`
	Game     Game   `json:"game"`
	Player   Player `json:"player"`
}

// DidNotPlay reports whether the line is a zero-minute entry.
func (r StatRecord) DidNotPlay() bool {
	return r.Min == ZeroMinutes
}

// Game is the nested game object on a stat record.
type Game struct {
	ID            int64  `json:"id"`
	Date          string `json:"date"`
	Season        int    `json:"season"`
	Status        string `json:"status"`
	HomeTeamID    int64  `json:"home_team_id"`
	VisitorTeamID int64  `json:"visitor_team_id"`
}

// Player is the nested player object on a stat record.
type Player struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Position  string `json:"position"`
}

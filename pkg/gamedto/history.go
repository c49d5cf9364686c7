package gamedto

import "time"

type GameRecord struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Round      int       `json:"round"`
	PlayerID   string    `json:"player_id,omitempty"`
	GameType   string    `json:"game_type"`
	Mode       string    `json:"mode"`
	Difficulty int       `json:"difficulty"`
	Result     string    `json:"result"`
	Method     string    `json:"method"`
	Moves      []string  `json:"moves"`
	Notation   []string  `json:"notation"`
	PGN        string    `json:"pgn,omitempty"`
	FinalFEN   string    `json:"final_fen,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	DurationMS int64     `json:"duration_ms"`
}

type HistoryResponse struct {
	Success bool          `json:"success"`
	Games   []*GameRecord `json:"games"`
}

type Scoreboard struct {
	GameType    string    `json:"game_type"`
	GamesPlayed int       `json:"games_played"`
	WhiteWins   int       `json:"white_wins"`
	BlackWins   int       `json:"black_wins"`
	Draws       int       `json:"draws"`
	LastResult  string    `json:"last_result,omitempty"`
	LastPlayed  time.Time `json:"last_played,omitempty"`
}

package gamedto

import "time"

type Scores struct {
	White int `json:"white"`
	Black int `json:"black"`
}

type SessionState struct {
	Success       bool       `json:"success"`
	GameID        string     `json:"game_id"`
	GameType      string     `json:"game_type"`
	Mode          string     `json:"mode"`
	Difficulty    int        `json:"difficulty"`
	Round         int        `json:"round"`
	Board         [][]string `json:"board"`
	CurrentPlayer string     `json:"current_player"`
	GameState     string     `json:"game_state"`
	Winner        string     `json:"winner,omitempty"`
	History       []string   `json:"history"`
	Scores        Scores     `json:"scores"`
	ChainSquare   []int      `json:"chain_square,omitempty"`
	Message       string     `json:"message,omitempty"`
	RecordID      int64      `json:"record_id,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type PossibleMovesResponse struct {
	Success bool    `json:"success"`
	Moves   [][]int `json:"moves"`
}

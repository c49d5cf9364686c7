package gamedto

type NewGameRequest struct {
	GameType   string `json:"game_type"`
	Mode       string `json:"mode"`
	Difficulty any    `json:"difficulty,omitempty"`
	PlayerID   string `json:"player_id,omitempty"`
}

// PossibleMovesRequest either names a stored session or carries a full board.
type PossibleMovesRequest struct {
	GameID        string     `json:"game_id,omitempty"`
	GameType      string     `json:"game_type,omitempty"`
	Board         [][]string `json:"board,omitempty"`
	CurrentPlayer string     `json:"current_player,omitempty"`
	FromRow       *int       `json:"from_row"`
	FromCol       *int       `json:"from_col"`
}

type MoveRequest struct {
	GameID  string `json:"game_id"`
	FromRow *int   `json:"from_row"`
	FromCol *int   `json:"from_col"`
	ToRow   *int   `json:"to_row"`
	ToCol   *int   `json:"to_col"`
}

type GameRequest struct {
	GameID string `json:"game_id"`
}

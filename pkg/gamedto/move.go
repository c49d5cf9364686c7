package gamedto

// MoveResponse keeps the field names of the browser client. The ai_* fields
// describe the last computer ply; AIMoves lists every ply when a checkers
// chain made the computer jump more than once.
type MoveResponse struct {
	Valid         bool       `json:"valid"`
	Message       string     `json:"message,omitempty"`
	Board         [][]string `json:"board,omitempty"`
	GameState     string     `json:"game_state,omitempty"`
	MoveNotation  string     `json:"move_notation,omitempty"`
	CurrentPlayer string     `json:"current_player,omitempty"`
	Winner        string     `json:"winner,omitempty"`
	ChainSquare   []int      `json:"chain_square,omitempty"`
	Scores        *Scores    `json:"scores,omitempty"`
	RecordID      int64      `json:"record_id,omitempty"`

	AIMove         []int      `json:"ai_move,omitempty"`
	AIBoard        [][]string `json:"ai_board,omitempty"`
	AIGameState    string     `json:"ai_game_state,omitempty"`
	AIMoveNotation string     `json:"ai_move_notation,omitempty"`
	AIMoves        []AIPly    `json:"ai_moves,omitempty"`
}

type AIPly struct {
	Move     []int  `json:"move"`
	Notation string `json:"notation"`
}

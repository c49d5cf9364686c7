package gamepresenter

import (
	"fmt"
	"strings"

	"github.com/park285/chess-checkers-engine/internal/msgcat"
	"github.com/park285/chess-checkers-engine/pkg/gamedto"
)

const recentMovesLimit = 6

// Formatter renders board DTOs as plain text for terminals and logs.
type Formatter struct {
	catalog *msgcat.Catalog
}

func NewFormatter(catalog *msgcat.Catalog) *Formatter {
	return &Formatter{catalog: catalog}
}

// Board draws the grid with ranks on the left and files underneath. Empty
// dark squares show as '.', light ones as a blank; a square in the middle of
// a jump chain is bracketed.
func (f *Formatter) Board(board [][]string, chain []int) string {
	var sb strings.Builder
	for r, row := range board {
		fmt.Fprintf(&sb, "%d ", 8-r)
		for c, cell := range row {
			token := strings.TrimSpace(cell)
			if token == "" {
				token = " "
				if (r+c)%2 == 1 {
					token = "."
				}
			}
			if len(chain) == 2 && chain[0] == r && chain[1] == c {
				fmt.Fprintf(&sb, "[%s]", token)
				continue
			}
			fmt.Fprintf(&sb, " %s ", token)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("  ")
	for c := 0; c < 8; c++ {
		fmt.Fprintf(&sb, " %c ", 'a'+c)
	}
	return sb.String()
}

func (f *Formatter) Status(state *gamedto.SessionState) string {
	if state == nil {
		return f.Help()
	}
	var sb strings.Builder
	sb.WriteString(f.Board(state.Board, state.ChainSquare))
	sb.WriteString("\n\n")
	if msg := strings.TrimSpace(state.Message); msg != "" {
		sb.WriteString(msg)
		sb.WriteString("\n")
	}
	sb.WriteString(f.Score(state.Scores))
	if recent := formatRecentMoves(state.History); recent != "" {
		sb.WriteString("\n")
		sb.WriteString(recent)
	}
	return sb.String()
}

// Move describes a move response: the player's notation, any computer reply
// and the resulting state, or the rejection message.
func (f *Formatter) Move(resp *gamedto.MoveResponse) string {
	if resp == nil {
		return ""
	}
	if !resp.Valid {
		return f.text("move.invalid", nil, resp.Message, "invalid move")
	}
	var lines []string
	if resp.MoveNotation != "" {
		lines = append(lines, resp.MoveNotation)
	}
	for _, ply := range resp.AIMoves {
		lines = append(lines, f.text("cli.reply", map[string]any{"Notation": ply.Notation}, "", "Computer plays "+ply.Notation))
	}
	if msg := strings.TrimSpace(resp.Message); msg != "" {
		lines = append(lines, msg)
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) Score(scores gamedto.Scores) string {
	return f.text("game.score", map[string]any{"White": scores.White, "Black": scores.Black}, "",
		fmt.Sprintf("Score white %d - black %d", scores.White, scores.Black))
}

func (f *Formatter) Prompt(turn string) string {
	return f.text("cli.prompt", map[string]any{"Turn": turn}, "", turn+"> ")
}

func (f *Formatter) Help() string {
	return f.text("cli.help", nil, "", "Enter moves as e2 e4.")
}

func (f *Formatter) History(games []*gamedto.GameRecord) string {
	if len(games) == 0 {
		return "No finished games yet."
	}
	var sb strings.Builder
	for i, g := range games {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "#%d %s %s by %s, %d plies (%s)", g.ID, g.GameType, resultLabel(g.Result), g.Method, len(g.Moves), g.EndedAt.Format("2006-01-02 15:04"))
	}
	return sb.String()
}

func (f *Formatter) Scoreboard(b *gamedto.Scoreboard) string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("%s: %d games, white %d, black %d, draws %d", b.GameType, b.GamesPlayed, b.WhiteWins, b.BlackWins, b.Draws)
}

// text renders key; when override is set it wins over the catalog entry.
func (f *Formatter) text(key string, data any, override, fallback string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	if f == nil {
		return fallback
	}
	return f.catalog.Text(key, data, fallback)
}

func formatRecentMoves(history []string) string {
	if len(history) == 0 {
		return ""
	}
	start := len(history) - recentMovesLimit
	if start < 0 {
		start = 0
	}
	var parts []string
	for i := start; i < len(history); i++ {
		parts = append(parts, fmt.Sprintf("%d.%s", i+1, history[i]))
	}
	return "Recent: " + strings.Join(parts, " ")
}

func resultLabel(result string) string {
	switch result {
	case "white":
		return "white won"
	case "black":
		return "black won"
	case "draw":
		return "drawn"
	default:
		return result
	}
}

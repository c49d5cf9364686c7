package game

import (
	"fmt"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/chess-checkers-engine/internal/domain"
)

// ChessExport is a chess game replayed under full rules.
type ChessExport struct {
	SAN []string
	FEN string
	PGN string
}

type PGNHeaders struct {
	Event       string
	Site        string
	Date        time.Time
	White       string
	Black       string
	Result      string
	Termination string
}

// ExportChess replays UCI moves from the standard start position. The engine
// castles without tracking rights, so a game it accepted can still be rejected
// here; the error names the first move the full rules refuse.
func ExportChess(moves []string, headers PGNHeaders) (*ChessExport, error) {
	game := nchess.NewGame()
	notationUCI := nchess.UCINotation{}
	notationSAN := nchess.AlgebraicNotation{}

	san := make([]string, 0, len(moves))
	for i, mv := range moves {
		pos := game.Position()
		move, err := notationUCI.Decode(pos, strings.ToLower(strings.TrimSpace(mv)))
		if err != nil {
			return nil, fmt.Errorf("decode move %d %s: %w", i+1, mv, err)
		}
		if err := game.Move(move, nil); err != nil {
			return nil, fmt.Errorf("apply move %d %s: %w", i+1, mv, err)
		}
		san = append(san, notationSAN.Encode(pos, move))
	}

	return &ChessExport{
		SAN: san,
		FEN: game.FEN(),
		PGN: buildPGN(san, headers),
	}, nil
}

func resultToPGN(result string) string {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case domain.ResultWhite:
		return "1-0"
	case domain.ResultBlack:
		return "0-1"
	case domain.ResultDraw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

func buildPGN(san []string, h PGNHeaders) string {
	var b strings.Builder
	date := h.Date
	if date.IsZero() {
		date = time.Now()
	}
	event := h.Event
	if strings.TrimSpace(event) == "" {
		event = "Casual Game"
	}
	site := h.Site
	if strings.TrimSpace(site) == "" {
		site = "board-server"
	}
	result := resultToPGN(h.Result)

	fmt.Fprintf(&b, "[Event \"%s\"]\n", sanitizePGN(event))
	fmt.Fprintf(&b, "[Site \"%s\"]\n", sanitizePGN(site))
	fmt.Fprintf(&b, "[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day())
	fmt.Fprintf(&b, "[White \"%s\"]\n", sanitizePGN(h.White))
	fmt.Fprintf(&b, "[Black \"%s\"]\n", sanitizePGN(h.Black))
	if strings.TrimSpace(h.Termination) != "" {
		fmt.Fprintf(&b, "[Termination \"%s\"]\n", sanitizePGN(strings.ToLower(h.Termination)))
	}
	fmt.Fprintf(&b, "[Result \"%s\"]\n\n", result)

	for i := 0; i < len(san); i += 2 {
		fmt.Fprintf(&b, "%d. %s", i/2+1, strings.TrimSpace(san[i]))
		if i+1 < len(san) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(san[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(result)
	return b.String()
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}

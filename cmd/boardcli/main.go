package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chess-checkers-engine/internal/adapter/gamepresenter"
	"github.com/park285/chess-checkers-engine/internal/boardclient"
	coregame "github.com/park285/chess-checkers-engine/internal/game"
	"github.com/park285/chess-checkers-engine/internal/msgcat"
	"github.com/park285/chess-checkers-engine/internal/obslog"
	svcgame "github.com/park285/chess-checkers-engine/internal/service/game"
	"github.com/park285/chess-checkers-engine/pkg/gamedto"
)

var errNoGame = errors.New("no game in progress")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "boardcli: %v\n", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	game       string
	mode       string
	difficulty string
	seed       int64
	pngPath    string
	server     string
	player     string
	messages   string
	logLevel   string
}

func parseFlags(args []string, out io.Writer) (*cliFlags, error) {
	fs := flag.NewFlagSet("boardcli", flag.ContinueOnError)
	fs.SetOutput(out)
	f := &cliFlags{}
	fs.StringVar(&f.game, "game", envOr("BOARDCLI_GAME", "chess"), "ruleset: chess or checkers")
	fs.StringVar(&f.mode, "mode", envOr("BOARDCLI_MODE", "ai"), "ai or local (hot-seat)")
	fs.StringVar(&f.difficulty, "difficulty", envOr("BOARDCLI_DIFFICULTY", "medium"), "easy, medium or hard")
	fs.Int64Var(&f.seed, "seed", 0, "random seed for the computer player (0 = time)")
	fs.StringVar(&f.pngPath, "png", "", "write the board as PNG to this path after every turn")
	fs.StringVar(&f.server, "server", os.Getenv("BOARD_SERVER_URL"), "play against a board server at this URL instead of locally")
	fs.StringVar(&f.player, "player", envOr("USER", "cli"), "player id sent to the board server")
	fs.StringVar(&f.messages, "messages", os.Getenv("MESSAGES_DIR"), "directory with message catalog overrides")
	fs.StringVar(&f.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "log level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	f, err := parseFlags(args, out)
	if err != nil {
		return err
	}
	if err := obslog.Init(obslog.Options{Level: f.logLevel, Format: "console", ToConsole: true}); err != nil {
		return err
	}
	logger := obslog.L()

	ruleset, err := coregame.ParseRuleset(f.game)
	if err != nil {
		return err
	}
	difficulty, err := coregame.ParseDifficulty(f.difficulty)
	if err != nil {
		return err
	}
	opts := gameOptions{Ruleset: ruleset, Mode: coregame.ParseMode(f.mode), Difficulty: difficulty}

	catalog, err := msgcat.New(f.messages)
	if err != nil {
		return err
	}

	var b backend
	if f.server != "" {
		client := boardclient.NewClient(f.server, boardclient.WithTimeout(15*time.Second))
		if _, err := client.Health(ctx); err != nil {
			return fmt.Errorf("board server %s: %w", f.server, err)
		}
		b = newRemoteBackend(client, opts, f.player)
	} else {
		seed := f.seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		var renderer svcgame.BoardRenderer
		if f.pngPath != "" {
			renderer = svcgame.NewPNGBoardRenderer()
		}
		b = newLocalBackend(opts, catalog, renderer, seed)
	}

	r := newREPL(b, catalog, out, f.pngPath, logger)
	return r.loop(ctx, in)
}

// repl reads commands line by line and prints through the presenter.
type repl struct {
	backend   backend
	formatter *gamepresenter.Formatter
	presenter *gamepresenter.Presenter
	out       io.Writer
	logger    *zap.Logger
	pngPath   string
}

func newREPL(b backend, catalog *msgcat.Catalog, out io.Writer, pngPath string, logger *zap.Logger) *repl {
	r := &repl{
		backend:   b,
		formatter: gamepresenter.NewFormatter(catalog),
		out:       out,
		logger:    logger,
		pngPath:   pngPath,
	}
	var sendImage func([]byte) error
	if pngPath != "" {
		sendImage = r.writeImage
	}
	r.presenter = gamepresenter.NewPresenter(r.formatter, r.println, sendImage)
	return r
}

func (r *repl) println(s string) error {
	_, err := fmt.Fprintln(r.out, s)
	return err
}

func (r *repl) writeImage(png []byte) error {
	if err := os.WriteFile(r.pngPath, png, 0o644); err != nil {
		return fmt.Errorf("write board image: %w", err)
	}
	return nil
}

func (r *repl) loop(ctx context.Context, in io.Reader) error {
	state, err := r.backend.Start(ctx)
	if err != nil {
		return err
	}
	if err := r.show(ctx, state.Message, state); err != nil {
		return err
	}
	_ = r.presenter.Text(r.formatter.Help())

	scanner := bufio.NewScanner(in)
	for {
		turn := titleCase(state.CurrentPlayer)
		if _, err := fmt.Fprint(r.out, r.formatter.Prompt(turn)); err != nil {
			return err
		}
		if !scanner.Scan() {
			_ = r.println("")
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		next, quit, err := r.handle(ctx, strings.TrimSpace(scanner.Text()))
		if err != nil {
			r.logger.Warn("boardcli_command_failed", zap.Error(err))
			_ = r.println("error: " + err.Error())
		}
		if quit {
			return nil
		}
		if next != nil {
			state = next
		}
	}
}

// handle runs one command line and returns the new state when it changed.
func (r *repl) handle(ctx context.Context, line string) (*gamedto.SessionState, bool, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return nil, false, nil
	}
	switch fields[0] {
	case "quit", "exit", "q":
		return nil, true, nil
	case "help", "?":
		return nil, false, r.presenter.Text(r.formatter.Help())
	case "board", "status":
		state, err := r.backend.State(ctx)
		if err != nil {
			return nil, false, err
		}
		return state, false, r.show(ctx, "", state)
	case "new", "restart":
		state, err := r.backend.Restart(ctx)
		if err != nil {
			return nil, false, err
		}
		return state, false, r.show(ctx, state.Message, state)
	case "resign":
		if _, err := r.backend.Resign(ctx); err != nil {
			return nil, false, err
		}
		state, err := r.backend.State(ctx)
		if err != nil {
			return nil, false, err
		}
		return state, false, r.show(ctx, "", state)
	case "moves":
		if len(fields) != 2 {
			return nil, false, errors.New("usage: moves e2")
		}
		from, err := coregame.ParseSquare(fields[1])
		if err != nil {
			return nil, false, err
		}
		targets, err := r.backend.Targets(ctx, from)
		if err != nil {
			return nil, false, err
		}
		return nil, false, r.presenter.Text(formatTargets(from, targets))
	}

	from, to, err := parseMove(fields)
	if err != nil {
		return nil, false, err
	}
	resp, err := r.backend.Move(ctx, from, to)
	if err != nil {
		return nil, false, err
	}
	if !resp.Valid {
		return nil, false, r.presenter.Text(r.formatter.Move(resp))
	}
	state, err := r.backend.State(ctx)
	if err != nil {
		return nil, false, err
	}
	return state, false, r.show(ctx, r.formatter.Move(resp), state)
}

func (r *repl) show(ctx context.Context, message string, state *gamedto.SessionState) error {
	var image []byte
	if r.pngPath != "" {
		img, err := r.backend.Image(ctx)
		if err != nil {
			r.logger.Warn("boardcli_render_failed", zap.Error(err))
		} else {
			image = img
		}
	}
	// state.Message is already part of the status block
	if state != nil && strings.TrimSpace(message) == strings.TrimSpace(state.Message) {
		message = ""
	}
	return r.presenter.Board(message, state, image)
}

// parseMove accepts "e2 e4", "e2e4" and "e2-e4".
func parseMove(fields []string) (coregame.Square, coregame.Square, error) {
	var raw []string
	switch len(fields) {
	case 1:
		token := strings.NewReplacer("-", "", "x", "", "×", "").Replace(fields[0])
		if len(token) != 4 {
			return coregame.Square{}, coregame.Square{}, fmt.Errorf("cannot read move %q", fields[0])
		}
		raw = []string{token[:2], token[2:]}
	case 2:
		raw = fields
	default:
		return coregame.Square{}, coregame.Square{}, fmt.Errorf("cannot read move %q", strings.Join(fields, " "))
	}
	from, err := coregame.ParseSquare(raw[0])
	if err != nil {
		return coregame.Square{}, coregame.Square{}, err
	}
	to, err := coregame.ParseSquare(raw[1])
	if err != nil {
		return coregame.Square{}, coregame.Square{}, err
	}
	return from, to, nil
}

func formatTargets(from coregame.Square, targets [][]int) string {
	if len(targets) == 0 {
		return fmt.Sprintf("%s: no legal moves", from)
	}
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, coregame.Sq(t[0], t[1]).String())
	}
	return fmt.Sprintf("%s: %s", from, strings.Join(names, " "))
}

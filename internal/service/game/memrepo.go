package game

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/park285/chess-checkers-engine/internal/domain"
)

// memrepo keeps history in process memory. Used when HISTORY_BACKEND=memory and in tests.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	gamesByID      map[int64]*domain.GameRecord
	gamesBySession map[string]*domain.GameRecord // sessionID|round -> game

	scoreboards map[string]*domain.Scoreboard
}

func NewMemoryRepository() Repository {
	return &memrepo{
		gamesByID:      make(map[int64]*domain.GameRecord),
		gamesBySession: make(map[string]*domain.GameRecord),
		scoreboards:    make(map[string]*domain.Scoreboard),
	}
}

func (m *memrepo) InsertGame(ctx context.Context, game *domain.GameRecord) (int64, error) {
	if game == nil {
		return 0, ErrDuplicateGame
	}

	key := sessionRoundKey(game.SessionID, game.Round)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.gamesBySession[key]; exists {
		return 0, ErrDuplicateGame
	}

	m.nextID++
	stored := cloneRecord(game)
	stored.ID = m.nextID

	m.gamesByID[stored.ID] = stored
	m.gamesBySession[key] = stored
	return stored.ID, nil
}

func (m *memrepo) GetRecentGames(ctx context.Context, limit int) ([]*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]*domain.GameRecord, 0, len(m.gamesByID))
	for _, g := range m.gamesByID {
		items = append(items, g)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]*domain.GameRecord, len(items))
	for i, g := range items {
		out[i] = cloneRecord(g)
	}
	return out, nil
}

func (m *memrepo) GetGame(ctx context.Context, id int64) (*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.gamesByID[id]; ok {
		return cloneRecord(g), nil
	}
	return nil, nil
}

func (m *memrepo) GetGameBySession(ctx context.Context, sessionID string, round int) (*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.gamesBySession[sessionRoundKey(sessionID, round)]; ok {
		return cloneRecord(g), nil
	}
	return nil, nil
}

func (m *memrepo) GetScoreboard(ctx context.Context, ruleset string) (*domain.Scoreboard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.scoreboards[strings.TrimSpace(ruleset)]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (m *memrepo) UpsertScoreboard(ctx context.Context, board *domain.Scoreboard) error {
	if board == nil {
		return nil
	}
	cp := *board
	m.mu.Lock()
	m.scoreboards[strings.TrimSpace(board.Ruleset)] = &cp
	m.mu.Unlock()
	return nil
}

func sessionRoundKey(sessionID string, round int) string {
	return strings.TrimSpace(sessionID) + "|" + strconv.Itoa(round)
}

func cloneRecord(g *domain.GameRecord) *domain.GameRecord {
	cp := *g
	cp.Moves = append([]string(nil), g.Moves...)
	cp.Notation = append([]string(nil), g.Notation...)
	return &cp
}

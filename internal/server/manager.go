package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hailam/adaptiveplay/internal/board"
	"github.com/hailam/adaptiveplay/internal/profile"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameOver     = errors.New("game is over")
	ErrNotYourTurn  = errors.New("not the human's turn")
	ErrGameChanged  = errors.New("game changed during search")
)

// Game is one human-versus-engine game.
type Game struct {
	mu sync.Mutex

	ID         string
	Board      *board.Board
	History    []board.Move
	HumanColor board.Color

	// Human is the running estimate of the human's style.
	Human *profile.PlayerProfile

	humanTime  time.Duration
	humanMoves int
	aiTime     time.Duration
	aiMoves    int
	turnStart  time.Time
	recorded   bool

	hub *Hub

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status returns the game status of the current position.
func (g *Game) Status() board.Status {
	return g.Board.Status()
}

// apply plays m and updates the clocks. The caller holds g.mu.
func (g *Game) apply(m board.Move, human bool) {
	spent := time.Since(g.turnStart)
	if human {
		g.humanTime += spent
		g.humanMoves++
		g.Human.ObserveMove(m.IsCapture())
		g.Human.EstimatedAggression()
	}
	g.Board.MakeMove(m)
	g.History = append(g.History, m)
	g.turnStart = time.Now()
	g.UpdatedAt = g.turnStart
}

// addAITime records engine thinking time. The caller holds g.mu.
func (g *Game) addAITime(d time.Duration) {
	g.aiTime += d
	g.aiMoves++
}

func average(total time.Duration, n int) time.Duration {
	if n == 0 {
		return 0
	}
	return total / time.Duration(n)
}

// Manager is an in-memory table of running games.
type Manager struct {
	mu    sync.RWMutex
	games map[string]*Game
}

func NewManager() *Manager {
	return &Manager{games: make(map[string]*Game)}
}

// NewGame starts a game from the initial position.
func (m *Manager) NewGame(humanColor board.Color, human *profile.PlayerProfile) *Game {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	g := &Game{
		ID:         uuid.NewString(),
		Board:      board.NewBoard(),
		HumanColor: humanColor,
		Human:      human,
		hub:        NewHub(),
		turnStart:  now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.games[g.ID] = g
	return g
}

func (m *Manager) Get(id string) (*Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

// Delete removes a game and disconnects its watchers.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	g, ok := m.games[id]
	delete(m.games, id)
	m.mu.Unlock()
	if !ok {
		return ErrGameNotFound
	}
	g.hub.Close()
	return nil
}

// Len returns the number of games.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

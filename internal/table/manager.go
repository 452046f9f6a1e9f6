package table

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thraizz/kingdom-server-go/internal/game"
	"github.com/thraizz/kingdom-server-go/internal/game/decision"
	"github.com/thraizz/kingdom-server-go/internal/random"
	"github.com/thraizz/kingdom-server-go/internal/repository"
)

// ResultStore persists finished games.
type ResultStore interface {
	SaveResult(ctx context.Context, result repository.GameResult) error
}

// Config holds defaults applied to every new table.
type Config struct {
	Seats              int
	KingdomSize        int
	AutoPlayTreasures  bool
	VerifyConservation bool
	// Seed fixes every table's shuffles; zero draws a fresh seed per table.
	Seed int64
}

// CreateRequest describes a new table.
type CreateRequest struct {
	Name    string   `json:"name"`
	Seats   int      `json:"seats"`
	Kingdom []string `json:"kingdom,omitempty"`
}

// Manager owns every table on the server.
type Manager struct {
	catalog   *game.Catalog
	transport game.Transport
	cfg       Config
	ids       *game.IDAllocator
	logger    *zap.Logger

	results  ResultStore
	replays  *game.ReplayRecorder
	saveWait sync.WaitGroup

	tables map[string]*Table
	mu     sync.RWMutex
}

// NewManager creates a table manager. All tables share one player ID
// allocator so IDs are unique across the server.
func NewManager(cat *game.Catalog, transport game.Transport, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Seats <= 0 {
		cfg.Seats = game.DefaultMinPlayers
	}
	return &Manager{
		catalog:   cat,
		transport: transport,
		cfg:       cfg,
		ids:       game.NewIDAllocator(),
		logger:    logger,
		tables:    make(map[string]*Table),
	}
}

// SetResultStore enables result persistence for games that end afterwards.
func (m *Manager) SetResultStore(store ResultStore) {
	m.results = store
}

// SetReplayRecorder records every game created afterwards.
func (m *Manager) SetReplayRecorder(rr *game.ReplayRecorder) {
	m.replays = rr
}

// Create opens a table and starts its goroutine.
func (m *Manager) Create(req CreateRequest) (Info, error) {
	seats := req.Seats
	if seats == 0 {
		seats = m.cfg.Seats
	}
	if seats < game.DefaultMinPlayers || seats > game.DefaultMaxPlayers {
		return Info{}, fmt.Errorf("seats must be between %d and %d, got %d",
			game.DefaultMinPlayers, game.DefaultMaxPlayers, seats)
	}
	for _, name := range req.Kingdom {
		card, ok := m.catalog.Lookup(name)
		if !ok || !card.Kingdom {
			return Info{}, fmt.Errorf("%w: %q", game.ErrUnknownKingdom, name)
		}
	}

	seed := m.cfg.Seed
	if seed == 0 {
		var err error
		if seed, err = random.NewSeed(); err != nil {
			return Info{}, err
		}
	}

	id := uuid.NewString()
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Table " + id[:8]
	}

	var t *Table
	g := game.NewGame(m.catalog, m.transport, game.Options{
		KingdomSize:        m.cfg.KingdomSize,
		Kingdom:            req.Kingdom,
		MaxPlayers:         seats,
		AutoPlayTreasures:  m.cfg.AutoPlayTreasures,
		VerifyConservation: m.cfg.VerifyConservation,
		Rand:               rand.New(rand.NewSource(seed)),
		IDs:                m.ids,
		OnEnd: func(g *game.Game, standings []game.Standing) {
			m.finish(t, g, standings)
		},
	}, m.logger)
	if m.replays != nil {
		m.replays.Attach(g)
	}

	t = newTable(id, name, seats, g, m.transport, m.logger)

	m.mu.Lock()
	m.tables[id] = t
	m.mu.Unlock()

	m.logger.Info("table created",
		zap.String("table_id", id),
		zap.String("game_id", g.ID),
		zap.Int("seats", seats),
		zap.Int64("seed", seed),
	)
	return t.Info(), nil
}

// Get returns a table by ID.
func (m *Manager) Get(id string) (*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	if !ok {
		return nil, ErrTableNotFound
	}
	return t, nil
}

// List returns every table, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	infos := make([]Info, 0, len(m.tables))
	for _, t := range m.tables {
		infos = append(infos, t.Info())
	}
	m.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Join seats a player. The game starts once every seat is taken.
func (m *Manager) Join(ctx context.Context, tableID, name string) (int, error) {
	t, err := m.Get(tableID)
	if err != nil {
		return 0, err
	}
	var playerID int
	err = t.do(ctx, func() error {
		var err error
		playerID, err = t.join(name)
		return err
	})
	return playerID, err
}

// Start begins the game before every seat is filled.
func (m *Manager) Start(ctx context.Context, tableID string) error {
	t, err := m.Get(tableID)
	if err != nil {
		return err
	}
	return t.do(ctx, t.start)
}

// Respond delivers a player's answer to their pending decision.
func (m *Manager) Respond(ctx context.Context, tableID string, playerID int, key string) (decision.Result, error) {
	t, err := m.Get(tableID)
	if err != nil {
		return decision.ResultStale, err
	}
	result := decision.ResultStale
	err = t.do(ctx, func() error {
		var err error
		result, err = t.respond(playerID, key)
		return err
	})
	return result, err
}

// Reconnect resends the kingdom and any pending decision to a returning player.
func (m *Manager) Reconnect(ctx context.Context, tableID string, playerID int) (bool, error) {
	t, err := m.Get(tableID)
	if err != nil {
		return false, err
	}
	var redelivered bool
	err = t.do(ctx, func() error {
		var err error
		redelivered, err = t.reconnect(playerID)
		return err
	})
	return redelivered, err
}

// Leave frees a seat before the game starts, or marks the player
// disconnected once it is running. An empty waiting table is closed.
func (m *Manager) Leave(ctx context.Context, tableID string, playerID int) error {
	t, err := m.Get(tableID)
	if err != nil {
		return err
	}
	if err := t.do(ctx, func() error { return t.leave(playerID) }); err != nil {
		return err
	}

	if t.State() == StateWaiting && len(t.Info().Players) == 0 {
		m.remove(tableID)
	}
	return nil
}

// Seated reports whether playerID still holds a seat at the table.
func (m *Manager) Seated(tableID string, playerID int) bool {
	t, err := m.Get(tableID)
	if err != nil {
		return false
	}
	for _, s := range t.Info().Players {
		if s.PlayerID == playerID {
			return true
		}
	}
	return false
}

// Chat relays a chat line or a /whisper command.
func (m *Manager) Chat(ctx context.Context, tableID string, playerID int, text string) error {
	t, err := m.Get(tableID)
	if err != nil {
		return err
	}
	return t.do(ctx, func() error { return t.chat(playerID, text) })
}

// Snapshot captures the table's game state.
func (m *Manager) Snapshot(ctx context.Context, tableID string) (*game.Snapshot, error) {
	t, err := m.Get(tableID)
	if err != nil {
		return nil, err
	}
	var snap *game.Snapshot
	err = t.do(ctx, func() error {
		snap = t.game.Snapshot()
		return nil
	})
	return snap, err
}

// Close stops every table and waits for pending result writes.
func (m *Manager) Close() {
	m.mu.Lock()
	tables := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	m.tables = make(map[string]*Table)
	m.mu.Unlock()

	for _, t := range tables {
		t.stop()
	}
	m.saveWait.Wait()
	m.logger.Info("table manager closed", zap.Int("tables", len(tables)))
}

func (m *Manager) remove(tableID string) {
	m.mu.Lock()
	t, ok := m.tables[tableID]
	delete(m.tables, tableID)
	m.mu.Unlock()
	if ok {
		t.stop()
		if m.replays != nil {
			m.replays.Discard(t.game.ID)
		}
		m.logger.Info("table removed", zap.String("table_id", tableID))
	}
}

// finish runs on the table goroutine when the game ends.
func (m *Manager) finish(t *Table, g *game.Game, standings []game.Standing) {
	t.setState(StateFinished)
	t.syncTurn()

	if m.results == nil {
		return
	}

	result := repository.GameResult{
		GameID:     g.ID,
		Turns:      g.TurnNumber(),
		FinishedAt: time.Now(),
	}
	for _, pile := range g.Piles() {
		if pile.Card.Kingdom {
			result.Kingdom = append(result.Kingdom, pile.Card.Name)
		}
	}
	rank := 0
	for i, s := range standings {
		if i == 0 || s.Score < standings[i-1].Score {
			rank = i + 1
		}
		result.Players = append(result.Players, repository.PlayerResult{Name: s.Name, Score: s.Score, Rank: rank})
	}

	m.saveWait.Add(1)
	go func() {
		defer m.saveWait.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.results.SaveResult(ctx, result); err != nil {
			m.logger.Error("failed to save game result",
				zap.String("game_id", result.GameID),
				zap.Error(err),
			)
		}
	}()
}

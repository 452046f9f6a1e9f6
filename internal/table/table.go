package table

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thraizz/kingdom-server-go/internal/game"
	"github.com/thraizz/kingdom-server-go/internal/game/decision"
)

var (
	ErrTableNotFound  = errors.New("table not found")
	ErrTableFull      = errors.New("table is full")
	ErrGameStarted    = errors.New("game already started")
	ErrGameNotStarted = errors.New("game not started")
	ErrNotSeated      = errors.New("player is not seated at this table")
	ErrNameTaken      = errors.New("name already taken at this table")
	ErrTableClosed    = errors.New("table closed")
	ErrEmptyMessage   = errors.New("empty chat message")
	ErrInternal       = errors.New("internal table error")
)

// State is a table's lifecycle stage.
type State int

const (
	StateWaiting State = iota
	StatePlaying
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "WAITING"
	case StatePlaying:
		return "PLAYING"
	case StateFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Seat is one occupied chair.
type Seat struct {
	PlayerID  int    `json:"player_id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// Info is a consistent view of a table for listings.
type Info struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Seats     int       `json:"seats"`
	State     string    `json:"state"`
	Players   []Seat    `json:"players"`
	Turn      int       `json:"turn"`
	CreatedAt time.Time `json:"created_at"`
}

type request struct {
	fn   func() error
	errc chan error
}

// Table owns one game. Every command runs on the table's own goroutine, so
// the game itself needs no locking.
type Table struct {
	ID        string
	Name      string
	Seats     int
	CreatedAt time.Time

	game      *game.Game
	transport game.Transport
	logger    *zap.Logger

	inbox    chan request
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.RWMutex
	state   State
	players []Seat
	turn    int
}

func newTable(id, name string, seats int, g *game.Game, transport game.Transport, logger *zap.Logger) *Table {
	t := &Table{
		ID:        id,
		Name:      name,
		Seats:     seats,
		CreatedAt: time.Now(),
		game:      g,
		transport: transport,
		logger:    logger.With(zap.String("table_id", id)),
		inbox:     make(chan request),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *Table) run() {
	defer close(t.done)
	for {
		select {
		case req := <-t.inbox:
			req.errc <- t.exec(req.fn)
		case <-t.quit:
			return
		}
	}
}

func (t *Table) exec(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("table command panicked",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()
	return fn()
}

// do runs fn on the table goroutine and waits for its result.
func (t *Table) do(ctx context.Context, fn func() error) error {
	req := request{fn: fn, errc: make(chan error, 1)}
	select {
	case t.inbox <- req:
	case <-t.done:
		return ErrTableClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop ends the table goroutine and waits for it.
func (t *Table) stop() {
	t.stopOnce.Do(func() { close(t.quit) })
	<-t.done
}

// Info returns a snapshot of the table's public state.
func (t *Table) Info() Info {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Info{
		ID:        t.ID,
		Name:      t.Name,
		Seats:     t.Seats,
		State:     t.state.String(),
		Players:   append([]Seat(nil), t.players...),
		Turn:      t.turn,
		CreatedAt: t.CreatedAt,
	}
}

// State returns the lifecycle stage.
func (t *Table) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *Table) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

func (t *Table) seatIndex(playerID int) int {
	for i, s := range t.players {
		if s.PlayerID == playerID {
			return i
		}
	}
	return -1
}

func (t *Table) seatByName(name string) (Seat, bool) {
	for _, s := range t.players {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Seat{}, false
}

func (t *Table) setConnected(playerID int, connected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.seatIndex(playerID); i >= 0 {
		t.players[i].Connected = connected
	}
}

// The methods below run on the table goroutine.

func (t *Table) join(name string) (int, error) {
	if t.State() != StateWaiting {
		return 0, ErrGameStarted
	}
	t.mu.RLock()
	full := len(t.players) >= t.Seats
	_, taken := t.seatByName(name)
	t.mu.RUnlock()
	if full {
		return 0, ErrTableFull
	}
	if taken {
		return 0, ErrNameTaken
	}

	p, err := t.game.AddPlayer(name)
	if err != nil {
		return 0, fmt.Errorf("failed to seat %s: %w", name, err)
	}

	t.mu.Lock()
	t.players = append(t.players, Seat{PlayerID: p.ID, Name: p.Name, Connected: true})
	seated := len(t.players)
	t.mu.Unlock()

	t.announce(p.ID, p.Name+" connected")
	t.logger.Info("player seated",
		zap.Int("player_id", p.ID),
		zap.String("name", p.Name),
		zap.Int("seated", seated),
		zap.Int("seats", t.Seats),
	)

	if seated == t.Seats {
		if err := t.start(); err != nil {
			t.logger.Error("auto start failed", zap.Error(err))
		}
	}
	return p.ID, nil
}

func (t *Table) start() error {
	if t.State() != StateWaiting {
		return ErrGameStarted
	}
	if err := t.game.Start(); err != nil {
		return err
	}
	if t.State() == StateWaiting {
		t.setState(StatePlaying)
	}
	t.syncTurn()
	t.logger.Info("game started", zap.String("game_id", t.game.ID))
	return nil
}

func (t *Table) respond(playerID int, key string) (decision.Result, error) {
	if t.State() == StateWaiting {
		return decision.ResultStale, ErrGameNotStarted
	}
	if _, ok := t.game.Player(playerID); !ok {
		return decision.ResultStale, ErrNotSeated
	}
	result := t.game.Respond(playerID, key)
	t.syncTurn()
	return result, nil
}

func (t *Table) reconnect(playerID int) (bool, error) {
	if _, ok := t.game.Player(playerID); !ok {
		return false, ErrNotSeated
	}
	t.setConnected(playerID, true)
	if t.State() == StateWaiting {
		return false, nil
	}
	if t.State() == StatePlaying {
		t.transport.Send(playerID, t.game.KingdomView())
	}
	return t.game.Reconnect(playerID), nil
}

func (t *Table) leave(playerID int) error {
	t.mu.RLock()
	i := t.seatIndex(playerID)
	t.mu.RUnlock()
	if i < 0 {
		return ErrNotSeated
	}

	t.mu.RLock()
	name := t.players[i].Name
	t.mu.RUnlock()

	if t.State() == StateWaiting {
		if err := t.game.RemovePlayer(playerID); err != nil {
			return err
		}
		t.mu.Lock()
		t.players = append(t.players[:i], t.players[i+1:]...)
		t.mu.Unlock()
	} else {
		// The seat stays; a reconnect redelivers the pending decision.
		t.setConnected(playerID, false)
	}

	t.announce(playerID, name+" disconnected")
	t.logger.Info("player left", zap.Int("player_id", playerID))
	return nil
}

func (t *Table) chat(playerID int, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	t.mu.RLock()
	i := t.seatIndex(playerID)
	var from string
	if i >= 0 {
		from = t.players[i].Name
	}
	t.mu.RUnlock()
	if i < 0 {
		return ErrNotSeated
	}

	if !strings.HasPrefix(text, "/") {
		t.sendOthers(playerID, ChatMessage{Message: [2]string{from, text}})
		return nil
	}

	fields := strings.Fields(text)
	cmd := strings.TrimPrefix(fields[0], "/")
	switch cmd {
	case "whisper":
		if len(fields) < 3 {
			t.transport.Send(playerID, ChatMessage{Message: [2]string{systemSender, "Usage: /whisper <name> <message>"}})
			return nil
		}
		t.mu.RLock()
		target, ok := t.seatByName(fields[1])
		t.mu.RUnlock()
		if !ok {
			t.transport.Send(playerID, ChatMessage{Message: [2]string{systemSender, "No such user " + fields[1]}})
			return nil
		}
		rest := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))
		rest = strings.TrimSpace(strings.TrimPrefix(rest, fields[1]))
		t.transport.Send(target.PlayerID, WhisperMessage{Whisper: [2]string{from, rest}})
	default:
		t.transport.Send(playerID, ChatMessage{Message: [2]string{systemSender, fmt.Sprintf("No such command '%s'", cmd)}})
	}
	return nil
}

func (t *Table) announce(except int, text string) {
	t.sendOthers(except, Announcement{Announcement: text})
}

func (t *Table) sendOthers(except int, msg any) {
	t.mu.RLock()
	seats := append([]Seat(nil), t.players...)
	t.mu.RUnlock()
	for _, s := range seats {
		if s.PlayerID != except {
			t.transport.Send(s.PlayerID, msg)
		}
	}
}

func (t *Table) syncTurn() {
	t.mu.Lock()
	t.turn = t.game.TurnNumber()
	t.mu.Unlock()
}

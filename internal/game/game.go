package game

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thraizz/kingdom-server-go/internal/game/decision"
	"github.com/thraizz/kingdom-server-go/internal/game/rules"
	"github.com/thraizz/kingdom-server-go/internal/game/watchers"
)

var (
	ErrGameStarted      = errors.New("game already started")
	ErrTooManyPlayers   = errors.New("too many players")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrUnknownKingdom   = errors.New("unknown kingdom card")
	ErrPlayerNotFound   = errors.New("player not found")
)

const (
	DefaultKingdomSize = 10
	DefaultMinPlayers  = 2
	DefaultMaxPlayers  = 6
)

// Transport delivers messages to connected players.
type Transport interface {
	Send(playerID int, msg any)
}

// Options configures a game.
type Options struct {
	KingdomSize int
	// Kingdom, when set, fixes the kingdom cards instead of sampling them.
	Kingdom           []string
	MinPlayers        int
	MaxPlayers        int
	AutoPlayTreasures bool
	// VerifyConservation checks supply accounting after every resolution.
	VerifyConservation bool
	Rand               *rand.Rand
	IDs                *IDAllocator
	// OnEnd runs once when the game ends, after game_over is broadcast.
	OnEnd func(g *Game, standings []Standing)
}

func (o Options) withDefaults() Options {
	if o.KingdomSize <= 0 {
		o.KingdomSize = DefaultKingdomSize
	}
	if o.MinPlayers <= 0 {
		o.MinPlayers = DefaultMinPlayers
	}
	if o.MaxPlayers <= 0 {
		o.MaxPlayers = DefaultMaxPlayers
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(1))
	}
	if o.IDs == nil {
		o.IDs = NewIDAllocator()
	}
	return o
}

// Game coordinates one match: seats, supply, turn order and end of game.
// It is not safe for concurrent use; its owner must serialize every call.
type Game struct {
	ID string

	logger    *zap.Logger
	catalog   *Catalog
	opts      Options
	rng       *rand.Rand
	transport Transport
	broker    *decision.Broker
	bus       *rules.EventBus
	triggers  *rules.TriggerManager
	watchers  *rules.WatcherRegistry
	gains     *watchers.GainsWatcher
	order     *rules.TurnOrder

	players   []*Player
	piles     []*KingdomPile
	trash     []*Card
	log       []string
	started   bool
	ended     bool
	standings []Standing
}

// NewGame creates a game that has not started yet.
func NewGame(cat *Catalog, transport Transport, opts Options, logger *zap.Logger) *Game {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	g := &Game{
		ID:        uuid.NewString(),
		catalog:   cat,
		opts:      opts,
		rng:       opts.Rand,
		transport: transport,
		bus:       rules.NewEventBus(),
		triggers:  rules.NewTriggerManager(),
		watchers:  rules.NewWatcherRegistry(),
		gains:     watchers.NewGainsWatcher(),
	}
	g.logger = logger.With(zap.String("game_id", g.ID))
	g.broker = decision.NewBroker(transport, g.Log, g.logger)
	g.watchers.Add(g.gains)
	return g
}

// AddPlayer seats a new player at the end of the turn order.
func (g *Game) AddPlayer(name string) (*Player, error) {
	if g.started {
		return nil, ErrGameStarted
	}
	if len(g.players) >= g.opts.MaxPlayers {
		return nil, ErrTooManyPlayers
	}
	p := newPlayer(g.opts.IDs.Next(), name, len(g.players))
	g.players = append(g.players, p)
	g.logf("%s joins the game.", p.Name)
	g.logger.Info("player joined",
		zap.Int("player_id", p.ID),
		zap.String("name", p.Name),
	)
	return p, nil
}

// RemovePlayer gives up a seat before the game starts. Later seats move up.
func (g *Game) RemovePlayer(id int) error {
	if g.started {
		return ErrGameStarted
	}
	for i, p := range g.players {
		if p.ID != id {
			continue
		}
		g.players = append(g.players[:i], g.players[i+1:]...)
		for seat := i; seat < len(g.players); seat++ {
			g.players[seat].seat = seat
		}
		g.logf("%s leaves the game.", p.Name)
		g.logger.Info("player left", zap.Int("player_id", id))
		return nil
	}
	return ErrPlayerNotFound
}

// Start builds the supply, deals starting decks and begins the first turn.
func (g *Game) Start() error {
	if g.started {
		return ErrGameStarted
	}
	if len(g.players) < g.opts.MinPlayers {
		return fmt.Errorf("%w: have %d, need %d", ErrNotEnoughPlayers, len(g.players), g.opts.MinPlayers)
	}

	kingdom, err := g.chooseKingdom()
	if err != nil {
		return err
	}
	g.setupSupply(kingdom)
	g.registerBuyTriggers()

	g.order = rules.NewTurnOrder(len(g.players))
	for _, p := range g.players {
		g.dealStartingDeck(p)
	}
	g.started = true

	names := make([]string, len(kingdom))
	for i, c := range kingdom {
		names[i] = c.Name
	}
	g.logf("The game begins. Kingdom: %s.", strings.Join(names, ", "))
	g.logger.Info("game started",
		zap.Int("players", len(g.players)),
		zap.Strings("kingdom", names),
	)
	g.publish(rules.Event{Type: rules.EventGameStarted})
	g.verifyConservation()

	g.broadcastKingdom()
	g.turnStart(g.players[0])
	return nil
}

func (g *Game) chooseKingdom() ([]*Card, error) {
	if len(g.opts.Kingdom) > 0 {
		kingdom := make([]*Card, 0, len(g.opts.Kingdom))
		for _, name := range g.opts.Kingdom {
			card, ok := g.catalog.Lookup(name)
			if !ok || !card.Kingdom {
				return nil, fmt.Errorf("%w: %q", ErrUnknownKingdom, name)
			}
			kingdom = append(kingdom, card)
		}
		return kingdom, nil
	}

	eligible := g.catalog.KingdomEligible()
	size := g.opts.KingdomSize
	if size > len(eligible) {
		size = len(eligible)
	}
	kingdom := make([]*Card, 0, size)
	for _, i := range g.rng.Perm(len(eligible))[:size] {
		kingdom = append(kingdom, eligible[i])
	}
	return kingdom, nil
}

// Respond routes a player's answer to their outstanding decision.
func (g *Game) Respond(playerID int, key string) decision.Result {
	result := g.broker.Resolve(playerID, key)
	if result == decision.ResultAccepted {
		g.verifyConservation()
	}
	return result
}

// Reconnect resends the player's outstanding decision, if any.
func (g *Game) Reconnect(playerID int) bool {
	return g.broker.Redeliver(playerID)
}

// Player returns the player with the given ID.
func (g *Game) Player(id int) (*Player, bool) {
	for _, p := range g.players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Players returns the players in turn order.
func (g *Game) Players() []*Player {
	return append([]*Player(nil), g.players...)
}

// Active returns the player whose turn it is, or nil before the start.
func (g *Game) Active() *Player {
	if g.order == nil || len(g.players) == 0 {
		return nil
	}
	return g.players[g.order.Active()]
}

// TurnNumber returns the current turn number, or 0 before the start.
func (g *Game) TurnNumber() int {
	if g.order == nil {
		return 0
	}
	return g.order.TurnNumber()
}

// Piles returns the supply piles in kingdom order.
func (g *Game) Piles() []*KingdomPile {
	return append([]*KingdomPile(nil), g.piles...)
}

// Trash returns a copy of the trash.
func (g *Game) Trash() []*Card {
	return append([]*Card(nil), g.trash...)
}

// Log returns a copy of the game log.
func (g *Game) Log() []string {
	return append([]string(nil), g.log...)
}

// Events exposes the game's event bus.
func (g *Game) Events() *rules.EventBus { return g.bus }

// Broker exposes the decision broker.
func (g *Game) Broker() *decision.Broker { return g.broker }

// Gains exposes the per-turn gains watcher.
func (g *Game) Gains() *watchers.GainsWatcher { return g.gains }

func (g *Game) Started() bool { return g.started }
func (g *Game) Ended() bool   { return g.ended }

// Standings returns the final standings once the game has ended.
func (g *Game) Standings() []Standing {
	return append([]Standing(nil), g.standings...)
}

// nextPlayer hands the turn to the next seat, or ends the game.
func (g *Game) nextPlayer() {
	g.broadcastKingdom()
	seat := g.order.Advance()
	if g.checkEndOfGame() {
		g.endGame()
		return
	}
	g.turnStart(g.players[seat])
}

// checkEndOfGame reports whether the Province pile or any three piles are
// empty.
func (g *Game) checkEndOfGame() bool {
	empty := 0
	for _, pile := range g.piles {
		if pile.Remaining > 0 {
			continue
		}
		if pile.Card.Name == "Province" {
			return true
		}
		empty++
	}
	return empty >= 3
}

func (g *Game) endGame() {
	if g.ended {
		return
	}
	g.ended = true

	standings := make([]Standing, len(g.players))
	for i, p := range g.players {
		standings[i] = Standing{ID: p.ID, Name: p.Name, Score: g.Score(p)}
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score > standings[j].Score
	})
	g.standings = standings

	g.broker.Clear()
	for _, p := range g.players {
		p.queue.Clear()
		p.phase = rules.PhaseNotPlaying
	}

	g.logf("The game is over.")
	g.broadcast(GameOverMessage{GameOver: standings})
	g.publish(rules.Event{Type: rules.EventGameEnded})
	g.logger.Info("game ended",
		zap.Int("turns", g.order.TurnNumber()),
		zap.Int("winner_id", standings[0].ID),
		zap.Int("winner_score", standings[0].Score),
	)

	if g.opts.OnEnd != nil {
		g.opts.OnEnd(g, g.Standings())
	}
}

func (g *Game) send(playerID int, msg any) {
	if g.transport == nil {
		return
	}
	g.transport.Send(playerID, msg)
}

func (g *Game) broadcast(msg any) {
	for _, p := range g.players {
		g.send(p.ID, msg)
	}
}

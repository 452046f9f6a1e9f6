package game

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thraizz/kingdom-server-go/internal/game/decision"
	"github.com/thraizz/kingdom-server-go/internal/game/rules"
)

type recordingTransport struct {
	sent map[int][]any
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{sent: make(map[int][]any)}
}

func (r *recordingTransport) Send(playerID int, msg any) {
	r.sent[playerID] = append(r.sent[playerID], msg)
}

func (r *recordingTransport) last(playerID int) any {
	msgs := r.sent[playerID]
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := DefaultCatalog()
	require.NoError(t, err)
	return cat
}

// newTestGame starts a two player game between alice and bob with a fixed
// kingdom and seed.
func newTestGame(t *testing.T, kingdom ...string) (*Game, *recordingTransport, *Player, *Player) {
	t.Helper()
	return newTestGameWith(t, Options{Kingdom: kingdom}, "alice", "bob")
}

func newTestGameWith(t *testing.T, opts Options, names ...string) (*Game, *recordingTransport, *Player, *Player) {
	t.Helper()
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(42))
	}
	opts.VerifyConservation = true

	tr := newRecordingTransport()
	g := NewGame(testCatalog(t), tr, opts, zaptest.NewLogger(t))
	players := make([]*Player, 0, len(names))
	for _, name := range names {
		p, err := g.AddPlayer(name)
		require.NoError(t, err)
		players = append(players, p)
	}
	require.NoError(t, g.Start())
	require.NoError(t, g.CheckConservation())
	return g, tr, players[0], players[1]
}

// takeFromSupply removes one copy of name from its pile.
func takeFromSupply(t *testing.T, g *Game, name string) *Card {
	t.Helper()
	pile := g.pile(name)
	require.NotNil(t, pile, "no pile for %s", name)
	require.Positive(t, pile.Remaining, "pile %s is empty", name)
	pile.Remaining--
	return pile.Card
}

// setHand moves the player's hand to their discard pile and gives them the
// named cards from the supply.
func setHand(t *testing.T, g *Game, p *Player, names ...string) {
	t.Helper()
	p.discard = append(p.discard, p.hand...)
	p.hand = nil
	for _, name := range names {
		p.hand = append(p.hand, takeFromSupply(t, g, name))
	}
}

// stackDeck moves the player's deck to their discard pile and lays the named
// cards on it so that names[0] is drawn first.
func stackDeck(t *testing.T, g *Game, p *Player, names ...string) {
	t.Helper()
	p.discard = append(p.discard, p.deck...)
	p.deck = nil
	for i := len(names) - 1; i >= 0; i-- {
		p.putOnDeck(takeFromSupply(t, g, names[i]))
	}
}

// beginActions drops outstanding decisions and restarts p's action phase
// with fresh turn resources.
func beginActions(g *Game, p *Player) {
	g.broker.Clear()
	p.queue.Clear()
	p.phase = rules.PhaseAction
	p.Actions = 1
	p.Buys = 1
	p.Coin = 0
	g.actionPhase(p)
}

// beginBuys drops outstanding decisions and restarts p's buy phase.
func beginBuys(g *Game, p *Player, buys int) {
	g.broker.Clear()
	p.queue.Clear()
	p.Actions = 0
	p.Buys = buys
	p.Coin = 0
	g.buyPhase(p)
}

func head(t *testing.T, g *Game, p *Player) decision.Decision {
	t.Helper()
	d, ok := g.broker.Head(p.ID)
	require.True(t, ok, "%s has no outstanding decision", p.Name)
	return d
}

// keyFor returns the key of the head option whose text starts with text.
func keyFor(t *testing.T, g *Game, p *Player, text string) string {
	t.Helper()
	d := head(t, g, p)
	for _, opt := range d.Options {
		if strings.HasPrefix(opt.Text, text) {
			return opt.Key
		}
	}
	t.Fatalf("%s has no option %q in %+v", p.Name, text, d.Options)
	return ""
}

func respond(t *testing.T, g *Game, p *Player, key string) {
	t.Helper()
	require.Equal(t, decision.ResultAccepted, g.Respond(p.ID, key))
	require.NoError(t, g.CheckConservation())
}

func choose(t *testing.T, g *Game, p *Player, text string) {
	t.Helper()
	respond(t, g, p, keyFor(t, g, p, text))
}

func handNames(p *Player) []string {
	return cardNames(p.hand)
}

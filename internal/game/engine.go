package game

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/thraizz/kingdom-server-go/internal/game/decision"
	"github.com/thraizz/kingdom-server-go/internal/game/rules"
)

// thunks binds effects to a context so the player's queue can run them.
func thunks(ctx *Context, effects []Effect) []rules.Thunk {
	out := make([]rules.Thunk, len(effects))
	for i, effect := range effects {
		effect := effect
		out[i] = func(resume func()) {
			effect(ctx, resume)
		}
	}
	return out
}

// playThunks returns the resolution of one card play. A playable card
// without effects is a catalog defect.
func (g *Game) playThunks(p *Player, card *Card, pl *play) []rules.Thunk {
	if len(card.Effects) == 0 {
		panic(fmt.Sprintf("card %q has no effects to play", card.Name))
	}
	ctx := &Context{Game: g, Player: p, Active: p, Source: card, play: pl}
	return thunks(ctx, card.Effects)
}

// putInPlay moves a card into play and records the play.
func (g *Game) putInPlay(p *Player, card *Card) *play {
	p.inPlay = append(p.inPlay, card)
	pl := &play{card: card}
	if card.Is(TypeDuration) {
		pl.held = true
		p.held = append(p.held, pl)
	}
	g.publish(rules.Event{Type: rules.EventCardPlayed, PlayerID: p.ID, Card: card.Name})
	return pl
}

// run starts the player's queue and calls then once it drains.
func (g *Game) run(p *Player, work []rules.Thunk, then func()) {
	if p.queue.Busy() {
		panic(fmt.Sprintf("effect chain already running for player %d", p.ID))
	}
	p.queue.Enqueue(work...)
	p.queue.Run(func() {
		g.verifyConservation()
		if g.ended {
			return
		}
		then()
	})
}

func (g *Game) ask(d decision.Decision, handler decision.Handler) {
	if g.ended {
		return
	}
	if d.Info == nil {
		if p, ok := g.Player(d.PlayerID); ok {
			d.Info = g.statusInfo(p)
		}
	}
	g.broker.Ask(d, handler)
}

func (g *Game) logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	g.log = append(g.log, line)
	g.logger.Debug(line)
}

func (g *Game) publish(event rules.Event) {
	if g.order != nil && len(g.players) > 0 {
		event.ActiveID = g.players[g.order.Active()].ID
	}
	g.watchers.Notify(event)
	g.bus.Publish(event)
}

// draw moves up to n cards into the player's hand.
func (g *Game) draw(p *Player, n int) int {
	before := p.shuffles
	drawn := p.draw(n, g.rng)
	g.noteShuffles(p, before)
	return drawn
}

func (g *Game) takeTop(p *Player) *Card {
	before := p.shuffles
	card := p.takeTop(g.rng)
	g.noteShuffles(p, before)
	return card
}

func (g *Game) ensureDeck(p *Player, n int) {
	before := p.shuffles
	p.ensureDeck(n, g.rng)
	g.noteShuffles(p, before)
}

func (g *Game) noteShuffles(p *Player, before int) {
	for i := before; i < p.shuffles; i++ {
		g.logf("%s shuffles their deck.", p.Name)
		g.publish(rules.Event{Type: rules.EventDeckShuffled, PlayerID: p.ID})
	}
}

// gain takes one card from its pile. It reports false when the pile is
// missing or empty.
func (g *Game) gain(p *Player, name string, place Placement) bool {
	pile := g.pile(name)
	if pile == nil || pile.Remaining <= 0 {
		g.logf("%s cannot gain %s: the pile is empty.", p.Name, name)
		return false
	}
	pile.Remaining--
	place(p, pile.Card)
	g.logf("%s gains %s.", p.Name, name)
	g.publishGain(p, pile.Card)
	return true
}

func (g *Game) publishGain(p *Player, card *Card) {
	g.publish(rules.Event{Type: rules.EventCardGained, PlayerID: p.ID, Card: card.Name})
}

func (g *Game) trashCard(p *Player, card *Card) {
	g.trash = append(g.trash, card)
	g.logf("%s trashes %s.", p.Name, card.Name)
	g.publish(rules.Event{Type: rules.EventCardTrashed, PlayerID: p.ID, Card: card.Name})
}

func (g *Game) trashFromHand(p *Player, index int) *Card {
	card := p.removeFromHand(index)
	if card != nil {
		g.trashCard(p, card)
	}
	return card
}

func (g *Game) discardFromHand(p *Player, index int) *Card {
	card := p.removeFromHand(index)
	if card != nil {
		p.discard = append(p.discard, card)
		g.logf("%s discards %s.", p.Name, card.Name)
	}
	return card
}

// takeFromTrash removes the most recently trashed copy of card.
func (g *Game) takeFromTrash(card *Card) bool {
	for i := len(g.trash) - 1; i >= 0; i-- {
		if g.trash[i] == card {
			g.trash = append(g.trash[:i], g.trash[i+1:]...)
			return true
		}
	}
	return false
}

// targets lists the players an EveryPlayer effect visits.
func (g *Game) targets(ctx *Context, includeSelf, attack bool) []*Player {
	n := len(g.players)
	targets := make([]*Player, 0, n)
	for offset := 1; offset <= n; offset++ {
		t := g.players[g.order.After(ctx.Active.seat, offset)]
		if t == ctx.Active && !includeSelf {
			continue
		}
		if attack && t != ctx.Active {
			if blocker, immune := t.immuneToAttacks(); immune {
				g.logf("%s is unaffected by %s thanks to %s.", t.Name, ctx.Source.Name, blocker.Name)
				g.publish(rules.Event{
					Type:        rules.EventAttackBlocked,
					PlayerID:    t.ID,
					Card:        ctx.Source.Name,
					Description: blocker.Name,
				})
				continue
			}
		}
		targets = append(targets, t)
	}
	return targets
}

// statusInfo lists the player's resources, hand, mats and held Durations.
func (g *Game) statusInfo(p *Player) []string {
	info := []string{
		fmt.Sprintf("Actions: %d", p.Actions),
		fmt.Sprintf("Buys: %d", p.Buys),
		fmt.Sprintf("Coin: %d", p.Coin),
		"Hand: " + cardList(p.hand),
	}
	mats := make([]string, 0, len(p.mats))
	for name, cards := range p.mats {
		if len(cards) > 0 {
			mats = append(mats, name)
		}
	}
	sort.Strings(mats)
	for _, name := range mats {
		info = append(info, fmt.Sprintf("%s mat: %s", name, cardList(p.mats[name])))
	}
	if len(p.duration) > 0 {
		info = append(info, "Durations: "+cardList(p.duration))
	}
	if p.VPTokens > 0 {
		info = append(info, fmt.Sprintf("VP tokens: %d", p.VPTokens))
	}
	return info
}

func cardList(cards []*Card) string {
	if len(cards) == 0 {
		return "(empty)"
	}
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

// verifyConservation logs any supply accounting error when enabled.
func (g *Game) verifyConservation() {
	if !g.opts.VerifyConservation || !g.started {
		return
	}
	if err := g.CheckConservation(); err != nil {
		g.logger.Error("card conservation violated", zap.Error(err))
	}
}

package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/thraizz/kingdom-server-go/internal/game/decision"
	"github.com/thraizz/kingdom-server-go/internal/game/rules"
)

const outpostHandSize = 3

// TurnOverMessage tells a player their turn has finished.
type TurnOverMessage struct {
	TurnOver int `json:"turn_over"`
}

// setPhase moves the player to phase and publishes the change. Transitions
// out of turn order are logged and applied anyway.
func (g *Game) setPhase(p *Player, phase rules.Phase) {
	if !p.phase.CanAdvanceTo(phase) {
		g.logger.Error("illegal phase transition",
			zap.Int("player_id", p.ID),
			zap.Stringer("from", p.phase),
			zap.Stringer("to", phase),
		)
	}
	p.phase = phase
	event := rules.NewEvent(rules.EventPhaseChanged, p.ID, "")
	event.Description = phase.String()
	g.publish(event)
}

// turnStart resets the player's counters, then resolves held Duration cards.
func (g *Game) turnStart(p *Player) {
	g.setPhase(p, rules.PhaseAction)
	g.watchers.ResetPlayer(p.ID)
	p.Actions = 1
	p.Buys = 1
	p.Coin = 0

	g.logf("%s begins turn %d.", p.Name, g.order.TurnNumber())
	g.logger.Debug("turn started",
		zap.Int("player_id", p.ID),
		zap.Int("turn", g.order.TurnNumber()),
	)
	g.publish(rules.Event{Type: rules.EventTurnStarted, PlayerID: p.ID})

	held := p.duration
	p.duration = nil
	var work []rules.Thunk
	for _, card := range held {
		p.inPlay = append(p.inPlay, card)
		if len(card.NextTurn) == 0 {
			continue
		}
		ctx := &Context{Game: g, Player: p, Active: p, Source: card, play: &play{card: card}}
		work = append(work, thunks(ctx, card.NextTurn)...)
	}
	g.run(p, work, func() { g.actionPhase(p) })
}

// actionPhase offers Action cards until the player moves on or cannot play.
func (g *Game) actionPhase(p *Player) {
	playable := p.handIndexes(func(c *Card) bool { return c.Is(TypeAction) })
	if p.Actions <= 0 || len(playable) == 0 {
		g.buyPhase(p)
		return
	}

	options := make([]decision.Option, 0, len(playable)+1)
	for _, i := range playable {
		options = append(options, decision.Option{Key: decision.CardKey(i), Text: p.hand[i].Name})
	}
	options = append(options, decision.Option{Key: decision.KeyBuy, Text: "Proceed to Buy phase"})

	g.ask(decision.Decision{
		PlayerID: p.ID,
		Options:  options,
		Message:  "Play an Action card or proceed to the Buy phase.",
		Info:     g.statusInfo(p),
	}, func(key string) {
		if key == decision.KeyBuy {
			g.buyPhase(p)
			return
		}
		idx, _ := decision.ParseCardKey(key)
		g.playAction(p, idx)
	})
}

// playAction plays the Action card at hand index idx.
func (g *Game) playAction(p *Player, idx int) {
	if p.Actions <= 0 || idx < 0 || idx >= len(p.hand) || !p.hand[idx].Is(TypeAction) {
		g.actionPhase(p)
		return
	}
	p.Actions--
	card := p.removeFromHand(idx)
	g.logf("%s plays %s.", p.Name, card.Name)
	pl := g.putInPlay(p, card)
	g.run(p, g.playThunks(p, card, pl), func() { g.actionPhase(p) })
}

// buyPhase plays treasures, automatically or one at a time, then buys.
func (g *Game) buyPhase(p *Player) {
	g.setPhase(p, rules.PhaseBuy)
	if g.opts.AutoPlayTreasures {
		g.playTreasures(p, p.handIndexes(func(c *Card) bool { return c.Is(TypeTreasure) }), func() { g.buyLoop(p) })
		return
	}
	g.treasureLoop(p)
}

func (g *Game) treasureLoop(p *Player) {
	treasures := p.handIndexes(func(c *Card) bool { return c.Is(TypeTreasure) })
	if len(treasures) == 0 {
		g.buyLoop(p)
		return
	}

	options := make([]decision.Option, 0, len(treasures)+2)
	for _, i := range treasures {
		options = append(options, decision.Option{Key: decision.CardKey(i), Text: p.hand[i].Name})
	}
	options = append(options,
		decision.Option{Key: decision.KeyAll, Text: "Play all Treasures"},
		decision.Option{Key: decision.KeyBuy, Text: "Buy cards"},
	)

	g.ask(decision.Decision{
		PlayerID: p.ID,
		Options:  options,
		Message:  "Play Treasures, or start buying.",
		Info:     g.statusInfo(p),
	}, func(key string) {
		switch key {
		case decision.KeyBuy:
			g.buyLoop(p)
		case decision.KeyAll:
			g.playTreasures(p, treasures, func() { g.buyLoop(p) })
		default:
			idx, _ := decision.ParseCardKey(key)
			g.playTreasures(p, []int{idx}, func() { g.treasureLoop(p) })
		}
	})
}

// playTreasures plays the hand cards at the given indexes in order.
func (g *Game) playTreasures(p *Player, indexes []int, then func()) {
	cards := make([]*Card, 0, len(indexes))
	for i := len(indexes) - 1; i >= 0; i-- {
		if card := p.removeFromHand(indexes[i]); card != nil {
			cards = append([]*Card{card}, cards...)
		}
	}
	var work []rules.Thunk
	for _, card := range cards {
		g.logf("%s plays %s.", p.Name, card.Name)
		pl := g.putInPlay(p, card)
		work = append(work, g.playThunks(p, card, pl)...)
	}
	g.run(p, work, then)
}

// buyLoop offers affordable piles until the player ends the turn or runs
// out of buys.
func (g *Game) buyLoop(p *Player) {
	if p.Buys <= 0 {
		g.cleanup(p)
		return
	}

	var options []decision.Option
	for i, pile := range g.piles {
		if pile.Remaining > 0 && pile.Card.Cost <= p.Coin {
			options = append(options, decision.Option{
				Key:  decision.CardKey(i),
				Text: fmt.Sprintf("%s ($%d)", pile.Card.Name, pile.Card.Cost),
			})
		}
	}
	options = append(options, decision.Option{Key: decision.KeyEnd, Text: "End turn"})

	g.ask(decision.Decision{
		PlayerID: p.ID,
		Options:  options,
		Message:  "Buy a card or end your turn.",
		Info:     g.statusInfo(p),
	}, func(key string) {
		if key == decision.KeyEnd {
			g.cleanup(p)
			return
		}
		idx, _ := decision.ParseCardKey(key)
		g.buy(p, idx, func() { g.buyLoop(p) })
	})
}

// buy takes a card from pile idx into the discard pile, then resolves
// on-buy triggers.
func (g *Game) buy(p *Player, idx int, then func()) {
	if idx < 0 || idx >= len(g.piles) {
		then()
		return
	}
	pile := g.piles[idx]
	if pile.Remaining <= 0 || pile.Card.Cost > p.Coin || p.Buys <= 0 {
		then()
		return
	}

	pile.Remaining--
	p.discard = append(p.discard, pile.Card)
	p.Coin -= pile.Card.Cost
	p.Buys--
	g.logf("%s buys %s.", p.Name, pile.Card.Name)

	bought := rules.Event{Type: rules.EventCardBought, PlayerID: p.ID, Card: pile.Card.Name, Amount: pile.Card.Cost}
	g.publish(rules.Event{Type: rules.EventCardGained, PlayerID: p.ID, Card: pile.Card.Name})
	g.publish(bought)
	g.run(p, g.triggers.Handle(bought), then)
}

// cleanup discards everything except held Duration cards, draws the next
// hand and passes the turn on.
func (g *Game) cleanup(p *Player) {
	g.setPhase(p, rules.PhaseCleanup)

	for _, pl := range p.held {
		if pl.gone {
			continue
		}
		if p.removeFromPlay(pl.card) {
			p.duration = append(p.duration, pl.card)
		}
	}
	p.held = nil

	p.discard = append(p.discard, p.inPlay...)
	p.discard = append(p.discard, p.hand...)
	p.inPlay = nil
	p.hand = nil

	handSize := startingHandSize
	if p.outpostPlayed {
		handSize = outpostHandSize
	}
	g.draw(p, handSize)

	g.setPhase(p, rules.PhaseNotPlaying)
	g.logf("%s ends their turn.", p.Name)
	g.publish(rules.Event{Type: rules.EventTurnEnded, PlayerID: p.ID})
	g.send(p.ID, TurnOverMessage{TurnOver: 1})

	extra := p.outpostPlayed && !p.onExtraTurn
	p.outpostPlayed = false
	if extra {
		g.extraTurn(p)
		return
	}
	p.onExtraTurn = false
	g.nextPlayer()
}

// extraTurn gives the same player another turn, unless the game is over.
func (g *Game) extraTurn(p *Player) {
	g.broadcastKingdom()
	if g.checkEndOfGame() {
		g.endGame()
		return
	}
	p.onExtraTurn = true
	g.order.Repeat()
	g.logf("%s takes an extra turn.", p.Name)
	g.turnStart(p)
}

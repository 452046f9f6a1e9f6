package game

import (
	"fmt"
	"strings"

	"github.com/thraizz/kingdom-server-go/internal/game/decision"
)

// Response keys used by individual cards.
const (
	keyDiscard = "discard"
	keyKeep    = "keep"
	keyMat     = "mat"
	keyTake    = "take"
)

// StandardRules returns the coded behaviour of every card in the embedded
// catalog.
func StandardRules() Rulebook {
	rb := Rulebook{}
	addBaseRules(rb)
	addSeasideRules(rb)
	addExtraRules(rb)
	return rb
}

func isAction(c *Card) bool   { return c.Is(TypeAction) }
func isTreasure(c *Card) bool { return c.Is(TypeTreasure) }
func isVictory(c *Card) bool  { return c.Is(TypeVictory) }

func named(name string) func(*Card) bool {
	return func(c *Card) bool { return c.Name == name }
}

func addBaseRules(rb Rulebook) {
	rb["Cellar"] = CardRules{Effects: []Effect{
		DiscardMany(func(ctx *Context, discarded []*Card, resume func()) {
			PlusCards(len(discarded))(ctx, resume)
		}),
	}}

	rb["Chapel"] = CardRules{Effects: []Effect{
		RepeatUpTo(4, "Choose a card to trash.", "Done trashing", handOptions(nil), func(ctx *Context, index int) {
			ctx.Game.trashFromHand(ctx.Player, index)
		}),
	}}

	rb["Moat"] = CardRules{Immunity: ImmunityFromHand}

	rb["Chancellor"] = CardRules{Effects: []Effect{
		YesNo("Do you want to move your deck to your discard pile?", Do(func(ctx *Context) {
			p := ctx.Player
			p.discard = append(p.discard, p.deck...)
			p.deck = nil
			ctx.Game.logf("%s puts their deck into their discard pile.", p.Name)
		}), nil),
	}}

	rb["Workshop"] = CardRules{Effects: []Effect{
		GainCostingUpTo(4, nil, ToDiscard),
	}}

	rb["Bureaucrat"] = CardRules{Effects: []Effect{
		GainCard("Silver", ToDeck),
		EveryOtherPlayer(true, true, bureaucratAttack),
	}}

	rb["Feast"] = CardRules{Effects: []Effect{
		TrashSelf(),
		GainCostingUpTo(5, nil, ToDiscard),
	}}

	rb["Gardens"] = CardRules{Score: func(owned []*Card) int {
		return len(owned) / 10
	}}

	rb["Militia"] = CardRules{Effects: []Effect{
		EveryOtherPlayer(true, true, discardDownTo(3)),
	}}

	rb["Moneylender"] = CardRules{Effects: []Effect{
		Conditional(func(ctx *Context) bool {
			return ctx.Player.hasInHand(named("Copper"))
		}, YesNo("Do you want to trash a Copper for +3 Coins?", Do(func(ctx *Context) {
			p := ctx.Player
			if idx := p.handIndexes(named("Copper")); len(idx) > 0 {
				ctx.Game.trashFromHand(p, idx[0])
				p.Coin += 3
				ctx.Game.logf("%s gets +3 Coin.", p.Name)
			}
		}), nil)),
	}}

	rb["Remodel"] = CardRules{Effects: []Effect{
		ChooseFromHand("Choose a card to trash.", "", nil, func(ctx *Context, index int, card *Card, resume func()) {
			if card == nil {
				resume()
				return
			}
			ctx.Game.trashFromHand(ctx.Player, index)
			GainCostingUpTo(card.Cost+2, nil, ToDiscard)(ctx, resume)
		}),
	}}

	rb["Spy"] = CardRules{Effects: []Effect{
		EveryPlayer(true, false, true, spyReveal),
	}}

	rb["Thief"] = CardRules{Effects: []Effect{
		EveryOtherPlayer(false, true, thiefAttack),
	}}

	rb["Throne Room"] = CardRules{Effects: []Effect{
		ChooseFromHand("Choose an Action card to play twice.", "", isAction, throneRoom),
	}}

	rb["Council Room"] = CardRules{Effects: []Effect{
		EveryOtherPlayer(false, false, PlusCards(1)),
	}}

	rb["Library"] = CardRules{Effects: []Effect{library}}

	rb["Mine"] = CardRules{Effects: []Effect{
		ChooseFromHand("Choose a Treasure to trash.", "", isTreasure, func(ctx *Context, index int, card *Card, resume func()) {
			if card == nil {
				resume()
				return
			}
			ctx.Game.trashFromHand(ctx.Player, index)
			GainCostingUpTo(card.Cost+3, isTreasure, ToHand)(ctx, resume)
		}),
	}}

	rb["Witch"] = CardRules{Effects: []Effect{
		EveryOtherPlayer(false, true, GainCard("Curse", ToDiscard)),
	}}

	rb["Adventurer"] = CardRules{Effects: []Effect{Do(adventurer)}}
}

// handOptions lists matching hand cards as card[i] options.
func handOptions(match func(*Card) bool) func(ctx *Context) []decision.Option {
	return func(ctx *Context) []decision.Option {
		p := ctx.Player
		var options []decision.Option
		for _, i := range p.handIndexes(match) {
			options = append(options, decision.Option{Key: decision.CardKey(i), Text: p.hand[i].Name})
		}
		return options
	}
}

// discardDownTo makes the player discard until n cards remain in hand.
func discardDownTo(n int) Effect {
	return func(ctx *Context, resume func()) {
		var step func()
		step = func() {
			if ctx.Player.HandSize() <= n {
				resume()
				return
			}
			message := fmt.Sprintf("%s played %s. Discard down to %d cards.", ctx.Active.Name, ctx.Source.Name, n)
			ChooseFromHand(message, "", nil, func(ctx *Context, index int, _ *Card, next func()) {
				ctx.Game.discardFromHand(ctx.Player, index)
				next()
			})(ctx, step)
		}
		step()
	}
}

// putBackDownTo makes the player put cards on their deck until n remain in
// hand.
func putBackDownTo(n int) Effect {
	return func(ctx *Context, resume func()) {
		var step func()
		step = func() {
			if ctx.Player.HandSize() <= n {
				resume()
				return
			}
			message := fmt.Sprintf("%s played %s. Put a card from your hand on top of your deck.", ctx.Active.Name, ctx.Source.Name)
			ChooseFromHand(message, "", nil, func(ctx *Context, index int, _ *Card, next func()) {
				p := ctx.Player
				if card := p.removeFromHand(index); card != nil {
					p.putOnDeck(card)
					ctx.Game.logf("%s puts a card on their deck.", p.Name)
				}
				next()
			})(ctx, step)
		}
		step()
	}
}

func bureaucratAttack(ctx *Context, resume func()) {
	g, p := ctx.Game, ctx.Player
	toDeck := func(index int) {
		card := p.removeFromHand(index)
		p.putOnDeck(card)
		g.logf("%s puts %s on their deck.", p.Name, card.Name)
	}

	victory := p.handIndexes(isVictory)
	switch len(victory) {
	case 0:
		g.logf("%s reveals a hand with no Victory cards: %s.", p.Name, strings.Join(cardNames(p.hand), ", "))
		resume()
	case 1:
		toDeck(victory[0])
		resume()
	default:
		message := fmt.Sprintf("%s has played a Bureaucrat. Choose a Victory card from your hand to put on top of your deck.", ctx.Active.Name)
		ChooseFromHand(message, "", isVictory, func(ctx *Context, index int, _ *Card, resume func()) {
			toDeck(index)
			resume()
		})(ctx, resume)
	}
}

func spyReveal(ctx *Context, resume func()) {
	g, target := ctx.Game, ctx.Player
	revealed := g.reveal(target, 1)
	if len(revealed) == 0 {
		resume()
		return
	}
	card := revealed[0]
	g.ask(decision.Decision{
		PlayerID: ctx.Active.ID,
		Options: []decision.Option{
			{Key: keyDiscard, Text: "Discard it"},
			{Key: keyKeep, Text: "Put it back"},
		},
		Message: fmt.Sprintf("%s reveals %s from the top of their deck.", target.Name, card.Name),
	}, func(key string) {
		g.fromRevealed(target, card)
		if key == keyDiscard {
			target.discard = append(target.discard, card)
			g.logf("%s discards %s.", target.Name, card.Name)
		} else {
			target.putOnDeck(card)
			g.logf("%s puts %s back.", target.Name, card.Name)
		}
		resume()
	})
}

func thiefAttack(ctx *Context, resume func()) {
	g, target, thief := ctx.Game, ctx.Player, ctx.Active
	revealed := g.reveal(target, 2)

	finish := func() {
		for _, c := range revealed {
			if g.fromRevealed(target, c) {
				target.discard = append(target.discard, c)
			}
		}
		resume()
	}

	var treasures []*Card
	for _, c := range revealed {
		if c.Is(TypeTreasure) {
			treasures = append(treasures, c)
		}
	}
	if len(treasures) == 0 {
		finish()
		return
	}

	g.ask(decision.Decision{
		PlayerID: thief.ID,
		Options:  decision.CardOptions(cardNames(treasures)),
		Message:  fmt.Sprintf("Choose a Treasure of %s's to trash.", target.Name),
	}, func(key string) {
		idx, _ := decision.ParseCardKey(key)
		card := treasures[idx]
		g.fromRevealed(target, card)
		g.trashCard(target, card)
		g.ask(decision.Decision{
			PlayerID: thief.ID,
			Options:  decision.YesNoOptions(),
			Message:  fmt.Sprintf("Do you want to gain the trashed %s?", card.Name),
		}, func(key string) {
			if key == decision.KeyYes && g.takeFromTrash(card) {
				thief.discard = append(thief.discard, card)
				g.logf("%s gains %s from the trash.", thief.Name, card.Name)
				g.publishGain(thief, card)
			}
			finish()
		})
	})
}

func throneRoom(ctx *Context, index int, card *Card, resume func()) {
	g, p := ctx.Game, ctx.Player
	if card == nil {
		g.logf("%s has no Action card to play twice.", p.Name)
		resume()
		return
	}
	p.removeFromHand(index)
	g.logf("%s plays %s twice.", p.Name, card.Name)
	pl := g.putInPlay(p, card)
	work := g.playThunks(p, card, pl)
	work = append(work, g.playThunks(p, card, pl)...)
	p.queue.Push(work...)
	resume()
}

func library(ctx *Context, resume func()) {
	g, p := ctx.Game, ctx.Player
	var setAside []*Card

	finish := func() {
		for _, c := range setAside {
			if g.fromRevealed(p, c) {
				p.discard = append(p.discard, c)
			}
		}
		resume()
	}

	var step func()
	step = func() {
		for p.HandSize() < 7 {
			card := g.takeTop(p)
			if card == nil {
				break
			}
			if !card.Is(TypeAction) {
				p.hand = append(p.hand, card)
				continue
			}
			p.revealed = append(p.revealed, card)
			g.ask(decision.Decision{
				PlayerID: p.ID,
				Options:  decision.YesNoOptions(),
				Message:  fmt.Sprintf("You drew %s. Do you want to set it aside?", card.Name),
			}, func(key string) {
				if key == decision.KeyYes {
					setAside = append(setAside, card)
					g.logf("%s sets aside %s.", p.Name, card.Name)
				} else {
					g.fromRevealed(p, card)
					p.hand = append(p.hand, card)
				}
				step()
			})
			return
		}
		finish()
	}
	step()
}

func adventurer(ctx *Context) {
	g, p := ctx.Game, ctx.Player
	var found, others []*Card
	for len(found) < 2 {
		card := g.takeTop(p)
		if card == nil {
			break
		}
		if card.Is(TypeTreasure) {
			found = append(found, card)
		} else {
			others = append(others, card)
		}
	}
	p.hand = append(p.hand, found...)
	p.discard = append(p.discard, others...)
	g.logf("%s reveals %d %s and takes %s.", p.Name, len(found)+len(others),
		plural(len(found)+len(others), "card", "cards"), strings.Join(cardNames(found), ", "))
}

// reveal moves up to n cards from the top of the deck into the player's
// revealed zone and returns them, top first.
func (g *Game) reveal(p *Player, n int) []*Card {
	var revealed []*Card
	for i := 0; i < n; i++ {
		card := g.takeTop(p)
		if card == nil {
			break
		}
		revealed = append(revealed, card)
	}
	p.revealed = append(p.revealed, revealed...)
	if len(revealed) > 0 {
		g.logf("%s reveals %s.", p.Name, strings.Join(cardNames(revealed), ", "))
	}
	return revealed
}

// fromRevealed takes one copy of card out of the revealed zone.
func (g *Game) fromRevealed(p *Player, card *Card) bool {
	for i, c := range p.revealed {
		if c == card {
			p.revealed = append(p.revealed[:i], p.revealed[i+1:]...)
			return true
		}
	}
	return false
}

// chooseAmong asks the player to pick one of cards by position.
func (g *Game) chooseAmong(p *Player, cards []*Card, message string, then func(index int)) {
	g.ask(decision.Decision{
		PlayerID: p.ID,
		Options:  decision.CardOptions(cardNames(cards)),
		Message:  message,
	}, func(key string) {
		idx, _ := decision.ParseCardKey(key)
		then(idx)
	})
}

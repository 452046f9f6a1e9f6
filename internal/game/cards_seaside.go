package game

import (
	"fmt"

	"github.com/thraizz/kingdom-server-go/internal/game/decision"
)

func addSeasideRules(rb Rulebook) {
	rb["Embargo"] = CardRules{Effects: []Effect{
		TrashSelf(),
		ChooseFromSupply("Put an Embargo token on a Supply pile.", "", nil, func(ctx *Context, pile *KingdomPile, resume func()) {
			if pile != nil {
				pile.Embargo++
				ctx.Game.logf("%s puts an Embargo token on %s.", ctx.Player.Name, pile.Card.Name)
			}
			resume()
		}),
	}}

	rb["Haven"] = CardRules{
		Effects: []Effect{
			ChooseFromHand("Set aside a card from your hand.", "", nil, func(ctx *Context, index int, card *Card, resume func()) {
				if card != nil {
					p := ctx.Player
					p.removeFromHand(index)
					p.mats[MatHaven] = append(p.mats[MatHaven], card)
					ctx.Game.logf("%s sets aside a card.", p.Name)
				}
				resume()
			}),
		},
		NextTurn: []Effect{Do(func(ctx *Context) {
			p := ctx.Player
			if set := p.mats[MatHaven]; len(set) > 0 {
				p.hand = append(p.hand, set...)
				delete(p.mats, MatHaven)
				ctx.Game.logf("%s takes %d set aside %s.", p.Name, len(set), plural(len(set), "card", "cards"))
			}
		})},
	}

	rb["Lighthouse"] = CardRules{Immunity: ImmunityWhileInPlay}

	rb["Native Village"] = CardRules{Effects: []Effect{nativeVillage}}

	rb["Pearl Diver"] = CardRules{Effects: []Effect{pearlDiver}}

	rb["Lookout"] = CardRules{Effects: []Effect{lookout}}

	rb["Smugglers"] = CardRules{Effects: []Effect{smugglers}}

	rb["Warehouse"] = CardRules{Effects: []Effect{discardExactly(3)}}

	rb["Cutpurse"] = CardRules{Effects: []Effect{
		EveryOtherPlayer(true, true, Do(func(ctx *Context) {
			p := ctx.Player
			copper := p.handIndexes(named("Copper"))
			if len(copper) == 0 {
				ctx.Game.logf("%s has no Copper in hand.", p.Name)
				return
			}
			ctx.Game.discardFromHand(p, copper[0])
		})),
	}}

	rb["Island"] = CardRules{Effects: []Effect{island}}

	rb["Salvager"] = CardRules{Effects: []Effect{
		ChooseFromHand("Choose a card to trash.", "", nil, func(ctx *Context, index int, card *Card, resume func()) {
			if card != nil {
				p := ctx.Player
				ctx.Game.trashFromHand(p, index)
				p.Coin += card.Cost
				ctx.Game.logf("%s gets +%d Coin.", p.Name, card.Cost)
			}
			resume()
		}),
	}}

	rb["Sea Hag"] = CardRules{Effects: []Effect{
		EveryOtherPlayer(false, true, Sequence(
			Do(func(ctx *Context) {
				p := ctx.Player
				if top := ctx.Game.takeTop(p); top != nil {
					p.discard = append(p.discard, top)
					ctx.Game.logf("%s discards %s from their deck.", p.Name, top.Name)
				}
			}),
			GainCard("Curse", ToDeck),
		)),
	}}

	rb["Treasure Map"] = CardRules{Effects: []Effect{Do(treasureMap)}}

	rb["Outpost"] = CardRules{Effects: []Effect{Do(func(ctx *Context) {
		ctx.Player.outpostPlayed = true
		ctx.Game.logf("%s will take an extra turn after this one.", ctx.Player.Name)
	})}}

	rb["Ghost Ship"] = CardRules{Effects: []Effect{
		EveryOtherPlayer(true, true, putBackDownTo(3)),
	}}
}

func nativeVillage(ctx *Context, resume func()) {
	g, p := ctx.Game, ctx.Player
	g.ask(decision.Decision{
		PlayerID: p.ID,
		Options: []decision.Option{
			{Key: keyMat, Text: "Set aside the top card of your deck"},
			{Key: keyTake, Text: "Put the mat into your hand"},
		},
		Message: fmt.Sprintf("Your Native Village mat holds %d %s.", len(p.mats[MatNativeVillage]), plural(len(p.mats[MatNativeVillage]), "card", "cards")),
	}, func(key string) {
		if key == keyTake {
			set := p.mats[MatNativeVillage]
			p.hand = append(p.hand, set...)
			delete(p.mats, MatNativeVillage)
			g.logf("%s puts %d %s from their mat into their hand.", p.Name, len(set), plural(len(set), "card", "cards"))
		} else if top := g.takeTop(p); top != nil {
			p.mats[MatNativeVillage] = append(p.mats[MatNativeVillage], top)
			g.logf("%s sets aside a card on their Native Village mat.", p.Name)
		}
		resume()
	})
}

func pearlDiver(ctx *Context, resume func()) {
	g, p := ctx.Game, ctx.Player
	g.ensureDeck(p, 1)
	if len(p.deck) == 0 {
		resume()
		return
	}
	bottom := p.deck[0]
	message := fmt.Sprintf("The bottom card of your deck is %s. Put it on top?", bottom.Name)
	YesNo(message, Do(func(ctx *Context) {
		if len(p.deck) > 0 && p.deck[0] == bottom {
			p.deck = append(p.deck[1:], bottom)
			g.logf("%s moves the bottom card of their deck to the top.", p.Name)
		}
	}), nil)(ctx, resume)
}

func lookout(ctx *Context, resume func()) {
	g, p := ctx.Game, ctx.Player
	remaining := g.reveal(p, 3)
	if len(remaining) == 0 {
		resume()
		return
	}
	take := func(i int) *Card {
		card := remaining[i]
		remaining = append(remaining[:i:i], remaining[i+1:]...)
		g.fromRevealed(p, card)
		return card
	}

	g.chooseAmong(p, remaining, "Choose one of the cards to trash.", func(i int) {
		g.trashCard(p, take(i))
		if len(remaining) == 0 {
			resume()
			return
		}
		g.chooseAmong(p, remaining, "Choose one of the cards to discard.", func(i int) {
			card := take(i)
			p.discard = append(p.discard, card)
			g.logf("%s discards %s.", p.Name, card.Name)
			for _, c := range remaining {
				g.fromRevealed(p, c)
				p.putOnDeck(c)
			}
			resume()
		})
	})
}

func smugglers(ctx *Context, resume func()) {
	g, p := ctx.Game, ctx.Player
	right := g.players[g.order.After(p.seat, -1)]

	seen := make(map[string]bool)
	var names []string
	for _, name := range g.gains.Gains(right.ID) {
		if seen[name] {
			continue
		}
		seen[name] = true
		pile := g.pile(name)
		if pile == nil || pile.Remaining == 0 || pile.Card.Cost > 6 {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		g.logf("%s finds nothing to smuggle.", p.Name)
		resume()
		return
	}

	g.ask(decision.Decision{
		PlayerID: p.ID,
		Options:  decision.CardOptions(names),
		Message:  fmt.Sprintf("Gain a copy of a card %s gained on their last turn.", right.Name),
	}, func(key string) {
		idx, _ := decision.ParseCardKey(key)
		g.gain(p, names[idx], ToDiscard)
		resume()
	})
}

// discardExactly makes the player discard n cards, or their whole hand if
// it is smaller.
func discardExactly(n int) Effect {
	return func(ctx *Context, resume func()) {
		var step func(left int)
		step = func(left int) {
			if left <= 0 || ctx.Player.HandSize() == 0 {
				resume()
				return
			}
			message := fmt.Sprintf("Discard %d more %s.", left, plural(left, "card", "cards"))
			ChooseFromHand(message, "", nil, func(ctx *Context, index int, _ *Card, _ func()) {
				ctx.Game.discardFromHand(ctx.Player, index)
				step(left - 1)
			})(ctx, resume)
		}
		step(n)
	}
}

func island(ctx *Context, resume func()) {
	p := ctx.Player
	if ctx.takeSourceFromPlay() {
		p.mats[MatIsland] = append(p.mats[MatIsland], ctx.Source)
		ctx.Game.logf("%s sets aside %s on their Island mat.", p.Name, ctx.Source.Name)
	}
	ChooseFromHand("Choose a card to set aside on your Island mat.", "", nil, func(ctx *Context, index int, card *Card, resume func()) {
		if card != nil {
			p.removeFromHand(index)
			p.mats[MatIsland] = append(p.mats[MatIsland], card)
			ctx.Game.logf("%s sets aside %s on their Island mat.", p.Name, card.Name)
		}
		resume()
	})(ctx, resume)
}

func treasureMap(ctx *Context) {
	g, p := ctx.Game, ctx.Player
	trashedSelf := ctx.takeSourceFromPlay()
	if trashedSelf {
		g.trashCard(p, ctx.Source)
	}
	trashedOther := false
	if idx := p.handIndexes(named(ctx.Source.Name)); len(idx) > 0 {
		g.trashFromHand(p, idx[0])
		trashedOther = true
	}
	if trashedSelf && trashedOther {
		for i := 0; i < 4; i++ {
			g.gain(p, "Gold", ToDeck)
		}
	}
}

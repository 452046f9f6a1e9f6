package game

import (
	"fmt"

	"github.com/thraizz/kingdom-server-go/internal/game/decision"
)

// Effect is one step of a card's behaviour. It must call resume exactly once
// when it is finished, possibly after one or more decisions are answered.
type Effect func(ctx *Context, resume func())

// play is the state shared by every resolution of one card play. Throne Room
// resolves a card twice against the same play.
type play struct {
	card *Card
	// gone is set once the card has left play (trashed or set aside).
	gone bool
	held bool
}

// Context is what an effect acts on.
type Context struct {
	Game *Game
	// Player is the player the effect applies to.
	Player *Player
	// Active is the player whose card is resolving.
	Active *Player
	// Source is the card being resolved.
	Source *Card
	play   *play
}

// For returns a copy of the context that applies to another player.
func (ctx *Context) For(p *Player) *Context {
	c := *ctx
	c.Player = p
	return &c
}

// takeSourceFromPlay removes the resolving card from play once per play.
func (ctx *Context) takeSourceFromPlay() bool {
	if ctx.play == nil || ctx.play.gone {
		return false
	}
	if !ctx.Active.removeFromPlay(ctx.Source) {
		return false
	}
	ctx.play.gone = true
	return true
}

// Placement puts a gained card somewhere.
type Placement func(p *Player, c *Card)

var (
	ToDiscard Placement = func(p *Player, c *Card) { p.discard = append(p.discard, c) }
	ToDeck    Placement = func(p *Player, c *Card) { p.putOnDeck(c) }
	ToHand    Placement = func(p *Player, c *Card) { p.hand = append(p.hand, c) }
)

// Resource is a per-turn counter.
type Resource int

const (
	ResourceActions Resource = iota
	ResourceBuys
	ResourceCoin
)

var resourceNames = map[Resource]string{
	ResourceActions: "Actions",
	ResourceBuys:    "Buys",
	ResourceCoin:    "Coin",
}

func (r Resource) String() string {
	if name, ok := resourceNames[r]; ok {
		return name
	}
	return fmt.Sprintf("RESOURCE_%d", int(r))
}

// Do wraps a synchronous action as an effect.
func Do(f func(ctx *Context)) Effect {
	return func(ctx *Context, resume func()) {
		f(ctx)
		resume()
	}
}

// PlusResource adds n to one of the player's turn counters.
func PlusResource(field Resource, n int) Effect {
	return func(ctx *Context, resume func()) {
		p := ctx.Player
		switch field {
		case ResourceActions:
			p.Actions += n
		case ResourceBuys:
			p.Buys += n
		case ResourceCoin:
			p.Coin += n
		}
		ctx.Game.logf("%s gets +%d %s.", p.Name, n, field)
		resume()
	}
}

func PlusActions(n int) Effect { return PlusResource(ResourceActions, n) }
func PlusBuys(n int) Effect    { return PlusResource(ResourceBuys, n) }
func PlusCoin(n int) Effect    { return PlusResource(ResourceCoin, n) }

// PlusCards draws n cards, stopping early if deck and discard run out.
func PlusCards(n int) Effect {
	return func(ctx *Context, resume func()) {
		drawn := ctx.Game.draw(ctx.Player, n)
		ctx.Game.logf("%s draws %d %s.", ctx.Player.Name, drawn, plural(drawn, "card", "cards"))
		resume()
	}
}

// DiscardThen continues after DiscardMany with the cards discarded.
type DiscardThen func(ctx *Context, discarded []*Card, resume func())

// DiscardMany lets the player discard cards one at a time until they choose
// done or their hand is empty.
func DiscardMany(then DiscardThen) Effect {
	return func(ctx *Context, resume func()) {
		var discarded []*Card
		var step func()
		step = func() {
			p := ctx.Player
			if p.HandSize() == 0 {
				then(ctx, discarded, resume)
				return
			}
			options := decision.CardOptions(cardNames(p.hand))
			options = append(options, decision.Option{Key: decision.KeyDone, Text: "Done discarding"})
			ctx.Game.ask(decision.Decision{
				PlayerID:   p.ID,
				Options:    options,
				Message:    "Choose the next card to discard, or stop discarding.",
				IndexRange: p.HandSize(),
			}, func(key string) {
				if key == decision.KeyDone {
					then(ctx, discarded, resume)
					return
				}
				idx, _ := decision.ParseCardKey(key)
				if card := ctx.Game.discardFromHand(p, idx); card != nil {
					discarded = append(discarded, card)
				}
				step()
			})
		}
		step()
	}
}

// RepeatUpTo offers up to times choices from options plus done. apply runs
// for each accepted card[N] choice with N.
func RepeatUpTo(times int, message, doneText string, options func(ctx *Context) []decision.Option, apply func(ctx *Context, index int)) Effect {
	return func(ctx *Context, resume func()) {
		var step func(left int)
		step = func(left int) {
			if left <= 0 {
				resume()
				return
			}
			opts := options(ctx)
			if len(opts) == 0 {
				resume()
				return
			}
			opts = append(opts, decision.Option{Key: decision.KeyDone, Text: doneText})
			ctx.Game.ask(decision.Decision{
				PlayerID: ctx.Player.ID,
				Options:  opts,
				Message:  message,
			}, func(key string) {
				if key == decision.KeyDone {
					resume()
					return
				}
				idx, _ := decision.ParseCardKey(key)
				apply(ctx, idx)
				step(left - 1)
			})
		}
		step(times)
	}
}

// YesNo asks a yes/no question and runs exactly one branch. A nil branch
// does nothing.
func YesNo(message string, onYes, onNo Effect) Effect {
	return func(ctx *Context, resume func()) {
		ctx.Game.ask(decision.Decision{
			PlayerID: ctx.Player.ID,
			Options:  decision.YesNoOptions(),
			Message:  message,
		}, func(key string) {
			branch := onNo
			if key == decision.KeyYes {
				branch = onYes
			}
			if branch == nil {
				resume()
				return
			}
			branch(ctx, resume)
		})
	}
}

// Conditional runs effect only when pred holds.
func Conditional(pred func(ctx *Context) bool, effect Effect) Effect {
	return func(ctx *Context, resume func()) {
		if !pred(ctx) {
			resume()
			return
		}
		effect(ctx, resume)
	}
}

// Sequence runs effects one after another.
func Sequence(effects ...Effect) Effect {
	return func(ctx *Context, resume func()) {
		var step func(i int)
		step = func(i int) {
			if i >= len(effects) {
				resume()
				return
			}
			effects[i](ctx, once(func() { step(i + 1) }))
		}
		step(0)
	}
}

// GainCard takes the named card from the supply and places it. A missing or
// empty pile is a no-op.
func GainCard(name string, place Placement) Effect {
	return func(ctx *Context, resume func()) {
		ctx.Game.gain(ctx.Player, name, place)
		resume()
	}
}

// EveryOtherPlayer applies effect to each other player in table order,
// starting after the active player.
func EveryOtherPlayer(parallel, attack bool, effect Effect) Effect {
	return EveryPlayer(false, parallel, attack, effect)
}

// EveryPlayer applies effect to players in table order starting after the
// active player, ending with the active player when includeSelf is set.
// Attacks skip players holding an immunity card. In sequential mode each
// target starts after the previous one finished; in parallel mode every
// target starts at once and the effect finishes with the last of them.
func EveryPlayer(includeSelf, parallel, attack bool, effect Effect) Effect {
	return func(ctx *Context, resume func()) {
		g := ctx.Game
		targets := g.targets(ctx, includeSelf, attack)

		if !parallel {
			var step func(i int)
			step = func(i int) {
				if i >= len(targets) {
					resume()
					return
				}
				effect(ctx.For(targets[i]), once(func() { step(i + 1) }))
			}
			step(0)
			return
		}

		pending := len(targets)
		sending := true
		finished := false
		finish := func() {
			if !sending && pending == 0 && !finished {
				finished = true
				resume()
			}
		}
		for _, t := range targets {
			effect(ctx.For(t), once(func() {
				pending--
				finish()
			}))
		}
		sending = false
		finish()
	}
}

// HandChoice continues after ChooseFromHand. index is -1 and card nil when
// nothing was chosen.
type HandChoice func(ctx *Context, index int, card *Card, resume func())

// ChooseFromHand asks the player to pick a hand card matching match. An
// empty doneText makes the choice mandatory when any card matches.
func ChooseFromHand(message, doneText string, match func(*Card) bool, then HandChoice) Effect {
	return func(ctx *Context, resume func()) {
		p := ctx.Player
		indexes := p.handIndexes(match)
		if len(indexes) == 0 {
			then(ctx, -1, nil, resume)
			return
		}
		options := make([]decision.Option, 0, len(indexes)+1)
		for _, i := range indexes {
			options = append(options, decision.Option{Key: decision.CardKey(i), Text: p.hand[i].Name})
		}
		if doneText != "" {
			options = append(options, decision.Option{Key: decision.KeyDone, Text: doneText})
		}
		d := decision.Decision{
			PlayerID: p.ID,
			Options:  options,
			Message:  message,
		}
		if match == nil {
			d.IndexRange = p.HandSize()
		}
		ctx.Game.ask(d, func(key string) {
			idx, ok := decision.ParseCardKey(key)
			if !ok {
				then(ctx, -1, nil, resume)
				return
			}
			then(ctx, idx, p.hand[idx], resume)
		})
	}
}

// SupplyChoice continues after ChooseFromSupply. pile is nil when nothing
// was chosen.
type SupplyChoice func(ctx *Context, pile *KingdomPile, resume func())

// ChooseFromSupply asks the player to pick a supply pile matching match. An
// empty doneText makes the choice mandatory when any pile matches.
func ChooseFromSupply(message, doneText string, match func(*KingdomPile) bool, then SupplyChoice) Effect {
	return func(ctx *Context, resume func()) {
		g := ctx.Game
		var options []decision.Option
		for i, pile := range g.piles {
			if match == nil || match(pile) {
				options = append(options, decision.Option{
					Key:  decision.CardKey(i),
					Text: fmt.Sprintf("%s ($%d)", pile.Card.Name, pile.Card.Cost),
				})
			}
		}
		if len(options) == 0 {
			then(ctx, nil, resume)
			return
		}
		if doneText != "" {
			options = append(options, decision.Option{Key: decision.KeyDone, Text: doneText})
		}
		g.ask(decision.Decision{
			PlayerID: ctx.Player.ID,
			Options:  options,
			Message:  message,
		}, func(key string) {
			idx, ok := decision.ParseCardKey(key)
			if !ok {
				then(ctx, nil, resume)
				return
			}
			then(ctx, g.piles[idx], resume)
		})
	}
}

// GainCostingUpTo lets the player gain a card from a non-empty pile costing
// at most limit.
func GainCostingUpTo(limit int, match func(*Card) bool, place Placement) Effect {
	message := fmt.Sprintf("Gain a card costing up to %d Coins.", limit)
	return ChooseFromSupply(message, "", func(pile *KingdomPile) bool {
		return pile.Remaining > 0 && pile.Card.Cost <= limit && (match == nil || match(pile.Card))
	}, func(ctx *Context, pile *KingdomPile, resume func()) {
		if pile != nil {
			ctx.Game.gain(ctx.Player, pile.Card.Name, place)
		}
		resume()
	})
}

// TrashSelf trashes the resolving card. Only the first resolution of a play
// does anything.
func TrashSelf() Effect {
	return func(ctx *Context, resume func()) {
		if ctx.takeSourceFromPlay() {
			ctx.Game.trashCard(ctx.Active, ctx.Source)
		}
		resume()
	}
}

// once guards a resume so that only its first call has any effect.
func once(f func()) func() {
	called := false
	return func() {
		if called {
			return
		}
		called = true
		f()
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

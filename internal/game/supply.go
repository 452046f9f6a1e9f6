package game

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thraizz/kingdom-server-go/internal/game/rules"
)

const (
	treasurePileSize = 1000
	kingdomPileSize  = 10
	startingCoppers  = 7
	startingEstates  = 3
	startingHandSize = 5
)

var basePileOrder = []string{"Copper", "Silver", "Gold", "Estate", "Duchy", "Province", "Curse"}

// KingdomPile is one supply pile.
type KingdomPile struct {
	Card      *Card
	Remaining int
	Initial   int
	Embargo   int
}

func victoryPileSize(players int) int {
	if players <= 2 {
		return 8
	}
	return 12
}

func cursePileSize(players int) int {
	switch {
	case players <= 2:
		return 10
	case players == 3:
		return 20
	default:
		return 30
	}
}

func (g *Game) pileSize(card *Card) int {
	n := len(g.players)
	switch {
	case card.Is(TypeCurse):
		return cursePileSize(n)
	case card.Name == "Estate":
		return victoryPileSize(n) + startingEstates*n
	case card.Is(TypeVictory):
		return victoryPileSize(n)
	case !card.Kingdom && card.Is(TypeTreasure):
		return treasurePileSize
	default:
		return kingdomPileSize
	}
}

// setupSupply builds the base piles followed by the kingdom sorted by cost
// then name.
func (g *Game) setupSupply(kingdom []*Card) {
	sorted := append([]*Card(nil), kingdom...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Cost != sorted[j].Cost {
			return sorted[i].Cost < sorted[j].Cost
		}
		return sorted[i].Name < sorted[j].Name
	})

	var cards []*Card
	for _, name := range basePileOrder {
		if card, ok := g.catalog.Lookup(name); ok {
			cards = append(cards, card)
		}
	}
	cards = append(cards, sorted...)

	g.piles = make([]*KingdomPile, 0, len(cards))
	for _, card := range cards {
		size := g.pileSize(card)
		g.piles = append(g.piles, &KingdomPile{Card: card, Remaining: size, Initial: size})
	}
}

// pile returns the supply pile for a card name.
func (g *Game) pile(name string) *KingdomPile {
	for _, pile := range g.piles {
		if pile.Card.Name == name {
			return pile
		}
	}
	return nil
}

// Pile returns the supply pile for a card name.
func (g *Game) Pile(name string) (*KingdomPile, bool) {
	pile := g.pile(name)
	return pile, pile != nil
}

// dealStartingDeck takes the starting cards from the supply so the piles
// account for every card in the game.
func (g *Game) dealStartingDeck(p *Player) {
	for _, start := range []struct {
		name  string
		count int
	}{{"Copper", startingCoppers}, {"Estate", startingEstates}} {
		pile := g.pile(start.name)
		if pile == nil {
			continue
		}
		for i := 0; i < start.count && pile.Remaining > 0; i++ {
			pile.Remaining--
			p.deck = append(p.deck, pile.Card)
		}
	}
	g.rng.Shuffle(len(p.deck), func(i, j int) {
		p.deck[i], p.deck[j] = p.deck[j], p.deck[i]
	})
	g.draw(p, startingHandSize)
}

// registerBuyTriggers wires on-buy effects in a fixed order: Embargo curses
// first, then in-play Treasure reactions in kingdom order.
func (g *Game) registerBuyTriggers() {
	g.triggers.Register(rules.Trigger{
		Source:    "Embargo",
		EventType: rules.EventCardBought,
		Condition: func(e rules.Event) bool {
			pile := g.pile(e.Card)
			return pile != nil && pile.Embargo > 0
		},
		Build: func(e rules.Event) []rules.Thunk {
			buyer, _ := g.Player(e.PlayerID)
			tokens := g.pile(e.Card).Embargo
			out := make([]rules.Thunk, tokens)
			for i := range out {
				out[i] = func(resume func()) {
					g.gain(buyer, "Curse", ToDiscard)
					resume()
				}
			}
			return out
		},
	})

	for _, pile := range g.piles {
		card := pile.Card
		if card.OnBuy == nil {
			continue
		}
		g.triggers.Register(rules.Trigger{
			Source:    card.Name,
			EventType: rules.EventCardBought,
			Build: func(e rules.Event) []rules.Thunk {
				buyer, ok := g.Player(e.PlayerID)
				bought, found := g.catalog.Lookup(e.Card)
				if !ok || !found {
					return nil
				}
				var out []rules.Thunk
				for _, c := range buyer.inPlay {
					if c != card {
						continue
					}
					name, gains := card.OnBuy(bought)
					if !gains {
						continue
					}
					out = append(out, func(resume func()) {
						g.logf("%s's %s triggers.", buyer.Name, card.Name)
						g.gain(buyer, name, ToDiscard)
						resume()
					})
				}
				return out
			},
		})
	}
}

// CheckConservation verifies that every pile's remaining count plus the
// copies held by players and in the trash equals its initial size.
func (g *Game) CheckConservation() error {
	held := make(map[string]int)
	for _, p := range g.players {
		for _, c := range p.AllCards() {
			held[c.Name]++
		}
	}
	for _, c := range g.trash {
		held[c.Name]++
	}

	var problems []string
	for _, pile := range g.piles {
		name := pile.Card.Name
		if got := pile.Remaining + held[name]; got != pile.Initial {
			problems = append(problems, fmt.Sprintf("%s: %d remaining + %d held = %d, want %d",
				name, pile.Remaining, held[name], got, pile.Initial))
		}
		delete(held, name)
	}
	for name, n := range held {
		problems = append(problems, fmt.Sprintf("%s: %d copies outside the supply", name, n))
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("conservation: %s", strings.Join(problems, "; "))
	}
	return nil
}

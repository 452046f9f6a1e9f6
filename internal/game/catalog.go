package game

import (
	"fmt"
	"sort"

	"github.com/thraizz/kingdom-server-go/internal/game/catalog"
)

// CardRules is the coded behaviour attached to a catalog entry. Effects run
// after the entry's fixed bonuses.
type CardRules struct {
	Effects  []Effect
	NextTurn []Effect
	Score    func(owned []*Card) int
	Immunity Immunity
	OnBuy    BuyReaction
}

// Rulebook maps card names to coded behaviour.
type Rulebook map[string]CardRules

// Catalog is the set of card definitions available to games.
type Catalog struct {
	cards   map[string]*Card
	ordered []*Card
}

// NewCatalog binds catalog entries to a rulebook. It fails on rulebook
// names missing from the entries, on playable cards with nothing to do and
// on malformed entries.
func NewCatalog(entries []catalog.Entry, rulebook Rulebook) (*Catalog, error) {
	if err := catalog.Validate(entries); err != nil {
		return nil, err
	}

	c := &Catalog{
		cards:   make(map[string]*Card, len(entries)),
		ordered: make([]*Card, 0, len(entries)),
	}
	for _, e := range entries {
		card, err := bindEntry(e, rulebook[e.Name])
		if err != nil {
			return nil, err
		}
		c.cards[card.Name] = card
		c.ordered = append(c.ordered, card)
	}

	for name := range rulebook {
		if _, ok := c.cards[name]; !ok {
			return nil, fmt.Errorf("rulebook names unknown card %q", name)
		}
	}
	return c, nil
}

// DefaultCatalog binds the embedded card list to the standard rules.
func DefaultCatalog() (*Catalog, error) {
	entries, err := catalog.Default()
	if err != nil {
		return nil, err
	}
	return NewCatalog(entries, StandardRules())
}

func bindEntry(e catalog.Entry, coded CardRules) (*Card, error) {
	card := &Card{
		Name:     e.Name,
		Set:      e.Set,
		Cost:     e.Cost,
		Text:     e.Text,
		VP:       e.VP,
		Kingdom:  e.Supply == catalog.SupplyKingdom,
		Score:    coded.Score,
		Immunity: coded.Immunity,
		OnBuy:    coded.OnBuy,
	}
	for _, name := range e.Types {
		t, err := ParseCardType(name)
		if err != nil {
			return nil, fmt.Errorf("card %q: %w", e.Name, err)
		}
		card.Types |= t
	}

	card.Effects = append(bonusEffects(e.Bonus), coded.Effects...)
	card.NextTurn = append(bonusEffects(e.NextTurn), coded.NextTurn...)

	if card.Playable() && len(card.Effects) == 0 {
		return nil, fmt.Errorf("card %q is playable but has no effects", e.Name)
	}
	if len(card.NextTurn) > 0 && !card.Is(TypeDuration) {
		return nil, fmt.Errorf("card %q has next-turn effects but is not a Duration", e.Name)
	}
	if card.OnBuy != nil && !card.Is(TypeTreasure) {
		return nil, fmt.Errorf("card %q has a buy reaction but is not a Treasure", e.Name)
	}
	return card, nil
}

// bonusEffects normalizes fixed bonuses into effects, preserving order.
func bonusEffects(bonuses []catalog.Bonus) []Effect {
	effects := make([]Effect, 0, len(bonuses))
	for _, b := range bonuses {
		switch {
		case b.Cards > 0:
			effects = append(effects, PlusCards(b.Cards))
		case b.Actions > 0:
			effects = append(effects, PlusActions(b.Actions))
		case b.Buys > 0:
			effects = append(effects, PlusBuys(b.Buys))
		case b.Coin > 0:
			effects = append(effects, PlusCoin(b.Coin))
		}
	}
	return effects
}

// Lookup returns the card with the given name.
func (c *Catalog) Lookup(name string) (*Card, bool) {
	card, ok := c.cards[name]
	return card, ok
}

// Cards returns every card in catalog order.
func (c *Catalog) Cards() []*Card {
	return append([]*Card(nil), c.ordered...)
}

// KingdomEligible returns the cards that may be drawn into a kingdom,
// sorted by name.
func (c *Catalog) KingdomEligible() []*Card {
	var eligible []*Card
	for _, card := range c.ordered {
		if card.Kingdom {
			eligible = append(eligible, card)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].Name < eligible[j].Name
	})
	return eligible
}

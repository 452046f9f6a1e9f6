package game

import (
	"math/rand"
	"sort"

	"github.com/thraizz/kingdom-server-go/internal/game/rules"
)

// Mat names.
const (
	MatIsland        = "Island"
	MatNativeVillage = "Native Village"
	MatHaven         = "Haven"
)

// Player holds one seat's cards and turn resources. The top of the deck is
// the last element of the deck slice.
type Player struct {
	ID   int
	Name string
	seat int

	deck     []*Card
	hand     []*Card
	discard  []*Card
	inPlay   []*Card
	duration []*Card
	revealed []*Card
	mats     map[string][]*Card

	Actions  int
	Buys     int
	Coin     int
	VPTokens int

	phase rules.Phase
	queue *rules.Queue

	// held lists Duration plays made this turn; they stay out at cleanup.
	held          []*play
	outpostPlayed bool
	onExtraTurn   bool
	shuffles      int
}

func newPlayer(id int, name string, seat int) *Player {
	return &Player{
		ID:    id,
		Name:  name,
		seat:  seat,
		mats:  make(map[string][]*Card),
		phase: rules.PhaseNotPlaying,
		queue: rules.NewQueue(),
	}
}

// Seat returns the player's index in turn order.
func (p *Player) Seat() int { return p.seat }

// Phase returns the player's current turn phase.
func (p *Player) Phase() rules.Phase { return p.phase }

// Hand returns a copy of the hand.
func (p *Player) Hand() []*Card { return append([]*Card(nil), p.hand...) }

// Deck returns a copy of the deck, bottom first.
func (p *Player) Deck() []*Card { return append([]*Card(nil), p.deck...) }

// Discards returns a copy of the discard pile.
func (p *Player) Discards() []*Card { return append([]*Card(nil), p.discard...) }

// InPlay returns a copy of the cards played this turn.
func (p *Player) InPlay() []*Card { return append([]*Card(nil), p.inPlay...) }

// Durations returns a copy of the Duration cards held for next turn.
func (p *Player) Durations() []*Card { return append([]*Card(nil), p.duration...) }

// Mat returns a copy of the named mat.
func (p *Player) Mat(name string) []*Card { return append([]*Card(nil), p.mats[name]...) }

// HandSize returns the number of cards in hand.
func (p *Player) HandSize() int { return len(p.hand) }

// DeckSize returns the number of cards in the deck.
func (p *Player) DeckSize() int { return len(p.deck) }

// DiscardSize returns the number of cards in the discard pile.
func (p *Player) DiscardSize() int { return len(p.discard) }

// AllCards returns every card the player owns across all zones.
func (p *Player) AllCards() []*Card {
	all := make([]*Card, 0, len(p.deck)+len(p.hand)+len(p.discard)+len(p.inPlay)+len(p.duration)+len(p.revealed))
	all = append(all, p.deck...)
	all = append(all, p.hand...)
	all = append(all, p.discard...)
	all = append(all, p.inPlay...)
	all = append(all, p.duration...)
	all = append(all, p.revealed...)
	for _, name := range sortedMatNames(p.mats) {
		all = append(all, p.mats[name]...)
	}
	return all
}

// CountOf returns how many copies of the named card the player owns.
func (p *Player) CountOf(name string) int {
	n := 0
	for _, c := range p.AllCards() {
		if c.Name == name {
			n++
		}
	}
	return n
}

// reshuffle turns the discard pile into the deck. Cards still in the deck
// stay on top.
func (p *Player) reshuffle(rng *rand.Rand) bool {
	if len(p.discard) == 0 {
		return false
	}
	shuffled := p.discard
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	p.deck = append(shuffled, p.deck...)
	p.discard = nil
	p.shuffles++
	return true
}

// ensureDeck reshuffles when fewer than n cards remain in the deck.
func (p *Player) ensureDeck(n int, rng *rand.Rand) {
	if len(p.deck) < n {
		p.reshuffle(rng)
	}
}

// takeTop removes and returns the top card of the deck, reshuffling when
// the deck is empty. It returns nil when deck and discard are both empty.
func (p *Player) takeTop(rng *rand.Rand) *Card {
	p.ensureDeck(1, rng)
	if len(p.deck) == 0 {
		return nil
	}
	top := p.deck[len(p.deck)-1]
	p.deck = p.deck[:len(p.deck)-1]
	return top
}

// draw moves up to n cards from deck to hand and returns how many moved.
func (p *Player) draw(n int, rng *rand.Rand) int {
	drawn := 0
	for ; drawn < n; drawn++ {
		card := p.takeTop(rng)
		if card == nil {
			break
		}
		p.hand = append(p.hand, card)
	}
	return drawn
}

func (p *Player) putOnDeck(c *Card) {
	p.deck = append(p.deck, c)
}

func (p *Player) removeFromHand(index int) *Card {
	if index < 0 || index >= len(p.hand) {
		return nil
	}
	card := p.hand[index]
	p.hand = append(p.hand[:index], p.hand[index+1:]...)
	return card
}

// removeFromPlay takes the most recently played copy of card out of play.
func (p *Player) removeFromPlay(card *Card) bool {
	for i := len(p.inPlay) - 1; i >= 0; i-- {
		if p.inPlay[i] == card {
			p.inPlay = append(p.inPlay[:i], p.inPlay[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Player) handIndexes(match func(*Card) bool) []int {
	var idx []int
	for i, c := range p.hand {
		if match == nil || match(c) {
			idx = append(idx, i)
		}
	}
	return idx
}

func (p *Player) hasInHand(match func(*Card) bool) bool {
	return len(p.handIndexes(match)) > 0
}

// immuneToAttacks reports whether a card the player holds blocks attacks,
// and names the card.
func (p *Player) immuneToAttacks() (*Card, bool) {
	for _, c := range p.hand {
		if c.Immunity == ImmunityFromHand {
			return c, true
		}
	}
	for _, zone := range [][]*Card{p.inPlay, p.duration} {
		for _, c := range zone {
			if c.Immunity == ImmunityWhileInPlay {
				return c, true
			}
		}
	}
	return nil, false
}

func sortedMatNames(mats map[string][]*Card) []string {
	names := make([]string, 0, len(mats))
	for name := range mats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package game

import (
	"fmt"
	"strings"
)

// CardType is a bit set of card type tags.
type CardType uint8

const (
	TypeVictory CardType = 1 << iota
	TypeTreasure
	TypeAction
	TypeAttack
	TypeReaction
	TypeCurse
	TypeDuration
)

// typeOrder fixes the order types are listed in.
var typeOrder = []CardType{TypeVictory, TypeTreasure, TypeAction, TypeAttack, TypeReaction, TypeCurse, TypeDuration}

var cardTypeNames = map[CardType]string{
	TypeVictory:  "Victory",
	TypeTreasure: "Treasure",
	TypeAction:   "Action",
	TypeAttack:   "Attack",
	TypeReaction: "Reaction",
	TypeCurse:    "Curse",
	TypeDuration: "Duration",
}

// ParseCardType converts a type name into its tag.
func ParseCardType(name string) (CardType, error) {
	for t, n := range cardTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown card type %q", name)
}

// Names lists the tags in t.
func (t CardType) Names() []string {
	var names []string
	for _, tag := range typeOrder {
		if t&tag != 0 {
			names = append(names, cardTypeNames[tag])
		}
	}
	return names
}

func (t CardType) String() string {
	return strings.Join(t.Names(), "-")
}

// Immunity describes how a card protects its holder from attacks.
type Immunity int

const (
	ImmunityNone Immunity = iota
	// ImmunityFromHand protects while the card is in hand (Moat).
	ImmunityFromHand
	// ImmunityWhileInPlay protects while the card is in play or held as a
	// duration (Lighthouse).
	ImmunityWhileInPlay
)

// BuyReaction is a Treasure's response to its owner buying a card while it is
// in play. It returns the name of the card to gain, if any.
type BuyReaction func(bought *Card) (gain string, ok bool)

// Card is an immutable card definition shared by every copy in the game.
type Card struct {
	Name    string
	Set     string
	Types   CardType
	Cost    int
	Text    string
	VP      int
	Kingdom bool

	// Effects run in order when the card is played.
	Effects []Effect
	// NextTurn runs at the start of the owner's next turn (Duration cards).
	NextTurn []Effect
	// Score adds variable victory points given every card the owner has.
	Score    func(owned []*Card) int
	Immunity Immunity
	OnBuy    BuyReaction
}

// Is reports whether the card carries the type tag.
func (c *Card) Is(t CardType) bool {
	return c.Types&t != 0
}

// Playable reports whether the card can be played for its effects.
func (c *Card) Playable() bool {
	return c.Is(TypeAction) || c.Is(TypeTreasure)
}

func (c *Card) String() string {
	return c.Name
}

func cardNames(cards []*Card) []string {
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.Name
	}
	return names
}

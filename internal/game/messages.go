package game

// PileView describes a supply pile to clients.
type PileView struct {
	Name    string         `json:"name"`
	Types   map[string]int `json:"types"`
	Cost    int            `json:"cost"`
	Text    string         `json:"text"`
	Count   int            `json:"count"`
	Embargo int            `json:"embargo,omitempty"`
}

// StackView gives the public zone sizes of one player.
type StackView struct {
	ID       int `json:"id"`
	Deck     int `json:"deck"`
	Hand     int `json:"hand"`
	Discards int `json:"discards"`
}

// KingdomMessage is broadcast between turns.
type KingdomMessage struct {
	Kingdom []PileView  `json:"kingdom"`
	Stacks  []StackView `json:"stacks"`
}

// KingdomView renders the current supply and stack sizes.
func (g *Game) KingdomView() KingdomMessage {
	msg := KingdomMessage{
		Kingdom: make([]PileView, 0, len(g.piles)),
		Stacks:  make([]StackView, 0, len(g.players)),
	}
	for _, pile := range g.piles {
		types := make(map[string]int)
		for _, name := range pile.Card.Types.Names() {
			types[name] = 1
		}
		msg.Kingdom = append(msg.Kingdom, PileView{
			Name:    pile.Card.Name,
			Types:   types,
			Cost:    pile.Card.Cost,
			Text:    pile.Card.Text,
			Count:   pile.Remaining,
			Embargo: pile.Embargo,
		})
	}
	for _, p := range g.players {
		msg.Stacks = append(msg.Stacks, StackView{
			ID:       p.ID,
			Deck:     len(p.deck),
			Hand:     len(p.hand),
			Discards: len(p.discard),
		})
	}
	return msg
}

func (g *Game) broadcastKingdom() {
	g.broadcast(g.KingdomView())
}

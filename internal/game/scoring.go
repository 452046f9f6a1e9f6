package game

// Standing is one player's final result.
type Standing struct {
	ID    int    `json:"id"`
	Name  string `json:"-"`
	Score int    `json:"score"`
}

// GameOverMessage announces the final standings, best first.
type GameOverMessage struct {
	GameOver []Standing `json:"game_over"`
}

// Score totals a player's victory points over every zone, mats and held
// Duration cards included.
func (g *Game) Score(p *Player) int {
	return ScoreCards(p.AllCards()) + p.VPTokens
}

// ScoreCards totals static and variable victory points of a set of cards.
func ScoreCards(owned []*Card) int {
	total := 0
	for _, c := range owned {
		total += c.VP
		if c.Score != nil {
			total += c.Score(owned)
		}
	}
	return total
}

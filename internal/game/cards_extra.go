package game

func addExtraRules(rb Rulebook) {
	rb["Monument"] = CardRules{Effects: []Effect{Do(func(ctx *Context) {
		ctx.Player.VPTokens++
		ctx.Game.logf("%s takes a victory point token.", ctx.Player.Name)
	})}}

	rb["Talisman"] = CardRules{OnBuy: func(bought *Card) (string, bool) {
		if bought.Is(TypeVictory) || bought.Cost > 4 {
			return "", false
		}
		return bought.Name, true
	}}

	rb["Hoard"] = CardRules{OnBuy: func(bought *Card) (string, bool) {
		if !bought.Is(TypeVictory) {
			return "", false
		}
		return "Gold", true
	}}
}

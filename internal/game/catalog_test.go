package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thraizz/kingdom-server-go/internal/game/catalog"
)

func TestDefaultCatalogBindsEveryCard(t *testing.T) {
	cat := testCatalog(t)

	for _, card := range cat.Cards() {
		if card.Playable() {
			assert.NotEmpty(t, card.Effects, "%s is playable but does nothing", card.Name)
		}
		if len(card.NextTurn) > 0 {
			assert.True(t, card.Is(TypeDuration), "%s has next-turn effects", card.Name)
		}
	}

	moat, ok := cat.Lookup("Moat")
	require.True(t, ok)
	assert.Equal(t, ImmunityFromHand, moat.Immunity)
	assert.True(t, moat.Is(TypeReaction))

	lighthouse, _ := cat.Lookup("Lighthouse")
	assert.Equal(t, ImmunityWhileInPlay, lighthouse.Immunity)
	assert.Len(t, lighthouse.NextTurn, 1)

	talisman, _ := cat.Lookup("Talisman")
	require.NotNil(t, talisman.OnBuy)

	copper, _ := cat.Lookup("Copper")
	assert.False(t, copper.Kingdom)

	_, ok = cat.Lookup("Nonexistent")
	assert.False(t, ok)
}

func TestKingdomEligibleSorted(t *testing.T) {
	eligible := testCatalog(t).KingdomEligible()
	require.NotEmpty(t, eligible)
	for i := 1; i < len(eligible); i++ {
		assert.Less(t, eligible[i-1].Name, eligible[i].Name)
	}
	for _, card := range eligible {
		assert.True(t, card.Kingdom, card.Name)
	}
}

func TestTalismanAndHoardReactions(t *testing.T) {
	cat := testCatalog(t)
	card := func(name string) *Card {
		c, ok := cat.Lookup(name)
		require.True(t, ok, name)
		return c
	}
	talisman := card("Talisman").OnBuy
	hoard := card("Hoard").OnBuy

	gain, ok := talisman(card("Village"))
	assert.True(t, ok)
	assert.Equal(t, "Village", gain)
	_, ok = talisman(card("Estate"))
	assert.False(t, ok)
	_, ok = talisman(card("Gold"))
	assert.False(t, ok)

	gain, ok = hoard(card("Duchy"))
	assert.True(t, ok)
	assert.Equal(t, "Gold", gain)
	_, ok = hoard(card("Silver"))
	assert.False(t, ok)
}

func TestNewCatalogErrors(t *testing.T) {
	action := catalog.Entry{Name: "Idle", Set: "test", Types: []string{"Action"}, Cost: 2, Supply: catalog.SupplyKingdom}
	victory := catalog.Entry{Name: "Hill", Set: "test", Types: []string{"Victory"}, Cost: 2, VP: 1, Supply: catalog.SupplyKingdom}
	treasure := catalog.Entry{Name: "Penny", Set: "test", Types: []string{"Treasure"}, Cost: 0, Supply: catalog.SupplyBase,
		Bonus: []catalog.Bonus{{Coin: 1}}}

	tests := []struct {
		name     string
		entries  []catalog.Entry
		rulebook Rulebook
		wantErr  string
	}{
		{
			name:    "playable without effects",
			entries: []catalog.Entry{action},
			wantErr: "no effects",
		},
		{
			name:     "unknown rulebook card",
			entries:  []catalog.Entry{victory},
			rulebook: Rulebook{"Ghost": {}},
			wantErr:  "unknown card",
		},
		{
			name:     "next turn on a non-duration",
			entries:  []catalog.Entry{victory},
			rulebook: Rulebook{"Hill": {NextTurn: []Effect{PlusCoin(1)}}},
			wantErr:  "not a Duration",
		},
		{
			name:     "buy reaction on a non-treasure",
			entries:  []catalog.Entry{victory},
			rulebook: Rulebook{"Hill": {OnBuy: func(*Card) (string, bool) { return "", false }}},
			wantErr:  "not a Treasure",
		},
		{
			name:    "empty catalog",
			entries: nil,
			wantErr: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.entries, tt.rulebook)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	cat, err := NewCatalog([]catalog.Entry{action, victory, treasure}, Rulebook{"Idle": {Effects: []Effect{PlusActions(1)}}})
	require.NoError(t, err)
	assert.Len(t, cat.Cards(), 3)
	penny, _ := cat.Lookup("Penny")
	assert.Len(t, penny.Effects, 1)
}

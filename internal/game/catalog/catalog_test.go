package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	entries, err := Default()
	require.NoError(t, err)

	byName := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
	}

	for _, name := range []string{"Copper", "Silver", "Gold", "Estate", "Duchy", "Province", "Curse"} {
		e, ok := byName[name]
		require.True(t, ok, "missing %s", name)
		assert.Equal(t, SupplyBase, e.Supply)
	}

	village := byName["Village"]
	assert.Equal(t, 3, village.Cost)
	assert.Equal(t, []Bonus{{Cards: 1}, {Actions: 2}}, village.Bonus)

	wharf := byName["Wharf"]
	assert.True(t, wharf.HasType("Duration"))
	assert.Equal(t, []Bonus{{Cards: 2}, {Buys: 1}}, wharf.NextTurn)

	harem := byName["Harem"]
	assert.True(t, harem.HasType("Treasure"))
	assert.True(t, harem.HasType("Victory"))
	assert.Equal(t, 2, harem.VP)

	kingdom := 0
	for _, e := range entries {
		if e.Supply == SupplyKingdom {
			kingdom++
		}
	}
	assert.GreaterOrEqual(t, kingdom, 10)
}

func TestValidateRejectsBadEntries(t *testing.T) {
	valid := Entry{Name: "Village", Types: []string{"Action"}, Cost: 3, Supply: SupplyKingdom}

	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty", nil},
		{"missing name", []Entry{{Types: []string{"Action"}, Supply: SupplyKingdom}}},
		{"duplicate", []Entry{valid, valid}},
		{"unknown type", []Entry{{Name: "X", Types: []string{"Potion"}, Supply: SupplyKingdom}}},
		{"no types", []Entry{{Name: "X", Supply: SupplyKingdom}}},
		{"negative cost", []Entry{{Name: "X", Types: []string{"Action"}, Cost: -1, Supply: SupplyKingdom}}},
		{"bad supply", []Entry{{Name: "X", Types: []string{"Action"}, Supply: "promo"}}},
		{"double bonus", []Entry{{Name: "X", Types: []string{"Action"}, Supply: SupplyKingdom, Bonus: []Bonus{{Cards: 1, Coin: 1}}}}},
		{"empty bonus", []Entry{{Name: "X", Types: []string{"Action"}, Supply: SupplyKingdom, Bonus: []Bonus{{}}}}},
		{"next turn without duration", []Entry{{Name: "X", Types: []string{"Action"}, Supply: SupplyKingdom, NextTurn: []Bonus{{Coin: 1}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Validate(tt.entries))
		})
	}

	assert.NoError(t, Validate([]Entry{valid}))
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cards.yaml")
	data := []byte(`
- name: Copper
  types: [Treasure]
  cost: 0
  supply: base
  bonus:
    - coin: 1
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	entries, err := Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []Bonus{{Coin: 1}}, entries[0].Bonus)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("not: [valid"))
	assert.Error(t, err)
}

// Package catalog holds the static card data shipped with the server.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed cards.yaml
var defaultCards []byte

// Supply classes.
const (
	SupplyBase    = "base"
	SupplyKingdom = "kingdom"
)

// KnownTypes lists the card types an entry may carry.
var KnownTypes = []string{"Victory", "Treasure", "Action", "Attack", "Reaction", "Curse", "Duration"}

// Bonus is one fixed resource grant. Exactly one field is set.
type Bonus struct {
	Cards   int `yaml:"cards,omitempty"`
	Actions int `yaml:"actions,omitempty"`
	Buys    int `yaml:"buys,omitempty"`
	Coin    int `yaml:"coin,omitempty"`
}

func (b Bonus) fields() int {
	n := 0
	for _, v := range []int{b.Cards, b.Actions, b.Buys, b.Coin} {
		if v != 0 {
			n++
		}
	}
	return n
}

// Entry is one card definition as stored in the catalog file.
type Entry struct {
	Name     string   `yaml:"name"`
	Set      string   `yaml:"set"`
	Types    []string `yaml:"types"`
	Cost     int      `yaml:"cost"`
	Text     string   `yaml:"text"`
	VP       int      `yaml:"vp"`
	Supply   string   `yaml:"supply"`
	Bonus    []Bonus  `yaml:"bonus"`
	NextTurn []Bonus  `yaml:"next_turn"`
}

// HasType reports whether the entry carries the named type.
func (e Entry) HasType(name string) bool {
	for _, t := range e.Types {
		if t == name {
			return true
		}
	}
	return false
}

// Default returns the entries of the embedded catalog.
func Default() ([]Entry, error) {
	return Parse(defaultCards)
}

// Load reads and validates a catalog file.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := Validate(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Validate checks entries for structural errors.
func Validate(entries []Entry) error {
	if len(entries) == 0 {
		return errors.New("catalog is empty")
	}

	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return fmt.Errorf("entry %d: name is required", i)
		}
		if seen[e.Name] {
			return fmt.Errorf("duplicate card %q", e.Name)
		}
		seen[e.Name] = true

		if len(e.Types) == 0 {
			return fmt.Errorf("card %q: at least one type is required", e.Name)
		}
		for _, t := range e.Types {
			if !known[t] {
				return fmt.Errorf("card %q: unknown type %q", e.Name, t)
			}
		}
		if e.Cost < 0 {
			return fmt.Errorf("card %q: negative cost %d", e.Name, e.Cost)
		}
		if e.Supply != SupplyBase && e.Supply != SupplyKingdom {
			return fmt.Errorf("card %q: supply must be %q or %q", e.Name, SupplyBase, SupplyKingdom)
		}
		for _, b := range append(append([]Bonus(nil), e.Bonus...), e.NextTurn...) {
			if b.fields() != 1 {
				return fmt.Errorf("card %q: each bonus must set exactly one field", e.Name)
			}
			if b.Cards < 0 || b.Actions < 0 || b.Buys < 0 || b.Coin < 0 {
				return fmt.Errorf("card %q: bonuses must be positive", e.Name)
			}
		}
		if len(e.NextTurn) > 0 && !e.HasType("Duration") {
			return fmt.Errorf("card %q: next_turn requires the Duration type", e.Name)
		}
	}
	return nil
}

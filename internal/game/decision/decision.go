package decision

import (
	"fmt"
	"strconv"
	"strings"
)

// Well-known response keys.
const (
	KeyDone = "done"
	KeyYes  = "yes"
	KeyNo   = "no"
	KeyBuy  = "buy"
	KeyEnd  = "end"
	KeyAll  = "all"
)

// Option is one answer a player may give.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Decision is a single question put to one player.
type Decision struct {
	PlayerID int
	Options  []Option
	Message  string
	Info     []string
	// IndexRange, when positive, also accepts card[N] keys for 0 <= N < IndexRange.
	IndexRange int
}

// Accepts reports whether key is a legal answer to d.
func (d Decision) Accepts(key string) bool {
	for _, opt := range d.Options {
		if opt.Key == key {
			return true
		}
	}
	if d.IndexRange > 0 {
		if idx, ok := ParseCardKey(key); ok && idx < d.IndexRange {
			return true
		}
	}
	return false
}

// CardKey returns the key for the card at index i.
func CardKey(i int) string {
	return fmt.Sprintf("card[%d]", i)
}

// ParseCardKey extracts N from a card[N] key.
func ParseCardKey(key string) (int, bool) {
	if !strings.HasPrefix(key, "card[") || !strings.HasSuffix(key, "]") {
		return 0, false
	}
	n, err := strconv.Atoi(key[len("card[") : len(key)-1])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// CardOptions builds card[i] options labelled with the given texts.
func CardOptions(texts []string) []Option {
	options := make([]Option, 0, len(texts)+1)
	for i, text := range texts {
		options = append(options, Option{Key: CardKey(i), Text: text})
	}
	return options
}

// YesNoOptions returns the standard yes/no pair.
func YesNoOptions() []Option {
	return []Option{
		{Key: KeyYes, Text: "Yes"},
		{Key: KeyNo, Text: "No"},
	}
}

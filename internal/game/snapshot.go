package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// PlayerSnapshot is one player's zones by card name. Deck is bottom first.
type PlayerSnapshot struct {
	ID       int
	Name     string
	Phase    string
	Deck     []string
	Hand     []string
	Discard  []string
	InPlay   []string
	Duration []string
	Revealed []string
	Mats     map[string][]string
	Actions  int
	Buys     int
	Coin     int
	VPTokens int
}

// PileSnapshot is one supply pile.
type PileSnapshot struct {
	Name      string
	Remaining int
	Embargo   int
}

// Snapshot is a copy of the full game state.
type Snapshot struct {
	GameID    string
	Turn      int
	ActiveID  int
	Ended     bool
	Players   []PlayerSnapshot
	Piles     []PileSnapshot
	Trash     []string
	Waiting   []int
	Timestamp time.Time
}

// Snapshot captures the current state.
func (g *Game) Snapshot() *Snapshot {
	s := &Snapshot{
		GameID:    g.ID,
		Turn:      g.TurnNumber(),
		Ended:     g.ended,
		Trash:     cardNames(g.trash),
		Waiting:   g.broker.Waiting(),
		Timestamp: time.Now().UTC(),
	}
	if active := g.Active(); active != nil {
		s.ActiveID = active.ID
	}
	for _, p := range g.players {
		ps := PlayerSnapshot{
			ID:       p.ID,
			Name:     p.Name,
			Phase:    p.phase.String(),
			Deck:     cardNames(p.deck),
			Hand:     cardNames(p.hand),
			Discard:  cardNames(p.discard),
			InPlay:   cardNames(p.inPlay),
			Duration: cardNames(p.duration),
			Revealed: cardNames(p.revealed),
			Mats:     make(map[string][]string, len(p.mats)),
			Actions:  p.Actions,
			Buys:     p.Buys,
			Coin:     p.Coin,
			VPTokens: p.VPTokens,
		}
		for name, cards := range p.mats {
			ps.Mats[name] = cardNames(cards)
		}
		s.Players = append(s.Players, ps)
	}
	for _, pile := range g.piles {
		s.Piles = append(s.Piles, PileSnapshot{
			Name:      pile.Card.Name,
			Remaining: pile.Remaining,
			Embargo:   pile.Embargo,
		})
	}
	return s
}

// Checksum returns a SHA-256 over the deterministic fields of the snapshot.
// The timestamp is excluded.
func (s *Snapshot) Checksum() (string, error) {
	hash := sha256.New()
	if _, err := hash.Write([]byte(s.canonical())); err != nil {
		return "", fmt.Errorf("failed to compute hash: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// canonical renders the snapshot with maps in key order. Zone order is
// significant and kept.
func (s *Snapshot) canonical() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "GAME:%s|%d|%d|%t\n", s.GameID, s.Turn, s.ActiveID, s.Ended)

	for _, p := range s.Players {
		fmt.Fprintf(&buf, "PLAYER:%d|%s|%s|%d|%d|%d|%d\n",
			p.ID, p.Name, p.Phase, p.Actions, p.Buys, p.Coin, p.VPTokens)
		writeZone(&buf, "DECK", p.Deck)
		writeZone(&buf, "HAND", p.Hand)
		writeZone(&buf, "DISCARD", p.Discard)
		writeZone(&buf, "INPLAY", p.InPlay)
		writeZone(&buf, "DURATION", p.Duration)
		writeZone(&buf, "REVEALED", p.Revealed)

		mats := make([]string, 0, len(p.Mats))
		for name := range p.Mats {
			mats = append(mats, name)
		}
		sort.Strings(mats)
		for _, name := range mats {
			writeZone(&buf, "MAT "+name, p.Mats[name])
		}
	}

	for _, pile := range s.Piles {
		fmt.Fprintf(&buf, "PILE:%s|%d|%d\n", pile.Name, pile.Remaining, pile.Embargo)
	}
	writeZone(&buf, "TRASH", s.Trash)

	waiting := make([]string, len(s.Waiting))
	for i, id := range s.Waiting {
		waiting[i] = fmt.Sprint(id)
	}
	writeZone(&buf, "WAITING", waiting)
	return buf.String()
}

func writeZone(buf *bytes.Buffer, label string, cards []string) {
	buf.WriteString("  ")
	buf.WriteString(label)
	buf.WriteString(":")
	buf.WriteString(strings.Join(cards, ","))
	buf.WriteString("\n")
}

// Encode serializes the snapshot with gob.
func (s *Snapshot) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot reverses Encode.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCapturesZones(t *testing.T) {
	g, _, alice, bob := newTestGame(t, testKingdom...)

	setHand(t, g, alice, "Island", "Gold")
	s := g.Snapshot()

	assert.Equal(t, g.ID, s.GameID)
	assert.Equal(t, 1, s.Turn)
	assert.Equal(t, alice.ID, s.ActiveID)
	require.Len(t, s.Players, 2)
	assert.Equal(t, []string{"Island", "Gold"}, s.Players[0].Hand)
	assert.Equal(t, bob.Name, s.Players[1].Name)
	assert.Len(t, s.Piles, len(g.Piles()))
	assert.Equal(t, []int{alice.ID}, s.Waiting)
}

func TestChecksumDeterministic(t *testing.T) {
	g, _, _, _ := newTestGame(t, testKingdom...)

	first, err := g.Snapshot().Checksum()
	require.NoError(t, err)
	second, err := g.Snapshot().Checksum()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestChecksumIgnoresTimestamp(t *testing.T) {
	g, _, _, _ := newTestGame(t, testKingdom...)

	s := g.Snapshot()
	before, err := s.Checksum()
	require.NoError(t, err)
	s.Timestamp = s.Timestamp.Add(time.Hour)
	after, err := s.Checksum()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestChecksumDetectsChanges(t *testing.T) {
	g, _, alice, _ := newTestGame(t, testKingdom...)

	base, err := g.Snapshot().Checksum()
	require.NoError(t, err)

	alice.Coin++
	coin, err := g.Snapshot().Checksum()
	require.NoError(t, err)
	assert.NotEqual(t, base, coin)
	alice.Coin--

	// Same cards, different order.
	setHand(t, g, alice, "Gold", "Silver")
	ordered, err := g.Snapshot().Checksum()
	require.NoError(t, err)
	alice.hand[0], alice.hand[1] = alice.hand[1], alice.hand[0]
	swapped, err := g.Snapshot().Checksum()
	require.NoError(t, err)
	assert.NotEqual(t, ordered, swapped)

	g.pile("Village").Embargo = 1
	embargo, err := g.Snapshot().Checksum()
	require.NoError(t, err)
	assert.NotEqual(t, swapped, embargo)
}

func TestChecksumMatOrderIndependent(t *testing.T) {
	g, _, alice, _ := newTestGame(t, testKingdom...)

	alice.mats[MatIsland] = []*Card{takeFromSupply(t, g, "Gold")}
	alice.mats[MatHaven] = []*Card{takeFromSupply(t, g, "Silver")}

	s := g.Snapshot()
	want, err := s.Checksum()
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		got, err := g.Snapshot().Checksum()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestSnapshotEncodeDecode(t *testing.T) {
	g, _, alice, _ := newTestGame(t, testKingdom...)
	alice.mats[MatNativeVillage] = []*Card{takeFromSupply(t, g, "Gold")}

	s := g.Snapshot()
	data, err := s.Encode()
	require.NoError(t, err)

	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)

	want, err := s.Checksum()
	require.NoError(t, err)
	got, err := decoded.Checksum()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, []string{"Gold"}, decoded.Players[0].Mats[MatNativeVillage])
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	_, err := DecodeSnapshot([]byte("not a snapshot"))
	assert.Error(t, err)
}

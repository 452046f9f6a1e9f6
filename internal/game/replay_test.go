package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestReplayNavigation(t *testing.T) {
	replay := NewReplay("game-123")
	for i := 1; i <= 3; i++ {
		replay.Record(&Snapshot{GameID: "game-123", Turn: i})
	}
	require.Equal(t, 3, replay.Size())

	assert.Equal(t, 1, replay.Next().Turn)
	assert.Equal(t, 2, replay.Next().Turn)
	assert.Equal(t, 3, replay.Next().Turn)
	assert.Nil(t, replay.Next())

	assert.Equal(t, 2, replay.At(1).Turn)
	assert.Nil(t, replay.At(-1))
	assert.Nil(t, replay.At(3))
}

func TestReplaySaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	replay := NewReplay("game-123")
	replay.Record(&Snapshot{GameID: "game-123", Turn: 1, Trash: []string{"Copper"}})
	replay.Record(&Snapshot{GameID: "game-123", Turn: 2})
	replay.Finish([]string{"The game is over."}, []Standing{{ID: 1, Name: "alice", Score: 9}})

	path, err := replay.Save(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "game-123.replay"), path)

	loaded, err := LoadReplay(path)
	require.NoError(t, err)
	assert.Equal(t, "game-123", loaded.GameID)
	require.Equal(t, 2, loaded.Size())
	assert.Equal(t, []string{"Copper"}, loaded.At(0).Trash)
	assert.Equal(t, []string{"The game is over."}, loaded.Log)
	assert.Equal(t, []Standing{{ID: 1, Name: "alice", Score: 9}}, loaded.Standings)
}

func TestLoadReplayErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadReplay(filepath.Join(dir, "missing.replay"))
	assert.Error(t, err)

	junk := filepath.Join(dir, "junk.replay")
	require.NoError(t, os.WriteFile(junk, []byte("plain text"), 0o644))
	_, err = LoadReplay(junk)
	assert.Error(t, err)
}

func TestReplayRecorderSavesFinishedGame(t *testing.T) {
	dir := t.TempDir()
	recorder := NewReplayRecorder(dir, zaptest.NewLogger(t))

	g, _, alice, bob := newTestGame(t, testKingdom...)
	recorder.Attach(g)

	replay, ok := recorder.Replay(g.ID)
	require.True(t, ok)
	assert.Equal(t, 0, replay.Size())

	endTurn(t, g, alice)
	assert.Equal(t, 1, replay.Size())
	assert.Equal(t, bob.ID, replay.At(0).ActiveID)

	province := g.pile("Province")
	province.Remaining = 1
	province.Initial = 1
	setHand(t, g, bob, "Gold", "Gold", "Gold")
	beginBuys(g, bob, 1)
	choose(t, g, bob, "Play all")
	choose(t, g, bob, "Province")
	require.True(t, g.Ended())

	_, ok = recorder.Replay(g.ID)
	assert.False(t, ok)

	loaded, err := LoadReplay(ReplayPath(dir, g.ID))
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Size())
	assert.True(t, loaded.At(1).Ended)
	assert.Equal(t, g.Standings(), loaded.Standings)
	assert.Equal(t, g.Log(), loaded.Log)
}

func TestReplayRecorderDiscard(t *testing.T) {
	recorder := NewReplayRecorder(t.TempDir(), nil)
	g, _, _, _ := newTestGame(t, testKingdom...)
	recorder.Attach(g)

	recorder.Discard(g.ID)
	_, ok := recorder.Replay(g.ID)
	assert.False(t, ok)
	_, err := recorder.Save(g.ID)
	assert.Error(t, err)
}

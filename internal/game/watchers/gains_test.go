package watchers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thraizz/kingdom-server-go/internal/game/rules"
)

func gained(player, active int, card string) rules.Event {
	evt := rules.NewEvent(rules.EventCardGained, player, card)
	evt.ActiveID = active
	return evt
}

func TestGainsWatcherTracksOwnTurnOnly(t *testing.T) {
	watcher := NewGainsWatcher()

	if watcher.ConditionMet() {
		t.Fatal("watcher should not have condition met initially")
	}

	watcher.Watch(gained(1, 1, "Silver"))
	watcher.Watch(gained(1, 1, "Village"))
	// Curse handed out by player 2's Witch does not count for player 1.
	watcher.Watch(gained(1, 2, "Curse"))

	assert.True(t, watcher.ConditionMet())
	assert.Equal(t, []string{"Silver", "Village"}, watcher.Gains(1))
	assert.Equal(t, 2, watcher.Count(1))
	assert.Equal(t, 0, watcher.Count(2))
}

func TestGainsWatcherResetThroughRegistry(t *testing.T) {
	watcher := NewGainsWatcher()
	registry := rules.NewWatcherRegistry()
	registry.Add(watcher)

	registry.Notify(gained(0, 0, "Gold"))
	registry.Notify(gained(1, 1, "Estate"))
	registry.Notify(rules.NewEvent(rules.EventTurnStarted, 0, ""))
	assert.Equal(t, []string{"Gold"}, watcher.Gains(0))

	registry.ResetPlayer(0)
	assert.Empty(t, watcher.Gains(0))
	assert.Equal(t, []string{"Estate"}, watcher.Gains(1))
}

func TestGainsWatcherGainsIsACopy(t *testing.T) {
	watcher := NewGainsWatcher()
	watcher.Watch(gained(0, 0, "Smithy"))

	got := watcher.Gains(0)
	got[0] = "Province"

	assert.Equal(t, []string{"Smithy"}, watcher.Gains(0))
}

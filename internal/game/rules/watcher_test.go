package rules

import (
	"testing"
)

// countingWatcher counts played cards per player.
type countingWatcher struct {
	*BaseWatcher
	plays map[int]int
}

func newCountingWatcher() *countingWatcher {
	return &countingWatcher{
		BaseWatcher: NewBaseWatcher(WatcherScopePlayer, "counting"),
		plays:       make(map[int]int),
	}
}

func (w *countingWatcher) Watch(event Event) {
	if event.Type != EventCardPlayed {
		return
	}
	w.plays[event.PlayerID]++
	w.SetCondition(true)
}

func (w *countingWatcher) ResetFor(playerID int) {
	delete(w.plays, playerID)
}

func TestWatcherRegistry(t *testing.T) {
	registry := NewWatcherRegistry()
	watcher := newCountingWatcher()
	registry.Add(watcher)

	registry.Notify(NewEvent(EventCardPlayed, 1, "Village"))
	registry.Notify(NewEvent(EventCardPlayed, 2, "Smithy"))
	registry.Notify(NewEvent(EventCardGained, 2, "Silver"))

	if !watcher.ConditionMet() {
		t.Fatal("watcher should have condition met")
	}
	if watcher.plays[1] != 1 || watcher.plays[2] != 1 {
		t.Fatalf("unexpected play counts: %v", watcher.plays)
	}

	registry.ResetPlayer(1)
	if watcher.plays[1] != 0 || watcher.plays[2] != 1 {
		t.Fatalf("expected only player 1 reset, got %v", watcher.plays)
	}
}

func TestWatcherRegistryResetPlayerSkipsGameScope(t *testing.T) {
	registry := NewWatcherRegistry()
	game := &countingWatcher{
		BaseWatcher: NewBaseWatcher(WatcherScopeGame, "game"),
		plays:       make(map[int]int),
	}
	registry.Add(game)

	registry.Notify(NewEvent(EventCardPlayed, 1, "Village"))
	registry.ResetPlayer(1)
	if game.plays[1] != 1 {
		t.Fatalf("game-scoped watcher should keep its history, got %v", game.plays)
	}
}

func TestWatcherRegistryReplacesSameKey(t *testing.T) {
	registry := NewWatcherRegistry()
	first := newCountingWatcher()
	second := newCountingWatcher()

	registry.Add(first)
	registry.Add(second)
	registry.Notify(NewEvent(EventCardPlayed, 0, "Market"))

	if first.plays[0] != 0 {
		t.Fatalf("replaced watcher should not be notified")
	}
	if second.plays[0] != 1 {
		t.Fatalf("expected replacement to be notified")
	}
}

func TestWatcherScopeString(t *testing.T) {
	if WatcherScopePlayer.String() != "PLAYER" {
		t.Fatalf("expected PLAYER, got %s", WatcherScopePlayer)
	}
	if WatcherScope(9).String() != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN for invalid scope")
	}
}

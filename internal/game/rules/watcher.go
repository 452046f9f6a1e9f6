package rules

import (
	"sync"
)

// WatcherScope defines the scope of a watcher's tracking.
type WatcherScope int

const (
	// WatcherScopeGame tracks events for the entire game.
	WatcherScopeGame WatcherScope = iota
	// WatcherScopePlayer tracks events per player.
	WatcherScopePlayer
)

// String returns the string representation of the watcher scope.
func (ws WatcherScope) String() string {
	switch ws {
	case WatcherScopeGame:
		return "GAME"
	case WatcherScopePlayer:
		return "PLAYER"
	default:
		return "UNKNOWN"
	}
}

// Watcher observes game events and remembers what it has seen.
type Watcher interface {
	// Watch is called for every published event.
	Watch(event Event)

	// Scope returns the scope of this watcher.
	Scope() WatcherScope

	// Key returns a unique key for this watcher instance.
	Key() string
}

// PlayerResetter is implemented by player-scoped watchers that can forget a
// single player's history, typically at the start of that player's turn.
type PlayerResetter interface {
	ResetFor(playerID int)
}

// BaseWatcher provides the bookkeeping shared by watchers.
type BaseWatcher struct {
	scope     WatcherScope
	key       string
	condition bool
}

// NewBaseWatcher creates a new base watcher with the specified scope and key.
func NewBaseWatcher(scope WatcherScope, key string) *BaseWatcher {
	return &BaseWatcher{
		scope: scope,
		key:   key,
	}
}

// Scope returns the watcher's scope.
func (bw *BaseWatcher) Scope() WatcherScope {
	return bw.scope
}

// Key returns the unique key for this watcher.
func (bw *BaseWatcher) Key() string {
	return bw.key
}

// ConditionMet returns whether anything has been recorded since the last reset.
func (bw *BaseWatcher) ConditionMet() bool {
	return bw.condition
}

// SetCondition sets the condition flag.
func (bw *BaseWatcher) SetCondition(condition bool) {
	bw.condition = condition
}

// WatcherRegistry holds the watchers of one game in registration order.
type WatcherRegistry struct {
	mu       sync.RWMutex
	watchers []Watcher
	byKey    map[string]Watcher
}

// NewWatcherRegistry creates a new watcher registry.
func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{
		byKey: make(map[string]Watcher),
	}
}

// Add registers a watcher, replacing any watcher with the same key.
func (wr *WatcherRegistry) Add(watcher Watcher) {
	if watcher == nil {
		return
	}
	wr.mu.Lock()
	defer wr.mu.Unlock()

	key := watcher.Key()
	if _, exists := wr.byKey[key]; exists {
		wr.removeLocked(key)
	}
	wr.byKey[key] = watcher
	wr.watchers = append(wr.watchers, watcher)
}

func (wr *WatcherRegistry) removeLocked(key string) {
	if _, ok := wr.byKey[key]; !ok {
		return
	}
	delete(wr.byKey, key)
	for i, w := range wr.watchers {
		if w.Key() == key {
			wr.watchers = append(wr.watchers[:i], wr.watchers[i+1:]...)
			break
		}
	}
}

// Notify passes the event to every watcher.
func (wr *WatcherRegistry) Notify(event Event) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	for _, w := range wr.watchers {
		w.Watch(event)
	}
}

// ResetPlayer clears one player's history in every player-scoped watcher.
func (wr *WatcherRegistry) ResetPlayer(playerID int) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	for _, w := range wr.watchers {
		if resetter, ok := w.(PlayerResetter); ok && w.Scope() == WatcherScopePlayer {
			resetter.ResetFor(playerID)
		}
	}
}

package watchers

import (
	"github.com/thraizz/kingdom-server-go/internal/game/rules"
)

// GainsWatcher records the cards each player gained during their own turn.
// The game clears a player's history when their next turn starts.
type GainsWatcher struct {
	*rules.BaseWatcher
	gains map[int][]string // playerID -> card names in gain order
}

// NewGainsWatcher creates a new gains watcher.
func NewGainsWatcher() *GainsWatcher {
	return &GainsWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopePlayer, "GainsWatcher"),
		gains:       make(map[int][]string),
	}
}

// Watch implements the Watcher interface.
func (w *GainsWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventCardGained || event.PlayerID != event.ActiveID || event.Card == "" {
		return
	}
	w.gains[event.PlayerID] = append(w.gains[event.PlayerID], event.Card)
	w.SetCondition(true)
}

// ResetFor forgets what one player gained.
func (w *GainsWatcher) ResetFor(playerID int) {
	delete(w.gains, playerID)
}

// Gains returns the cards a player gained during their latest turn.
func (w *GainsWatcher) Gains(playerID int) []string {
	return append([]string(nil), w.gains[playerID]...)
}

// Count returns how many cards a player gained during their latest turn.
func (w *GainsWatcher) Count(playerID int) int {
	return len(w.gains[playerID])
}

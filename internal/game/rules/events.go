package rules

import (
	"sort"
	"sync"
)

// EventType indicates the category of a game event.
type EventType string

const (
	EventGameStarted   EventType = "GAME_STARTED"
	EventTurnStarted   EventType = "TURN_STARTED"
	EventTurnEnded     EventType = "TURN_ENDED"
	EventPhaseChanged  EventType = "PHASE_CHANGED"
	EventCardPlayed    EventType = "CARD_PLAYED"
	EventCardGained    EventType = "CARD_GAINED"
	EventCardBought    EventType = "CARD_BOUGHT"
	EventCardTrashed   EventType = "CARD_TRASHED"
	EventDeckShuffled  EventType = "DECK_SHUFFLED"
	EventAttackBlocked EventType = "ATTACK_BLOCKED"
	EventGameEnded     EventType = "GAME_ENDED"
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type        EventType
	PlayerID    int    // player the event happened to
	ActiveID    int    // player whose turn it is
	Card        string // card name, when relevant
	Amount      int
	Description string
}

// NewEvent creates an event for a player and card.
func NewEvent(eventType EventType, playerID int, card string) Event {
	return Event{
		Type:     eventType,
		PlayerID: playerID,
		Card:     card,
	}
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

type subscription struct {
	handle    int
	eventType EventType // empty means all events
	callback  Listener
}

// EventBus is a synchronous publish/subscribe hub. Listeners are invoked in
// subscription order.
type EventBus struct {
	mu         sync.RWMutex
	subs       []subscription
	nextHandle int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		subs: make([]subscription, 0, 8),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	return bus.add("", listener)
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, listener Listener) int {
	if eventType == "" {
		return -1
	}
	return bus.add(eventType, listener)
}

func (bus *EventBus) add(eventType EventType, listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.subs = append(bus.subs, subscription{
		handle:    handle,
		eventType: eventType,
		callback:  listener,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	idx := sort.Search(len(bus.subs), func(i int) bool {
		return bus.subs[i].handle >= handle
	})
	if idx < len(bus.subs) && bus.subs[idx].handle == handle {
		bus.subs = append(bus.subs[:idx], bus.subs[idx+1:]...)
	}
}

// Publish delivers the event to matching listeners synchronously. Listeners
// may subscribe or unsubscribe while being notified.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	subs := make([]subscription, len(bus.subs))
	copy(subs, bus.subs)
	bus.mu.RUnlock()

	for _, sub := range subs {
		if sub.eventType != "" && sub.eventType != event.Type {
			continue
		}
		sub.callback(event)
	}
}

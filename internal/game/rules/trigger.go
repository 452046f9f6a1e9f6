package rules

import (
	"sync"

	"github.com/google/uuid"
)

// Trigger reacts to a specific event by producing work for the rule engine.
type Trigger struct {
	ID        string
	Source    string // card name that registered the trigger
	EventType EventType
	Condition func(Event) bool
	Build     func(Event) []Thunk
}

// TriggerManager stores triggers and evaluates them against events in
// registration order, so stacked triggers always resolve deterministically.
type TriggerManager struct {
	mu       sync.Mutex
	triggers []Trigger
}

// NewTriggerManager creates an empty trigger manager.
func NewTriggerManager() *TriggerManager {
	return &TriggerManager{
		triggers: make([]Trigger, 0, 4),
	}
}

// Register appends a trigger and returns its ID.
func (tm *TriggerManager) Register(trigger Trigger) string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if trigger.ID == "" {
		trigger.ID = uuid.NewString()
	}
	tm.triggers = append(tm.triggers, trigger)
	return trigger.ID
}

// Handle evaluates the event against all registered triggers and returns the
// thunks they produce, in registration order.
func (tm *TriggerManager) Handle(event Event) []Thunk {
	tm.mu.Lock()
	matched := make([]Trigger, 0, len(tm.triggers))
	for _, trigger := range tm.triggers {
		fires := trigger.EventType == event.Type &&
			trigger.Build != nil &&
			(trigger.Condition == nil || trigger.Condition(event))
		if fires {
			matched = append(matched, trigger)
		}
	}
	tm.mu.Unlock()

	var thunks []Thunk
	for _, trigger := range matched {
		thunks = append(thunks, trigger.Build(event)...)
	}
	return thunks
}

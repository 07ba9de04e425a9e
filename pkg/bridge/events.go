package bridge

import (
	"sync"

	"github.com/toolback/tokenbridge/pkg/bridge/types"
)

// EventLog is the bridge's append-only event record. Entries are only
// appended once the emitting operation has fully succeeded, so a failed
// operation never leaves a trace here.
type EventLog struct {
	mu     sync.RWMutex
	events []types.Event
}

// NewEventLog creates an empty log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append adds an event to the log.
func (l *EventLog) Append(event types.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

// Events returns a copy of the log in append order.
func (l *EventLog) Events() []types.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	events := make([]types.Event, len(l.events))
	copy(events, l.events)
	return events
}

// Len returns the number of recorded events.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

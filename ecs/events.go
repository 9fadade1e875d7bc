package ecs

type EventKind string

const (
	EventStarCollected EventKind = "star_collected"
	EventExitOpened    EventKind = "exit_opened"
	EventEscalated     EventKind = "escalated"
	EventNoPath        EventKind = "no_path"
	EventCaptured      EventKind = "captured"
	EventEscaped       EventKind = "escaped"
	EventTimeUp        EventKind = "time_up"
	EventStealthOn     EventKind = "stealth_on"
	EventStealthOff    EventKind = "stealth_off"
	EventBoxOpened     EventKind = "event_box_opened"
	EventHasteOver     EventKind = "haste_over"
)

// Event is something a system wants frontends to react to, e.g. a sound or
// a HUD message.
type Event struct {
	Kind   EventKind
	Entity Entity
	Data   any
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

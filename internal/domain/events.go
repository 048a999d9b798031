package domain

import "time"

type EventType string

const (
	EventOrderAdded     EventType = "order.added"
	EventOrderCompleted EventType = "order.completed"
	EventQueueCleared   EventType = "queue.cleared"
)

// Event describes a committed change to the queue. Order is nil for queue.cleared.
type Event struct {
	Type  EventType `json:"type"`
	Order *Order    `json:"order,omitempty"`
	At    time.Time `json:"at"`
}

// Key is the partition/routing key for the event.
func (e Event) Key() string {
	if e.Order != nil {
		return e.Order.ID
	}
	return string(e.Type)
}

package events

// Store event types.
const (
	TypeStoreChanged = "store_changed"
)

// StoreChangedEvent signals that a mutation flushed successfully. Consumers
// compare Counter against the last value they saw instead of diffing
// entities.
type StoreChangedEvent struct {
	BaseEvent
	Counter   uint64 `json:"counter"`
	Operation string `json:"operation"`
}

// NewStoreChanged creates a store change notification.
func NewStoreChanged(counter uint64, operation string) StoreChangedEvent {
	return StoreChangedEvent{
		BaseEvent: NewBaseEvent(TypeStoreChanged),
		Counter:   counter,
		Operation: operation,
	}
}

package bus

import "time"

// Event kinds published by the daemon. Subscribers filter by prefix, so
// "roster." matches every roster event.
const (
	KindRosterChanged = "roster.changed"
	KindConversations = "conversation.refreshed"
	KindOrderCreated  = "order.created"
	KindOrderUpdated  = "order.updated"
	KindOrderDeleted  = "order.deleted"
	KindPrintQueued   = "print.queued"
	KindPrintDone     = "print.done"
	KindPrintFailed   = "print.failed"
	KindHealthChanged = "health.changed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

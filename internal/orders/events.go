package orders

import (
	"time"

	"github.com/tracelane/tracelane/internal/ledger"
)

// Event is the human-readable record derived from one order block.
type Event struct {
	Time    time.Time `json:"time"`
	Actor   string    `json:"actor"`
	Message string    `json:"message"`
}

// EventsFor reconstructs the order's event log by filtering a chain snapshot
// for its blocks, preserving chain order. The log is never stored separately,
// so it cannot drift from the chain.
func (r *Registry) EventsFor(id string) ([]Event, error) {
	if _, err := r.Get(id); err != nil {
		return nil, err
	}
	var events []Event
	for _, b := range r.ledger.Snapshot() {
		if b.Payload.Kind != ledger.KindOrder || b.Payload.Order == nil {
			continue
		}
		ev := b.Payload.Order
		if ev.OrderID != id {
			continue
		}
		events = append(events, Event{
			Time:    b.Timestamp,
			Actor:   ev.Actor,
			Message: eventMessage(*ev),
		})
	}
	return events, nil
}

func eventMessage(ev ledger.OrderEvent) string {
	switch ev.Action {
	case ledger.OrderCreated:
		return "order created"
	case ledger.OrderStatus:
		return "status -> " + ev.Status
	case ledger.OrderRole:
		return "granted " + ev.Role + " role to " + ev.Grantee
	case ledger.OrderInvite:
		return "invited watcher " + ev.Grantee
	case ledger.OrderAddon:
		return "add-on: " + ev.Details
	}
	return string(ev.Action)
}

// Package orders tracks workflow orders whose every mutation is anchored as
// one block on the ledger. The registry state is a pure function of the
// chain: it is rebuilt by replaying order blocks at startup, so orders need
// no storage of their own.
package orders

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tracelane/tracelane/internal/ledger"
)

var (
	ErrNotFound     = errors.New("orders: order not found")
	ErrUnauthorized = errors.New("orders: actor not authorized")
	ErrUnknownRole  = errors.New("orders: unknown role")
)

// Order is a tracked workflow entity. Status strings are deliberately open:
// the API contract enumerates no transition table, so none is enforced here.
type Order struct {
	ID      string          `json:"id"`
	Owner   string          `json:"owner"`
	Status  string          `json:"status"`
	Actors  map[string]Role `json:"actors"`
	Addons  []string        `json:"addons"`
	Created time.Time       `json:"created"`
}

// Ledger is the slice of the ledger store the registry needs.
type Ledger interface {
	Submit(ledger.Payload) (ledger.Block, error)
	Snapshot() []ledger.Block
}

// Registry maps order IDs to order state. The mutex serializes mutations so
// the in-memory state always matches the block order on the chain.
type Registry struct {
	mu     sync.Mutex
	ledger Ledger
	orders map[string]*Order
}

// NewRegistry builds a registry by replaying the order blocks already on the
// chain.
func NewRegistry(l Ledger) *Registry {
	r := &Registry{ledger: l, orders: make(map[string]*Order)}
	for _, b := range l.Snapshot() {
		if b.Payload.Kind == ledger.KindOrder && b.Payload.Order != nil {
			r.apply(*b.Payload.Order, b.Timestamp)
		}
	}
	return r
}

// Create opens a new order owned by owner. The owner starts as client, the
// default participant role.
func (r *Registry) Create(owner string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev := ledger.OrderEvent{
		OrderID: "ord_" + uuid.NewString(),
		Action:  ledger.OrderCreated,
		Actor:   owner,
		Owner:   owner,
	}
	b, err := r.submit(ev)
	if err != nil {
		return Order{}, err
	}
	r.apply(ev, b.Timestamp)
	return r.orders[ev.OrderID].clone(), nil
}

// Get returns the order with the given id.
func (r *Registry) Get(id string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o.clone(), nil
}

// List returns all orders in no particular order.
func (r *Registry) List() []Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o.clone())
	}
	return out
}

// UpdateStatus sets a new status string on behalf of actor.
func (r *Registry) UpdateStatus(id, actor, status string) error {
	return r.mutate(id, actor, ActionUpdateStatus, ledger.OrderEvent{
		Action: ledger.OrderStatus,
		Actor:  actor,
		Status: status,
	})
}

// AddRole grants role to grantee. A later grant overwrites the earlier one;
// an actor holds at most one role per order.
func (r *Registry) AddRole(id, actor, grantee string, role Role) error {
	if !ValidRole(role) {
		return ErrUnknownRole
	}
	return r.mutate(id, actor, ActionAddRole, ledger.OrderEvent{
		Action:  ledger.OrderRole,
		Actor:   actor,
		Grantee: grantee,
		Role:    string(role),
	})
}

// InviteWatcher grants grantee the watcher role. Watchers see the order and
// its events but cannot change anything.
func (r *Registry) InviteWatcher(id, actor, grantee string) error {
	return r.mutate(id, actor, ActionInviteWatcher, ledger.OrderEvent{
		Action:  ledger.OrderInvite,
		Actor:   actor,
		Grantee: grantee,
	})
}

// AddAddon appends a free-text add-on request to the order.
func (r *Registry) AddAddon(id, actor, details string) error {
	return r.mutate(id, actor, ActionAddAddon, ledger.OrderEvent{
		Action:  ledger.OrderAddon,
		Actor:   actor,
		Details: details,
	})
}

// mutate authorizes, anchors the event on the chain, then folds it into the
// registry. Ledger failures leave both the chain and the order untouched.
func (r *Registry) mutate(id, actor string, action Action, ev ledger.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	if !CanMutate(o, actor, action) {
		return ErrUnauthorized
	}
	ev.OrderID = id
	b, err := r.submit(ev)
	if err != nil {
		return err
	}
	r.apply(ev, b.Timestamp)
	return nil
}

func (r *Registry) submit(ev ledger.OrderEvent) (ledger.Block, error) {
	return r.ledger.Submit(ledger.Payload{Kind: ledger.KindOrder, Order: &ev})
}

// apply folds one order event into registry state. It is the single place
// where both live mutations and startup replay change an order.
func (r *Registry) apply(ev ledger.OrderEvent, ts time.Time) {
	if ev.Action == ledger.OrderCreated {
		r.orders[ev.OrderID] = &Order{
			ID:      ev.OrderID,
			Owner:   ev.Owner,
			Status:  "created",
			Actors:  map[string]Role{ev.Owner: RoleClient},
			Created: ts,
		}
		return
	}
	o, ok := r.orders[ev.OrderID]
	if !ok {
		return
	}
	switch ev.Action {
	case ledger.OrderStatus:
		o.Status = ev.Status
	case ledger.OrderRole:
		o.Actors[ev.Grantee] = Role(ev.Role)
	case ledger.OrderInvite:
		o.Actors[ev.Grantee] = RoleWatcher
	case ledger.OrderAddon:
		o.Addons = append(o.Addons, ev.Details)
	}
}

func (o *Order) clone() Order {
	out := *o
	out.Actors = make(map[string]Role, len(o.Actors))
	for k, v := range o.Actors {
		out.Actors[k] = v
	}
	out.Addons = append([]string(nil), o.Addons...)
	return out
}

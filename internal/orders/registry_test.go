package orders

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tracelane/tracelane/internal/ledger"
)

func testLedger(t *testing.T) *ledger.Store {
	t.Helper()
	s, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGet(t *testing.T) {
	r := NewRegistry(testLedger(t))

	o, err := r.Create("alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(o.ID, "ord_") {
		t.Fatalf("unexpected order id: %s", o.ID)
	}
	if o.Status != "created" || o.Owner != "alice" {
		t.Fatalf("unexpected order: %+v", o)
	}
	if o.Actors["alice"] != RoleClient {
		t.Fatalf("expected owner to hold client role, got %v", o.Actors)
	}

	got, err := r.Get(o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != o.ID || got.Status != "created" {
		t.Fatalf("unexpected order from get: %+v", got)
	}
}

func TestGetUnknownOrder(t *testing.T) {
	r := NewRegistry(testLedger(t))
	if _, err := r.Get("ord_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatusAuthorization(t *testing.T) {
	r := NewRegistry(testLedger(t))
	o, err := r.Create("alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := r.UpdateStatus(o.ID, "bob", "shipped"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for stranger, got %v", err)
	}
	if err := r.UpdateStatus(o.ID, "alice", "shipped"); err != nil {
		t.Fatalf("owner update: %v", err)
	}

	got, err := r.Get(o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "shipped" {
		t.Fatalf("expected status shipped, got %s", got.Status)
	}

	events, err := r.EventsFor(o.ID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1].Message != "status -> shipped" {
		t.Fatalf("unexpected event message: %s", events[1].Message)
	}
}

func TestRolesAndWatchers(t *testing.T) {
	r := NewRegistry(testLedger(t))
	o, err := r.Create("alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := r.AddRole(o.ID, "alice", "bob", RoleTransporter); err != nil {
		t.Fatalf("add role: %v", err)
	}
	if err := r.AddRole(o.ID, "alice", "carol", "admin"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	if err := r.InviteWatcher(o.ID, "alice", "wendy"); err != nil {
		t.Fatalf("invite watcher: %v", err)
	}

	// A watcher may not grant roles or set status, but may invite watchers.
	if err := r.AddRole(o.ID, "wendy", "mallory", RoleSupplier); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected watcher role grant to be denied, got %v", err)
	}
	if err := r.UpdateStatus(o.ID, "wendy", "done"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected watcher status update to be denied, got %v", err)
	}
	if err := r.InviteWatcher(o.ID, "wendy", "walter"); err != nil {
		t.Fatalf("watcher invite: %v", err)
	}

	// Non-watcher participants may mutate.
	if err := r.UpdateStatus(o.ID, "bob", "in-transit"); err != nil {
		t.Fatalf("transporter status update: %v", err)
	}

	got, err := r.Get(o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Actors["bob"] != RoleTransporter || got.Actors["wendy"] != RoleWatcher || got.Actors["walter"] != RoleWatcher {
		t.Fatalf("unexpected actor map: %v", got.Actors)
	}
}

func TestRoleGrantOverwrites(t *testing.T) {
	r := NewRegistry(testLedger(t))
	o, err := r.Create("alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.AddRole(o.ID, "alice", "bob", RoleSupplier); err != nil {
		t.Fatalf("add role: %v", err)
	}
	if err := r.AddRole(o.ID, "alice", "bob", RoleRetailer); err != nil {
		t.Fatalf("regrant role: %v", err)
	}
	got, _ := r.Get(o.ID)
	if got.Actors["bob"] != RoleRetailer {
		t.Fatalf("expected later grant to overwrite, got %s", got.Actors["bob"])
	}
}

func TestAddons(t *testing.T) {
	r := NewRegistry(testLedger(t))
	o, err := r.Create("alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.AddAddon(o.ID, "mallory", "gift wrap"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected stranger addon to be denied, got %v", err)
	}
	if err := r.AddAddon(o.ID, "alice", "gift wrap"); err != nil {
		t.Fatalf("addon: %v", err)
	}
	if err := r.AddAddon(o.ID, "alice", "express"); err != nil {
		t.Fatalf("addon: %v", err)
	}
	got, _ := r.Get(o.ID)
	if len(got.Addons) != 2 || got.Addons[0] != "gift wrap" || got.Addons[1] != "express" {
		t.Fatalf("unexpected addons: %v", got.Addons)
	}
}

func TestEventsForChronology(t *testing.T) {
	r := NewRegistry(testLedger(t))
	o, err := r.Create("alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.UpdateStatus(o.ID, "alice", "packed"); err != nil {
		t.Fatalf("status: %v", err)
	}
	if err := r.AddRole(o.ID, "alice", "bob", RoleTransporter); err != nil {
		t.Fatalf("role: %v", err)
	}
	if err := r.AddAddon(o.ID, "bob", "fragile"); err != nil {
		t.Fatalf("addon: %v", err)
	}

	events, err := r.EventsFor(o.ID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	want := []string{
		"order created",
		"status -> packed",
		"granted transporter role to bob",
		"add-on: fragile",
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, msg := range want {
		if events[i].Message != msg {
			t.Fatalf("event %d: expected %q, got %q", i, msg, events[i].Message)
		}
	}
	for i := 1; i < len(events); i++ {
		if events[i].Time.Before(events[i-1].Time) {
			t.Fatalf("events out of chronological order at %d", i)
		}
	}
}

func TestEventsForUnknownOrder(t *testing.T) {
	r := NewRegistry(testLedger(t))
	if _, err := r.EventsFor("ord_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryRebuildsFromChain(t *testing.T) {
	led := testLedger(t)
	r := NewRegistry(led)

	o, err := r.Create("alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.UpdateStatus(o.ID, "alice", "delivered"); err != nil {
		t.Fatalf("status: %v", err)
	}
	if err := r.AddRole(o.ID, "alice", "bob", RoleWarehouse); err != nil {
		t.Fatalf("role: %v", err)
	}

	// A second registry over the same ledger replays to identical state.
	r2 := NewRegistry(led)
	got, err := r2.Get(o.ID)
	if err != nil {
		t.Fatalf("get after replay: %v", err)
	}
	if got.Status != "delivered" || got.Owner != "alice" || got.Actors["bob"] != RoleWarehouse {
		t.Fatalf("unexpected replayed order: %+v", got)
	}
	if !got.Created.Equal(o.Created) {
		t.Fatal("creation time changed across replay")
	}

	events, err := r2.EventsFor(o.ID)
	if err != nil {
		t.Fatalf("events after replay: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events after replay, got %d", len(events))
	}
}

func TestEveryMutationProducesOneBlock(t *testing.T) {
	led := testLedger(t)
	r := NewRegistry(led)

	before := led.Len()
	o, err := r.Create("alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.UpdateStatus(o.ID, "alice", "packed"); err != nil {
		t.Fatalf("status: %v", err)
	}
	if err := r.InviteWatcher(o.ID, "alice", "wendy"); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if got, want := led.Len()-before, 3; got != want {
		t.Fatalf("expected %d new blocks, got %d", want, got)
	}

	// Denied mutations must not grow the chain.
	mid := led.Len()
	if err := r.UpdateStatus(o.ID, "mallory", "hijacked"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if led.Len() != mid {
		t.Fatal("denied mutation appended a block")
	}
}

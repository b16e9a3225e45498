package orders

// Role is an actor's function on one order.
type Role string

const (
	RoleClient      Role = "client"
	RoleSupplier    Role = "supplier"
	RoleTransporter Role = "transporter"
	RoleWarehouse   Role = "warehouse"
	RoleRetailer    Role = "retailer"
	RoleWatcher     Role = "watcher"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleClient, RoleSupplier, RoleTransporter, RoleWarehouse, RoleRetailer, RoleWatcher:
		return true
	}
	return false
}

// Action is an order mutation subject to access control.
type Action string

const (
	ActionUpdateStatus  Action = "updateStatus"
	ActionAddRole       Action = "addRole"
	ActionInviteWatcher Action = "inviteWatcher"
	ActionAddAddon      Action = "addAddon"
)

// CanMutate reports whether actor may perform action on the order. The owner
// may do anything; other participants may add add-ons and invite watchers
// with any role, while status updates and role grants require a non-watcher
// role. Unknown actors and nil orders fail closed.
//
// The policy is deliberately broad: the API contract this mirrors grants
// role management to every non-watcher participant and constrains status
// strings not at all. Tighten here if stricter business rules ever land.
func CanMutate(o *Order, actor string, action Action) bool {
	if o == nil || actor == "" {
		return false
	}
	if actor == o.Owner {
		return true
	}
	role, ok := o.Actors[actor]
	if !ok {
		return false
	}
	switch action {
	case ActionAddAddon, ActionInviteWatcher:
		return true
	case ActionUpdateStatus, ActionAddRole:
		return role != RoleWatcher
	}
	return false
}

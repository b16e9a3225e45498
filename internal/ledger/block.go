package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/tracelane/tracelane/pkg/canonhash"
)

// PayloadKind discriminates what a block records.
type PayloadKind string

const (
	KindGenesis     PayloadKind = "genesis"
	KindTransaction PayloadKind = "transaction"
	KindOrder       PayloadKind = "order"
)

// OrderAction identifies which order mutation an order block records.
type OrderAction string

const (
	OrderCreated OrderAction = "created"
	OrderStatus  OrderAction = "status"
	OrderRole    OrderAction = "role"
	OrderInvite  OrderAction = "invite"
	OrderAddon   OrderAction = "addon"
)

// Transaction is a value transfer recorded on the chain.
type Transaction struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// OrderEvent records one order mutation. Which optional fields are set
// depends on Action: Owner for created, Status for status, Grantee and Role
// for role, Grantee for invite, Details for addon.
type OrderEvent struct {
	OrderID string      `json:"order_id"`
	Action  OrderAction `json:"action"`
	Actor   string      `json:"actor"`
	Owner   string      `json:"owner,omitempty"`
	Status  string      `json:"status,omitempty"`
	Grantee string      `json:"grantee,omitempty"`
	Role    string      `json:"role,omitempty"`
	Details string      `json:"details,omitempty"`
}

// Payload is a tagged union: exactly the pointer matching Kind is set.
// Genesis blocks carry neither.
type Payload struct {
	Kind        PayloadKind  `json:"kind"`
	Transaction *Transaction `json:"transaction,omitempty"`
	Order       *OrderEvent  `json:"order,omitempty"`
}

// Block is one immutable entry in the hash chain.
type Block struct {
	Index     uint64    `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Payload   Payload   `json:"payload"`
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
}

// ComputeHash derives the block digest from its fields. The preimage is a
// newline-separated sequence of index, unix-nano timestamp, previous hash and
// the canonical payload encoding, so any holder of the block can recompute
// and compare.
func (b Block) ComputeHash() (string, error) {
	_, payload, err := canonhash.SumObject(b.Payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d\n%d\n%s\n%s\n", b.Index, b.Timestamp.UnixNano(), b.PrevHash, payload)
	return canonhash.SumString(sb.String()), nil
}

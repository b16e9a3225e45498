package ledger

import (
	"errors"
	"fmt"
	"time"
)

// ErrChainClosed is returned for appends after the owning store shut down.
var ErrChainClosed = errors.New("ledger: chain closed")

// Chain is the ordered block sequence from genesis to tip. It is not safe
// for concurrent use; Store serializes access.
type Chain struct {
	blocks []Block
}

// NewChain returns a chain holding only a genesis block.
func NewChain() (*Chain, error) {
	genesis := Block{
		Index:     0,
		Timestamp: time.Now().UTC(),
		Payload:   Payload{Kind: KindGenesis},
		PrevHash:  "",
	}
	hash, err := genesis.ComputeHash()
	if err != nil {
		return nil, err
	}
	genesis.Hash = hash
	return &Chain{blocks: []Block{genesis}}, nil
}

// FromBlocks rebuilds a chain from a persisted block sequence. The blocks are
// taken as-is: a tampered sequence loads fine and is reported by Verify, never
// repaired.
func FromBlocks(blocks []Block) (*Chain, error) {
	if len(blocks) == 0 {
		return nil, errors.New("ledger: empty block sequence")
	}
	c := &Chain{blocks: make([]Block, len(blocks))}
	copy(c.blocks, blocks)
	return c, nil
}

// Build computes the successor block for payload without appending it.
// Timestamps are clamped so they never go backwards across the chain.
func (c *Chain) Build(payload Payload) (Block, error) {
	head := c.blocks[len(c.blocks)-1]
	ts := time.Now().UTC()
	if ts.Before(head.Timestamp) {
		ts = head.Timestamp
	}
	b := Block{
		Index:     head.Index + 1,
		Timestamp: ts,
		Payload:   payload,
		PrevHash:  head.Hash,
	}
	hash, err := b.ComputeHash()
	if err != nil {
		return Block{}, err
	}
	b.Hash = hash
	return b, nil
}

// Commit appends a block previously produced by Build. The linkage check
// guards against appends built from a stale head.
func (c *Chain) Commit(b Block) error {
	head := c.blocks[len(c.blocks)-1]
	if b.Index != head.Index+1 || b.PrevHash != head.Hash {
		return fmt.Errorf("ledger: block %d does not extend head %d", b.Index, head.Index)
	}
	c.blocks = append(c.blocks, b)
	return nil
}

// Blocks returns a copy of the full chain.
func (c *Chain) Blocks() []Block {
	out := make([]Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Head returns the most recent block.
func (c *Chain) Head() Block { return c.blocks[len(c.blocks)-1] }

// Len returns the chain length including genesis.
func (c *Chain) Len() int { return len(c.blocks) }

// Verify checks the whole chain for tampering.
func (c *Chain) Verify() *TamperError { return Verify(c.blocks) }

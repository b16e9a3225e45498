package ledger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var blocksBucket = []byte("blocks")

// Store owns the chain and is its only mutation entry point. Appends are
// serialized behind the write lock; reads operate on point-in-time copies.
// Blocks are persisted to bbolt before they become visible in memory, so a
// failed write never leaves a half-appended block.
type Store struct {
	mu     sync.RWMutex
	db     *bolt.DB
	chain  *Chain
	closed bool
}

// Open loads the chain from the bbolt file at path, creating the file and
// the genesis block on first use.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blocksBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create blocks bucket: %w", err)
	}

	blocks, err := loadBlocks(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if len(blocks) == 0 {
		chain, err := NewChain()
		if err != nil {
			db.Close()
			return nil, err
		}
		s.chain = chain
		if err := s.persist(chain.Head()); err != nil {
			db.Close()
			return nil, fmt.Errorf("persist genesis: %w", err)
		}
		return s, nil
	}

	chain, err := FromBlocks(blocks)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.chain = chain
	return s, nil
}

// Submit appends a block for payload. Concurrent submissions are serialized;
// each one observes a chain that includes every previously committed submit.
func (s *Store) Submit(payload Payload) (Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Block{}, ErrChainClosed
	}
	b, err := s.chain.Build(payload)
	if err != nil {
		return Block{}, err
	}
	if err := s.persist(b); err != nil {
		return Block{}, fmt.Errorf("persist block %d: %w", b.Index, err)
	}
	if err := s.chain.Commit(b); err != nil {
		return Block{}, err
	}
	return b, nil
}

// Snapshot returns a consistent copy of the chain as of the call.
func (s *Store) Snapshot() []Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chain.Blocks()
}

// Len returns the current chain length including genesis.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chain.Len()
}

// Validate verifies a snapshot of the chain. The second return is the first
// broken index, or -1 when the chain is intact.
func (s *Store) Validate() (bool, int) {
	if te := Verify(s.Snapshot()); te != nil {
		return false, int(te.Index)
	}
	return true, -1
}

// Check is Validate with the full tamper report, for error surfaces that
// want the human-readable reason.
func (s *Store) Check() *TamperError {
	return Verify(s.Snapshot())
}

// Close rejects further submissions and releases the database. In-flight
// appends hold the write lock, so they always complete first.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) persist(b Block) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("marshal block: %w", err)
		}
		return tx.Bucket(blocksBucket).Put(blockKey(b.Index), data)
	})
}

func loadBlocks(db *bolt.DB) ([]Block, error) {
	var blocks []Block
	err := db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(blocksBucket).Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var b Block
			if err := json.Unmarshal(v, &b); err != nil {
				return fmt.Errorf("decode block %x: %w", k, err)
			}
			blocks = append(blocks, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// blockKey is the big-endian index, so bbolt's key order is chain order.
func blockKey(index uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, index)
	return key
}

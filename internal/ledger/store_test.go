package ledger

import (
	"path/filepath"
	"sync"
	"testing"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func TestOpenCreatesGenesis(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "ledger.db"))
	defer s.Close()

	if s.Len() != 1 {
		t.Fatalf("expected fresh store with genesis only, got length %d", s.Len())
	}
	if valid, _ := s.Validate(); !valid {
		t.Fatal("expected fresh chain to validate")
	}
}

func TestSubmitAppends(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "ledger.db"))
	defer s.Close()

	b, err := s.Submit(txPayload("alice", "bob", 3))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if b.Index != 1 {
		t.Fatalf("expected index 1, got %d", b.Index)
	}
	if valid, _ := s.Validate(); !valid {
		t.Fatal("expected chain to validate after submit")
	}
}

func TestSubmitAfterCloseFails(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "ledger.db"))
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.Submit(txPayload("a", "b", 1)); err != ErrChainClosed {
		t.Fatalf("expected ErrChainClosed, got %v", err)
	}
}

func TestReopenPreservesChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	s := openTestStore(t, path)
	for i := 0; i < 5; i++ {
		if _, err := s.Submit(txPayload("alice", "bob", float64(i+1))); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	before := s.Snapshot()
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2 := openTestStore(t, path)
	defer s2.Close()

	after := s2.Snapshot()
	if len(after) != len(before) {
		t.Fatalf("expected %d blocks after reload, got %d", len(before), len(after))
	}
	for i := range before {
		if before[i].Hash != after[i].Hash || before[i].PrevHash != after[i].PrevHash {
			t.Fatalf("block %d changed across reload", i)
		}
		if !before[i].Timestamp.Equal(after[i].Timestamp) {
			t.Fatalf("block %d timestamp changed across reload", i)
		}
	}
	if valid, _ := s2.Validate(); !valid {
		t.Fatal("expected reloaded chain to validate")
	}
}

func TestConcurrentSubmitsAreLinearized(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "ledger.db"))
	defer s.Close()

	const writers = 8
	const perWriter = 5

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if _, err := s.Submit(txPayload("a", "b", 1)); err != nil {
					t.Errorf("submit: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	if len(snap) != writers*perWriter+1 {
		t.Fatalf("expected %d blocks, got %d", writers*perWriter+1, len(snap))
	}
	seen := make(map[string]bool, len(snap))
	for i, b := range snap {
		if b.Index != uint64(i) {
			t.Fatalf("expected contiguous indices, block %d has index %d", i, b.Index)
		}
		if seen[b.Hash] {
			t.Fatalf("duplicate hash at block %d", i)
		}
		seen[b.Hash] = true
	}
	if valid, _ := s.Validate(); !valid {
		t.Fatal("expected chain to validate after concurrent submits")
	}
}

func TestValidateReportsBrokenIndex(t *testing.T) {
	c, err := NewChain()
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}
	appendBlock(t, c, txPayload("a", "b", 1))
	appendBlock(t, c, txPayload("b", "c", 2))

	blocks := c.Blocks()
	blocks[2].Payload = txPayload("b", "mallory", 2)
	te := Verify(blocks)
	if te == nil || te.Index != 2 {
		t.Fatalf("expected failure at block 2, got %+v", te)
	}
}

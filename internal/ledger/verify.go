package ledger

import "fmt"

// TamperReason classifies how a block failed verification.
type TamperReason string

const (
	ReasonHashMismatch TamperReason = "hash_mismatch"
	ReasonBrokenLink   TamperReason = "broken_link"
)

// TamperError reports the first block at which chain verification failed.
type TamperError struct {
	Index  uint64
	Reason TamperReason
}

func (e *TamperError) Error() string {
	switch e.Reason {
	case ReasonBrokenLink:
		return fmt.Sprintf("broken link at block %d", e.Index)
	default:
		return fmt.Sprintf("hash mismatch at block %d", e.Index)
	}
}

// IsTamperError reports whether err is a verification failure.
func IsTamperError(err error) bool {
	_, ok := err.(*TamperError)
	return ok
}

// Verify walks blocks in order, recomputing every digest and checking the
// prev-hash linkage. It returns nil for an intact chain, otherwise the first
// broken index. Verify never mutates its input and runs in O(n).
func Verify(blocks []Block) *TamperError {
	for i, b := range blocks {
		if b.Index != uint64(i) {
			return &TamperError{Index: uint64(i), Reason: ReasonBrokenLink}
		}
		want, err := b.ComputeHash()
		if err != nil || want != b.Hash {
			return &TamperError{Index: b.Index, Reason: ReasonHashMismatch}
		}
		if i > 0 && b.PrevHash != blocks[i-1].Hash {
			return &TamperError{Index: b.Index, Reason: ReasonBrokenLink}
		}
	}
	return nil
}

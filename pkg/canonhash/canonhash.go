// Package canonhash computes SHA-256 digests over canonical JSON encodings.
// encoding/json emits struct fields in declaration order, so the same logical
// value always yields the same bytes and therefore the same digest, regardless
// of which process produced it.
package canonhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// SumObject returns the hex SHA-256 of v's JSON encoding alongside the
// encoded bytes.
func SumObject(v any) (string, []byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), b, nil
}

// SumString returns the hex SHA-256 of s.
func SumString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Package signature provides helper functions for hashing blockchain data.
package signature

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// hashLength is the length of an encoded hash including the 0x prefix.
const hashLength = 66

// Hash returns a unique string for the value. The value is marshaled to JSON
// first, so the same value always produces the same hash across processes.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// IsHash reports whether the string is a 0x prefixed, hex encoded 32 byte hash.
func IsHash(hash string) bool {
	if len(hash) != hashLength {
		return false
	}

	b, err := hexutil.Decode(hash)
	return err == nil && len(b) == sha256.Size
}

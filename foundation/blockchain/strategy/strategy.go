// Package strategy provides the nonce search algorithms used when mining.
package strategy

import (
	"context"
	"fmt"
	"strings"
)

// List of different nonce strategies.
const (
	Trivial = "Trivial"
	POW     = "POW"
)

// maxDifficulty is the number of hex digits in a sha256 hash.
const maxDifficulty = 64

// Map of different nonce strategies with functions.
var strategies = map[string]Func{
	Trivial: trivial,
	POW:     pow,
}

// HashFunc calculates the block hash for the specified nonce.
type HashFunc func(nonce uint64) string

// Func defines a function that searches for a nonce whose hash satisfies the
// specified difficulty.
type Func func(ctx context.Context, difficulty uint16, hashFn HashFunc) (uint64, error)

// Retrieve returns the specified nonce strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// Difficulty returns the difficulty a block mined with the specified
// strategy will record. The trivial strategy does not search, so its
// blocks always carry a difficulty of zero.
func Difficulty(strategy string, difficulty uint16) uint16 {
	if strategy == Trivial {
		return 0
	}
	return difficulty
}

// IsSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of 0's after the 0x prefix.
func IsSolved(difficulty uint16, hash string) bool {
	if difficulty == 0 {
		return true
	}

	if difficulty > maxDifficulty || len(hash) != maxDifficulty+2 {
		return false
	}

	return strings.Count(hash[2:2+difficulty], "0") == int(difficulty)
}

// =============================================================================

// trivial derives the nonce without any search. Blocks respond instantly.
func trivial(ctx context.Context, difficulty uint16, hashFn HashFunc) (uint64, error) {
	if difficulty != 0 {
		return 0, fmt.Errorf("trivial strategy can't solve difficulty %d", difficulty)
	}

	return 0, nil
}

// pow increments the nonce from zero until the hash has the required
// number of leading zeros. The search can be cancelled through the context.
func pow(ctx context.Context, difficulty uint16, hashFn HashFunc) (uint64, error) {
	if difficulty > maxDifficulty {
		return 0, fmt.Errorf("difficulty %d is larger than %d", difficulty, maxDifficulty)
	}

	var nonce uint64
	for {
		if nonce%10_000 == 0 && ctx.Err() != nil {
			return 0, ctx.Err()
		}

		if IsSolved(difficulty, hashFn(nonce)) {
			return nonce, nil
		}

		nonce++
	}
}

// Package mempool maintains the pool of transactions waiting to be mined.
package mempool

import (
	"sync"

	"github.com/scremy/blockchain/foundation/blockchain/database"
)

// Mempool represents a cache of transactions kept in the order they were
// received.
type Mempool struct {
	pool []database.Tx
	mu   sync.RWMutex
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add appends a transaction to the end of the pool and returns the new
// size of the pool.
func (mp *Mempool) Add(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)

	return len(mp.pool)
}

// Remove drops the oldest n transactions from the pool. These are the
// transactions returned by the last call to PickBest.
func (mp *Mempool) Remove(n int) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if n > len(mp.pool) {
		n = len(mp.pool)
	}

	mp.pool = append([]database.Tx{}, mp.pool[n:]...)
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
}

// PickBest returns the oldest transactions for the next block. A value of
// -1 for howMany returns the whole pool.
func (mp *Mempool) PickBest(howMany int) []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if howMany < 0 || howMany > len(mp.pool) {
		howMany = len(mp.pool)
	}

	return append([]database.Tx{}, mp.pool[:howMany]...)
}

// Copy returns the full pool in the order it was received.
func (mp *Mempool) Copy() []database.Tx {
	return mp.PickBest(-1)
}

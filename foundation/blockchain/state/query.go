package state

import (
	"github.com/scremy/blockchain/foundation/blockchain/database"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// =============================================================================

// QueryBalance returns the balance for the address. Unknown addresses have
// a zero balance.
func (s *State) QueryBalance(address string) database.Amount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.Balance(address)
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlocksByNumber returns the set of blocks based on block numbers.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := s.db.LatestBlock().Index
	if from == QueryLatest {
		from = latest
		to = from
	}
	if to == QueryLatest || to > latest {
		to = latest
	}

	var out []database.Block
	for i := from; i <= to; i++ {
		block, err := s.db.GetBlock(i)
		if err != nil {
			s.evHandler("state: getblock: ERROR: %s", err)
			return nil
		}
		out = append(out, block)
	}

	return out
}

// QueryBlocksByAddress returns the set of blocks with a transaction sent or
// received by the address. If the address is empty, all blocks are returned.
func (s *State) QueryBlocksByAddress(address string) []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []database.Block
	for _, block := range s.db.Blocks() {
		if address == "" {
			out = append(out, block)
			continue
		}

		for _, tx := range block.Transactions {
			if tx.Sender == address || tx.Recipient == address {
				out = append(out, block)
				break
			}
		}
	}

	return out
}

// ValidateChain reports whether the whole chain is intact.
func (s *State) ValidateChain() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.db.Validate(); err != nil {
		s.evHandler("state: ValidateChain: ERROR: %s", err)
		return false
	}

	return true
}

package state

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/scremy/blockchain/foundation/blockchain/database"
)

// ErrNoTransactions is returned when the worker is asked to mine and there
// is nothing in the mempool.
var ErrNoTransactions = errors.New("no transactions in mempool")

// =============================================================================

// MineNewBlock drains the mempool into a new block that pays the mining
// reward to the specified miner. The write lock is held for the whole
// operation so no transfer can interleave with the block being applied.
func (s *State) MineNewBlock(ctx context.Context, miner string) (database.Block, error) {
	block, _, err := s.mineBlock(ctx, miner, false)
	return block, err
}

// MineWithBalance mines like MineNewBlock and also returns the miner's
// balance as of the new block.
func (s *State) MineWithBalance(ctx context.Context, miner string) (database.Block, database.Amount, error) {
	return s.mineBlock(ctx, miner, false)
}

// MinePendingBlock mines the mempool to the node's beneficiary. Nothing is
// mined when the mempool is empty.
func (s *State) MinePendingBlock(ctx context.Context) (database.Block, error) {
	block, _, err := s.mineBlock(ctx, s.beneficiary, true)
	return block, err
}

// =============================================================================

func (s *State) mineBlock(ctx context.Context, miner string, pendingOnly bool) (database.Block, database.Amount, error) {
	if strings.TrimSpace(miner) == "" {
		return database.Block{}, database.Amount{}, fmt.Errorf("%w: miner address is required", database.ErrInvalidAddress)
	}

	if miner == database.NetworkSender {
		return database.Block{}, database.Amount{}, fmt.Errorf("%w: address %q is reserved", database.ErrInvalidAddress, miner)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if pendingOnly && s.mempool.Count() == 0 {
		return database.Block{}, database.Amount{}, ErrNoTransactions
	}

	howMany := int(s.genesis.TransPerBlock)
	if howMany == 0 {
		howMany = -1
	}

	s.evHandler("state: mineBlock: MINING: pick transactions: pool[%d]", s.mempool.Count())

	// Pooled submissions are only paid for once mined, so the sender may
	// not be able to cover them anymore.
	picked := s.mempool.PickBest(howMany)
	trans, dropped := s.db.SelectAffordable(picked)
	for _, tx := range dropped {
		s.evHandler("state: mineBlock: MINING: WARNING: dropping tx[%s]: %s", tx, database.ErrInsufficientFunds)
	}

	trans = append(trans, database.NewRewardTx(miner, s.reward))

	s.evHandler("state: mineBlock: MINING: find nonce: difficulty[%d]", s.difficulty)

	block, err := database.MineBlock(ctx, s.solve, s.difficulty, s.db.LatestBlock(), trans, s.evHandler)
	if err != nil {
		return database.Block{}, database.Amount{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, database.Amount{}, ctx.Err()
	}

	s.evHandler("state: mineBlock: MINING: update local state")

	if err := s.updateLocalState(block); err != nil {
		return database.Block{}, database.Amount{}, err
	}

	s.mempool.Remove(len(picked))

	balance := s.db.Balance(miner)

	s.evHandler("viewer: block mined: blk[%d]: hash[%s]: miner[%s]: txs[%d]: balance[%s]", block.Index, block.Hash, miner, len(block.Transactions), balance)

	return block, balance, nil
}

// =============================================================================

// updateLocalState adds the block to the chain and applies its
// transactions to the balances. Transfers were applied when they were
// pooled and are skipped. Must be called with the write lock held.
func (s *State) updateLocalState(block database.Block) error {
	s.evHandler("state: updateLocalState: write block")

	if err := s.db.Append(block); err != nil {
		return err
	}

	s.evHandler("state: updateLocalState: update accounts")

	for _, tx := range block.Transactions {
		if tx.Type == database.TxSend {
			continue
		}

		s.evHandler("state: updateLocalState: tx[%s] apply", tx)
		s.db.ApplyTransaction(tx)
	}

	return nil
}

package worker

import (
	"context"
	"errors"
	"time"

	"github.com/scremy/blockchain/foundation/blockchain/state"
)

// miningOperations waits for a start signal and then mines blocks to the
// beneficiary until the mempool is empty.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			w.drainMempool()

		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// drainMempool mines one block after another while transactions are
// pending. It stops on shutdown or the first block that can't be mined,
// the next submission signals mining again.
func (w *Worker) drainMempool() {
	for blocks := 0; !w.isShutdown(); blocks++ {
		pending := w.state.QueryMempoolLength()
		if pending == 0 {
			w.evHandler("worker: drainMempool: mempool drained: blocks[%d]", blocks)
			return
		}

		if err := w.mineBlock(pending); err != nil {
			return
		}
	}
}

// mineBlock mines a single block. A cancel signal or a shutdown stops the
// nonce search.
func (w *Worker) mineBlock(pending int) error {

	// A cancel left over from an earlier block does not apply to this one.
	select {
	case <-w.cancelMining:
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-w.cancelMining:
			w.evHandler("worker: mineBlock: MINING: CANCEL: requested")
			cancel()
		case <-w.shut:
			w.evHandler("worker: mineBlock: MINING: CANCEL: shutdown")
			cancel()
		case <-done:
		}
	}()

	w.evHandler("worker: mineBlock: MINING: started: pending[%d]", pending)

	start := time.Now()
	block, err := w.state.MinePendingBlock(ctx)

	if err != nil {
		switch {
		case errors.Is(err, state.ErrNoTransactions):
			w.evHandler("worker: mineBlock: MINING: mempool emptied by another miner")
		case ctx.Err() != nil:
			w.evHandler("worker: mineBlock: MINING: CANCEL: complete: duration[%v]", time.Since(start))
		default:
			w.evHandler("worker: mineBlock: MINING: ERROR: %s", err)
		}
		return err
	}

	w.evHandler("worker: mineBlock: MINING: blk[%d]: hash[%s]: txs[%d]: duration[%v]", block.Index, block.Hash, len(block.Transactions), time.Since(start))

	return nil
}

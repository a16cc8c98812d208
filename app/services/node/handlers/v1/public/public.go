// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/scremy/blockchain/business/sys/metrics"
	"github.com/scremy/blockchain/business/sys/validate"
	"github.com/scremy/blockchain/business/web/errs"
	"github.com/scremy/blockchain/foundation/blockchain/database"
	"github.com/scremy/blockchain/foundation/blockchain/genesis"
	"github.com/scremy/blockchain/foundation/blockchain/state"
	"github.com/scremy/blockchain/foundation/events"
	"github.com/scremy/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Chain returns the full chain starting from the genesis block.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chain := h.State.RetrieveChain()

	resp := chainInfo{
		Chain:  chain,
		Length: len(chain),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Valid reports whether the chain is intact.
func (h Handlers) Valid(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := validInfo{
		Valid: h.State.ValidateChain(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balance returns the balance for the address. Unknown addresses have a
// zero balance.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")

	resp := balanceInfo{
		Address: address,
		Balance: h.State.QueryBalance(address),
		Unit:    genesis.Unit,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mine drains the mempool into a new block that rewards the miner.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req mineRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	block, err := h.State.MineNewBlock(ctx, req.MinerAddress)
	if err != nil {
		return trusted(err)
	}
	metrics.AddBlocks()

	h.Log.Infow("mine", "traceid", web.GetTraceID(ctx), "miner", req.MinerAddress, "blk", block.Index, "hash", block.Hash)

	resp := mineInfo{
		Message: "New block mined",
		Block:   block,
		Mined:   block,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// SubmitTransaction adds a transaction to the mempool. Balances move when
// the transaction is mined.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req submitRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	h.Log.Infow("submit tran", "traceid", web.GetTraceID(ctx), "sender", req.Sender, "recipient", req.Recipient, "amount", req.Amount)

	if err := h.State.SubmitTransaction(req.Sender, req.Recipient, req.Amount); err != nil {
		return trusted(err)
	}

	resp := statusInfo{
		Message: "Transaction will be added to the next mined block",
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// CreateWallet registers a wallet address with the node.
func (h Handlers) CreateWallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req walletRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	created, err := h.State.CreateWallet(req.Address)
	if err != nil {
		return trusted(err)
	}

	resp := walletInfo{
		Address: req.Address,
		Created: created,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Wallets returns the registered wallets.
func (h Handlers) Wallets(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	list := h.State.RetrieveWallets()

	resp := walletList{
		Count:   len(list),
		Wallets: list,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// StartMining mines a block for the address and reports the new balance.
func (h Handlers) StartMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req walletRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	block, balance, err := h.State.MineWithBalance(ctx, req.Address)
	if err != nil {
		return trusted(err)
	}
	metrics.AddBlocks()

	resp := miningInfo{
		Address:    req.Address,
		NewBalance: balance,
		Reward:     h.State.RetrieveMiningReward(),
		Block:      block,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Transfer moves funds between two addresses right away.
func (h Handlers) Transfer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req transferRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	h.Log.Infow("transfer", "traceid", web.GetTraceID(ctx), "from", req.FromAddress, "to", req.ToAddress, "amount", req.Amount)

	balance, err := h.State.Transfer(req.FromAddress, req.ToAddress, req.Amount)
	if err != nil {
		return trusted(err)
	}

	resp := transferInfo{
		NewBalance: balance,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of transactions waiting to be mined.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	trans := h.State.RetrieveMempool()

	resp := mempoolInfo{
		Count:        len(trans),
		Transactions: trans,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Accounts returns the current balances for all accounts.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accounts := h.State.RetrieveAccounts()

	var supply database.Amount
	for _, account := range accounts {
		supply = supply.Add(account.Balance)
	}

	resp := actInfo{
		LatestBlock: h.State.RetrieveLatestBlock().Hash,
		Uncommitted: h.State.QueryMempoolLength(),
		Supply:      supply,
		Accounts:    accounts,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BlocksByAddress returns the blocks with transactions for the address.
func (h Handlers) BlocksByAddress(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.State.QueryBlocksByAddress(web.Param(r, "address"))
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Events handles a web socket to provide events to a client. Each topic
// query parameter narrows the feed, no topic streams everything.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID, r.URL.Query()["topic"]...)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(ev); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// =============================================================================

// decode reads and validates the request body. Malformed bodies are the
// client's fault.
func decode(r *http.Request, val any) error {
	if err := web.Decode(r, val); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(val); err != nil {
		return fmt.Errorf("validating payload: %w", err)
	}

	return nil
}

// trusted marks the ledger's validation errors as safe to return to the
// client. Anything else is reported as an internal error.
func trusted(err error) error {
	switch {
	case errors.Is(err, database.ErrInvalidAmount),
		errors.Is(err, database.ErrAmountRange),
		errors.Is(err, database.ErrInvalidAddress),
		errors.Is(err, database.ErrInsufficientFunds):
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return err
}

// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"sync"

	"github.com/scremy/blockchain/foundation/blockchain/database"
	"github.com/scremy/blockchain/foundation/blockchain/genesis"
	"github.com/scremy/blockchain/foundation/blockchain/mempool"
	"github.com/scremy/blockchain/foundation/blockchain/strategy"
	"github.com/scremy/blockchain/foundation/blockchain/wallets"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for background mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Beneficiary string
	Genesis     genesis.Genesis
	Storage     database.Storage
	Strategy    string
	AutoMine    bool
	EvHandler   EventHandler
}

// State manages the blockchain database.
type State struct {
	mu sync.RWMutex

	beneficiary string
	autoMine    bool
	evHandler   EventHandler

	genesis    genesis.Genesis
	solve      strategy.Func
	difficulty uint16
	reward     database.Amount
	mempool    *mempool.Mempool
	db         *database.Database
	wallets    *wallets.Registry

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Select the function used to find the nonce for new blocks.
	solve, err := strategy.Retrieve(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	// Blocks record the difficulty they were solved for, so a chain has to be
	// reopened with the strategy it was mined under.
	difficulty := strategy.Difficulty(cfg.Strategy, cfg.Genesis.Difficulty)

	// Access the storage for the blockchain. Blocks already in storage
	// are validated and replayed into the balances.
	db, err := database.New(cfg.Genesis, difficulty, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		beneficiary: cfg.Beneficiary,
		autoMine:    cfg.AutoMine,
		evHandler:   ev,

		genesis:    cfg.Genesis,
		solve:      solve,
		difficulty: difficulty,
		reward:     database.AmountFromDecimal(cfg.Genesis.MiningReward),
		mempool:    mempool.New(),
		db:         db,
		wallets:    wallets.New(),
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	// Make sure the database is properly closed once the write lock
	// can be taken.
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Close()
}

// IsMiningAllowed reports whether the background worker is allowed to mine
// the pending pool.
func (s *State) IsMiningAllowed() bool {
	return s.autoMine
}

// Truncate clears the pending pool.
func (s *State) Truncate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mempool.Truncate()
}

// signalStartMining lets the worker know there is work in the pool.
func (s *State) signalStartMining() {
	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}
}

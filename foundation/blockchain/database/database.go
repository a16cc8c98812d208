// Package database handles all the lower level support for maintaining the
// blockchain in storage and maintaining an in memory database of account
// balances derived from it.
package database

import (
	"fmt"
	"sort"
	"sync"

	"github.com/scremy/blockchain/foundation/blockchain/genesis"
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Storage interface {
	Write(block Block) error
	GetBlock(num uint64) (Block, error)
	ForEach() Iterator
	Close() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// =============================================================================

// Database manages the chain of blocks and the balances of the accounts who
// have transacted on it.
type Database struct {
	mu sync.RWMutex

	genesis    genesis.Genesis
	difficulty uint16
	blocks     []Block
	accounts   map[string]Account

	storage   Storage
	evHandler func(v string, args ...any)
}

// New constructs a new database and applies account genesis information. The
// blocks already in storage are validated and replayed to derive balances.
// Empty storage gets the genesis block written to it. Every block after
// genesis must be solved for the specified difficulty.
func New(gen genesis.Genesis, difficulty uint16, storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	db := Database{
		genesis:    gen,
		difficulty: difficulty,
		accounts:   genesisAccounts(gen),
		storage:    storage,
		evHandler:  ev,
	}

	iter := storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		switch len(db.blocks) {
		case 0:
			err = block.validateGenesis(ev)
		default:
			err = block.ValidateBlock(db.blocks[len(db.blocks)-1], difficulty, ev)
		}
		if err != nil {
			return nil, fmt.Errorf("loading blk[%d]: %w", block.Index, err)
		}

		for _, tx := range block.Transactions {
			db.applyTransaction(tx)
		}

		db.blocks = append(db.blocks, block)
	}

	if len(db.blocks) == 0 {
		block := NewGenesisBlock(gen.Date)
		if err := storage.Write(block); err != nil {
			return nil, fmt.Errorf("writing genesis block: %w", err)
		}
		db.blocks = append(db.blocks, block)
	}

	ev("database: New: loaded: blocks[%d]: latest[%s]", len(db.blocks), db.blocks[len(db.blocks)-1].Hash)

	return &db, nil
}

// Close closes the open blocks database.
func (db *Database) Close() error {
	return db.storage.Close()
}

// =============================================================================

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.blocks[len(db.blocks)-1].clone()
}

// Length returns the number of blocks in the chain including genesis.
func (db *Database) Length() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.blocks)
}

// Blocks returns a copy of the full ordered chain.
func (db *Database) Blocks() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]Block, len(db.blocks))
	for i, block := range db.blocks {
		blocks[i] = block.clone()
	}
	return blocks
}

// GetBlock returns the block at the specified index.
func (db *Database) GetBlock(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if num >= uint64(len(db.blocks)) {
		return Block{}, fmt.Errorf("block %d does not exist", num)
	}

	return db.blocks[num].clone(), nil
}

// Append adds the block to the end of the chain after validating it
// continues the current latest block. The block is written to storage
// before it becomes visible. Balances are not touched.
func (db *Database) Append(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	latest := db.blocks[len(db.blocks)-1]
	if err := block.ValidateBlock(latest, db.difficulty, db.evHandler); err != nil {
		return err
	}

	if err := db.storage.Write(block); err != nil {
		return fmt.Errorf("writing blk[%d]: %w", block.Index, err)
	}

	db.blocks = append(db.blocks, block.clone())

	return nil
}

// Validate walks the chain checking hashes, links and numbering.
func (db *Database) Validate() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return ValidateChain(db.blocks, db.difficulty, db.evHandler)
}

// =============================================================================

// Account represents information stored in the database for an individual account.
type Account struct {
	Address string `json:"address"`
	Balance Amount `json:"balance"`
}

// Balance returns the balance for the address. Unknown addresses have a
// zero balance.
func (db *Database) Balance(address string) Amount {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.accounts[address].Balance
}

// CopyAccounts makes a copy of the current accounts in the database sorted
// by address.
func (db *Database) CopyAccounts() []Account {
	db.mu.RLock()
	defer db.mu.RUnlock()

	accounts := make([]Account, 0, len(db.accounts))
	for _, account := range db.accounts {
		accounts = append(accounts, account)
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Address < accounts[j].Address
	})

	return accounts
}

// TotalSupply returns the sum of all balances.
func (db *Database) TotalSupply() Amount {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var total Amount
	for _, account := range db.accounts {
		total = total.Add(account.Balance)
	}
	return total
}

// Transfer validates the transaction and moves the amount between the two
// parties in one step. It returns the sender's new balance.
func (db *Database) Transfer(tx Tx) (Amount, error) {
	if err := tx.Validate(); err != nil {
		return Amount{}, err
	}

	if tx.IsReward() {
		return Amount{}, fmt.Errorf("%w: rewards are only paid by mining", ErrInvalidAddress)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	from := db.accounts[tx.Sender].Balance
	if from.Cmp(tx.Amount) < 0 {
		return Amount{}, fmt.Errorf("%w: available %s, needed %s", ErrInsufficientFunds, from, tx.Amount)
	}

	db.applyTransaction(tx)

	return db.accounts[tx.Sender].Balance, nil
}

// CheckFunds returns an error when the sender can't cover the amount.
func (db *Database) CheckFunds(sender string, amount Amount) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	balance := db.accounts[sender].Balance
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: available %s, needed %s", ErrInsufficientFunds, balance, amount)
	}

	return nil
}

// SelectAffordable walks the transactions in order against a scratch copy
// of the balances. Transactions the sender can't cover at that point are
// returned as dropped. Transactions already applied to the ledger are
// always kept.
func (db *Database) SelectAffordable(trans []Tx) (keep []Tx, drop []Tx) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	scratch := make(map[string]Amount)
	balance := func(address string) Amount {
		if bal, exists := scratch[address]; exists {
			return bal
		}
		return db.accounts[address].Balance
	}

	for _, tx := range trans {
		if tx.Type != TxPooled {
			keep = append(keep, tx)
			continue
		}

		from := balance(tx.Sender)
		if tx.Validate() != nil || from.Cmp(tx.Amount) < 0 {
			drop = append(drop, tx)
			continue
		}

		scratch[tx.Sender] = from.Sub(tx.Amount)
		scratch[tx.Recipient] = balance(tx.Recipient).Add(tx.Amount)
		keep = append(keep, tx)
	}

	return keep, drop
}

// ApplyTransaction performs the accounting for a transaction that has been
// accepted into a block: the sender is debited unless it's the network and
// the recipient is credited.
func (db *Database) ApplyTransaction(tx Tx) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.applyTransaction(tx)
}

// applyTransaction must be called with the write lock held.
func (db *Database) applyTransaction(tx Tx) {
	if !tx.IsReward() {
		from := db.accounts[tx.Sender]
		from.Address = tx.Sender
		from.Balance = from.Balance.Sub(tx.Amount)
		db.accounts[tx.Sender] = from
	}

	to := db.accounts[tx.Recipient]
	to.Address = tx.Recipient
	to.Balance = to.Balance.Add(tx.Amount)
	db.accounts[tx.Recipient] = to
}

// =============================================================================

// genesisAccounts seeds the accounts from the genesis balances.
func genesisAccounts(gen genesis.Genesis) map[string]Account {
	accounts := make(map[string]Account)
	for address, balance := range gen.Balances {
		accounts[address] = Account{
			Address: address,
			Balance: AmountFromDecimal(balance),
		}
	}
	return accounts
}

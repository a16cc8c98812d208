// Package leveldb implements the ability to read and write blocks to a
// LevelDB database keyed by block number and block hash.
package leveldb

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/scremy/blockchain/foundation/blockchain/database"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Database keys prefixes for better organization.
const (
	blockIndexKeyPrefix = "blockindex_" // Prefix for accessing blocks by index.
	blockHashKeyPrefix  = "blockhash_"  // Prefix for accessing blocks by hash.
	blockHeightKey      = "height"      // Key for the current blockchain height.
)

// ErrNotFound is returned when the requested block is not stored.
var ErrNotFound = errors.New("block not found")

// LevelDB represents the serialization implementation for reading and
// storing blocks in LevelDB. This implements the database.Storage interface.
type LevelDB struct {
	db        *leveldb.DB
	batchLock sync.Mutex
}

// New opens or creates the LevelDB database at the specified path.
func New(dbPath string) (*LevelDB, error) {
	options := opt.Options{
		BlockCacheCapacity:  8 * opt.MiB,
		WriteBuffer:         4 * opt.MiB,
		CompactionTableSize: 2 * opt.MiB,
	}

	db, err := leveldb.OpenFile(dbPath, &options)
	if err != nil {
		return nil, fmt.Errorf("failed to open blockchain database: %w", err)
	}

	return &LevelDB{db: db}, nil
}

// Close closes the database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Write stores the block by index and by hash, and moves the height forward
// in a single batch. Blocks must be written in order.
func (l *LevelDB) Write(block database.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("failed to marshal block: %w", err)
	}

	l.batchLock.Lock()
	defer l.batchLock.Unlock()

	height, exists, err := l.height()
	if err != nil {
		return err
	}

	next := uint64(0)
	if exists {
		next = height + 1
	}

	if block.Index != next {
		return fmt.Errorf("block is out of order, got %d, exp %d", block.Index, next)
	}

	batch := new(leveldb.Batch)
	batch.Put(indexKey(block.Index), data)
	batch.Put([]byte(blockHashKeyPrefix+block.Hash), data)
	batch.Put([]byte(blockHeightKey), []byte(strconv.FormatUint(block.Index, 10)))

	if err := l.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("failed to save block to database: %w", err)
	}

	return nil
}

// GetBlock retrieves a block by its index.
func (l *LevelDB) GetBlock(num uint64) (database.Block, error) {
	return l.get(indexKey(num))
}

// GetBlockByHash retrieves a block by its hash.
func (l *LevelDB) GetBlockByHash(hash string) (database.Block, error) {
	return l.get([]byte(blockHashKeyPrefix + hash))
}

// ForEach returns an iterator to walk through all the blocks
// starting with the genesis block.
func (l *LevelDB) ForEach() database.Iterator {
	return &levelIterator{storage: l}
}

// =============================================================================

func (l *LevelDB) get(key []byte) (database.Block, error) {
	data, err := l.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return database.Block{}, ErrNotFound
		}
		return database.Block{}, fmt.Errorf("failed to retrieve block: %w", err)
	}

	var block database.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return database.Block{}, fmt.Errorf("failed to unmarshal block: %w", err)
	}

	return block, nil
}

// height returns the index of the latest stored block.
func (l *LevelDB) height() (uint64, bool, error) {
	data, err := l.db.Get([]byte(blockHeightKey), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}

	height, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid height %q: %w", data, err)
	}

	return height, true, nil
}

func indexKey(num uint64) []byte {
	return []byte(blockIndexKeyPrefix + strconv.FormatUint(num, 10))
}

// =============================================================================

// levelIterator walks the blocks by index until one is missing.
type levelIterator struct {
	storage *LevelDB
	current uint64
	eoc     bool
}

// Next retrieves the next block from the database.
func (li *levelIterator) Next() (database.Block, error) {
	if li.eoc {
		return database.Block{}, errors.New("end of chain")
	}

	block, err := li.storage.GetBlock(li.current)
	if errors.Is(err, ErrNotFound) {
		li.eoc = true
	}

	li.current++

	return block, err
}

// Done returns the end of chain value.
func (li *levelIterator) Done() bool {
	return li.eoc
}

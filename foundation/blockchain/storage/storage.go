// Package storage selects the block storage backend for a node.
package storage

import (
	"fmt"

	"github.com/scremy/blockchain/foundation/blockchain/database"
	"github.com/scremy/blockchain/foundation/blockchain/storage/disk"
	"github.com/scremy/blockchain/foundation/blockchain/storage/leveldb"
	"github.com/scremy/blockchain/foundation/blockchain/storage/memory"
)

// Set of supported storage backends.
const (
	Memory  = "memory"
	Disk    = "disk"
	LevelDB = "leveldb"
)

// Open constructs the named storage backend. The path is ignored for memory.
func Open(kind string, dbPath string) (database.Storage, error) {
	switch kind {
	case Memory:
		return memory.New()
	case Disk:
		return disk.New(dbPath)
	case LevelDB:
		return leveldb.New(dbPath)
	}

	return nil, fmt.Errorf("storage %q does not exist", kind)
}

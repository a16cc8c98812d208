package database

import (
	"context"
	"fmt"
	"time"

	"github.com/scremy/blockchain/foundation/blockchain/signature"
	"github.com/scremy/blockchain/foundation/blockchain/strategy"
)

// Block represents a group of transactions batched together.
type Block struct {
	Index        uint64 `json:"index"`
	Hash         string `json:"hash"`
	PreviousHash string `json:"previous_hash"`
	Timestamp    uint64 `json:"timestamp"`
	Nonce        uint64 `json:"nonce"`
	Difficulty   uint16 `json:"difficulty"`
	Transactions []Tx   `json:"transactions"`
}

// blockHeader is the set of fields covered by the block hash. The fields are
// kept in alphabetical order so the marshaled form is canonical.
type blockHeader struct {
	Index        uint64 `json:"index"`
	Nonce        uint64 `json:"nonce"`
	PreviousHash string `json:"previous_hash"`
	Timestamp    uint64 `json:"timestamp"`
	Transactions []Tx   `json:"transactions"`
}

// NewGenesisBlock constructs the first block of the chain. It carries no
// transactions and links to the zero hash.
func NewGenesisBlock(date time.Time) Block {
	b := Block{
		Index:        0,
		PreviousHash: signature.ZeroHash,
		Timestamp:    uint64(date.UTC().Unix()),
		Transactions: []Tx{},
	}
	b.Hash = b.CalculateHash()

	return b
}

// MineBlock constructs the block that follows prevBlock and uses the
// specified strategy to find a nonce for the difficulty.
func MineBlock(ctx context.Context, solve strategy.Func, difficulty uint16, prevBlock Block, trans []Tx, evHandler func(v string, args ...any)) (Block, error) {

	// Blocks can't go back in time even if the clock on this machine does.
	timestamp := uint64(time.Now().UTC().Unix())
	if timestamp < prevBlock.Timestamp {
		timestamp = prevBlock.Timestamp
	}

	nb := Block{
		Index:        prevBlock.Index + 1,
		PreviousHash: prevBlock.Hash,
		Timestamp:    timestamp,
		Difficulty:   difficulty,
		Transactions: append([]Tx{}, trans...),
	}

	evHandler("database: MineBlock: MINING: started: blk[%d]: txs[%d]", nb.Index, len(nb.Transactions))

	hashFn := func(nonce uint64) string {
		nb.Nonce = nonce
		return nb.CalculateHash()
	}

	nonce, err := solve(ctx, difficulty, hashFn)
	if err != nil {
		evHandler("database: MineBlock: MINING: CANCELLED: %s", err)
		return Block{}, err
	}

	nb.Nonce = nonce
	nb.Hash = nb.CalculateHash()

	evHandler("database: MineBlock: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: nonce[%d]", nb.PreviousHash, nb.Hash, nb.Nonce)

	return nb, nil
}

// CalculateHash recomputes the hash over the block's content.
func (b Block) CalculateHash() string {
	trans := b.Transactions
	if trans == nil {
		trans = []Tx{}
	}

	return signature.Hash(blockHeader{
		Index:        b.Index,
		Nonce:        b.Nonce,
		PreviousHash: b.PreviousHash,
		Timestamp:    b.Timestamp,
		Transactions: trans,
	})
}

// ValidateBlock takes a block and validates it to be included into the
// blockchain after the specified previous block. The block must be solved
// for the difficulty the chain is mined at.
func (b Block) ValidateBlock(previousBlock Block, difficulty uint16, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Index)

	nextIndex := previousBlock.Index + 1
	if b.Index != nextIndex {
		return fmt.Errorf("%w: block is not the next number, got %d, exp %d", ErrDiscontinuous, b.Index, nextIndex)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Index)

	if b.PreviousHash != previousBlock.Hash {
		return fmt.Errorf("%w: parent block hash doesn't match our known parent, got %s, exp %s", ErrDiscontinuous, b.PreviousHash, previousBlock.Hash)
	}

	if b.Timestamp < previousBlock.Timestamp {
		return fmt.Errorf("block timestamp is before parent block, parent %d, block %d", previousBlock.Timestamp, b.Timestamp)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: difficulty matches the chain", b.Index)

	if b.Difficulty != difficulty {
		return fmt.Errorf("block difficulty is %d, exp %d", b.Difficulty, difficulty)
	}

	return b.validateContent(evHandler)
}

// validateGenesis checks the block can be the first block of a chain. The
// genesis block is never mined.
func (b Block) validateGenesis(evHandler func(v string, args ...any)) error {
	if b.Index != 0 {
		return fmt.Errorf("%w: first block has number %d", ErrDiscontinuous, b.Index)
	}

	if b.PreviousHash != signature.ZeroHash {
		return fmt.Errorf("%w: genesis block must link to the zero hash, got %s", ErrDiscontinuous, b.PreviousHash)
	}

	if b.Difficulty != 0 {
		return fmt.Errorf("genesis block difficulty is %d, exp 0", b.Difficulty)
	}

	return b.validateContent(evHandler)
}

// validateContent checks the stored hash against the content and the
// difficulty rule.
func (b Block) validateContent(evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash matches the content", b.Index)

	hash := b.CalculateHash()
	if b.Hash != hash {
		return fmt.Errorf("block hash doesn't match its content, got %s, exp %s", b.Hash, hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Index)

	if !strategy.IsSolved(b.Difficulty, b.Hash) {
		return fmt.Errorf("%s invalid block hash for difficulty %d", b.Hash, b.Difficulty)
	}

	for _, tx := range b.Transactions {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("blk[%d]: tx[%s]: %w", b.Index, tx, err)
		}
	}

	return nil
}

// clone returns a copy of the block that shares no memory with the original.
func (b Block) clone() Block {
	b.Transactions = append([]Tx{}, b.Transactions...)
	return b
}

// =============================================================================

// ValidateChain walks the blocks from the genesis block, checking each
// block against its parent and the difficulty. The chain must not be empty.
func ValidateChain(blocks []Block, difficulty uint16, evHandler func(v string, args ...any)) error {
	if len(blocks) == 0 {
		return fmt.Errorf("%w: chain has no genesis block", ErrDiscontinuous)
	}

	if err := blocks[0].validateGenesis(evHandler); err != nil {
		return err
	}

	for i := 1; i < len(blocks); i++ {
		if err := blocks[i].ValidateBlock(blocks[i-1], difficulty, evHandler); err != nil {
			return err
		}
	}

	return nil
}

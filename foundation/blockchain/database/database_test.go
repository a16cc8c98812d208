package database_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/scremy/blockchain/foundation/blockchain/database"
	"github.com/scremy/blockchain/foundation/blockchain/genesis"
	"github.com/scremy/blockchain/foundation/blockchain/storage/memory"
	"github.com/scremy/blockchain/foundation/blockchain/strategy"
	"github.com/shopspring/decimal"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const genesisHash = "0x21ac2fbd13d40f63084573785172b2b441b2680ee779fc555d7f305380900667"

func ev(v string, args ...any) {}

func newDatabase(t *testing.T, gen genesis.Genesis) *database.Database {
	t.Helper()
	return newDatabaseAt(t, gen, 0)
}

func newDatabaseAt(t *testing.T, gen genesis.Genesis, difficulty uint16) *database.Database {
	t.Helper()

	strg, err := memory.New()
	if err != nil {
		t.Fatalf("Should be able to construct storage: %s", err)
	}

	db, err := database.New(gen, difficulty, strg, ev)
	if err != nil {
		t.Fatalf("Should be able to open database: %s", err)
	}

	return db
}

func mine(t *testing.T, db *database.Database, trans ...database.Tx) database.Block {
	t.Helper()
	return mineAt(t, db, strategy.Trivial, 0, trans...)
}

func mineAt(t *testing.T, db *database.Database, name string, difficulty uint16, trans ...database.Tx) database.Block {
	t.Helper()

	solve, err := strategy.Retrieve(name)
	if err != nil {
		t.Fatalf("Should be able to retrieve the strategy: %s", err)
	}

	block, err := database.MineBlock(context.Background(), solve, difficulty, db.LatestBlock(), trans, ev)
	if err != nil {
		t.Fatalf("Should be able to mine a block: %s", err)
	}

	if err := db.Append(block); err != nil {
		t.Fatalf("Should be able to append the block: %s", err)
	}

	for _, tx := range block.Transactions {
		db.ApplyTransaction(tx)
	}

	return block
}

// =============================================================================

func Test_GenesisHash(t *testing.T) {
	block := database.NewGenesisBlock(genesis.Default().Date)

	if block.Hash != genesisHash {
		t.Logf("got: %s", block.Hash)
		t.Logf("exp: %s", genesisHash)
		t.Fatalf("Should get the same genesis hash on every node.")
	}

	db := newDatabase(t, genesis.Default())
	if db.Length() != 1 {
		t.Fatalf("Should start with only the genesis block, got %d", db.Length())
	}

	if db.LatestBlock().Hash != genesisHash {
		t.Fatalf("Should start from the genesis block, got %s", db.LatestBlock().Hash)
	}
}

func Test_BlockHash(t *testing.T) {
	block := database.Block{
		Index:        1,
		PreviousHash: genesisHash,
		Timestamp:    1735689700,
		Transactions: []database.Tx{
			database.NewRewardTx("0xABC", database.MustAmount("0.50")),
		},
	}
	const exp = "0x4daac4bdf414810f69a831b866ed93d28470a88380520acccddf18055b895586"

	if h := block.CalculateHash(); h != exp {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should hash the canonical form of the block.")
	}
}

func Test_Mining(t *testing.T) {
	t.Log("Given the need to mine blocks that reward a miner.")
	{
		const miner = "0xABC"
		reward := database.AmountFromDecimal(genesis.Default().MiningReward)

		db := newDatabase(t, genesis.Default())

		if bal := db.Balance(miner); !bal.Equal(database.Amount{}) {
			t.Fatalf("\t%s\tShould have a zero balance before mining, got %s", failed, bal)
		}
		t.Logf("\t%s\tShould have a zero balance before mining.", success)

		for i := 0; i < 3; i++ {
			mine(t, db, database.NewRewardTx(miner, reward))
		}

		blocks := db.Blocks()
		if len(blocks) != 4 {
			t.Fatalf("\t%s\tShould have 4 blocks, got %d", failed, len(blocks))
		}
		t.Logf("\t%s\tShould have 4 blocks.", success)

		if blocks[3].PreviousHash != blocks[2].CalculateHash() {
			t.Fatalf("\t%s\tShould link block 3 to the hash of block 2.", failed)
		}
		t.Logf("\t%s\tShould link block 3 to the hash of block 2.", success)

		if err := db.Validate(); err != nil {
			t.Fatalf("\t%s\tShould have a valid chain: %s", failed, err)
		}
		t.Logf("\t%s\tShould have a valid chain.", success)

		if bal := db.Balance(miner); !bal.Equal(reward.Mul(3)) {
			t.Fatalf("\t%s\tShould have a balance of 3 rewards, got %s", failed, bal)
		}
		t.Logf("\t%s\tShould have a balance of 3 rewards.", success)
	}
}

func Test_Tamper(t *testing.T) {
	t.Log("Given the need to detect changes to stored blocks.")
	{
		reward := database.MustAmount("0.5")

		db := newDatabase(t, genesis.Default())
		for i := 0; i < 3; i++ {
			mine(t, db, database.NewRewardTx("0xABC", reward))
		}

		t.Logf("\tTest 0:\tWhen changing a transaction without rehashing.")
		{
			blocks := db.Blocks()
			blocks[2].Transactions[0].Recipient = "0xABD"

			if err := database.ValidateChain(blocks, 0, ev); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould find the chain invalid.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould find the chain invalid.", success)

			if err := db.Validate(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould not change the stored chain: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould not change the stored chain.", success)
		}

		t.Logf("\tTest 1:\tWhen changing a transaction and rehashing the block.")
		{
			blocks := db.Blocks()
			blocks[1].Transactions[0].Amount = database.MustAmount("50")
			blocks[1].Hash = blocks[1].CalculateHash()

			err := database.ValidateChain(blocks, 0, ev)
			if !errors.Is(err, database.ErrDiscontinuous) {
				t.Fatalf("\t%s\tTest 1:\tShould break the link to the next block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould break the link to the next block.", success)
		}
	}
}

func Test_TamperSolved(t *testing.T) {
	t.Log("Given the need to detect unsolved blocks on a mined chain.")
	{
		const difficulty = 2
		reward := database.MustAmount("0.5")

		db := newDatabaseAt(t, genesis.Default(), difficulty)
		for i := 0; i < 2; i++ {
			mineAt(t, db, strategy.POW, difficulty, database.NewRewardTx("0xABC", reward))
		}

		if err := db.Validate(); err != nil {
			t.Fatalf("\t%s\tShould have a valid chain: %s", failed, err)
		}
		t.Logf("\t%s\tShould have a valid chain.", success)

		t.Logf("\tTest 0:\tWhen replacing the tip and lowering its difficulty.")
		{
			blocks := db.Blocks()
			tip := &blocks[len(blocks)-1]
			tip.Transactions = []database.Tx{database.NewRewardTx("0xEVE", database.MustAmount("1000"))}
			tip.Difficulty = 0
			tip.Nonce = 0
			tip.Hash = tip.CalculateHash()

			if err := database.ValidateChain(blocks, difficulty, ev); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould find the chain invalid.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould find the chain invalid.", success)

			strg, err := memory.New()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct storage: %s", failed, err)
			}
			for _, block := range blocks {
				if err := strg.Write(block); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to store blk[%d]: %s", failed, block.Index, err)
				}
			}

			if _, err := database.New(genesis.Default(), difficulty, strg, ev); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould refuse to load the chain.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould refuse to load the chain.", success)
		}

		t.Logf("\tTest 1:\tWhen replacing the tip without solving it.")
		{
			blocks := db.Blocks()
			tip := &blocks[len(blocks)-1]
			tip.Transactions = []database.Tx{database.NewRewardTx("0xEVE", database.MustAmount("1000"))}
			for tip.Nonce = 0; strategy.IsSolved(difficulty, tip.CalculateHash()); tip.Nonce++ {
			}
			tip.Hash = tip.CalculateHash()

			if err := database.ValidateChain(blocks, difficulty, ev); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould find the chain invalid.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould find the chain invalid.", success)
		}

		t.Logf("\tTest 2:\tWhen appending a block mined at another difficulty.")
		{
			solve, err := strategy.Retrieve(strategy.Trivial)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to retrieve the strategy: %s", failed, err)
			}

			trans := []database.Tx{database.NewRewardTx("0xEVE", reward)}
			block, err := database.MineBlock(context.Background(), solve, 0, db.LatestBlock(), trans, ev)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to mine a block: %s", failed, err)
			}

			if err := db.Append(block); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould reject the block.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould reject the block.", success)
		}
	}
}

func Test_Append(t *testing.T) {
	db := newDatabase(t, genesis.Default())
	latest := db.LatestBlock()

	tt := []struct {
		name  string
		block database.Block
	}{
		{
			name:  "skipped",
			block: database.Block{Index: latest.Index + 2, PreviousHash: latest.Hash, Timestamp: latest.Timestamp},
		},
		{
			name:  "unlinked",
			block: database.Block{Index: latest.Index + 1, PreviousHash: "0x01", Timestamp: latest.Timestamp},
		},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			tst.block.Hash = tst.block.CalculateHash()

			if err := db.Append(tst.block); !errors.Is(err, database.ErrDiscontinuous) {
				t.Fatalf("Should reject the block as discontinuous, got %v", err)
			}

			if db.Length() != 1 {
				t.Fatalf("Should not change the chain, got %d blocks", db.Length())
			}
		})
	}
}

func Test_Transfer(t *testing.T) {
	type table struct {
		name   string
		tx     database.Tx
		err    error
		final  map[string]string
		supply string
	}

	gen := genesis.Default()
	gen.Balances = map[string]decimal.Decimal{
		"0xABC": decimal.RequireFromString("1.5"),
	}

	tt := []table{
		{
			name:   "basic",
			tx:     database.Tx{Sender: "0xABC", Recipient: "0xDEF", Amount: database.MustAmount("1.0"), Type: database.TxSend},
			final:  map[string]string{"0xABC": "0.5", "0xDEF": "1"},
			supply: "1.5",
		},
		{
			name:   "everything",
			tx:     database.Tx{Sender: "0xABC", Recipient: "0xDEF", Amount: database.MustAmount("1.5"), Type: database.TxSend},
			final:  map[string]string{"0xABC": "0", "0xDEF": "1.5"},
			supply: "1.5",
		},
		{
			name:   "insufficient",
			tx:     database.Tx{Sender: "0xABC", Recipient: "0xDEF", Amount: database.MustAmount("2"), Type: database.TxSend},
			err:    database.ErrInsufficientFunds,
			final:  map[string]string{"0xABC": "1.5", "0xDEF": "0"},
			supply: "1.5",
		},
		{
			name:   "zero",
			tx:     database.Tx{Sender: "0xABC", Recipient: "0xDEF", Type: database.TxSend},
			err:    database.ErrInvalidAmount,
			final:  map[string]string{"0xABC": "1.5", "0xDEF": "0"},
			supply: "1.5",
		},
		{
			name:   "negative",
			tx:     database.Tx{Sender: "0xABC", Recipient: "0xDEF", Amount: database.MustAmount("-1"), Type: database.TxSend},
			err:    database.ErrInvalidAmount,
			final:  map[string]string{"0xABC": "1.5", "0xDEF": "0"},
			supply: "1.5",
		},
		{
			name:   "norecipient",
			tx:     database.Tx{Sender: "0xABC", Amount: database.MustAmount("1"), Type: database.TxSend},
			err:    database.ErrInvalidAddress,
			final:  map[string]string{"0xABC": "1.5"},
			supply: "1.5",
		},
		{
			name:   "unknownsender",
			tx:     database.Tx{Sender: "0x123", Recipient: "0xDEF", Amount: database.MustAmount("0.1"), Type: database.TxSend},
			err:    database.ErrInsufficientFunds,
			final:  map[string]string{"0x123": "0", "0xDEF": "0"},
			supply: "1.5",
		},
	}

	t.Log("Given the need to move funds between accounts.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				db := newDatabase(t, gen)

				_, err := db.Transfer(tst.tx)
				if !errors.Is(err, tst.err) {
					t.Fatalf("\t%s\tTest %d:\tShould get the expected error, got %v, exp %v", failed, testID, err, tst.err)
				}
				t.Logf("\t%s\tTest %d:\tShould get the expected error.", success, testID)

				for address, exp := range tst.final {
					if got := db.Balance(address); !got.Equal(database.MustAmount(exp)) {
						t.Errorf("\t%s\tTest %d:\tShould have correct balance for %s, got %s, exp %s", failed, testID, address, got, exp)
						continue
					}
					t.Logf("\t%s\tTest %d:\tShould have correct balance for %s.", success, testID, address)
				}

				if got := db.TotalSupply(); !got.Equal(database.MustAmount(tst.supply)) {
					t.Fatalf("\t%s\tTest %d:\tShould conserve the supply, got %s, exp %s", failed, testID, got, tst.supply)
				}
				t.Logf("\t%s\tTest %d:\tShould conserve the supply.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_SelectAffordable(t *testing.T) {
	gen := genesis.Default()
	gen.Balances = map[string]decimal.Decimal{
		"0xABC": decimal.RequireFromString("1"),
	}

	db := newDatabase(t, gen)

	trans := []database.Tx{
		{Sender: "0xABC", Recipient: "0xDEF", Amount: database.MustAmount("0.6"), Type: database.TxPooled},
		{Sender: "0xABC", Recipient: "0xDEF", Amount: database.MustAmount("0.6"), Type: database.TxPooled},
		{Sender: "0xDEF", Recipient: "0x123", Amount: database.MustAmount("0.6"), Type: database.TxPooled},
		{Sender: "0x999", Recipient: "0x123", Amount: database.MustAmount("5"), Type: database.TxSend},
	}

	keep, drop := db.SelectAffordable(trans)

	if len(keep) != 3 || len(drop) != 1 {
		t.Fatalf("Should keep 3 and drop 1 transaction, got %d and %d", len(keep), len(drop))
	}

	if drop[0] != trans[1] {
		t.Fatalf("Should drop the second spend from 0xABC, got %s", drop[0])
	}

	if !db.Balance("0xABC").Equal(database.MustAmount("1")) {
		t.Fatalf("Should not change the ledger while selecting.")
	}
}

func Test_AmountJSON(t *testing.T) {
	tx := database.NewRewardTx("0xABC", database.MustAmount("0.500"))

	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("Should be able to marshal the transaction: %s", err)
	}

	const exp = `{"sender":"network","recipient":"0xABC","amount":0.5,"type":"reward"}`
	if string(data) != exp {
		t.Logf("got: %s", data)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should marshal the amount as a bare number.")
	}

	var req struct {
		Amount database.Amount `json:"amount"`
	}
	for _, in := range []string{`{"amount":1.25}`, `{"amount":"1.25"}`} {
		if err := json.Unmarshal([]byte(in), &req); err != nil {
			t.Fatalf("Should be able to unmarshal %s: %s", in, err)
		}
		if !req.Amount.Equal(database.MustAmount("1.25")) {
			t.Fatalf("Should read the amount from %s, got %s", in, req.Amount)
		}
	}
}

func Test_AmountRange(t *testing.T) {
	tt := []struct {
		name  string
		value string
		valid bool
	}{
		{name: "reward", value: "0.5", valid: true},
		{name: "smallest", value: "0.000000000000000001", valid: true},
		{name: "largest", value: "99999999999999999999999999999999999999", valid: true},
		{name: "tiny", value: "1e-100000000", valid: false},
		{name: "huge", value: "1e100000000", valid: false},
		{name: "decimals", value: "0.0000000000000000001", valid: false},
		{name: "digits", value: "999999999999999999999999999999999999999", valid: false},
		{name: "scaled", value: "1e38", valid: false},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			_, err := database.NewAmount(tst.value)
			if tst.valid && err != nil {
				t.Fatalf("Should accept %s: %s", tst.value, err)
			}
			if !tst.valid && !errors.Is(err, database.ErrAmountRange) {
				t.Fatalf("Should reject %s as out of range, got %v", tst.value, err)
			}

			var req struct {
				Amount database.Amount `json:"amount"`
			}
			err = json.Unmarshal([]byte(`{"amount":`+tst.value+`}`), &req)
			if tst.valid != (err == nil) {
				t.Fatalf("Should decode %s only when in range, got %v", tst.value, err)
			}
		})
	}
}

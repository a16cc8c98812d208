package state_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/scremy/blockchain/foundation/blockchain/database"
	"github.com/scremy/blockchain/foundation/blockchain/genesis"
	"github.com/scremy/blockchain/foundation/blockchain/state"
	"github.com/scremy/blockchain/foundation/blockchain/storage/memory"
	"github.com/scremy/blockchain/foundation/blockchain/strategy"
	"github.com/shopspring/decimal"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

var reward = database.MustAmount("0.5")

func ifErrFailNow(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
}

func newState(t *testing.T, gen genesis.Genesis, strat string) *state.State {
	t.Helper()

	strg, err := memory.New()
	ifErrFailNow(t, err)

	st, err := state.New(state.Config{
		Beneficiary: "node",
		Genesis:     gen,
		Storage:     strg,
		Strategy:    strat,
	})
	ifErrFailNow(t, err)

	t.Cleanup(func() { st.Shutdown() })

	return st
}

func supply(st *state.State) database.Amount {
	var total database.Amount
	for _, account := range st.RetrieveAccounts() {
		total = total.Add(account.Balance)
	}
	return total
}

// =============================================================================

func Test_MineAndTransfer(t *testing.T) {
	t.Log("Given the need to mine blocks and transfer the rewards.")
	{
		st := newState(t, genesis.Default(), strategy.Trivial)
		ctx := context.Background()

		t.Logf("\tTest 0:\tWhen starting a new chain.")
		{
			if n := len(st.RetrieveChain()); n != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould have only the genesis block, got %d", failed, n)
			}
			t.Logf("\t%s\tTest 0:\tShould have only the genesis block.", success)

			if !st.ValidateChain() {
				t.Fatalf("\t%s\tTest 0:\tShould have a valid chain.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould have a valid chain.", success)

			if bal := st.QueryBalance("0xABC"); !bal.Equal(database.Amount{}) {
				t.Fatalf("\t%s\tTest 0:\tShould have a zero balance for an unknown address, got %s", failed, bal)
			}
			t.Logf("\t%s\tTest 0:\tShould have a zero balance for an unknown address.", success)
		}

		t.Logf("\tTest 1:\tWhen mining three blocks to 0xABC.")
		{
			for i := 0; i < 3; i++ {
				block, err := st.MineNewBlock(ctx, "0xABC")
				if err != nil {
					t.Fatalf("\t%s\tTest 1:\tShould be able to mine a block: %s", failed, err)
				}

				last := block.Transactions[len(block.Transactions)-1]
				if !last.IsReward() || last.Recipient != "0xABC" || !last.Amount.Equal(reward) {
					t.Fatalf("\t%s\tTest 1:\tShould end the block with the reward, got %s", failed, last)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould be able to mine three blocks.", success)

			chain := st.RetrieveChain()
			if len(chain) != 4 {
				t.Fatalf("\t%s\tTest 1:\tShould have 4 blocks, got %d", failed, len(chain))
			}
			t.Logf("\t%s\tTest 1:\tShould have 4 blocks.", success)

			if chain[3].PreviousHash != chain[2].CalculateHash() {
				t.Fatalf("\t%s\tTest 1:\tShould link the last block to its parent.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould link the last block to its parent.", success)

			if !st.ValidateChain() {
				t.Fatalf("\t%s\tTest 1:\tShould have a valid chain.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould have a valid chain.", success)

			if bal := st.QueryBalance("0xABC"); !bal.Equal(reward.Mul(3)) {
				t.Fatalf("\t%s\tTest 1:\tShould have 3 rewards, got %s", failed, bal)
			}
			t.Logf("\t%s\tTest 1:\tShould have 3 rewards.", success)
		}

		t.Logf("\tTest 2:\tWhen registering a wallet twice.")
		{
			created, err := st.CreateWallet("0xDEF")
			if err != nil || !created {
				t.Fatalf("\t%s\tTest 2:\tShould create the wallet: %v %v", failed, created, err)
			}

			created, err = st.CreateWallet("0xDEF")
			if err != nil || created {
				t.Fatalf("\t%s\tTest 2:\tShould not create the wallet again: %v %v", failed, created, err)
			}
			t.Logf("\t%s\tTest 2:\tShould create the wallet only once.", success)

			if bal := st.QueryBalance("0xDEF"); !bal.Equal(database.Amount{}) {
				t.Fatalf("\t%s\tTest 2:\tShould not give the wallet a balance, got %s", failed, bal)
			}
			t.Logf("\t%s\tTest 2:\tShould not give the wallet a balance.", success)
		}

		t.Logf("\tTest 3:\tWhen transferring 1.0 from 0xABC to 0xDEF.")
		{
			before := supply(st)

			balance, err := st.Transfer("0xABC", "0xDEF", database.MustAmount("1.0"))
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to transfer: %s", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould be able to transfer.", success)

			if !balance.Equal(database.MustAmount("0.5")) || !st.QueryBalance("0xABC").Equal(balance) {
				t.Fatalf("\t%s\tTest 3:\tShould return the new sender balance, got %s", failed, balance)
			}
			t.Logf("\t%s\tTest 3:\tShould return the new sender balance.", success)

			if bal := st.QueryBalance("0xDEF"); !bal.Equal(database.MustAmount("1")) {
				t.Fatalf("\t%s\tTest 3:\tShould credit the recipient, got %s", failed, bal)
			}
			t.Logf("\t%s\tTest 3:\tShould credit the recipient.", success)

			if after := supply(st); !after.Equal(before) {
				t.Fatalf("\t%s\tTest 3:\tShould conserve the supply, got %s, exp %s", failed, after, before)
			}
			t.Logf("\t%s\tTest 3:\tShould conserve the supply.", success)

			pool := st.RetrieveMempool()
			if len(pool) != 1 || pool[0].Type != database.TxSend {
				t.Fatalf("\t%s\tTest 3:\tShould record the transfer in the mempool, got %v", failed, pool)
			}
			t.Logf("\t%s\tTest 3:\tShould record the transfer in the mempool.", success)
		}

		t.Logf("\tTest 4:\tWhen mining the transfer into a block.")
		{
			block, err := st.MineNewBlock(ctx, "0x123")
			if err != nil {
				t.Fatalf("\t%s\tTest 4:\tShould be able to mine a block: %s", failed, err)
			}

			if len(block.Transactions) != 2 || block.Transactions[0].Type != database.TxSend {
				t.Fatalf("\t%s\tTest 4:\tShould include the transfer and the reward, got %v", failed, block.Transactions)
			}
			t.Logf("\t%s\tTest 4:\tShould include the transfer and the reward.", success)

			if bal := st.QueryBalance("0xDEF"); !bal.Equal(database.MustAmount("1")) {
				t.Fatalf("\t%s\tTest 4:\tShould not apply the transfer twice, got %s", failed, bal)
			}
			t.Logf("\t%s\tTest 4:\tShould not apply the transfer twice.", success)

			if n := st.QueryMempoolLength(); n != 0 {
				t.Fatalf("\t%s\tTest 4:\tShould drain the mempool, got %d", failed, n)
			}
			t.Logf("\t%s\tTest 4:\tShould drain the mempool.", success)
		}
	}
}

func Test_TransferErrors(t *testing.T) {
	gen := genesis.Default()
	gen.Balances = map[string]decimal.Decimal{
		"0xABC": decimal.RequireFromString("1.5"),
	}

	tt := []struct {
		name   string
		from   string
		to     string
		amount string
		err    error
	}{
		{name: "insufficient", from: "0xABC", to: "0xDEF", amount: "2", err: database.ErrInsufficientFunds},
		{name: "zero", from: "0xABC", to: "0xDEF", amount: "0", err: database.ErrInvalidAmount},
		{name: "negative", from: "0xABC", to: "0xDEF", amount: "-0.5", err: database.ErrInvalidAmount},
		{name: "nofrom", from: "", to: "0xDEF", amount: "1", err: database.ErrInvalidAddress},
		{name: "noto", from: "0xABC", to: " ", amount: "1", err: database.ErrInvalidAddress},
		{name: "network", from: database.NetworkSender, to: "0xDEF", amount: "1", err: database.ErrInvalidAddress},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			st := newState(t, gen, strategy.Trivial)

			_, err := st.Transfer(tst.from, tst.to, database.MustAmount(tst.amount))
			if !errors.Is(err, tst.err) {
				t.Fatalf("Should get the expected error, got %v, exp %v", err, tst.err)
			}

			if bal := st.QueryBalance("0xABC"); !bal.Equal(database.MustAmount("1.5")) {
				t.Fatalf("Should leave the sender balance unchanged, got %s", bal)
			}

			if bal := st.QueryBalance("0xDEF"); !bal.Equal(database.Amount{}) {
				t.Fatalf("Should leave the recipient balance unchanged, got %s", bal)
			}

			if n := st.QueryMempoolLength(); n != 0 {
				t.Fatalf("Should not pool a failed transfer, got %d", n)
			}
		})
	}
}

func Test_SubmitTransaction(t *testing.T) {
	t.Log("Given the need to pool transactions until they are mined.")
	{
		gen := genesis.Default()
		gen.Balances = map[string]decimal.Decimal{
			"0xABC": decimal.RequireFromString("1"),
		}

		st := newState(t, gen, strategy.Trivial)

		if err := st.SubmitTransaction("0xABC", "0xDEF", database.MustAmount("5")); !errors.Is(err, database.ErrInsufficientFunds) {
			t.Fatalf("\t%s\tShould reject a submission the sender can't cover, got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a submission the sender can't cover.", success)

		if err := st.SubmitTransaction("0xABC", "0xDEF", database.MustAmount("0.75")); err != nil {
			t.Fatalf("\t%s\tShould accept the submission: %s", failed, err)
		}
		if err := st.SubmitTransaction("0xABC", "0x123", database.MustAmount("0.75")); err != nil {
			t.Fatalf("\t%s\tShould accept the second submission: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept the submissions.", success)

		if bal := st.QueryBalance("0xABC"); !bal.Equal(database.MustAmount("1")) {
			t.Fatalf("\t%s\tShould not move funds before mining, got %s", failed, bal)
		}
		t.Logf("\t%s\tShould not move funds before mining.", success)

		block, err := st.MineNewBlock(context.Background(), "0xMINER")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %s", failed, err)
		}

		if len(block.Transactions) != 2 {
			t.Fatalf("\t%s\tShould drop the submission that is no longer covered, got %v", failed, block.Transactions)
		}
		t.Logf("\t%s\tShould drop the submission that is no longer covered.", success)

		exp := map[string]string{"0xABC": "0.25", "0xDEF": "0.75", "0x123": "0", "0xMINER": "0.5"}
		for address, amount := range exp {
			if bal := st.QueryBalance(address); !bal.Equal(database.MustAmount(amount)) {
				t.Fatalf("\t%s\tShould have %s for %s, got %s", failed, amount, address, bal)
			}
		}
		t.Logf("\t%s\tShould apply the mined submission.", success)

		if n := st.QueryMempoolLength(); n != 0 {
			t.Fatalf("\t%s\tShould clear the mempool, got %d", failed, n)
		}
		t.Logf("\t%s\tShould clear the mempool.", success)
	}
}

func Test_ConcurrentTransfers(t *testing.T) {
	t.Log("Given the need to transfer and mine from many goroutines at once.")
	{
		gen := genesis.Default()
		gen.Balances = map[string]decimal.Decimal{
			"0xABC": decimal.RequireFromString("1.5"),
		}

		st := newState(t, gen, strategy.Trivial)

		const goroutines = 50

		var wg sync.WaitGroup
		var mu sync.Mutex
		var ok int

		wg.Add(goroutines * 2)
		for i := 0; i < goroutines; i++ {
			go func() {
				defer wg.Done()
				if _, err := st.Transfer("0xABC", "0xDEF", database.MustAmount("0.1")); err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}()

			go func() {
				defer wg.Done()
				if _, err := st.MineNewBlock(context.Background(), "0xMINER"); err != nil {
					t.Errorf("\t%s\tShould be able to mine concurrently: %s", failed, err)
				}
				st.QueryBalance("0xABC")
			}()
		}
		wg.Wait()

		if ok != 15 {
			t.Fatalf("\t%s\tShould allow exactly 15 transfers, got %d", failed, ok)
		}
		t.Logf("\t%s\tShould allow exactly 15 transfers.", success)

		if bal := st.QueryBalance("0xABC"); !bal.Equal(database.Amount{}) {
			t.Fatalf("\t%s\tShould never overdraw the sender, got %s", failed, bal)
		}
		t.Logf("\t%s\tShould never overdraw the sender.", success)

		if bal := st.QueryBalance("0xDEF"); !bal.Equal(database.MustAmount("1.5")) {
			t.Fatalf("\t%s\tShould not lose any update, got %s", failed, bal)
		}
		t.Logf("\t%s\tShould not lose any update.", success)

		exp := database.MustAmount("1.5").Add(reward.Mul(goroutines))
		if got := supply(st); !got.Equal(exp) {
			t.Fatalf("\t%s\tShould only grow the supply by mining, got %s, exp %s", failed, got, exp)
		}
		t.Logf("\t%s\tShould only grow the supply by mining.", success)

		if !st.ValidateChain() {
			t.Fatalf("\t%s\tShould have a valid chain.", failed)
		}
		t.Logf("\t%s\tShould have a valid chain.", success)
	}
}

func Test_MineWithBalance(t *testing.T) {
	t.Log("Given the need to report the miner's balance with the mined block.")
	{
		st := newState(t, genesis.Default(), strategy.Trivial)

		const rounds = 50

		var wg sync.WaitGroup
		wg.Add(2)

		// Spend every reward as soon as it lands.
		go func() {
			defer wg.Done()
			for i := 0; i < rounds*4; i++ {
				st.Transfer("0xMINER", "0xDEF", reward)
			}
		}()

		balances := make([]database.Amount, 0, rounds)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				_, balance, err := st.MineWithBalance(context.Background(), "0xMINER")
				if err != nil {
					t.Errorf("\t%s\tShould be able to mine: %s", failed, err)
					return
				}
				balances = append(balances, balance)
			}
		}()
		wg.Wait()

		for i, balance := range balances {
			if balance.Cmp(reward) < 0 {
				t.Fatalf("\t%s\tShould include the reward of block %d in the balance, got %s", failed, i+1, balance)
			}
		}
		t.Logf("\t%s\tShould include the reward in every reported balance.", success)

		_, balance, err := st.MineWithBalance(context.Background(), "0xMINER")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine: %s", failed, err)
		}
		if !balance.Equal(st.QueryBalance("0xMINER")) {
			t.Fatalf("\t%s\tShould match the ledger once idle, got %s", failed, balance)
		}
		t.Logf("\t%s\tShould match the ledger once idle.", success)
	}
}

func Test_POW(t *testing.T) {
	gen := genesis.Default()
	gen.Difficulty = 2

	st := newState(t, gen, strategy.POW)

	block, err := st.MineNewBlock(context.Background(), "0xABC")
	if err != nil {
		t.Fatalf("Should be able to mine a block: %s", err)
	}

	if !strings.HasPrefix(block.Hash, "0x00") || block.Difficulty != 2 {
		t.Fatalf("Should solve the difficulty, got %s at %d", block.Hash, block.Difficulty)
	}

	if !st.ValidateChain() {
		t.Fatalf("Should have a valid chain.")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen.Difficulty = 64
	hard := newState(t, gen, strategy.POW)

	if _, err := hard.MineNewBlock(ctx, "0xABC"); err == nil {
		t.Fatalf("Should stop mining when cancelled.")
	}

	if n := len(hard.RetrieveChain()); n != 1 {
		t.Fatalf("Should not change the chain when cancelled, got %d", n)
	}
}

func Test_MinerAddress(t *testing.T) {
	st := newState(t, genesis.Default(), strategy.Trivial)

	for _, miner := range []string{"", database.NetworkSender} {
		if _, err := st.MineNewBlock(context.Background(), miner); !errors.Is(err, database.ErrInvalidAddress) {
			t.Fatalf("Should reject miner %q, got %v", miner, err)
		}
	}
}

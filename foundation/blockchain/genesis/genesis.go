// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// Unit is the currency symbol reported with balances.
const Unit = "SCR"

// Genesis represents the genesis file.
type Genesis struct {
	Date          time.Time                  `json:"date"`            // Timestamp recorded in the genesis block.
	ChainID       uint16                     `json:"chain_id"`        // The chain id represents an unique id for this running instance.
	TransPerBlock uint16                     `json:"trans_per_block"` // The maximum number of pending transactions in a block, 0 drains the pool.
	Difficulty    uint16                     `json:"difficulty"`      // How difficult it needs to be to solve the work problem.
	MiningReward  decimal.Decimal            `json:"mining_reward"`   // Reward for mining a block.
	Balances      map[string]decimal.Decimal `json:"balances"`        // Starting balances for the founders of the chain.
}

// Default returns the genesis used when no genesis file is configured. The
// date is fixed so every node produces the same genesis block hash.
func Default() Genesis {
	return Genesis{
		Date:          time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:       1,
		TransPerBlock: 0,
		Difficulty:    2,
		MiningReward:  decimal.RequireFromString("0.5"),
		Balances:      map[string]decimal.Decimal{},
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Fields missing from the file
// keep the values from Default.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis: %w", err)
	}

	if !genesis.MiningReward.IsPositive() {
		return Genesis{}, fmt.Errorf("mining reward must be positive, got %s", genesis.MiningReward)
	}

	for address, balance := range genesis.Balances {
		if balance.IsNegative() {
			return Genesis{}, fmt.Errorf("genesis balance for %s is negative", address)
		}
	}

	return genesis, nil
}

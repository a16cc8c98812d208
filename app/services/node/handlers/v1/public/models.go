package public

import (
	"github.com/scremy/blockchain/foundation/blockchain/database"
	"github.com/scremy/blockchain/foundation/blockchain/wallets"
)

type mineRequest struct {
	MinerAddress string `json:"miner_address" validate:"required"`
}

type submitRequest struct {
	Sender    string          `json:"sender" validate:"required"`
	Recipient string          `json:"recipient" validate:"required"`
	Amount    database.Amount `json:"amount"`
}

type walletRequest struct {
	Address string `json:"address" validate:"required"`
}

type transferRequest struct {
	FromAddress string          `json:"from_address" validate:"required"`
	ToAddress   string          `json:"to_address" validate:"required"`
	Amount      database.Amount `json:"amount"`
}

// =============================================================================

type chainInfo struct {
	Chain  []database.Block `json:"chain"`
	Length int              `json:"length"`
}

type validInfo struct {
	Valid bool `json:"valid"`
}

type balanceInfo struct {
	Address string          `json:"address"`
	Balance database.Amount `json:"balance"`
	Unit    string          `json:"unit"`
}

// mineInfo carries the block fields at the top level and again under the
// block key. Browser clients read either form.
type mineInfo struct {
	Message string `json:"message"`
	database.Block
	Mined database.Block `json:"block"`
}

type statusInfo struct {
	Message string `json:"message"`
}

type walletInfo struct {
	Address string `json:"address"`
	Created bool   `json:"created"`
}

type walletList struct {
	Count   int              `json:"count"`
	Wallets []wallets.Wallet `json:"wallets"`
}

type miningInfo struct {
	Address    string          `json:"address"`
	NewBalance database.Amount `json:"new_balance"`
	Reward     database.Amount `json:"reward"`
	Block      database.Block  `json:"block"`
}

type transferInfo struct {
	NewBalance database.Amount `json:"new_balance"`
}

type mempoolInfo struct {
	Count        int           `json:"count"`
	Transactions []database.Tx `json:"transactions"`
}

type actInfo struct {
	LatestBlock string             `json:"latest_block"`
	Uncommitted int                `json:"uncommitted"`
	Supply      database.Amount    `json:"supply"`
	Accounts    []database.Account `json:"accounts"`
}

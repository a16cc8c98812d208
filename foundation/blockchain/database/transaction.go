package database

import (
	"fmt"
	"strings"
)

// NetworkSender is the sender recorded on mining reward transactions.
const NetworkSender = "network"

// TxType identifies how a transaction reached the chain.
type TxType string

// Set of transaction types.
const (
	TxReward TxType = "reward"      // Coinbase paid to the miner of the block.
	TxSend   TxType = "send"        // Transfer already applied to the ledger when it was pooled.
	TxPooled TxType = "transaction" // Submission applied to the ledger when it is mined.
)

// Tx is the transactional information between two parties.
type Tx struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    Amount `json:"amount"`
	Type      TxType `json:"type"`
}

// NewTx constructs a new transaction between two parties.
func NewTx(sender string, recipient string, amount Amount, txType TxType) (Tx, error) {
	tx := Tx{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Type:      txType,
	}

	if err := tx.Validate(); err != nil {
		return Tx{}, err
	}

	return tx, nil
}

// NewRewardTx constructs the mining reward for the specified miner.
func NewRewardTx(miner string, reward Amount) Tx {
	return Tx{
		Sender:    NetworkSender,
		Recipient: miner,
		Amount:    reward,
		Type:      TxReward,
	}
}

// Validate checks the transaction amount and parties.
func (tx Tx) Validate() error {
	if !tx.Amount.IsPositive() {
		return fmt.Errorf("%w, got %s", ErrInvalidAmount, tx.Amount)
	}

	if strings.TrimSpace(tx.Sender) == "" {
		return fmt.Errorf("%w: sender is required", ErrInvalidAddress)
	}

	if strings.TrimSpace(tx.Recipient) == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidAddress)
	}

	if tx.Type != TxReward && tx.Sender == NetworkSender {
		return fmt.Errorf("%w: sender %q is reserved", ErrInvalidAddress, NetworkSender)
	}

	if tx.Sender == tx.Recipient {
		return fmt.Errorf("%w: sender and recipient are the same account %s", ErrInvalidAddress, tx.Sender)
	}

	return nil
}

// IsReward reports whether the transaction mints new coins.
func (tx Tx) IsReward() bool {
	return tx.Type == TxReward
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%s->%s:%s", tx.Type, tx.Sender, tx.Recipient, tx.Amount)
}

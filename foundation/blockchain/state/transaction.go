package state

import (
	"github.com/scremy/blockchain/foundation/blockchain/database"
)

// Transfer moves the amount between the two accounts right away and records
// the transfer in the mempool so it shows up in the next block. It returns
// the sender's new balance.
func (s *State) Transfer(from string, to string, amount database.Amount) (database.Amount, error) {
	tx, err := database.NewTx(from, to, amount, database.TxSend)
	if err != nil {
		return database.Amount{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := s.db.Transfer(tx)
	if err != nil {
		return database.Amount{}, err
	}

	n := s.mempool.Add(tx)

	s.evHandler("viewer: transfer: tx[%s]: pool[%d]", tx, n)
	s.signalStartMining()

	return balance, nil
}

// SubmitTransaction accepts a transaction into the mempool. Balances don't
// change until the transaction is mined.
func (s *State) SubmitTransaction(sender string, recipient string, amount database.Amount) error {
	tx, err := database.NewTx(sender, recipient, amount, database.TxPooled)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.CheckFunds(sender, amount); err != nil {
		return err
	}

	n := s.mempool.Add(tx)

	s.evHandler("viewer: submit: tx[%s]: pool[%d]", tx, n)
	s.signalStartMining()

	return nil
}

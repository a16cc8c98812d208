package state

import (
	"github.com/scremy/blockchain/foundation/blockchain/database"
	"github.com/scremy/blockchain/foundation/blockchain/genesis"
	"github.com/scremy/blockchain/foundation/blockchain/wallets"
)

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveBeneficiary returns the address the worker mines to.
func (s *State) RetrieveBeneficiary() string {
	return s.beneficiary
}

// RetrieveMiningReward returns the amount paid for each mined block.
func (s *State) RetrieveMiningReward() database.Amount {
	return s.reward
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.LatestBlock()
}

// RetrieveChain returns a copy of the full chain starting from genesis.
func (s *State) RetrieveChain() []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.Blocks()
}

// RetrieveMempool returns a copy of the mempool.
func (s *State) RetrieveMempool() []database.Tx {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.mempool.Copy()
}

// RetrieveAccounts returns a copy of the accounts sorted by address.
func (s *State) RetrieveAccounts() []database.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.CopyAccounts()
}

// RetrieveWallets returns a copy of the registered wallets.
func (s *State) RetrieveWallets() []wallets.Wallet {
	return s.wallets.Copy()
}

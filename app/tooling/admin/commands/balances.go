// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"fmt"
	"io"

	"github.com/scremy/blockchain/foundation/blockchain/database"
	"github.com/scremy/blockchain/foundation/blockchain/genesis"
)

// Balances prints the current set of balances. An empty address prints
// every account.
func Balances(w io.Writer, address string, db *database.Database) error {
	fmt.Fprintf(w, "LatestBlockHash: %s\n\n", db.LatestBlock().Hash)

	if address != "" {
		fmt.Fprintf(w, "Account: %s  Balance: %s %s\n", address, db.Balance(address), genesis.Unit)
		return nil
	}

	for _, account := range db.CopyAccounts() {
		fmt.Fprintf(w, "Account: %s  Balance: %s %s\n", account.Address, account.Balance, genesis.Unit)
	}
	fmt.Fprintf(w, "\nSupply: %s %s\n", db.TotalSupply(), genesis.Unit)

	return nil
}

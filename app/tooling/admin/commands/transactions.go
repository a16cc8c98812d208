package commands

import (
	"fmt"
	"io"

	"github.com/scremy/blockchain/foundation/blockchain/database"
)

// Transactions prints the mined transactions. An empty address prints
// every transaction.
func Transactions(w io.Writer, address string, db *database.Database) error {
	for _, block := range db.Blocks() {
		for _, tx := range block.Transactions {
			if address != "" && tx.Sender != address && tx.Recipient != address {
				continue
			}

			fmt.Fprintf(w, "Block: %d  Sender: %s  Recipient: %s  Amount: %s  Type: %s\n",
				block.Index, tx.Sender, tx.Recipient, tx.Amount, tx.Type)
		}
	}

	return nil
}

// Validate checks the links and hashes of the stored chain.
func Validate(w io.Writer, db *database.Database) error {
	if err := db.Validate(); err != nil {
		fmt.Fprintf(w, "Valid: false: %s\n", err)
		return nil
	}

	fmt.Fprintf(w, "Valid: true  Blocks: %d\n", db.Length())
	return nil
}

package commands

import (
	"fmt"

	"github.com/iridium/blockchain/foundation/blockchain/chain"
	"github.com/iridium/blockchain/foundation/blockchain/database"
)

// Transactions prints the mined transactions, optionally only those that
// touch the account named on the command line.
func Transactions(args []string, blocks []database.Block) {
	var acct string
	if len(args) == 2 {
		acct = args[1]
	}

	for _, block := range blocks {
		for _, tx := range block.Transactions {
			sender, _ := tx.Sender()
			if acct != "" && acct != sender && acct != tx.Recipient() {
				continue
			}

			fmt.Printf("Block: %d  ID: %s  From: %s  To: %s  Amount: %d\n",
				block.Index, tx.ID(), sender, tx.Recipient(), tx.Amount())
		}
	}
}

// Validate runs the full validation over the stored blocks and reports the
// first failure.
func Validate(blocks []database.Block, ev func(v string, args ...any)) error {
	if _, err := chain.FromBlocks(blocks, ev); err != nil {
		return err
	}

	fmt.Printf("Chain of %d blocks is valid\n", len(blocks))

	return nil
}

// Package commands contains the functionality for the admin tool.
package commands

import (
	"fmt"
	"sort"

	"github.com/iridium/blockchain/foundation/blockchain/chain"
)

// Balances prints the mined balance of every account or of the account
// named on the command line.
func Balances(args []string, bc *chain.Blockchain) {
	fmt.Printf("LatestBlockHash: %s\n\n", bc.LastBlock().Hash)

	if len(args) == 2 {
		fmt.Printf("Account: %s  Balance: %d\n", args[1], bc.Balance(args[1]))
		return
	}

	bals := bc.Balances()

	accounts := make([]string, 0, len(bals))
	for account := range bals {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	for _, account := range accounts {
		fmt.Printf("Account: %s  Balance: %d\n", account, bals[account])
	}
}

// This program provides a wallet for the node's public api.
package main

import "github.com/iridium/blockchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}

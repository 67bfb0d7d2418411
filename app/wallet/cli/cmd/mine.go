package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/iridium/blockchain/foundation/blockchain/database"
	"github.com/iridium/blockchain/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Ask the node to mine the pending transfers for your account.",
	Run:   mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
}

func mineRun(cmd *cobra.Command, args []string) {
	privateKey, err := signature.LoadPrivateKey(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	req := struct {
		Miner string `json:"miner"`
	}{
		Miner: signature.PublicKeyHex(privateKey),
	}

	var block database.Block
	if err := call(http.MethodPost, fmt.Sprintf("%s/v1/mine", url), req, &block); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("mined block %d: hash %s: transactions %d\n", block.Index, block.Hash, len(block.Transactions))
}

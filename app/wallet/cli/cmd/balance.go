package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/iridium/blockchain/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

type balance struct {
	Account string `json:"account"`
	Balance int64  `json:"balance"`
}

type balances struct {
	LatestBlock string    `json:"latest_block"`
	Uncommitted int       `json:"uncommitted"`
	Balances    []balance `json:"balances"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	privateKey, err := signature.LoadPrivateKey(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	account := signature.PublicKeyHex(privateKey)
	fmt.Println("For Account:", account)

	var bals balances
	if err := call(http.MethodGet, fmt.Sprintf("%s/v1/balances/list/%s", url, account), nil, &bals); err != nil {
		log.Fatal(err)
	}

	if len(bals.Balances) > 0 {
		fmt.Println(bals.Balances[0].Balance)
	}
}

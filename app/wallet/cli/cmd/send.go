package cmd

import (
	"crypto/ed25519"
	"fmt"
	"log"
	"net/http"

	"github.com/iridium/blockchain/foundation/blockchain/database"
	"github.com/iridium/blockchain/foundation/blockchain/signature"
	"github.com/iridium/blockchain/foundation/nameservice"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount int64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := signature.LoadPrivateKey(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		sendWithDetails(privateKey)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account or wallet name of the recipient.")
	sendCmd.Flags().Int64VarP(&amount, "amount", "v", 0, "Amount to send.")
}

func sendWithDetails(privateKey ed25519.PrivateKey) {

	// Wallets kept in the same folder can be named instead of their account.
	ns, err := nameservice.New(accountPath)
	if err != nil {
		log.Fatal(err)
	}

	tr, err := database.NewTransfer(signature.PublicKeyHex(privateKey), ns.Account(to), amount, privateKey)
	if err != nil {
		log.Fatal(err)
	}

	var resp struct {
		BlockIndex uint64 `json:"block_index"`
	}
	if err := call(http.MethodPost, fmt.Sprintf("%s/v1/tx/submit", url), tr, &resp); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("transfer %s expected in block %d\n", tr.ID, resp.BlockIndex)
}

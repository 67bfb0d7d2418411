package public

import (
	"github.com/google/uuid"
	"github.com/iridium/blockchain/foundation/blockchain/database"
)

// transfer is the signed transfer a wallet submits. The amount is left to
// the ledger so a non-positive value is reported as InvalidAmount.
type transfer struct {
	ID        uuid.UUID `json:"id" validate:"required"`
	Amount    int64     `json:"amount"`
	Sender    string    `json:"sender" validate:"required,hexadecimal,len=64"`
	Recipient string    `json:"recipient" validate:"required,hexadecimal,len=64"`
	Signature string    `json:"signature" validate:"required,hexadecimal"`
}

func (t transfer) toDatabase() database.Transfer {
	return database.Transfer{
		ID:        t.ID,
		Amount:    t.Amount,
		Sender:    t.Sender,
		Recipient: t.Recipient,
		Signature: t.Signature,
	}
}

type submitted struct {
	BlockIndex uint64 `json:"block_index"`
}

type chainInfo struct {
	Blocks []database.Block `json:"blocks"`
	Length int              `json:"length"`
}

type mineRequest struct {
	Miner string `json:"miner"`
}

type pending struct {
	ID            uuid.UUID `json:"id"`
	Amount        int64     `json:"amount"`
	Sender        string    `json:"sender"`
	SenderName    string    `json:"sender_name"`
	Recipient     string    `json:"recipient"`
	RecipientName string    `json:"recipient_name"`
	Signature     string    `json:"signature"`
}

type balance struct {
	Account string `json:"account"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

type balances struct {
	LatestBlock string    `json:"latest_block"`
	Uncommitted int       `json:"uncommitted"`
	Balances    []balance `json:"balances"`
}

type validity struct {
	Valid  bool            `json:"valid"`
	Error  string          `json:"error,omitempty"`
	Ledger *database.Error `json:"ledger,omitempty"`
}

type registration struct {
	Hosts []string `json:"hosts" validate:"required,min=1,dive,required"`
}

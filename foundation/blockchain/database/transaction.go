package database

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/iridium/blockchain/foundation/blockchain/genesis"
	"github.com/iridium/blockchain/foundation/blockchain/signature"
)

// Transfer moves value from the sender to the recipient. The sender is the
// hex encoded public key of the account that signed the transfer.
type Transfer struct {
	ID        uuid.UUID `json:"id"`
	Amount    int64     `json:"amount"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Signature string    `json:"signature"`
}

// NewTransfer constructs a transfer with a fresh id and signs it with the
// specified private key.
func NewTransfer(sender string, recipient string, amount int64, privateKey ed25519.PrivateKey) (Transfer, error) {
	tr := Transfer{
		ID:        uuid.New(),
		Amount:    amount,
		Sender:    sender,
		Recipient: recipient,
	}

	return tr.Sign(privateKey)
}

// Sign replaces the signature of the transfer with one produced by the
// specified private key.
func (tr Transfer) Sign(privateKey ed25519.PrivateKey) (Transfer, error) {
	sig, err := signature.Sign(tr.view(), privateKey)
	if err != nil {
		return Transfer{}, err
	}

	tr.Signature = sig
	return tr, nil
}

// Validate checks the amount is positive and the signature was produced by
// the sender over the id, sender, recipient and amount.
func (tr Transfer) Validate() error {
	if tr.Amount <= 0 {
		return TransactionError(tr.ID, ErrInvalidAmount)
	}

	if err := signature.Verify(tr.view(), tr.Sender, tr.Signature); err != nil {
		return TransactionError(tr.ID, ErrInvalidSignature)
	}

	return nil
}

// transferView is the signed message of a transfer. The signature itself
// is not part of it.
type transferView struct {
	ID        [16]byte
	Sender    string
	Recipient string
	Amount    uint64
}

func (tr Transfer) view() transferView {
	return transferView{
		ID:        tr.ID,
		Sender:    tr.Sender,
		Recipient: tr.Recipient,
		Amount:    uint64(tr.Amount),
	}
}

// =============================================================================

// Reward issues new currency to the miner of a block. Rewards aren't signed.
type Reward struct {
	ID        uuid.UUID `json:"id"`
	Recipient string    `json:"recipient"`
	Amount    int64     `json:"amount"`
}

// NewReward constructs a reward for the specified miner.
func NewReward(recipient string) Reward {
	return Reward{
		ID:        uuid.New(),
		Recipient: recipient,
		Amount:    genesis.MinerReward,
	}
}

// Validate checks the amount matches the protocol miner reward.
func (rw Reward) Validate() error {
	if rw.Amount != genesis.MinerReward {
		return TransactionError(rw.ID, ErrMismatchedMinerReward)
	}

	return nil
}

// =============================================================================

type txKind uint8

const (
	kindTransfer txKind = iota + 1
	kindReward
)

// Tx is a transaction recorded in a block: exactly one of a Transfer or a
// Reward. The zero value is not a valid transaction.
type Tx struct {
	kind     txKind
	transfer Transfer
	reward   Reward
}

// TransferTx wraps a transfer as a transaction.
func TransferTx(tr Transfer) Tx {
	return Tx{kind: kindTransfer, transfer: tr}
}

// RewardTx wraps a reward as a transaction.
func RewardTx(rw Reward) Tx {
	return Tx{kind: kindReward, reward: rw}
}

// Transfer returns the transfer if this transaction is one.
func (tx Tx) Transfer() (Transfer, bool) {
	return tx.transfer, tx.kind == kindTransfer
}

// Reward returns the reward if this transaction is one.
func (tx Tx) Reward() (Reward, bool) {
	return tx.reward, tx.kind == kindReward
}

// ID returns the unique id of the transaction.
func (tx Tx) ID() uuid.UUID {
	switch tx.kind {
	case kindTransfer:
		return tx.transfer.ID
	case kindReward:
		return tx.reward.ID
	}
	panic(errZeroTx)
}

// Sender returns the sending account. Rewards have no sender.
func (tx Tx) Sender() (string, bool) {
	switch tx.kind {
	case kindTransfer:
		return tx.transfer.Sender, true
	case kindReward:
		return "", false
	}
	panic(errZeroTx)
}

// Recipient returns the receiving account.
func (tx Tx) Recipient() string {
	switch tx.kind {
	case kindTransfer:
		return tx.transfer.Recipient
	case kindReward:
		return tx.reward.Recipient
	}
	panic(errZeroTx)
}

// Amount returns the value moved by the transaction.
func (tx Tx) Amount() int64 {
	switch tx.kind {
	case kindTransfer:
		return tx.transfer.Amount
	case kindReward:
		return tx.reward.Amount
	}
	panic(errZeroTx)
}

// BalanceChange returns the effect of this transaction on the balance of
// the specified account.
func (tx Tx) BalanceChange(account string) int64 {
	switch tx.kind {
	case kindTransfer:
		switch account {
		case tx.transfer.Sender:
			return -tx.transfer.Amount
		case tx.transfer.Recipient:
			return tx.transfer.Amount
		}
		return 0

	case kindReward:
		if account == tx.reward.Recipient {
			return tx.reward.Amount
		}
		return 0
	}
	panic(errZeroTx)
}

// Validate performs the validation of the underlying transaction.
func (tx Tx) Validate() error {
	switch tx.kind {
	case kindTransfer:
		return tx.transfer.Validate()
	case kindReward:
		return tx.reward.Validate()
	}
	panic(errZeroTx)
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	switch tx.kind {
	case kindTransfer:
		return fmt.Sprintf("transfer:%s:%d", tx.transfer.ID, tx.transfer.Amount)
	case kindReward:
		return fmt.Sprintf("reward:%s:%d", tx.reward.ID, tx.reward.Amount)
	}
	return "invalid"
}

const errZeroTx = "database: use of zero value transaction"

// =============================================================================

// txView is the representation of a transaction inside a block hash.
type txView struct {
	Kind      uint8
	ID        [16]byte
	Sender    string
	Recipient string
	Amount    uint64
	Signature string
}

func (tx Tx) view() txView {
	switch tx.kind {
	case kindTransfer:
		return txView{
			Kind:      uint8(kindTransfer),
			ID:        tx.transfer.ID,
			Sender:    tx.transfer.Sender,
			Recipient: tx.transfer.Recipient,
			Amount:    uint64(tx.transfer.Amount),
			Signature: tx.transfer.Signature,
		}
	case kindReward:
		return txView{
			Kind:      uint8(kindReward),
			ID:        tx.reward.ID,
			Recipient: tx.reward.Recipient,
			Amount:    uint64(tx.reward.Amount),
		}
	}
	panic(errZeroTx)
}

// =============================================================================

// Transaction type discriminants used in the external encoding.
const (
	TypeTransfer = "Transfer"
	TypeReward   = "Reward"
)

type transferJSON struct {
	Type string `json:"type"`
	Transfer
}

type rewardJSON struct {
	Type string `json:"type"`
	Reward
}

// MarshalJSON encodes the transaction with a type discriminant.
func (tx Tx) MarshalJSON() ([]byte, error) {
	switch tx.kind {
	case kindTransfer:
		return json.Marshal(transferJSON{Type: TypeTransfer, Transfer: tx.transfer})
	case kindReward:
		return json.Marshal(rewardJSON{Type: TypeReward, Reward: tx.reward})
	}
	return nil, fmt.Errorf("unable to marshal zero value transaction")
}

// UnmarshalJSON decodes a transaction based on its type discriminant.
func (tx *Tx) UnmarshalJSON(data []byte) error {
	var disc struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &disc); err != nil {
		return err
	}

	switch disc.Type {
	case TypeTransfer:
		var tj transferJSON
		if err := json.Unmarshal(data, &tj); err != nil {
			return err
		}
		*tx = TransferTx(tj.Transfer)

	case TypeReward:
		var rj rewardJSON
		if err := json.Unmarshal(data, &rj); err != nil {
			return err
		}
		*tx = RewardTx(rj.Reward)

	default:
		return fmt.Errorf("unknown transaction type %q", disc.Type)
	}

	return nil
}

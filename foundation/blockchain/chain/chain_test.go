package chain_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"testing"

	"github.com/iridium/blockchain/foundation/blockchain/chain"
	"github.com/iridium/blockchain/foundation/blockchain/database"
	"github.com/iridium/blockchain/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	aliceSeed = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"
	bobSeed   = "4ccd089b28ff96da9db6c346ec114e0f5b8a319f35aba624da8cf6ed4fb8a6fb"
)

type account struct {
	key ed25519.PrivateKey
	id  string
}

func newAccount(t *testing.T, seed string) account {
	pk, err := signature.PrivateKeyFromSeedHex(seed)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	return account{key: pk, id: signature.PublicKeyHex(pk)}
}

func (a account) send(t *testing.T, recipient string, amount int64) database.Transfer {
	tr, err := database.NewTransfer(a.id, recipient, amount, a.key)
	if err != nil {
		t.Fatalf("Should be able to create a transfer: %s", err)
	}

	return tr
}

func mine(t *testing.T, bc *chain.Blockchain, miner string) database.Block {
	block, err := bc.Mine(context.Background(), miner)
	if err != nil {
		t.Fatalf("Should be able to mine a block: %s", err)
	}

	return block
}

// =============================================================================

func Test_NewChain(t *testing.T) {
	t.Log("Given the need to start a new chain.")
	{
		bc := chain.New(nil)

		if bc.Len() != 1 || !bc.LastBlock().Equal(database.Genesis()) {
			t.Fatalf("\t%s\tShould start with only the genesis block.", failed)
		}
		t.Logf("\t%s\tShould start with only the genesis block.", success)

		if err := bc.Validate(); err != nil {
			t.Fatalf("\t%s\tShould be a valid chain: %s", failed, err)
		}
		t.Logf("\t%s\tShould be a valid chain.", success)
	}
}

func Test_SenderBalance(t *testing.T) {
	alice := newAccount(t, aliceSeed)
	bob := newAccount(t, bobSeed)

	t.Log("Given an account with an inflow of 100 and an outflow of 40.")
	{
		bc := chain.New(nil)
		mine(t, bc, alice.id)

		if _, err := bc.NewTransaction(alice.send(t, bob.id, 40)); err != nil {
			t.Fatalf("\t%s\tShould be able to send 40: %s", failed, err)
		}
		mine(t, bc, "miner1")

		if balance := bc.Balance(alice.id); balance != 60 {
			t.Fatalf("\t%s\tShould have a balance of 60: got %d", failed, balance)
		}
		t.Logf("\t%s\tShould have a balance of 60.", success)

		tr := alice.send(t, bob.id, 61)
		_, err := bc.NewTransaction(tr)
		if !errors.Is(err, database.ErrInsufficientBalance) {
			t.Fatalf("\t%s\tShould not be able to send 61: %v", failed, err)
		}
		if e := database.GetError(err); e == nil || e.ID != tr.ID {
			t.Fatalf("\t%s\tShould attribute the error to the transfer id.", failed)
		}
		t.Logf("\t%s\tShould not be able to send 61.", success)

		index, err := bc.NewTransaction(alice.send(t, bob.id, 60))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to send 60: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to send 60.", success)

		if index != 3 {
			t.Fatalf("\t%s\tShould expect the transfer in block 3: got %d", failed, index)
		}
		t.Logf("\t%s\tShould expect the transfer in block 3.", success)

		if _, err := bc.NewTransaction(alice.send(t, bob.id, 1)); !errors.Is(err, database.ErrInsufficientBalance) {
			t.Fatalf("\t%s\tShould count pending transfers against the balance: %v", failed, err)
		}
		t.Logf("\t%s\tShould count pending transfers against the balance.", success)
	}
}

func Test_DuplicateID(t *testing.T) {
	alice := newAccount(t, aliceSeed)
	bob := newAccount(t, bobSeed)

	t.Log("Given the need to reject a transfer submitted twice.")
	{
		bc := chain.New(nil)
		mine(t, bc, alice.id)

		tr := alice.send(t, bob.id, 10)
		if _, err := bc.NewTransaction(tr); err != nil {
			t.Fatalf("\t%s\tShould be able to submit the transfer: %s", failed, err)
		}

		if _, err := bc.NewTransaction(tr); !errors.Is(err, database.ErrDuplicateID) {
			t.Fatalf("\t%s\tShould reject a duplicate of a pending transfer: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a duplicate of a pending transfer.", success)

		mine(t, bc, "miner1")

		if _, err := bc.NewTransaction(tr); !errors.Is(err, database.ErrDuplicateID) {
			t.Fatalf("\t%s\tShould reject a duplicate of a mined transfer: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a duplicate of a mined transfer.", success)

		again, err := database.NextBlock(context.Background(), bc.LastBlock(), chain.BlockTransactions("miner1", []database.Transfer{tr}), nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %s", failed, err)
		}

		_, err = chain.FromBlocks(append(bc.Blocks(), again), nil)
		if !errors.Is(err, database.ErrDuplicateID) {
			t.Fatalf("\t%s\tShould reject a history mining the transfer twice: %v", failed, err)
		}
		if e := database.GetError(err); e == nil || e.ID != tr.ID {
			t.Fatalf("\t%s\tShould attribute the duplicate to the repeated transfer: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a history mining the transfer twice.", success)
	}
}

func Test_PendingLimit(t *testing.T) {
	alice := newAccount(t, aliceSeed)
	bob := newAccount(t, bobSeed)

	t.Log("Given the need to bound the pending pool.")
	{
		bc := chain.New(nil)
		mine(t, bc, alice.id)

		for range 4 {
			if _, err := bc.NewTransaction(alice.send(t, bob.id, 1)); err != nil {
				t.Fatalf("\t%s\tShould be able to submit 4 transfers: %s", failed, err)
			}
		}
		t.Logf("\t%s\tShould be able to submit 4 transfers.", success)

		if _, err := bc.NewTransaction(alice.send(t, bob.id, 1)); !errors.Is(err, database.ErrPendingTransactionLimitReached) {
			t.Fatalf("\t%s\tShould reject the 5th transfer: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject the 5th transfer.", success)

		mine(t, bc, "miner1")

		if len(bc.Pending()) != 0 {
			t.Fatalf("\t%s\tShould empty the pool after mining.", failed)
		}
		t.Logf("\t%s\tShould empty the pool after mining.", success)

		if _, err := bc.NewTransaction(alice.send(t, bob.id, 1)); err != nil {
			t.Fatalf("\t%s\tShould accept transfers again after mining: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept transfers again after mining.", success)
	}
}

func Test_Mine(t *testing.T) {
	alice := newAccount(t, aliceSeed)
	bob := newAccount(t, bobSeed)

	t.Log("Given the need to mine the pending transfers.")
	{
		bc := chain.New(nil)
		mine(t, bc, alice.id)

		t1 := alice.send(t, bob.id, 10)
		t2 := alice.send(t, bob.id, 20)
		for _, tr := range []database.Transfer{t1, t2} {
			if _, err := bc.NewTransaction(tr); err != nil {
				t.Fatalf("\t%s\tShould be able to submit the transfer: %s", failed, err)
			}
		}

		block := mine(t, bc, "minerX")

		if len(block.Transactions) != 3 {
			t.Fatalf("\t%s\tShould get 3 transactions in the block: got %d", failed, len(block.Transactions))
		}

		rw, ok := block.Transactions[0].Reward()
		if !ok || rw.Recipient != "minerX" {
			t.Fatalf("\t%s\tShould get the miner's reward first.", failed)
		}
		t.Logf("\t%s\tShould get the miner's reward first.", success)

		if block.Transactions[1].ID() != t1.ID || block.Transactions[2].ID() != t2.ID {
			t.Fatalf("\t%s\tShould get the transfers in submission order.", failed)
		}
		t.Logf("\t%s\tShould get the transfers in submission order.", success)

		if !bc.LastBlock().Equal(block) || len(bc.Pending()) != 0 {
			t.Fatalf("\t%s\tShould append the block and empty the pool.", failed)
		}
		t.Logf("\t%s\tShould append the block and empty the pool.", success)

		if err := bc.Validate(); err != nil {
			t.Fatalf("\t%s\tShould still be a valid chain: %s", failed, err)
		}
		t.Logf("\t%s\tShould still be a valid chain.", success)

		balances := bc.Balances()
		if balances[alice.id] != 70 || balances[bob.id] != 30 || balances["minerX"] != 100 {
			t.Fatalf("\t%s\tShould get the expected balances: %v", failed, balances)
		}
		t.Logf("\t%s\tShould get the expected balances.", success)
	}
}

func Test_MineCancelled(t *testing.T) {
	alice := newAccount(t, aliceSeed)
	bob := newAccount(t, bobSeed)

	t.Log("Given the need to cancel mining.")
	{
		bc := chain.New(nil)
		mine(t, bc, alice.id)

		if _, err := bc.NewTransaction(alice.send(t, bob.id, 10)); err != nil {
			t.Fatalf("\t%s\tShould be able to submit the transfer: %s", failed, err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := bc.Mine(ctx, "miner1"); !errors.Is(err, context.Canceled) {
			t.Fatalf("\t%s\tShould get back the cancellation: %v", failed, err)
		}
		t.Logf("\t%s\tShould get back the cancellation.", success)

		if bc.Len() != 2 || len(bc.Pending()) != 1 {
			t.Fatalf("\t%s\tShould leave the chain and the pool untouched.", failed)
		}
		t.Logf("\t%s\tShould leave the chain and the pool untouched.", success)
	}
}

func Test_Replace(t *testing.T) {
	alice := newAccount(t, aliceSeed)
	bob := newAccount(t, bobSeed)

	local := chain.New(nil)
	mine(t, local, alice.id)

	remote := chain.New(nil)
	mine(t, remote, bob.id)
	mine(t, remote, bob.id)

	t.Log("Given the need to adopt the longest valid chain.")
	{
		t.Log("\tWhen the candidate is not longer.")
		{
			before, _ := json.Marshal(local)

			replaced, err := local.Replace(chain.New(nil).Blocks())
			if err != nil || replaced {
				t.Fatalf("\t%s\tShould ignore a shorter candidate: %v", failed, err)
			}

			other := chain.New(nil)
			mine(t, other, bob.id)
			replaced, err = local.Replace(other.Blocks())
			if err != nil || replaced {
				t.Fatalf("\t%s\tShould ignore a candidate of equal length: %v", failed, err)
			}

			after, _ := json.Marshal(local)
			if !bytes.Equal(before, after) {
				t.Fatalf("\t%s\tShould leave the chain byte for byte unchanged.", failed)
			}
			t.Logf("\t%s\tShould leave the chain byte for byte unchanged.", success)
		}

		t.Log("\tWhen the candidate is longer but has the wrong genesis.")
		{
			candidate := remote.Blocks()
			candidate[0].Timestamp++

			replaced, err := local.Replace(candidate)
			if !errors.Is(err, database.ErrGenesisBlockMismatch) || replaced {
				t.Fatalf("\t%s\tShould fail with GenesisBlockMismatch: %v", failed, err)
			}
			t.Logf("\t%s\tShould fail with GenesisBlockMismatch.", success)

			if local.Len() != 2 {
				t.Fatalf("\t%s\tShould leave the chain unchanged.", failed)
			}
			t.Logf("\t%s\tShould leave the chain unchanged.", success)
		}

		t.Log("\tWhen the candidate is longer and valid.")
		{
			if _, err := local.NewTransaction(alice.send(t, bob.id, 10)); err != nil {
				t.Fatalf("\t%s\tShould be able to submit the transfer: %s", failed, err)
			}

			replaced, err := local.Replace(remote.Blocks())
			if err != nil || !replaced {
				t.Fatalf("\t%s\tShould adopt the candidate: %v", failed, err)
			}
			t.Logf("\t%s\tShould adopt the candidate.", success)

			if local.Len() != remote.Len() || !local.LastBlock().Equal(remote.LastBlock()) {
				t.Fatalf("\t%s\tShould have the candidate's length and tip.", failed)
			}
			t.Logf("\t%s\tShould have the candidate's length and tip.", success)

			if len(local.Pending()) != 0 {
				t.Fatalf("\t%s\tShould drop pending transfers that are no longer funded.", failed)
			}
			t.Logf("\t%s\tShould drop pending transfers that are no longer funded.", success)
		}

		t.Log("\tWhen pending transfers are still funded by the candidate.")
		{
			funded := chain.New(nil)
			mine(t, funded, alice.id)

			first := alice.send(t, bob.id, 10)
			second := alice.send(t, bob.id, 20)
			for _, tr := range []database.Transfer{first, second} {
				if _, err := funded.NewTransaction(tr); err != nil {
					t.Fatalf("\t%s\tShould be able to submit the transfer: %s", failed, err)
				}
			}

			candidate := chain.New(nil)
			mine(t, candidate, alice.id)
			mine(t, candidate, bob.id)
			mine(t, candidate, bob.id)

			replaced, err := funded.Replace(candidate.Blocks())
			if err != nil || !replaced {
				t.Fatalf("\t%s\tShould adopt the candidate: %v", failed, err)
			}

			pending := funded.Pending()
			if len(pending) != 2 || pending[0].ID != first.ID || pending[1].ID != second.ID {
				t.Fatalf("\t%s\tShould carry the pending transfers forward in order: %v", failed, pending)
			}
			t.Logf("\t%s\tShould carry the pending transfers forward in order.", success)
		}
	}
}

func Test_SelfTransferBalance(t *testing.T) {
	alice := newAccount(t, aliceSeed)

	t.Log("Given the need to report one balance for an account paying itself.")
	{
		bc := chain.New(nil)
		mine(t, bc, alice.id)

		if _, err := bc.NewTransaction(alice.send(t, alice.id, 30)); err != nil {
			t.Fatalf("\t%s\tShould be able to submit the transfer: %s", failed, err)
		}
		mine(t, bc, "miner1")

		if bc.Balance(alice.id) != 100 || bc.Balances()[alice.id] != 100 {
			t.Fatalf("\t%s\tShould report the same balance both ways: %d %d", failed, bc.Balance(alice.id), bc.Balances()[alice.id])
		}
		t.Logf("\t%s\tShould report the same balance both ways.", success)
	}
}

func Test_GlobalBalance(t *testing.T) {
	alice := newAccount(t, aliceSeed)
	bob := newAccount(t, bobSeed)

	gen := database.Genesis()

	trans := []database.Tx{
		database.RewardTx(database.NewReward("miner1")),
		database.TransferTx(alice.send(t, bob.id, 10)),
	}

	block, err := database.NextBlock(context.Background(), gen, trans, nil)
	if err != nil {
		t.Fatalf("Should be able to mine a block: %s", err)
	}

	t.Log("Given a well formed block that spends money that does not exist.")
	{
		if err := block.Validate(gen); err != nil {
			t.Fatalf("\t%s\tShould pass block validation: %s", failed, err)
		}
		t.Logf("\t%s\tShould pass block validation.", success)

		if _, err := chain.FromBlocks([]database.Block{gen, block}, nil); !errors.Is(err, database.ErrInvalidBalance) {
			t.Fatalf("\t%s\tShould fail chain validation with InvalidBalance: %v", failed, err)
		}
		t.Logf("\t%s\tShould fail chain validation with InvalidBalance.", success)

		if err := chain.New(nil).AddBlock(block); !errors.Is(err, database.ErrInvalidBalance) {
			t.Fatalf("\t%s\tShould not accept the block on top of a chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould not accept the block on top of a chain.", success)
	}
}

func Test_AddBlock(t *testing.T) {
	alice := newAccount(t, aliceSeed)
	bob := newAccount(t, bobSeed)

	t.Log("Given the need to accept a block mined by a peer.")
	{
		local := chain.New(nil)
		remote := chain.New(nil)

		block := mine(t, remote, alice.id)
		if err := local.AddBlock(block); err != nil {
			t.Fatalf("\t%s\tShould accept the block: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept the block.", success)

		tr := alice.send(t, bob.id, 10)
		for _, bc := range []*chain.Blockchain{local, remote} {
			if _, err := bc.NewTransaction(tr); err != nil {
				t.Fatalf("\t%s\tShould be able to submit the transfer: %s", failed, err)
			}
		}

		block = mine(t, remote, bob.id)
		if err := local.AddBlock(block); err != nil {
			t.Fatalf("\t%s\tShould accept the second block: %s", failed, err)
		}

		if len(local.Pending()) != 0 {
			t.Fatalf("\t%s\tShould remove mined transfers from the pool.", failed)
		}
		t.Logf("\t%s\tShould remove mined transfers from the pool.", success)

		if err := local.AddBlock(block); !errors.Is(err, database.ErrPreviousHashMismatch) {
			t.Fatalf("\t%s\tShould reject a block that does not follow the tip: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a block that does not follow the tip.", success)
	}
}

func Test_Tamper(t *testing.T) {
	alice := newAccount(t, aliceSeed)

	t.Log("Given the need to detect a tampered history.")
	{
		bc := chain.New(nil)
		block := mine(t, bc, alice.id)
		mine(t, bc, alice.id)

		block.Transactions = []database.Tx{database.RewardTx(database.NewReward("thief"))}
		bc.Tamper(block)

		err := bc.Validate()
		if !errors.Is(err, database.ErrInvalidProof) && !errors.Is(err, database.ErrHashMismatch) {
			t.Fatalf("\t%s\tShould fail validation: %v", failed, err)
		}
		t.Logf("\t%s\tShould fail validation: %v", success, err)

		block.Index = 10
		bc.Tamper(block)
		if bc.Len() != 3 {
			t.Fatalf("\t%s\tShould ignore a block past the tip.", failed)
		}
		t.Logf("\t%s\tShould ignore a block past the tip.", success)
	}
}

func Test_Encoding(t *testing.T) {
	alice := newAccount(t, aliceSeed)
	bob := newAccount(t, bobSeed)

	t.Log("Given the need to exchange chains between nodes.")
	{
		bc := chain.New(nil)
		mine(t, bc, alice.id)
		if _, err := bc.NewTransaction(alice.send(t, bob.id, 10)); err != nil {
			t.Fatalf("\t%s\tShould be able to submit the transfer: %s", failed, err)
		}

		data, err := json.Marshal(bc)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to marshal the chain: %s", failed, err)
		}

		var got chain.Blockchain
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("\t%s\tShould be able to unmarshal the chain: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to unmarshal the chain.", success)

		if err := got.Validate(); err != nil || got.Len() != 2 || len(got.Pending()) != 1 {
			t.Fatalf("\t%s\tShould get back a valid chain with its pool: %v", failed, err)
		}
		t.Logf("\t%s\tShould get back a valid chain with its pool.", success)

		var noPool chain.Blockchain
		if err := json.Unmarshal([]byte(`{"blocks":[{"index":0,"timestamp":1509904677,"proof":0,"hash":"","previous_hash":null,"transactions":[]}]}`), &noPool); err != nil {
			t.Fatalf("\t%s\tShould accept a chain without transactions: %s", failed, err)
		}
		if err := noPool.Validate(); err != nil {
			t.Fatalf("\t%s\tShould decode the genesis chain: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept a chain without transactions.", success)
	}
}

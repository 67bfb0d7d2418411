package state_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iridium/blockchain/foundation/blockchain/chain"
	"github.com/iridium/blockchain/foundation/blockchain/database"
	"github.com/iridium/blockchain/foundation/blockchain/peer"
	"github.com/iridium/blockchain/foundation/blockchain/signature"
	"github.com/iridium/blockchain/foundation/blockchain/state"
	"github.com/iridium/blockchain/foundation/blockchain/storage"
	"github.com/iridium/blockchain/foundation/blockchain/storage/disk"
	"github.com/iridium/blockchain/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const aliceSeed = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"

func newState(t *testing.T, strg storage.Serializer, allowTamper bool) *state.State {
	s, err := state.New(state.Config{
		MinerName:   "miner1",
		Host:        "localhost:9080",
		Storage:     strg,
		AllowTamper: allowTamper,
		EvHandler:   func(v string, args ...any) { t.Logf(v, args...) },
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}

	return s
}

func Test_MineAndPersist(t *testing.T) {
	pk, err := signature.PrivateKeyFromSeedHex(aliceSeed)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}
	alice := signature.PublicKeyHex(pk)

	t.Log("Given the need to mine blocks and persist them.")
	{
		strg := memory.New()
		s := newState(t, strg, false)

		if _, err := s.MineNewBlock(context.Background(), alice); err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine a block.", success)

		tr, err := database.NewTransfer(alice, "bob", 25, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create a transfer: %s", failed, err)
		}

		index, err := s.SubmitWalletTransaction(tr)
		if err != nil || index != 2 {
			t.Fatalf("\t%s\tShould be able to submit the transfer for block 2: %d %v", failed, index, err)
		}
		t.Logf("\t%s\tShould be able to submit the transfer for block 2.", success)

		block, err := s.MineNewBlock(context.Background(), "")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine the transfer: %s", failed, err)
		}

		rw, _ := block.Transactions[0].Reward()
		if rw.Recipient != "miner1" {
			t.Fatalf("\t%s\tShould reward the node's miner by default: %s", failed, rw.Recipient)
		}
		t.Logf("\t%s\tShould reward the node's miner by default.", success)

		if s.QueryMempoolLength() != 0 {
			t.Fatalf("\t%s\tShould empty the mempool.", failed)
		}
		t.Logf("\t%s\tShould empty the mempool.", success)

		balances := s.QueryBalances("")
		if balances[alice] != 75 || balances["bob"] != 25 || balances["miner1"] != 100 {
			t.Fatalf("\t%s\tShould get the expected balances: %v", failed, balances)
		}
		t.Logf("\t%s\tShould get the expected balances.", success)

		stored, err := storage.ReadAllBlocks(strg)
		if err != nil || len(stored) != 3 {
			t.Fatalf("\t%s\tShould persist every block: %d %v", failed, len(stored), err)
		}
		t.Logf("\t%s\tShould persist every block.", success)

		restarted := newState(t, strg, false)
		if restarted.QueryChainLength() != 3 || restarted.RetrieveLatestBlock().Hash != block.Hash {
			t.Fatalf("\t%s\tShould restore the chain from storage.", failed)
		}
		t.Logf("\t%s\tShould restore the chain from storage.", success)
	}
}

func Test_ProposedBlock(t *testing.T) {
	t.Log("Given the need to accept blocks mined by peers.")
	{
		local := newState(t, memory.New(), false)
		remote := newState(t, memory.New(), false)

		block, err := remote.MineNewBlock(context.Background(), "miner2")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %s", failed, err)
		}

		if err := local.ProcessProposedBlock(block); err != nil {
			t.Fatalf("\t%s\tShould accept the peer's block: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept the peer's block.", success)

		if err := local.ProcessProposedBlock(block); !errors.Is(err, database.ErrPreviousHashMismatch) {
			t.Fatalf("\t%s\tShould reject the same block twice: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject the same block twice.", success)

		if local.ValidateChain() != nil {
			t.Fatalf("\t%s\tShould keep a valid chain.", failed)
		}
		t.Logf("\t%s\tShould keep a valid chain.", success)
	}
}

func Test_ReplaceChain(t *testing.T) {
	t.Log("Given the need to adopt a longer chain.")
	{
		strg := memory.New()
		local := newState(t, strg, false)
		remote := newState(t, memory.New(), false)

		for range 2 {
			if _, err := remote.MineNewBlock(context.Background(), "miner2"); err != nil {
				t.Fatalf("\t%s\tShould be able to mine a block: %s", failed, err)
			}
		}

		replaced, err := local.ReplaceChain(remote.RetrieveChain())
		if err != nil || !replaced {
			t.Fatalf("\t%s\tShould adopt the longer chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould adopt the longer chain.", success)

		stored, err := storage.ReadAllBlocks(strg)
		if err != nil || len(stored) != 3 || !stored[2].Equal(remote.RetrieveLatestBlock()) {
			t.Fatalf("\t%s\tShould rewrite storage with the new chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould rewrite storage with the new chain.", success)

		replaced, err = local.ReplaceChain(remote.RetrieveChain())
		if err != nil || replaced {
			t.Fatalf("\t%s\tShould ignore a chain of equal length: %v", failed, err)
		}
		t.Logf("\t%s\tShould ignore a chain of equal length.", success)
	}
}

func Test_ReplaceChainIndexGap(t *testing.T) {
	t.Log("Given the need to persist an adopted chain whose block indices skip.")
	{
		genesis := database.Genesis()

		gap, err := database.NextBlock(context.Background(), genesis, chain.BlockTransactions("miner2", nil), nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %s", failed, err)
		}
		gap.Index = 7
		if err := gap.FindProof(context.Background(), nil); err != nil {
			t.Fatalf("\t%s\tShould be able to prove the block again: %s", failed, err)
		}

		next, err := database.NextBlock(context.Background(), gap, chain.BlockTransactions("miner2", nil), nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %s", failed, err)
		}

		dir := filepath.Join(t.TempDir(), "blocks")
		strg, err := disk.New(dir)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open disk storage: %s", failed, err)
		}
		local := newState(t, strg, false)

		replaced, err := local.ReplaceChain([]database.Block{genesis, gap, next})
		if err != nil || !replaced {
			t.Fatalf("\t%s\tShould adopt the longer chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould adopt the longer chain.", success)

		mined, err := local.MineNewBlock(context.Background(), "miner1")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine on top of it: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine on top of it.", success)

		reopened, err := disk.New(dir)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to reopen disk storage: %s", failed, err)
		}
		restarted := newState(t, reopened, false)

		if restarted.QueryChainLength() != 4 || restarted.RetrieveLatestBlock().Hash != mined.Hash {
			t.Fatalf("\t%s\tShould restore the whole chain after a restart: length[%d]", failed, restarted.QueryChainLength())
		}
		t.Logf("\t%s\tShould restore the whole chain after a restart.", success)
	}
}

func Test_Tamper(t *testing.T) {
	t.Log("Given the need to guard block overwrites.")
	{
		s := newState(t, memory.New(), false)

		block, err := s.MineNewBlock(context.Background(), "miner1")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %s", failed, err)
		}

		if err := s.Tamper(block); !errors.Is(err, state.ErrTamperDisabled) {
			t.Fatalf("\t%s\tShould refuse to tamper when disabled: %v", failed, err)
		}
		t.Logf("\t%s\tShould refuse to tamper when disabled.", success)

		strg := memory.New()
		s = newState(t, strg, true)
		block, err = s.MineNewBlock(context.Background(), "miner1")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %s", failed, err)
		}

		block.Timestamp++
		if err := s.Tamper(block); err != nil {
			t.Fatalf("\t%s\tShould be able to tamper when enabled: %s", failed, err)
		}

		err = s.ValidateChain()
		if !errors.Is(err, database.ErrInvalidProof) && !errors.Is(err, database.ErrHashMismatch) {
			t.Fatalf("\t%s\tShould detect the tampered block: %v", failed, err)
		}
		t.Logf("\t%s\tShould detect the tampered block.", success)

		restarted := newState(t, strg, true)
		if err := restarted.ValidateChain(); err != nil || restarted.QueryChainLength() != 2 {
			t.Fatalf("\t%s\tShould restart from the untampered storage: %v", failed, err)
		}
		t.Logf("\t%s\tShould restart from the untampered storage.", success)
	}
}

func Test_PeerChain(t *testing.T) {
	remote := newState(t, memory.New(), false)
	if _, err := remote.MineNewBlock(context.Background(), "miner2"); err != nil {
		t.Fatalf("Should be able to mine a block: %s", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/node/chain", func(w http.ResponseWriter, r *http.Request) {
		data, err := remote.RetrieveLedger()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})
	mux.HandleFunc("/v1/node/status", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	pr := peer.New(srv.URL)

	t.Log("Given the need to request a chain from a peer.")
	{
		local := newState(t, memory.New(), false)

		blocks, err := local.NetRequestPeerChain(pr)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to retrieve the peer's chain: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to retrieve the peer's chain.", success)

		replaced, err := local.ReplaceChain(blocks)
		if err != nil || !replaced {
			t.Fatalf("\t%s\tShould adopt the peer's chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould adopt the peer's chain.", success)

		_, err = local.NetRequestPeerStatus(pr)
		if err == nil || !strings.Contains(err.Error(), "unavailable") {
			t.Fatalf("\t%s\tShould surface the peer's error: %v", failed, err)
		}
		t.Logf("\t%s\tShould surface the peer's error.", success)
	}
}

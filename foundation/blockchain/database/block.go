package database

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"strings"
	"time"

	"github.com/iridium/blockchain/foundation/blockchain/genesis"
	"github.com/iridium/blockchain/foundation/blockchain/signature"
)

// Block represents a group of transactions batched together and linked to
// the previous block by its hash.
type Block struct {
	Index        uint64  `json:"index"`         // Position in the chain, genesis is 0.
	Timestamp    int64   `json:"timestamp"`     // Time the block was created, informational only.
	Proof        uint32  `json:"proof"`         // Value identified to solve the hash solution.
	Hash         string  `json:"hash"`          // Cached digest of the block, never trusted.
	PreviousHash *string `json:"previous_hash"` // Hash of the previous block, nil for genesis.
	Transactions []Tx    `json:"transactions"`  // Exactly one reward followed by transfers.
}

// Genesis returns the fixed first block every valid chain starts with.
func Genesis() Block {
	return Block{
		Index:        0,
		Timestamp:    genesis.Timestamp,
		Proof:        0,
		Hash:         "",
		PreviousHash: nil,
		Transactions: []Tx{},
	}
}

// NextBlock constructs the block that follows previous and performs the
// work to find a proof that solves the POW puzzle. The search can only fail
// if the context is cancelled.
func NextBlock(ctx context.Context, previous Block, trans []Tx, ev func(v string, args ...any)) (Block, error) {
	prevHash := previous.Hash

	nb := Block{
		Index:        previous.Index + 1,
		Timestamp:    time.Now().UTC().Unix(),
		PreviousHash: &prevHash,
		Transactions: trans,
	}

	if err := nb.FindProof(ctx, ev); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// FindProof does the work of mining to find a valid hash for the block.
// Pointer semantics are being used since a proof is being discovered.
func (b *Block) FindProof(ctx context.Context, ev func(v string, args ...any)) error {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("database: FindProof: MINING: started: blk[%d]", b.Index)
	defer ev("database: FindProof: MINING: completed: blk[%d]", b.Index)

	// Choose a random starting point for the proof so independent miners
	// racing for the same block don't repeat each other's work.
	var start [4]byte
	if _, err := rand.Read(start[:]); err != nil {
		return err
	}
	b.Proof = binary.BigEndian.Uint32(start[:])

	var attempts uint64
	for {
		attempts++
		if attempts%100_000 == 0 {
			ev("database: FindProof: MINING: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			ev("database: FindProof: MINING: CANCELLED")
			return ctx.Err()
		}

		hash := b.computeHash()
		if isHashSolved(hash) {
			b.Hash = hash
			ev("database: FindProof: MINING: SOLVED: blk[%d]: hash[%s]: attempts[%d]", b.Index, hash, attempts)
			return nil
		}

		// Wraps around on overflow.
		b.Proof++
	}
}

// Validate takes the block and validates it against the previous block in
// the chain. The first failing check is reported.
func (b Block) Validate(previous Block) error {

	// The cached hash is never trusted, the digest is always recomputed.
	hash := b.computeHash()

	if !isHashSolved(hash) {
		return BlockError(b.Index, ErrInvalidProof)
	}

	if b.PreviousHash == nil || *b.PreviousHash != previous.Hash {
		return BlockError(b.Index, ErrPreviousHashMismatch)
	}

	if hash != b.Hash {
		return BlockError(b.Index, ErrHashMismatch)
	}

	var rewards int
	for _, tx := range b.Transactions {
		if _, ok := tx.Reward(); ok {
			rewards++
		}
	}
	if rewards != 1 {
		return BlockError(b.Index, ErrInvalidRewardCount)
	}

	for _, tx := range b.Transactions {
		if err := tx.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Equal reports whether both blocks hold exactly the same data.
func (b Block) Equal(other Block) bool {
	if b.Index != other.Index || b.Timestamp != other.Timestamp || b.Proof != other.Proof || b.Hash != other.Hash {
		return false
	}

	switch {
	case b.PreviousHash == nil && other.PreviousHash == nil:
	case b.PreviousHash == nil || other.PreviousHash == nil:
		return false
	case *b.PreviousHash != *other.PreviousHash:
		return false
	}

	if len(b.Transactions) != len(other.Transactions) {
		return false
	}
	for i := range b.Transactions {
		if b.Transactions[i] != other.Transactions[i] {
			return false
		}
	}

	return true
}

// =============================================================================

// blockView is what gets hashed for a block. The cached hash is excluded
// and the optional previous hash is a list of zero or one element.
type blockView struct {
	Index        uint64
	Timestamp    uint64
	Proof        uint32
	PreviousHash []string
	Transactions []txView
}

// computeHash returns the digest of the block's verifiable view.
func (b Block) computeHash() string {
	view := blockView{
		Index:        b.Index,
		Timestamp:    uint64(b.Timestamp),
		Proof:        b.Proof,
		PreviousHash: []string{},
		Transactions: make([]txView, len(b.Transactions)),
	}

	if b.PreviousHash != nil {
		view.PreviousHash = []string{*b.PreviousHash}
	}

	for i, tx := range b.Transactions {
		view.Transactions[i] = tx.view()
	}

	return signature.Hash(view)
}

// isHashSolved checks the hash to make sure it complies with the POW
// rules. We need to match the work target of leading zeros.
func isHashSolved(hash string) bool {
	return strings.HasPrefix(hash, genesis.WorkTarget())
}

// Package chain maintains the ordered list of mined blocks together with the
// pool of pending transfers and implements the rules for admitting
// transfers, mining blocks and adopting a longer chain.
package chain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iridium/blockchain/foundation/blockchain/database"
	"github.com/iridium/blockchain/foundation/blockchain/genesis"
	"github.com/iridium/blockchain/foundation/blockchain/mempool"
)

// Blockchain is the ledger and the pending pool treated as one unit. It is
// not safe for concurrent mutation; callers serialize writers.
type Blockchain struct {
	blocks    []database.Block
	mempool   *mempool.Mempool
	evHandler func(v string, args ...any)
}

// New constructs a chain holding only the genesis block and an empty pool.
func New(ev func(v string, args ...any)) *Blockchain {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	return &Blockchain{
		blocks:    []database.Block{database.Genesis()},
		mempool:   mempool.New(genesis.PendingTransactionLimit),
		evHandler: ev,
	}
}

// FromBlocks constructs a chain from blocks that were previously persisted.
// The blocks must form a valid chain. An empty set of blocks produces a new
// chain.
func FromBlocks(blocks []database.Block, ev func(v string, args ...any)) (*Blockchain, error) {
	bc := New(ev)
	if len(blocks) == 0 {
		return bc, nil
	}

	if err := validateChain(blocks); err != nil {
		return nil, err
	}

	bc.blocks = copyBlocks(blocks)

	return bc, nil
}

// Len returns the number of blocks in the chain, genesis included.
func (bc *Blockchain) Len() int {
	return len(bc.blocks)
}

// LastBlock returns the tip of the chain. A chain always holds the genesis
// block so an empty chain is a broken invariant.
func (bc *Blockchain) LastBlock() database.Block {
	if len(bc.blocks) == 0 {
		panic("chain: zero-length chains are invalid")
	}

	return bc.blocks[len(bc.blocks)-1]
}

// Blocks returns a copy of the mined blocks in chain order.
func (bc *Blockchain) Blocks() []database.Block {
	return copyBlocks(bc.blocks)
}

// Pending returns the transfers waiting to be mined in admission order.
func (bc *Blockchain) Pending() []database.Transfer {
	return bc.mempool.Copy()
}

// Validate checks every whole-history rule against the mined blocks.
func (bc *Blockchain) Validate() error {
	return validateChain(bc.blocks)
}

// NewTransaction admits a transfer into the pending pool. The index of the
// block the transfer is expected to land in is returned. It is informational
// only.
func (bc *Blockchain) NewTransaction(tr database.Transfer) (uint64, error) {
	if err := tr.Validate(); err != nil {
		return 0, err
	}

	if bc.seen(tr) {
		return 0, database.TransactionError(tr.ID, database.ErrDuplicateID)
	}

	if bc.pendingBalance(tr.Sender) < tr.Amount {
		return 0, database.TransactionError(tr.ID, database.ErrInsufficientBalance)
	}

	if _, err := bc.mempool.Add(tr); err != nil {
		return 0, err
	}

	bc.evHandler("chain: NewTransaction: admitted: tx[%s]: pending[%d]", tr.ID, bc.mempool.Count())

	return bc.LastBlock().Index + 1, nil
}

// Mine turns the pending pool into the next block, rewarding the miner,
// and appends it to the chain. If the context is cancelled before a proof
// is found, nothing changes.
func (bc *Blockchain) Mine(ctx context.Context, miner string) (database.Block, error) {
	trs := bc.mempool.Copy()

	block, err := database.NextBlock(ctx, bc.LastBlock(), BlockTransactions(miner, trs), bc.evHandler)
	if err != nil {
		return database.Block{}, err
	}

	bc.mempool.Drain()
	bc.blocks = append(bc.blocks, block)

	bc.evHandler("chain: Mine: appended: blk[%d]: hash[%s]: trans[%d]", block.Index, block.Hash, len(block.Transactions))

	return block, nil
}

// Tamper overwrites the block at the block's index without any validation.
// A block past the tip is ignored. This exists to demonstrate that
// validation catches a modified history.
func (bc *Blockchain) Tamper(block database.Block) {
	if block.Index >= uint64(len(bc.blocks)) {
		return
	}

	bc.evHandler("chain: Tamper: overwriting blk[%d]", block.Index)

	bc.blocks[block.Index] = block
}

// Balance returns the balance of the account over the mined history. It
// reports the same figure as Balances, a transfer to oneself nets to zero.
func (bc *Blockchain) Balance(account string) int64 {
	var balance int64
	for _, block := range bc.blocks {
		for _, tx := range block.Transactions {
			if sender, ok := tx.Sender(); ok && sender == account {
				balance -= tx.Amount()
			}
			if tx.Recipient() == account {
				balance += tx.Amount()
			}
		}
	}

	return balance
}

// Balances returns the balance of every account seen in the mined history.
func (bc *Blockchain) Balances() map[string]int64 {
	balances := make(map[string]int64)
	for _, block := range bc.blocks {
		for _, tx := range block.Transactions {
			applyBalance(balances, tx)
		}
	}

	return balances
}

// =============================================================================

// ledgerJSON is the wire form of the chain.
type ledgerJSON struct {
	Blocks       []database.Block `json:"blocks"`
	Transactions []database.Tx    `json:"transactions"`
}

// MarshalJSON encodes the mined blocks and the pending transfers.
func (bc *Blockchain) MarshalJSON() ([]byte, error) {
	pending := bc.mempool.Copy()

	lj := ledgerJSON{
		Blocks:       bc.blocks,
		Transactions: make([]database.Tx, len(pending)),
	}
	for i, tr := range pending {
		lj.Transactions[i] = database.TransferTx(tr)
	}

	return json.Marshal(lj)
}

// UnmarshalJSON decodes a chain. The transactions field is optional. The
// decoded chain is not validated, call Validate for that.
func (bc *Blockchain) UnmarshalJSON(data []byte) error {
	var lj ledgerJSON
	if err := json.Unmarshal(data, &lj); err != nil {
		return err
	}

	if len(lj.Blocks) == 0 {
		return fmt.Errorf("chain: zero-length chains are invalid")
	}

	mp := mempool.New(genesis.PendingTransactionLimit)
	for _, tx := range lj.Transactions {
		tr, ok := tx.Transfer()
		if !ok {
			return fmt.Errorf("chain: pending tx[%s] is not a transfer", tx.ID())
		}
		if _, err := mp.Add(tr); err != nil {
			return err
		}
	}

	ev := bc.evHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	*bc = Blockchain{
		blocks:    lj.Blocks,
		mempool:   mp,
		evHandler: ev,
	}

	return nil
}

// =============================================================================

// seen reports whether a transaction with the same id has been mined or is
// pending.
func (bc *Blockchain) seen(tr database.Transfer) bool {
	if bc.mempool.Contains(tr.ID) {
		return true
	}

	for _, block := range bc.blocks {
		for _, tx := range block.Transactions {
			if tx.ID() == tr.ID {
				return true
			}
		}
	}

	return false
}

// pendingBalance returns the balance of the account over mined and pending
// history.
func (bc *Blockchain) pendingBalance(account string) int64 {
	balance := bc.Balance(account)
	for _, tr := range bc.mempool.Copy() {
		balance += database.TransferTx(tr).BalanceChange(account)
	}

	return balance
}

// readmit passes each transfer back through admission. Transfers that no
// longer pass are dropped.
func (bc *Blockchain) readmit(trs []database.Transfer) {
	for _, tr := range trs {
		if _, err := bc.NewTransaction(tr); err != nil {
			bc.evHandler("chain: readmit: dropped: tx[%s]: %s", tr.ID, err)
		}
	}
}

// BlockTransactions builds the transaction list of a new block: the
// miner's reward followed by the transfers.
func BlockTransactions(miner string, trs []database.Transfer) []database.Tx {
	trans := make([]database.Tx, 0, len(trs)+1)
	trans = append(trans, database.RewardTx(database.NewReward(miner)))
	for _, tr := range trs {
		trans = append(trans, database.TransferTx(tr))
	}

	return trans
}

func copyBlocks(blocks []database.Block) []database.Block {
	cpy := make([]database.Block, len(blocks))
	copy(cpy, blocks)
	return cpy
}

package chain

import (
	"github.com/google/uuid"
	"github.com/iridium/blockchain/foundation/blockchain/database"
)

// Replace adopts the candidate chain when it is strictly longer than the
// local one and valid as a whole. The bool reports whether the chain was
// replaced. Pending transfers are re-admitted against the new history and
// the ones that no longer pass are dropped.
func (bc *Blockchain) Replace(candidate []database.Block) (bool, error) {
	if len(candidate) <= len(bc.blocks) {
		bc.evHandler("chain: Replace: ignored: candidate[%d] local[%d]", len(candidate), len(bc.blocks))
		return false, nil
	}

	if err := validateChain(candidate); err != nil {
		return false, err
	}

	bc.blocks = copyBlocks(candidate)

	bc.evHandler("chain: Replace: adopted: blocks[%d]", len(bc.blocks))

	bc.readmit(bc.mempool.Drain())

	return true, nil
}

// AddBlock appends a block mined elsewhere to the tip of the chain. The
// block must follow the tip and keep the history valid. Transfers it
// carries leave the pool and the remaining ones are re-admitted.
func (bc *Blockchain) AddBlock(block database.Block) error {
	if err := block.Validate(bc.LastBlock()); err != nil {
		return err
	}

	blocks := append(copyBlocks(bc.blocks), block)
	if err := validateHistory(blocks); err != nil {
		return err
	}

	bc.blocks = blocks

	bc.evHandler("chain: AddBlock: appended: blk[%d]: hash[%s]", block.Index, block.Hash)

	mined := make([]uuid.UUID, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		mined = append(mined, tx.ID())
	}
	bc.mempool.Remove(mined...)

	bc.readmit(bc.mempool.Drain())

	return nil
}

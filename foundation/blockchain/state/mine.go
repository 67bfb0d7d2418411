package state

import (
	"context"

	"github.com/iridium/blockchain/foundation/blockchain/chain"
	"github.com/iridium/blockchain/foundation/blockchain/database"
)

// MineNewBlock creates the next block, rewarding the specified miner, and
// appends it to the chain. The proof is searched without holding the lock
// on a snapshot of the tip and the pool. If the tip moved while searching,
// the block fails with PreviousHashMismatch and the pool is left intact.
func (s *State) MineNewBlock(ctx context.Context, miner string) (database.Block, error) {
	if miner == "" {
		miner = s.minerName
	}

	s.evHandler("state: MineNewBlock: MINING: snapshot tip and mempool")

	s.mu.RLock()
	tip := s.chain.LastBlock()
	pending := s.chain.Pending()
	s.mu.RUnlock()

	s.evHandler("state: MineNewBlock: MINING: perform POW: blk[%d]: trans[%d]", tip.Index+1, len(pending))

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := database.NextBlock(ctx, tip, chain.BlockTransactions(miner, pending), s.evHandler)
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: validate and update chain")

	if err := s.appendBlock(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the chain.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: blk[%d]: hash[%s]", block.Index, block.Hash)
	defer s.evHandler("state: ProcessProposedBlock: completed")

	// If a mining operation is running it's about to lose the race.
	s.Worker.SignalCancelMining()

	if err := s.appendBlock(block); err != nil {
		return err
	}

	// Transfers this block didn't carry still need mining.
	s.Worker.SignalStartMining()

	return nil
}

// =============================================================================

// appendBlock adds the block to the tip of the chain and writes it to
// storage.
func (s *State) appendBlock(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.chain.AddBlock(block); err != nil {
		s.evHandler("state: appendBlock: REJECTED: blk[%d]: %s", block.Index, err)
		return err
	}

	// Storage is keyed by chain position, not by the index the block carries.
	position := uint64(s.chain.Len() - 1)

	s.evHandler("state: appendBlock: write to storage: blk[%d]: position[%d]", block.Index, position)

	return s.storage.Write(position, block)
}

package state

import (
	"fmt"

	"github.com/iridium/blockchain/foundation/blockchain/database"
	"github.com/iridium/blockchain/foundation/blockchain/storage"
)

// ReplaceChain adopts the candidate chain if it's strictly longer than
// the local one and fully valid. The bool reports whether it was adopted.
func (s *State) ReplaceChain(candidate []database.Block) (bool, error) {
	s.evHandler("state: ReplaceChain: started: candidate[%d]", len(candidate))
	defer s.evHandler("state: ReplaceChain: completed")

	s.mu.Lock()
	defer s.mu.Unlock()

	replaced, err := s.chain.Replace(candidate)
	if err != nil {
		s.evHandler("state: ReplaceChain: REJECTED: %s", err)
		return false, err
	}

	if !replaced {
		return false, nil
	}

	// Any block being mined now sits on a stale tip.
	s.Worker.SignalCancelMining()

	s.evHandler("state: ReplaceChain: rewrite storage: blocks[%d]", s.chain.Len())

	if err := storage.Rewrite(s.storage, s.chain.Blocks()); err != nil {
		return true, fmt.Errorf("persisting chain: %w", err)
	}

	return true, nil
}

// Tamper overwrites a block in place without validation. It exists to show
// that validation catches a modified history and must be enabled. The
// change lives in memory only so the node can still restart from storage.
func (s *State) Tamper(block database.Block) error {
	if !s.allowTamper {
		return ErrTamperDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if block.Index >= uint64(s.chain.Len()) {
		s.evHandler("state: Tamper: ignored: blk[%d] past tip", block.Index)
		return nil
	}

	s.chain.Tamper(block)

	s.evHandler("state: Tamper: blk[%d]: memory only", block.Index)

	return nil
}

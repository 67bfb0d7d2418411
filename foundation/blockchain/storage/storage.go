// Package storage defines the contract for persisting blocks and the
// helpers for loading and rewriting a chain through it.
package storage

import (
	"errors"
	"fmt"

	"github.com/iridium/blockchain/foundation/blockchain/database"
)

// ErrNotFound is returned when a block does not exist in storage.
var ErrNotFound = errors.New("block not found")

// ErrEndOfChain is returned when an iterator is asked for more blocks after
// it reached the end of the chain.
var ErrEndOfChain = errors.New("end of chain")

// Serializer represents the behavior required to be implemented by any
// package providing support for reading and writing blocks.
type Serializer interface {
	Write(index uint64, block database.Block) error
	GetBlock(index uint64) (database.Block, error)
	ForEach() Iterator
	Reset() error
	Close() error
}

// Rewriter is implemented by a Serializer that can replace its whole
// content in one atomic step.
type Rewriter interface {
	Rewrite(blocks []database.Block) error
}

// Iterator represents the behavior required to be implemented by any
// package providing support to iterate over the blocks, starting with the
// genesis block.
type Iterator interface {
	Next() (database.Block, error)
	Done() bool
}

// =============================================================================

// ReadAllBlocks loads all existing blocks from storage into memory in chain
// position order. In a real world situation this would require a lot of
// memory.
func ReadAllBlocks(s Serializer) ([]database.Block, error) {
	var blocks []database.Block

	iter := s.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		blocks = append(blocks, block)
	}

	return blocks, nil
}

// Rewrite replaces everything in storage with the specified blocks. Blocks
// are stored by their position in the slice, never by the index they
// carry. A Serializer implementing Rewriter does it in one step.
func Rewrite(s Serializer, blocks []database.Block) error {
	if rw, ok := s.(Rewriter); ok {
		return rw.Rewrite(blocks)
	}

	if err := s.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	for i, block := range blocks {
		if err := s.Write(uint64(i), block); err != nil {
			return fmt.Errorf("write block %d: %w", i, err)
		}
	}

	return nil
}

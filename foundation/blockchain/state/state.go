// Package state is the core API for the blockchain node. It owns the chain
// behind a lock, persists every accepted change and talks to the peers.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/iridium/blockchain/foundation/blockchain/chain"
	"github.com/iridium/blockchain/foundation/blockchain/database"
	"github.com/iridium/blockchain/foundation/blockchain/peer"
	"github.com/iridium/blockchain/foundation/blockchain/storage"
)

// ErrTamperDisabled is returned when a block overwrite is requested on a
// node that does not allow it.
var ErrTamperDisabled = errors.New("tampering is disabled on this node")

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, peer updates, and transaction sharing.
type Worker interface {
	Shutdown()
	Sync()
	SignalStartMining()
	SignalCancelMining()
	SignalShareTx(tr database.Transfer)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	MinerName   string
	Host        string
	Storage     storage.Serializer
	KnownPeers  *peer.PeerSet
	AllowTamper bool
	EvHandler   EventHandler
}

// State manages the blockchain. Writers take the exclusive lock and
// readers the shared one. Proof of work is never searched under the lock.
type State struct {
	minerName   string
	host        string
	allowTamper bool
	evHandler   EventHandler

	knownPeers *peer.PeerSet
	storage    storage.Serializer

	mu    sync.RWMutex
	chain *chain.Blockchain

	Worker Worker
}

// New constructs a new blockchain for data management. Blocks already in
// storage are loaded and validated as a whole.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	// Load all existing blocks from storage into memory for processing.
	blocks, err := storage.ReadAllBlocks(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("reading blocks: %w", err)
	}

	bc, err := chain.FromBlocks(blocks, ev)
	if err != nil {
		return nil, fmt.Errorf("loading chain: %w", err)
	}

	// A fresh storage area starts with the genesis block.
	if len(blocks) == 0 {
		if err := cfg.Storage.Write(0, bc.LastBlock()); err != nil {
			return nil, fmt.Errorf("writing genesis: %w", err)
		}
	}

	ev("state: New: loaded blocks[%d]", bc.Len())

	state := State{
		minerName:   cfg.MinerName,
		host:        cfg.Host,
		allowTamper: cfg.AllowTamper,
		evHandler:   ev,
		knownPeers:  knownPeers,
		storage:     cfg.Storage,
		chain:       bc,

		// The worker package replaces this when the node starts.
		Worker: nopWorker{},
	}

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Make sure the database file is properly closed.
	defer func() {
		s.storage.Close()
	}()

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()

	return nil
}

// =============================================================================

// nopWorker is used until a real worker registers itself.
type nopWorker struct{}

func (nopWorker) Shutdown() {}
func (nopWorker) Sync() {}
func (nopWorker) SignalStartMining() {}
func (nopWorker) SignalCancelMining() {}
func (nopWorker) SignalShareTx(database.Transfer) {}

// Package mempool maintains the pool of pending transfers waiting to be
// mined into the next block.
package mempool

import (
	"sync"

	"github.com/google/uuid"
	"github.com/iridium/blockchain/foundation/blockchain/database"
)

// Mempool represents an ordered cache of transfers with a fixed capacity.
// Order of admission is preserved so blocks are mined first come first
// served.
type Mempool struct {
	pool  []database.Transfer
	limit int
	mu    sync.RWMutex
}

// New constructs a new mempool that holds at most limit transfers.
func New(limit int) *Mempool {
	return &Mempool{
		pool:  make([]database.Transfer, 0, limit),
		limit: limit,
	}
}

// Count returns the current number of transfers in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add appends a transfer to the end of the pool. The transfer is not
// validated, that is the job of the chain.
func (mp *Mempool) Add(tr database.Transfer) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if len(mp.pool) >= mp.limit {
		return len(mp.pool), database.ChainError(database.ErrPendingTransactionLimitReached)
	}

	mp.pool = append(mp.pool, tr)

	return len(mp.pool), nil
}

// Contains reports whether a transfer with the specified id is pending.
func (mp *Mempool) Contains(id uuid.UUID) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	for _, tr := range mp.pool {
		if tr.ID == id {
			return true
		}
	}

	return false
}

// Copy returns the pending transfers in admission order.
func (mp *Mempool) Copy() []database.Transfer {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	cpy := make([]database.Transfer, len(mp.pool))
	copy(cpy, mp.pool)

	return cpy
}

// Drain returns the pending transfers in admission order and empties the
// pool.
func (mp *Mempool) Drain() []database.Transfer {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	trs := mp.pool
	mp.pool = make([]database.Transfer, 0, mp.limit)

	return trs
}

// Remove deletes the transfers with the specified ids, keeping the order
// of the remaining ones.
func (mp *Mempool) Remove(ids ...uuid.UUID) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	drop := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	keep := mp.pool[:0]
	for _, tr := range mp.pool {
		if _, exists := drop[tr.ID]; !exists {
			keep = append(keep, tr)
		}
	}
	mp.pool = keep
}

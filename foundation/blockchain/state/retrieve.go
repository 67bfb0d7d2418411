package state

import (
	"encoding/json"

	"github.com/iridium/blockchain/foundation/blockchain/database"
	"github.com/iridium/blockchain/foundation/blockchain/peer"
)

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveChain returns a copy of the mined blocks.
func (s *State) RetrieveChain() []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.Blocks()
}

// RetrieveLedger returns the encoded chain with its pending transfers, the
// form nodes exchange with each other.
func (s *State) RetrieveLedger() (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return json.Marshal(s.chain)
}

// RetrieveLatestBlock returns a copy of the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.LastBlock()
}

// RetrieveMempool returns a copy of the pending transfers.
func (s *State) RetrieveMempool() []database.Transfer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.Pending()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.chain.Pending())
}

// QueryChainLength returns the number of blocks, genesis included.
func (s *State) QueryChainLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.Len()
}

// QueryBalances returns the mined balances. If an account is specified,
// only that account is returned.
func (s *State) QueryBalances(account string) map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if account != "" {
		return map[string]int64{account: s.chain.Balance(account)}
	}

	return s.chain.Balances()
}

// ValidateChain runs the whole-history validation on the local chain.
func (s *State) ValidateChain() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.Validate()
}

// RetrievePeerStatus returns the status this node reports to its peers.
func (s *State) RetrievePeerStatus() peer.PeerStatus {
	latest := s.RetrieveLatestBlock()

	return peer.PeerStatus{
		LatestBlockHash:  latest.Hash,
		LatestBlockIndex: latest.Index,
		KnownPeers:       s.RetrieveKnownPeers(),
	}
}

// =============================================================================

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// AddKnownPeer provides the ability to add a new peer to the known peer list.
// This node is never added.
func (s *State) AddKnownPeer(pr peer.Peer) bool {
	if pr.Match(s.host) {
		return false
	}

	return s.knownPeers.Add(pr)
}

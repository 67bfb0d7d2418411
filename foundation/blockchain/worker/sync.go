package worker

import (
	"github.com/iridium/blockchain/foundation/blockchain/peer"
)

// peerOperations handles finding new peers and longer chains.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.Sync()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// Sync updates the peer list and adopts the longest valid chain among the
// peers.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetRequestPeerStatus(pr)
		if err != nil {
			w.evHandler("worker: sync: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		// Only a strictly longer chain can be adopted.
		if peerStatus.LatestBlockIndex < uint64(w.state.QueryChainLength()) {
			continue
		}

		w.evHandler("worker: sync: retrievePeerChain: %s: latestBlockIndex[%d]", pr.Host, peerStatus.LatestBlockIndex)

		blocks, err := w.state.NetRequestPeerChain(pr)
		if err != nil {
			w.evHandler("worker: sync: retrievePeerChain: %s: ERROR: %s", pr.Host, err)
			continue
		}

		if _, err := w.state.ReplaceChain(blocks); err != nil {
			w.evHandler("worker: sync: replaceChain: %s: ERROR: %s", pr.Host, err)
		}
	}

	// Let the peers know this node is available to chat.
	for _, pr := range w.state.RetrieveKnownPeers() {
		if err := w.state.NetRequestAddPeer(pr); err != nil {
			w.evHandler("worker: sync: addPeer: %s: ERROR: %s", pr.Host, err)
		}
	}
}

// addNewPeers takes the list of known peers and makes sure they are included
// in the nodes list of know peers.
func (w *Worker) addNewPeers(knownPeers []peer.Peer) {
	w.evHandler("worker: sync: addNewPeers: started")
	defer w.evHandler("worker: sync: addNewPeers: completed")

	for _, pr := range knownPeers {
		if w.state.AddKnownPeer(pr) {
			w.evHandler("worker: sync: addNewPeers: adding peer-node %s", pr.Host)
		}
	}
}

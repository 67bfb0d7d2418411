// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/iridium/blockchain/business/web/errs"
	"github.com/iridium/blockchain/foundation/blockchain/database"
	"github.com/iridium/blockchain/foundation/blockchain/peer"
	"github.com/iridium/blockchain/foundation/blockchain/state"
	"github.com/iridium/blockchain/foundation/nameservice"
	"github.com/iridium/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
}

// SubmitNodeTransaction adds a transfer shared by a peer to the mempool.
func (h Handlers) SubmitNodeTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Decode the JSON in the post call into a transfer.
	var tr database.Transfer
	if err := web.Decode(r, &tr); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	// Ask the state package to add this transfer to the mempool. The same
	// admission rules as a wallet submission apply.
	h.Log.Infow("add node tran", "traceid", v.TraceID, "id", tr.ID, "sender", h.NS.Lookup(tr.Sender), "recipient", h.NS.Lookup(tr.Recipient), "amount", tr.Amount)

	index, err := h.State.SubmitNodeTransaction(tr)
	if err != nil {
		return err
	}

	resp := struct {
		BlockIndex uint64 `json:"block_index"`
	}{
		BlockIndex: index,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ProposeBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	// Decode the JSON in the post call into a block.
	var block database.Block
	if err := web.Decode(r, &block); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	// Ask the state package to validate the proposed block. If the block
	// passes validation, it will be added to the blockchain.
	if err := h.State.ProcessProposedBlock(block); err != nil {

		// The peer is building on a tip we don't have.
		if errors.Is(err, database.ErrPreviousHashMismatch) {
			go h.State.Worker.Sync()
		}

		return err
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ReplaceChain adopts the candidate chain when it's longer than the local
// chain and valid.
func (h Handlers) ReplaceChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var candidate []database.Block
	if err := web.Decode(r, &candidate); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	replaced, err := h.State.ReplaceChain(candidate)
	if err != nil {
		return err
	}

	resp := struct {
		Replaced bool `json:"replaced"`
		Length   int  `json:"length"`
	}{
		Replaced: replaced,
		Length:   h.State.QueryChainLength(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Tamper overwrites a block in place. The node must be started with
// tampering allowed.
func (h Handlers) Tamper(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var block database.Block
	if err := web.Decode(r, &block); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("tamper", "traceid", web.GetTraceID(ctx), "index", block.Index)

	if err := h.State.Tamper(block); err != nil {
		if errors.Is(err, state.ErrTamperDisabled) {
			return errs.NewTrusted(err, http.StatusForbidden)
		}
		return err
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "tampered",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrievePeerStatus(), http.StatusOK)
}

// Chain returns the node's ledger, blocks and pending transfers.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ledger, err := h.State.RetrieveLedger()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, ledger, http.StatusOK)
}

// AddPeer records a peer that announced itself to this node.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var pr peer.Peer
	if err := web.Decode(r, &pr); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if pr.Host == "" {
		return errs.NewTrusted(errors.New("peer host is required"), http.StatusBadRequest)
	}

	added := h.State.AddKnownPeer(peer.New(pr.Host))
	if added {
		h.Log.Infow("add peer", "traceid", web.GetTraceID(ctx), "host", pr.Host)
	}

	resp := struct {
		Added bool `json:"added"`
	}{
		Added: added,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

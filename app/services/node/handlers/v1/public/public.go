// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iridium/blockchain/business/sys/validate"
	"github.com/iridium/blockchain/business/web/errs"
	"github.com/iridium/blockchain/foundation/blockchain/database"
	"github.com/iridium/blockchain/foundation/blockchain/peer"
	"github.com/iridium/blockchain/foundation/blockchain/state"
	"github.com/iridium/blockchain/foundation/events"
	"github.com/iridium/blockchain/foundation/nameservice"
	"github.com/iridium/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt, wd := <-ch:
			if !wd {
				return nil
			}

			data, err := json.Marshal(evt)
			if err != nil {
				return err
			}

			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitWalletTransaction adds a new signed transfer to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tr transfer
	if err := web.Decode(r, &tr); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(tr); err != nil {
		return fmt.Errorf("validating data: %w", err)
	}

	h.Log.Infow("add user tran", "traceid", v.TraceID, "id", tr.ID, "sender", h.NS.Lookup(tr.Sender), "recipient", h.NS.Lookup(tr.Recipient), "amount", tr.Amount)

	index, err := h.State.SubmitWalletTransaction(tr.toDatabase())
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, submitted{BlockIndex: index}, http.StatusOK)
}

// Chain returns the full set of mined blocks.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.State.RetrieveChain()

	resp := chainInfo{
		Blocks: blocks,
		Length: len(blocks),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ValidateChain runs the full validation of the local chain. An invalid
// chain is still a successful request.
func (h Handlers) ValidateChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := validity{
		Valid: true,
	}

	if err := h.State.ValidateChain(); err != nil {
		resp = validity{
			Error:  err.Error(),
			Ledger: database.GetError(err),
		}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of uncommitted transfers.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pool := h.State.RetrieveMempool()

	trans := make([]pending, len(pool))
	for i, tr := range pool {
		trans[i] = pending{
			ID:            tr.ID,
			Amount:        tr.Amount,
			Sender:        tr.Sender,
			SenderName:    h.NS.Lookup(tr.Sender),
			Recipient:     tr.Recipient,
			RecipientName: h.NS.Lookup(tr.Recipient),
			Signature:     tr.Signature,
		}
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Mine mines the pending transfers into a new block. The miner defaults to
// the node's miner when the request body doesn't name one.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req mineRequest
	if err := web.Decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	block, err := h.State.MineNewBlock(ctx, req.Miner)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// Balances returns the current balances for all accounts or the one
// account specified.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	// A wallet name is accepted in place of the account.
	account := h.NS.Account(web.Param(r, "account"))

	bals := h.State.QueryBalances(account)

	list := make([]balance, 0, len(bals))
	for acct, bal := range bals {
		list = append(list, balance{
			Account: acct,
			Name:    h.NS.Lookup(acct),
			Balance: bal,
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Account < list[j].Account })

	resp := balances{
		LatestBlock: h.State.RetrieveLatestBlock().Hash,
		Uncommitted: h.State.QueryMempoolLength(),
		Balances:    list,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// RegisterPeers adds the specified hosts to the set of known peers.
func (h Handlers) RegisterPeers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var reg registration
	if err := web.Decode(r, &reg); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(reg); err != nil {
		return fmt.Errorf("validating data: %w", err)
	}

	for _, host := range reg.Hosts {
		pr := peer.New(host)
		if h.State.AddKnownPeer(pr) {
			h.Log.Infow("register peer", "traceid", web.GetTraceID(ctx), "host", pr.Host)
		}
	}

	// Pick up the newly known chains right away.
	go h.State.Worker.Sync()

	return web.Respond(ctx, w, h.State.RetrieveKnownPeers(), http.StatusOK)
}

// Peers returns the set of known peers.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveKnownPeers(), http.StatusOK)
}

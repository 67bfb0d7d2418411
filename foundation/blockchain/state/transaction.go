package state

import "github.com/iridium/blockchain/foundation/blockchain/database"

// SubmitWalletTransaction accepts a transfer from a wallet for inclusion.
// Accepted transfers are shared with the known peers. The index of the
// block the transfer is expected to land in is returned.
func (s *State) SubmitWalletTransaction(tr database.Transfer) (uint64, error) {
	index, err := s.admit(tr)
	if err != nil {
		return 0, err
	}

	s.Worker.SignalShareTx(tr)
	s.Worker.SignalStartMining()

	return index, nil
}

// SubmitNodeTransaction accepts a transfer shared by another node. It is
// not shared again.
func (s *State) SubmitNodeTransaction(tr database.Transfer) (uint64, error) {
	index, err := s.admit(tr)
	if err != nil {
		return 0, err
	}

	s.Worker.SignalStartMining()

	return index, nil
}

// =============================================================================

// admit runs the transfer through the chain's admission rules.
func (s *State) admit(tr database.Transfer) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.chain.NewTransaction(tr)
	if err != nil {
		s.evHandler("state: admit: REJECTED: tx[%s]: %s", tr.ID, err)
		return 0, err
	}

	s.evHandler("state: admit: tx[%s]: from[%s]: to[%s]: amount[%d]", tr.ID, short(tr.Sender), short(tr.Recipient), tr.Amount)

	return index, nil
}

// short trims long account ids for the event log.
func short(account string) string {
	if len(account) > 16 {
		return account[:16]
	}
	return account
}

package chain

import (
	"github.com/google/uuid"
	"github.com/iridium/blockchain/foundation/blockchain/database"
)

// validateChain checks, in order, the genesis block, the linkage and
// contents of every following block, that no transaction id repeats and
// that no account balance ever goes negative.
func validateChain(blocks []database.Block) error {
	if len(blocks) == 0 || !blocks[0].Equal(database.Genesis()) {
		return database.BlockError(0, database.ErrGenesisBlockMismatch)
	}

	for i := 1; i < len(blocks); i++ {
		if err := blocks[i].Validate(blocks[i-1]); err != nil {
			return err
		}
	}

	return validateHistory(blocks)
}

// validateHistory runs the global duplicate and balance checks.
func validateHistory(blocks []database.Block) error {
	if err := validateDuplicates(blocks); err != nil {
		return err
	}

	return validateBalances(blocks)
}

// validateDuplicates fails on the first transaction whose id was already
// seen earlier in the history.
func validateDuplicates(blocks []database.Block) error {
	ids := make(map[uuid.UUID]struct{})
	for _, block := range blocks {
		for _, tx := range block.Transactions {
			if _, exists := ids[tx.ID()]; exists {
				return database.TransactionError(tx.ID(), database.ErrDuplicateID)
			}
			ids[tx.ID()] = struct{}{}
		}
	}

	return nil
}

// validateBalances replays every transaction in chain order and fails if
// any account is ever left with a negative balance. Rewards are credits
// with no matching debit.
func validateBalances(blocks []database.Block) error {
	balances := make(map[string]int64)
	for _, block := range blocks {
		for _, tx := range block.Transactions {
			if !applyBalance(balances, tx) {
				return database.ChainError(database.ErrInvalidBalance)
			}
		}
	}

	return nil
}

// applyBalance debits the sender and credits the recipient. It reports
// false if the sender went negative.
func applyBalance(balances map[string]int64, tx database.Tx) bool {
	ok := true
	if sender, isTransfer := tx.Sender(); isTransfer {
		balances[sender] -= tx.Amount()
		ok = balances[sender] >= 0
	}

	balances[tx.Recipient()] += tx.Amount()

	return ok
}

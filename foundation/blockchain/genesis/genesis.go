// Package genesis maintains the protocol settings every node on the network
// must agree on. Changing any of these values forks the chain.
package genesis

const (
	// Timestamp is the creation time of the genesis block.
	Timestamp int64 = 1_509_904_677

	// MinerReward is the amount issued to the miner of every block.
	MinerReward int64 = 100

	// Difficulty is the number of leading hex zeros a block hash needs
	// to solve the work problem.
	Difficulty = 4

	// PendingTransactionLimit is the maximum number of transfers that can
	// wait in the mempool for the next block.
	PendingTransactionLimit = 4
)

// WorkTarget returns the hex prefix a solved block hash must start with.
func WorkTarget() string {
	const zeros = "0000000000000000"
	return zeros[:Difficulty]
}

// Package database holds the ledger data model: the transactions, the
// blocks that batch them together, and the structured errors reported
// when either fails validation.
package database

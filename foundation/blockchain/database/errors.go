package database

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Scope identifies which kind of entity an error is attributed to.
type Scope string

// Set of scopes an error can belong to.
const (
	ScopeTransaction Scope = "Transaction"
	ScopeBlock       Scope = "Block"
	ScopeChain       Scope = "Chain"
)

// Kind is the reason a ledger operation failed. Every kind is an error
// value so callers can match with errors.Is.
type Kind string

// Transaction error kinds. These carry the id of the offending transaction.
const (
	ErrInvalidSignature      Kind = "InvalidSignature"
	ErrInsufficientBalance   Kind = "InsufficientBalance"
	ErrInvalidAmount         Kind = "InvalidAmount"
	ErrDuplicateID           Kind = "DuplicateId"
	ErrMismatchedMinerReward Kind = "MismatchedMinerReward"
)

// Block error kinds. These carry the index of the offending block.
const (
	ErrGenesisBlockMismatch Kind = "GenesisBlockMismatch"
	ErrHashMismatch         Kind = "HashMismatch"
	ErrInvalidProof         Kind = "InvalidProof"
	ErrPreviousHashMismatch Kind = "PreviousHashMismatch"
	ErrInvalidRewardCount   Kind = "InvalidRewardCount"
)

// Chain error kinds. These carry no additional context.
const (
	ErrInvalidBalance                 Kind = "InvalidBalance"
	ErrPendingTransactionLimitReached Kind = "PendingTransactionLimitReached"
)

// Error implements the error interface.
func (k Kind) Error() string {
	return string(k)
}

// Scope returns the scope the kind belongs to.
func (k Kind) Scope() Scope {
	switch k {
	case ErrInvalidSignature, ErrInsufficientBalance, ErrInvalidAmount, ErrDuplicateID, ErrMismatchedMinerReward:
		return ScopeTransaction
	case ErrGenesisBlockMismatch, ErrHashMismatch, ErrInvalidProof, ErrPreviousHashMismatch, ErrInvalidRewardCount:
		return ScopeBlock
	default:
		return ScopeChain
	}
}

// =============================================================================

// Error is the structured failure reported by every ledger validation.
type Error struct {
	Kind  Kind
	ID    uuid.UUID // Set for transaction scoped errors.
	Index uint64    // Set for block scoped errors.
}

// TransactionError constructs an error attributed to a transaction.
func TransactionError(id uuid.UUID, kind Kind) *Error {
	return &Error{Kind: kind, ID: id}
}

// BlockError constructs an error attributed to a block.
func BlockError(index uint64, kind Kind) *Error {
	return &Error{Kind: kind, Index: index}
}

// ChainError constructs an error attributed to the chain as a whole.
func ChainError(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind.Scope() {
	case ScopeTransaction:
		return fmt.Sprintf("transaction %s: %s", e.ID, e.Kind)
	case ScopeBlock:
		return fmt.Sprintf("block %d: %s", e.Index, e.Kind)
	default:
		return fmt.Sprintf("chain: %s", e.Kind)
	}
}

// Unwrap returns the kind so errors.Is can match on it.
func (e *Error) Unwrap() error {
	return e.Kind
}

// IsError checks if an error of type Error exists in the chain.
func IsError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// GetError returns a copy of the Error pointer.
func GetError(err error) *Error {
	var e *Error
	if !errors.As(err, &e) {
		return nil
	}
	return e
}

// =============================================================================

type errorJSON struct {
	Type  Scope      `json:"type"`
	ID    *uuid.UUID `json:"id,omitempty"`
	Index *uint64    `json:"index,omitempty"`
	Kind  Kind       `json:"kind"`
}

// MarshalJSON produces the external encoding of the error, tagged by scope.
func (e *Error) MarshalJSON() ([]byte, error) {
	ej := errorJSON{
		Type: e.Kind.Scope(),
		Kind: e.Kind,
	}

	switch ej.Type {
	case ScopeTransaction:
		id := e.ID
		ej.ID = &id
	case ScopeBlock:
		index := e.Index
		ej.Index = &index
	}

	return json.Marshal(ej)
}

// UnmarshalJSON decodes the external encoding of the error.
func (e *Error) UnmarshalJSON(data []byte) error {
	var ej errorJSON
	if err := json.Unmarshal(data, &ej); err != nil {
		return err
	}

	if ej.Kind.Scope() != ej.Type {
		return fmt.Errorf("error kind %q does not belong to %q", ej.Kind, ej.Type)
	}

	*e = Error{Kind: ej.Kind}
	if ej.ID != nil {
		e.ID = *ej.ID
	}
	if ej.Index != nil {
		e.Index = *ej.Index
	}

	return nil
}

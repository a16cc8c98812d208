package database

import "errors"

// Set of error variables for ledger operations. Callers use errors.Is to
// tell validation problems apart from chain integrity problems.
var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrAmountRange       = errors.New("amount is out of range")
	ErrInvalidAddress    = errors.New("invalid address")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDiscontinuous     = errors.New("block does not continue the chain")
)

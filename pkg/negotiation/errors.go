package negotiation

import (
	"errors"
	"fmt"
)

// Kind groups error codes by who is expected to recover from them.
type Kind int

const (
	// KindValidation errors reject a single mutation and leave the session unchanged.
	KindValidation Kind = iota
	// KindState errors are raised at the registry/session boundary.
	KindState
	// KindSettlement errors come from the settlement collaborator.
	KindSettlement
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindSettlement:
		return "settlement"
	default:
		return "unknown"
	}
}

// Code is a machine-readable error code.
type Code string

const (
	CodeCapacityExceeded    Code = "capacity_exceeded"
	CodeNegativeAmount      Code = "negative_amount"
	CodeInsufficientFunds   Code = "insufficient_funds"
	CodeIncompleteSelection Code = "incomplete_selection"
	CodeIndexOutOfRange     Code = "index_out_of_range"
	CodeInvalidSelection    Code = "invalid_selection"
	CodeInvalidItem         Code = "invalid_item"
	CodeBalanceUnavailable  Code = "balance_unavailable"

	CodeAlreadyPaired   Code = "already_paired"
	CodeBusy            Code = "busy"
	CodeNotFound        Code = "not_found"
	CodeAlreadyTerminal Code = "already_terminal"
	CodeSelfPairing     Code = "self_pairing"
	CodeInternal        Code = "internal"

	CodeSettlementFailed Code = "settlement_failed"
)

// Kind returns the category the code belongs to.
func (c Code) Kind() Kind {
	switch c {
	case CodeCapacityExceeded, CodeNegativeAmount, CodeInsufficientFunds, CodeIncompleteSelection,
		CodeIndexOutOfRange, CodeInvalidSelection, CodeInvalidItem, CodeBalanceUnavailable:
		return KindValidation
	case CodeSettlementFailed:
		return KindSettlement
	default:
		return KindState
	}
}

// Error is the error type returned by sessions and the registry.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code, so that
// errors.Is(err, ErrCapacityExceeded) matches any capacity error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func newError(code Code, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func wrapError(code Code, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

var (
	ErrCapacityExceeded    = newError(CodeCapacityExceeded, "stake is at capacity")
	ErrNegativeAmount      = newError(CodeNegativeAmount, "amount must not be negative")
	ErrInsufficientFunds   = newError(CodeInsufficientFunds, "insufficient funds")
	ErrIncompleteSelection = newError(CodeIncompleteSelection, "selection is incomplete")
	ErrIndexOutOfRange     = newError(CodeIndexOutOfRange, "index out of range")
	ErrInvalidSelection    = newError(CodeInvalidSelection, "invalid selection")
	ErrInvalidItem         = newError(CodeInvalidItem, "invalid item")
	ErrBalanceUnavailable  = newError(CodeBalanceUnavailable, "balance unavailable")

	ErrAlreadyPaired   = newError(CodeAlreadyPaired, "party already has a live session")
	ErrBusy            = newError(CodeBusy, "party is engaged elsewhere")
	ErrNotFound        = newError(CodeNotFound, "not found")
	ErrAlreadyTerminal = newError(CodeAlreadyTerminal, "session is already terminal")
	ErrSelfPairing     = newError(CodeSelfPairing, "a session needs two distinct parties")
	ErrInternal        = newError(CodeInternal, "internal error")

	ErrSettlementFailed = newError(CodeSettlementFailed, "settlement failed")
)

// CodeOf returns the code of the first *Error in err's chain, or "" if there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsValidation reports whether err is a rejected mutation.
func IsValidation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code.Kind() == KindValidation
}

// IsState reports whether err is a registry or lifecycle error.
func IsState(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code.Kind() == KindState
}

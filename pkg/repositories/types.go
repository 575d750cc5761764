package repositories

import (
	"errors"
	"fmt"
)

type ErrNotFound struct {
	PartyID string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("wallet %s not found", e.PartyID)
}

func IsNotFound(err error) bool {
	var target *ErrNotFound
	return errors.As(err, &target)
}

type ErrInsufficientBalance struct {
	PartyID string
	Amount  int64
}

func (e *ErrInsufficientBalance) Error() string {
	return fmt.Sprintf("wallet %s cannot cover %d", e.PartyID, e.Amount)
}

func IsInsufficientBalance(err error) bool {
	var target *ErrInsufficientBalance
	return errors.As(err, &target)
}

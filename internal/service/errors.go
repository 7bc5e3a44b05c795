package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidInput      = errors.New("invalid input")
	ErrLimitExceeded     = errors.New("deposit limit exceeded")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyPaid       = errors.New("job already paid")
	ErrInternal          = errors.New("internal error")
)

type ErrorKind string

const (
	KindNotFound          ErrorKind = "NotFound"
	KindPermissionDenied  ErrorKind = "PermissionDenied"
	KindInvalidArgument   ErrorKind = "InvalidArgument"
	KindLimitExceeded     ErrorKind = "LimitExceeded"
	KindInsufficientFunds ErrorKind = "InsufficientFunds"
	KindAlreadyPaid       ErrorKind = "AlreadyPaid"
	KindInternal          ErrorKind = "Internal"
)

// Kind classifies err into one of the error kinds callers can branch on.
// Anything unrecognised is Internal.
func Kind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidArgument
	case errors.Is(err, ErrLimitExceeded):
		return KindLimitExceeded
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrAlreadyPaid):
		return KindAlreadyPaid
	default:
		return KindInternal
	}
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return internal(err)
}

func internal(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInternal) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInternal, err)
}

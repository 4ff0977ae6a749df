// Package service implements the account and ownership-scoped resource
// operations on top of the storage interfaces.
package service

import (
	"errors"

	"expense-api/internal/apperr"
	"expense-api/internal/storage"
)

// classify wraps a store error with the matching error kind.
func classify(err error, message string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.Wrap(apperr.NotFound, message, err)
	case errors.Is(err, storage.ErrDuplicateKey):
		return apperr.Wrap(apperr.ValidationFailure, message, err)
	default:
		return apperr.Wrap(apperr.StoreFailure, message, err)
	}
}

package service

import (
	"errors"
	"fmt"

	"github.com/dom/phim-stream/internal/domain"
	"github.com/dom/phim-stream/internal/metrics"
	"github.com/samber/oops"
)

// storeError marks err as a credential store failure while keeping the cause
// for logs.
func storeError(operation string, err error) error {
	return oops.
		In("credential_store").
		Code("store_unavailable").
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err))
}

func unauthorized(reason error) error {
	return fmt.Errorf("%w: %w", domain.ErrUnauthorized, reason)
}

// outcome classifies err for the auth metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrIncorrectPassword),
		errors.Is(err, domain.ErrUnauthorized):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

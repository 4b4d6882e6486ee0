package domain

import (
	"errors"
	"fmt"
)

var (
	ErrJobNotFound        = errors.New("job not found")
	ErrUnauthorized       = errors.New("unauthorized: email mismatch")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrValidation         = errors.New("validation failed")
	ErrQuotaExceeded      = errors.New("urgent post quota exhausted")
)

// Invalid wraps ErrValidation with a caller-facing message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

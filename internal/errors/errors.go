package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the dashboard components
var (
	// Authentication errors
	ErrDenied              = errors.New("authorization denied")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInteractionRequired = errors.New("user interaction required")

	// Source errors
	ErrUnavailable = errors.New("source unavailable")

	// Configuration errors
	ErrMissingConfig = errors.New("missing configuration")

	// Storage errors
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Missing reports an absent configuration value as ErrMissingConfig
func Missing(name string) error {
	return fmt.Errorf("%s not configured: %w", name, ErrMissingConfig)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors
func Join(errs ...error) error {
	return errors.Join(errs...)
}

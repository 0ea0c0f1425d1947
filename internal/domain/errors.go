package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for rollout operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig is returned by local validation, before any network call
	ErrInvalidConfig = errors.New("invalid config")

	// ErrSubmissionFailed is returned when the network rejected a transaction
	ErrSubmissionFailed = errors.New("submission failed")

	// ErrConfirmationTimeout means a transaction was submitted but not seen confirmed in time.
	// The outcome is unknown and must be re-checked.
	ErrConfirmationTimeout = errors.New("confirmation timeout")

	// ErrCancelled means local waiting stopped because the context was cancelled.
	// Submitted transactions keep going on-chain.
	ErrCancelled = errors.New("cancelled")

	// ErrVerificationFailed is returned when explorer verification fails
	ErrVerificationFailed = errors.New("verification failed")

	// ErrTransient marks a failure that may succeed when retried
	ErrTransient = errors.New("transient failure")

	// ErrUnauthorized is returned when the contract rejects the caller's capability
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAllowanceRaceDetected is returned when an allowance changed between check and submission
	ErrAllowanceRaceDetected = errors.New("allowance race detected")

	// ErrIllegalTransition is returned when a write operation is moved to a state it can't reach
	ErrIllegalTransition = errors.New("illegal state transition")
)

// InvalidConfigError names the offending field of a rejected configuration
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

func (e *InvalidConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// NewInvalidConfig creates an InvalidConfigError for a field
func NewInvalidConfig(field, format string, args ...any) *InvalidConfigError {
	return &InvalidConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// RemoteError adds the network context an operator needs to diagnose a remote failure
type RemoteError struct {
	Network string
	Address string
	Method  string
	Err     error
}

func (e *RemoteError) Error() string {
	var parts []string
	if e.Network != "" {
		parts = append(parts, "network="+e.Network)
	}
	if e.Address != "" {
		parts = append(parts, "address="+e.Address)
	}
	if e.Method != "" {
		parts = append(parts, "method="+e.Method)
	}
	return fmt.Sprintf("%s [%s]", e.Err, strings.Join(parts, " "))
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Remote wraps err with network context. It returns nil when err is nil.
func Remote(network, address, method string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Network: network, Address: address, Method: method, Err: err}
}

// IsAmbiguous reports whether err leaves the on-chain outcome unknown
func IsAmbiguous(err error) bool {
	return errors.Is(err, ErrConfirmationTimeout) || errors.Is(err, ErrCancelled)
}

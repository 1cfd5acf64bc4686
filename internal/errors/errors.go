package errors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error type mapped to process exit codes.
type Code int

const (
	CodeSuccess    Code = 0
	CodeInternal   Code = 1
	CodeUsage      Code = 2
	CodeValidation Code = 3

	CodeProviderUnavailable Code = 10
	CodeProviderRejected    Code = 11
	CodeNetworkMismatch     Code = 12
	CodeBackend             Code = 13
	CodeChainTxFailed       Code = 14
	CodeUnsupported         Code = 15
	CodeRateLimited         Code = 16
	CodeStale               Code = 17
	CodeBlocked             Code = 18
	CodeSigner              Code = 19
)

// Error is a typed CLI error that carries a stable error code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func ExitCode(err error) int {
	if err == nil {
		return int(CodeSuccess)
	}
	if cliErr, ok := As(err); ok {
		return int(cliErr.Code)
	}
	return int(CodeInternal)
}

// Type returns the stable error type string rendered in envelopes.
func Type(err error) string {
	cliErr, ok := As(err)
	if !ok {
		return "internal_error"
	}
	switch cliErr.Code {
	case CodeUsage:
		return "usage_error"
	case CodeValidation:
		return "validation_error"
	case CodeProviderUnavailable:
		return "provider_unavailable"
	case CodeProviderRejected:
		return "provider_rejected"
	case CodeNetworkMismatch:
		return "network_mismatch"
	case CodeBackend:
		return "backend_error"
	case CodeChainTxFailed:
		return "chain_tx_failed"
	case CodeUnsupported:
		return "unsupported"
	case CodeRateLimited:
		return "rate_limited"
	case CodeStale:
		return "stale_data"
	case CodeBlocked:
		return "command_blocked"
	case CodeSigner:
		return "signer_error"
	default:
		return "internal_error"
	}
}

// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Per-symbol data errors. Recovered inside a scan.
	ErrDataUnavailable = &Error{Code: "DATA_UNAVAILABLE", Message: "market data unavailable"}
	ErrInvalidSnapshot = &Error{Code: "INVALID_SNAPSHOT", Message: "malformed market data"}
	ErrSymbolTimeout   = &Error{Code: "SYMBOL_TIMEOUT", Message: "market data fetch timed out"}
	ErrSymbolNotFound  = &Error{Code: "SYMBOL_NOT_FOUND", Message: "symbol not found"}
	// ErrProviderError is a provider-side failure (5xx, rate limit) seen by
	// one request. When every symbol of a run ends in it the run is treated
	// as a wholesale outage.
	ErrProviderError = &Error{Code: "PROVIDER_ERROR", Message: "market data provider error"}

	// Wholesale provider failure. Aborts the scan.
	ErrProviderUnreachable = &Error{Code: "PROVIDER_UNREACHABLE", Message: "market data provider unreachable"}

	// News errors degrade the catalyst signal to false.
	ErrNewsUnavailable = &Error{Code: "NEWS_UNAVAILABLE", Message: "news provider unavailable"}

	// Scan lifecycle
	ErrScanInProgress = &Error{Code: "SCAN_IN_PROGRESS", Message: "a scan is already running"}
	ErrScanFailed     = &Error{Code: "SCAN_FAILED", Message: "scan failed"}
	ErrNoScan         = &Error{Code: "NO_SCAN", Message: "no scan results yet"}
	ErrJobNotFound    = &Error{Code: "JOB_NOT_FOUND", Message: "scan job not found"}

	// Storage errors
	ErrStorageFailed = &Error{Code: "STORAGE_FAILED", Message: "scan storage failed"}

	// Notifier errors
	ErrNotifierFailed = &Error{Code: "NOTIFIER_FAILED", Message: "notifier failed"}

	// Config and request errors
	ErrConfigInvalid  = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing  = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
	ErrInvalidRequest = &Error{Code: "INVALID_REQUEST", Message: "invalid request"}
	ErrUnauthorized   = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid API key"}
)

// ErrorInfo is the serialisable form of an error attached to a result.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// InfoFromError converts err into an ErrorInfo, keeping the code of a
// wrapped *Error when there is one.
func InfoFromError(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return &ErrorInfo{Code: coreErr.Code, Message: err.Error()}
	}
	return &ErrorInfo{Code: ErrDataUnavailable.Code, Message: err.Error()}
}

// IsProviderSide reports whether a per-symbol failure code points at the
// provider rather than the symbol.
func IsProviderSide(code string) bool {
	return code == ErrProviderError.Code || code == ErrSymbolTimeout.Code
}

// IsFatal reports whether err must abort a whole scan rather than a single
// symbol.
func IsFatal(err error) bool {
	return errors.Is(err, ErrProviderUnreachable)
}

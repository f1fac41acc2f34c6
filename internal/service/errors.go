package service

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced to callers. Anything else bubbling out of a
// service is a storage failure and must be shown to clients as an opaque
// server error.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")

	// ErrInvalidOrExpired deliberately conflates wrong, expired and
	// already-used codes so responses leak nothing about which it was.
	ErrInvalidOrExpired = errors.New("invalid or expired code")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPhoneTaken         = errors.New("phone already registered")
)

// RateLimitedError rejects a too-frequent OTP request and carries the wait
// hint in whole seconds.
type RateLimitedError struct {
	RetryAfter int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %ds", e.RetryAfter)
}

package gitsource

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/jywlabs/skillhub/internal/retry"
)

// Kind classifies a git failure.
type Kind string

const (
	KindNetwork  Kind = "network"
	KindAuth     Kind = "auth"
	KindNotFound Kind = "not_found"
	KindTimeout  Kind = "timeout"
	KindUnknown  Kind = "unknown"
)

// Retryable reports whether a failure of this kind may succeed on retry.
func (k Kind) Retryable() bool {
	return k == KindNetwork || k == KindTimeout
}

// Error is a classified git failure.
type Error struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindAuth:
		return fmt.Sprintf("git %s: authentication failed: %v", e.URL, e.Err)
	case KindNotFound:
		return fmt.Sprintf("git %s: not found: %v", e.URL, e.Err)
	case KindTimeout:
		return fmt.Sprintf("git %s: timed out: %v", e.URL, e.Err)
	case KindNetwork:
		return fmt.Sprintf("git %s: network error: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("git %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify wraps err in an *Error with its Kind. An err that is already an
// *Error is returned unchanged.
func Classify(url string, err error) *Error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	return &Error{Kind: classify(err), URL: url, Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod):
		return KindAuth
	case errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, transport.ErrEmptyRemoteRepository),
		errors.Is(err, plumbing.ErrReferenceNotFound):
		return KindNotFound
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "couldn't find remote ref"),
		strings.Contains(msg, "reference not found"),
		strings.Contains(msg, "repository not found"):
		return KindNotFound
	case strings.Contains(msg, "authentication"), strings.Contains(msg, "authorization"):
		return KindAuth
	case retry.IsRetryable(err):
		return KindNetwork
	}
	return KindUnknown
}

// IsRetryable reports whether err is a transient git failure.
func IsRetryable(err error) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind.Retryable()
	}
	return false
}

package github

import (
	"errors"
	"fmt"
)

// Common errors returned by the GitHub client.
var (
	// ErrInvalidURL indicates an unparseable GitHub URL or shorthand.
	ErrInvalidURL = errors.New("invalid GitHub URL format")

	// ErrNotFound indicates the repository or resource was not found.
	ErrNotFound = errors.New("repository not found")

	// ErrRateLimited indicates the API rate limit was exceeded and could
	// not be waited out.
	ErrRateLimited = errors.New("GitHub API rate limit exceeded")

	// ErrUnauthorized indicates an authentication failure.
	ErrUnauthorized = errors.New("GitHub API authentication failed")

	// ErrTransient indicates a network or server hiccup that exhausted
	// its retries. Callers skip the affected query or repository and
	// continue the run.
	ErrTransient = errors.New("transient GitHub API error")
)

// IsTransient reports whether the error is a retried-and-exhausted
// transient failure rather than a hard one.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// statusError wraps an unexpected HTTP status.
func statusError(status int, url string) error {
	if status >= 500 {
		return fmt.Errorf("%w: status %d from %s", ErrTransient, status, url)
	}
	return fmt.Errorf("GitHub API error: status %d from %s", status, url)
}

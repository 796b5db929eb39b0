// Package deeplink parses links of the form <scheme>://creation/<uuid>.
package deeplink

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultScheme = "sharedprompt"
	Host          = "creation"
)

// ErrValidation is wrapped by every parse failure.
var ErrValidation = errors.New("invalid deep link")

var (
	ErrUnparsableURI  = fmt.Errorf("%w: unparsable uri", ErrValidation)
	ErrSchemeMismatch = fmt.Errorf("%w: scheme mismatch", ErrValidation)
	ErrHostMismatch   = fmt.Errorf("%w: host mismatch", ErrValidation)
	ErrMalformedPath  = fmt.Errorf("%w: malformed path", ErrValidation)
	ErrInvalidID      = fmt.Errorf("%w: invalid creation id", ErrValidation)
)

// Parse extracts the creation ID. Scheme and host compare case-insensitively;
// the path must hold exactly one segment.
func Parse(raw, scheme string) (uuid.UUID, error) {
	if scheme == "" {
		scheme = DefaultScheme
	}

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrUnparsableURI, err)
	}
	if u.Scheme == "" {
		return uuid.Nil, fmt.Errorf("%w: %q has no scheme", ErrUnparsableURI, raw)
	}
	if !strings.EqualFold(u.Scheme, scheme) {
		return uuid.Nil, fmt.Errorf("%w: got %q, want %q", ErrSchemeMismatch, u.Scheme, scheme)
	}
	if !strings.EqualFold(u.Host, Host) {
		return uuid.Nil, fmt.Errorf("%w: got %q, want %q", ErrHostMismatch, u.Host, Host)
	}

	segment := strings.TrimPrefix(u.Path, "/")
	if segment == "" || strings.Contains(segment, "/") {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrMalformedPath, u.Path)
	}

	id, err := uuid.Parse(segment)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, segment)
	}
	return id, nil
}

// Build is the inverse of Parse.
func Build(scheme string, id uuid.UUID) string {
	if scheme == "" {
		scheme = DefaultScheme
	}
	return fmt.Sprintf("%s://%s/%s", scheme, Host, id)
}

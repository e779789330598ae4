// Package auth attaches endpoint credentials to outgoing requests.
package auth

import (
	"context"
	"net/http"
	"strings"
)

// Provider injects credentials into HTTP requests.
type Provider interface {
	// Token returns the credential that InjectHeader would send.
	Token(ctx context.Context) (string, error)

	// InjectHeader adds the credential to req.
	InjectHeader(ctx context.Context, req *http.Request) error
}

// FromAPIKey returns a bearer provider for key, or nil when key is blank so
// that unauthenticated endpoints receive no Authorization header.
func FromAPIKey(key string) Provider {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	return NewStaticTokenProvider(key)
}

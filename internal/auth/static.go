package auth

import (
	"context"
	"net/http"
)

// StaticTokenProvider sends a fixed API key as a bearer token.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a new static token provider with the given token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// Token returns the static token immediately without any network calls.
func (p *StaticTokenProvider) Token(context.Context) (string, error) {
	return p.token, nil
}

// InjectHeader sets "Authorization: Bearer <token>" unless the request
// already carries an Authorization header from user-supplied headers.
func (p *StaticTokenProvider) InjectHeader(_ context.Context, req *http.Request) error {
	if req.Header.Get("Authorization") != "" {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	return nil
}

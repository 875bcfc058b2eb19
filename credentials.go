package brokerkit

import (
	"context"
	"sync"
)

// StaticCredentials is a CredentialProvider holding a fixed token, useful
// for API-key style services and tests. Invalidate is a no-op: there is
// nothing to refresh.
type StaticCredentials struct {
	mu    sync.RWMutex
	token string
}

// NewStaticCredentials returns a provider that always serves token.
func NewStaticCredentials(token string) *StaticCredentials {
	return &StaticCredentials{token: token}
}

// Token implements CredentialProvider.
func (s *StaticCredentials) Token(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// Invalidate implements CredentialProvider.
func (s *StaticCredentials) Invalidate(context.Context) error {
	return nil
}

// SetToken replaces the stored token, e.g. after an out-of-band refresh.
func (s *StaticCredentials) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// CredentialFunc adapts a token-fetching function to CredentialProvider.
// The refresh callback may be nil when the source has no invalidate step.
type CredentialFunc struct {
	Fetch   func(ctx context.Context) (string, error)
	Refresh func(ctx context.Context) error
}

// Token implements CredentialProvider.
func (c CredentialFunc) Token(ctx context.Context) (string, error) {
	return c.Fetch(ctx)
}

// Invalidate implements CredentialProvider.
func (c CredentialFunc) Invalidate(ctx context.Context) error {
	if c.Refresh == nil {
		return nil
	}
	return c.Refresh(ctx)
}

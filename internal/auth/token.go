// Package auth provides the token managers used by the opsapi transport.
// How credentials are obtained is out of scope for this SDK; callers either
// supply a static token or a refresh callback.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/fivetwenty-io/opsapi-client/pkg/opsapi"
)

// TokenExpirationBuffer is how long before expiry a token is treated as
// already expired, so requests never race the server-side cutoff.
const TokenExpirationBuffer = 30 * time.Second

// StaticTokenManager serves a fixed bearer token.
type StaticTokenManager struct {
	mu    sync.RWMutex
	token string
}

// NewStaticTokenManager creates a token manager around a fixed token.
func NewStaticTokenManager(token string) *StaticTokenManager {
	return &StaticTokenManager{token: token}
}

// GetToken returns the stored token.
func (m *StaticTokenManager) GetToken(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.token == "" {
		return "", opsapi.ErrNotAuthenticated
	}

	return m.token, nil
}

// RefreshToken fails: a static token has nothing to refresh with.
func (m *StaticTokenManager) RefreshToken(_ context.Context) error {
	return opsapi.ErrStaticTokenCannotRefresh
}

// SetToken replaces the stored token.
func (m *StaticTokenManager) SetToken(token string, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
}

// RefreshFunc obtains a fresh token and its expiry.
type RefreshFunc func(ctx context.Context) (token string, expiresAt time.Time, err error)

// RefreshingTokenManager serves a token and refreshes it through a callback
// when it is missing or about to expire.
type RefreshingTokenManager struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	refresh   RefreshFunc
}

// NewRefreshingTokenManager creates a token manager around refresh.
func NewRefreshingTokenManager(refresh RefreshFunc) *RefreshingTokenManager {
	return &RefreshingTokenManager{refresh: refresh}
}

// GetToken returns the current token, refreshing it first if it is missing
// or within the expiration buffer.
func (m *RefreshingTokenManager) GetToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && (m.expiresAt.IsZero() || time.Now().Add(TokenExpirationBuffer).Before(m.expiresAt)) {
		return m.token, nil
	}

	return m.refreshLocked(ctx)
}

// RefreshToken forces a refresh regardless of the current token's expiry.
func (m *RefreshingTokenManager) RefreshToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.refreshLocked(ctx)

	return err
}

// SetToken stores an externally obtained token.
func (m *RefreshingTokenManager) SetToken(token string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
	m.expiresAt = expiresAt
}

func (m *RefreshingTokenManager) refreshLocked(ctx context.Context) (string, error) {
	token, expiresAt, err := m.refresh(ctx)
	if err != nil {
		return "", err
	}

	m.token = token
	m.expiresAt = expiresAt

	return token, nil
}

// Package token maintains one OAuth credential for the lifetime of a session,
// refreshing it on demand while guaranteeing at most one in-flight refresh
// request no matter how many callers need a token concurrently.
package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const (
	// expiryBuffer is subtracted from the credential expiry so a token is
	// refreshed before the remote service starts rejecting it mid-request.
	expiryBuffer = 60 * time.Second

	// maxTokenResponseBytes caps how much of a provider response is decoded.
	maxTokenResponseBytes = 1 << 20

	refreshGrantType = "refresh_token"
	refreshGroupKey  = "refresh"
)

// ErrNoRefreshToken is returned when the credential is expired and the
// session holds no refresh token to renew it with.
var ErrNoRefreshToken = errors.New("no refresh token available")

// Credential is the OAuth credential triple plus the client it was issued to.
type Credential struct {
	AccessToken  string
	ExpiresAt    time.Time
	RefreshToken string
	ClientID     string
}

// RefreshError reports a failed refresh request. Status is the HTTP status
// when the provider answered; Code and Description carry the provider's OAuth
// error payload when one was present.
type RefreshError struct {
	Status      int
	Code        string
	Description string
	Err         error
}

func (e *RefreshError) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("token refresh failed: %s: %s", e.Code, e.Description)
	case e.Code != "":
		return fmt.Sprintf("token refresh failed: %s", e.Code)
	case e.Status != 0:
		return fmt.Sprintf("token refresh failed: status %d", e.Status)
	case e.Err != nil:
		return fmt.Sprintf("token refresh failed: %v", e.Err)
	default:
		return "token refresh failed"
	}
}

func (e *RefreshError) Unwrap() error { return e.Err }

// Manager owns a Credential and serves access tokens from it. All state is
// guarded by mu; concurrent refresh attempts collapse into a single request
// through the singleflight group.
type Manager struct {
	tokenURL   string
	httpClient *http.Client
	now        func() time.Time

	mu    sync.Mutex
	cred  Credential
	group singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient overrides the HTTP client used for refresh requests.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) { m.httpClient = client }
}

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager for the supplied credential. When the caller
// provides no expiry, the manager falls back to the exp claim of the access
// token itself.
func NewManager(cred Credential, tokenURL string, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(cred.AccessToken) == "" {
		return nil, errors.New("access token is required")
	}
	if strings.TrimSpace(cred.ClientID) == "" {
		return nil, errors.New("client id is required")
	}
	if strings.TrimSpace(tokenURL) == "" {
		return nil, errors.New("token endpoint is required")
	}
	if cred.ExpiresAt.IsZero() {
		expiry, err := expiryFromAccessToken(cred.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("expiry not supplied and not recoverable from token: %w", err)
		}
		cred.ExpiresAt = expiry
	}

	m := &Manager{
		tokenURL:   tokenURL,
		httpClient: http.DefaultClient,
		now:        time.Now,
		cred:       cred,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Token returns a currently valid access token, refreshing the credential
// first when it is inside the expiry buffer. Failures are returned as values;
// the stored credential is left untouched by a failed refresh.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	if !m.expiredLocked() {
		tok := m.cred.AccessToken
		m.mu.Unlock()
		return tok, nil
	}
	if m.cred.RefreshToken == "" {
		m.mu.Unlock()
		return "", ErrNoRefreshToken
	}
	m.mu.Unlock()

	// Callers arriving while a refresh is pending share the in-flight
	// request instead of issuing their own.
	_, err, _ := m.group.Do(refreshGroupKey, func() (any, error) {
		return nil, m.refreshIfExpired(ctx)
	})
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred.AccessToken, nil
}

// refreshIfExpired renews the credential unless a refresh that completed
// between the caller's expiry check and joining the flight already did.
func (m *Manager) refreshIfExpired(ctx context.Context) error {
	m.mu.Lock()
	expired := m.expiredLocked()
	m.mu.Unlock()
	if !expired {
		return nil
	}
	return m.refresh(ctx)
}

// Credential returns a snapshot of the current credential.
func (m *Manager) Credential() Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred
}

func (m *Manager) expiredLocked() bool {
	return !m.now().Before(m.cred.ExpiresAt.Add(-expiryBuffer))
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// refresh performs one refresh request and atomically replaces the stored
// credential on success.
func (m *Manager) refresh(ctx context.Context) error {
	m.mu.Lock()
	clientID := m.cred.ClientID
	refreshToken := m.cred.RefreshToken
	m.mu.Unlock()

	values := url.Values{}
	values.Set("client_id", clientID)
	values.Set("grant_type", refreshGrantType)
	values.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(values.Encode()))
	if err != nil {
		return &RefreshError{Err: fmt.Errorf("create refresh request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return &RefreshError{Err: fmt.Errorf("request token refresh: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	var payload tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTokenResponseBytes)).Decode(&payload); err != nil {
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return &RefreshError{Status: resp.StatusCode}
		}
		return &RefreshError{Status: resp.StatusCode, Err: fmt.Errorf("decode token response: %w", err)}
	}
	if payload.Error != "" {
		return &RefreshError{Status: resp.StatusCode, Code: payload.Error, Description: payload.ErrorDescription}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &RefreshError{Status: resp.StatusCode}
	}
	if payload.AccessToken == "" {
		return &RefreshError{Status: resp.StatusCode, Err: errors.New("token response missing access token")}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred.AccessToken = payload.AccessToken
	if payload.RefreshToken != "" {
		m.cred.RefreshToken = payload.RefreshToken
	}
	m.cred.ExpiresAt = m.now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	return nil
}

// expiryFromAccessToken reads the exp claim of a JWT access token without
// verifying its signature. The manager only needs the expiry; trust in the
// token itself is the remote service's concern.
func expiryFromAccessToken(accessToken string) (time.Time, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse access token: %w", err)
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("read exp claim: %w", err)
	}
	if expiry == nil {
		return time.Time{}, errors.New("access token has no exp claim")
	}
	return expiry.Time, nil
}

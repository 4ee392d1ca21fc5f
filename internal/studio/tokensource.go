package studio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxAuthResponseBytes caps how much of an authorization response is decoded.
const maxAuthResponseBytes = 1 << 20

// TokenSource supplies a bearer token for an authenticated request. The
// client asks its source at call time, so a refreshing source keeps long
// sessions authorized without the client knowing about credential lifecycles.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns the same token forever. It backs the legacy
// login-status path, which performs no refresh.
type StaticTokenSource struct {
	token string
}

// NewStaticTokenSource wraps a fixed access token.
func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

// Token returns the wrapped token.
func (s *StaticTokenSource) Token(context.Context) (string, error) {
	if s == nil || s.token == "" {
		return "", errors.New("no access token available")
	}
	return s.token, nil
}

type loginStatusResponse struct {
	AccessToken string `json:"access_token"`
	LoggedIn    bool   `json:"logged_in"`
}

// LoginStatusSource obtains a static token source from the provider's
// login-status endpoint using the registered client id, redirect URL, and
// scope. The returned source never refreshes; callers that need a long-lived
// session should initialize one with a full credential instead.
func LoginStatusSource(ctx context.Context, cfg AuthConfig, httpClient *http.Client) (TokenSource, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.New("client id is required for login-status authorization")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	endpoint, err := url.Parse(strings.TrimRight(cfg.APIURL, "/") + "/oauth/login-status")
	if err != nil {
		return nil, fmt.Errorf("parse login-status endpoint: %w", err)
	}
	query := endpoint.Query()
	query.Set("client_id", cfg.ClientID)
	if cfg.RedirectURL != "" {
		query.Set("redirect_url", cfg.RedirectURL)
	}
	if cfg.Scope != "" {
		query.Set("scope", cfg.Scope)
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create login-status request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request login status: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("login status: status %d", resp.StatusCode)
	}

	var payload loginStatusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAuthResponseBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode login status: %w", err)
	}
	if payload.AccessToken == "" {
		return nil, errors.New("login status returned no access token; sign in first")
	}
	return NewStaticTokenSource(payload.AccessToken), nil
}

package studio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticTokenSource(t *testing.T) {
	source := NewStaticTokenSource("tok-1")
	tok, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	_, err = NewStaticTokenSource("").Token(context.Background())
	require.Error(t, err)
}

func TestLoginStatusSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/login-status", r.URL.Path)
		assert.Equal(t, "client-abc", r.URL.Query().Get("client_id"))
		assert.Equal(t, "http://localhost:9734/callback", r.URL.Query().Get("redirect_url"))
		assert.Equal(t, "document:write", r.URL.Query().Get("scope"))
		_ = json.NewEncoder(w).Encode(loginStatusResponse{AccessToken: "tok-login", LoggedIn: true})
	}))
	defer server.Close()

	cfg := AuthConfig{
		ClientID:    "client-abc",
		RedirectURL: "http://localhost:9734/callback",
		Scope:       "document:write",
		APIURL:      server.URL,
	}
	source, err := LoginStatusSource(context.Background(), cfg, server.Client())
	require.NoError(t, err)

	tok, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-login", tok)
}

func TestLoginStatusSourceNotLoggedIn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(loginStatusResponse{LoggedIn: false})
	}))
	defer server.Close()

	cfg := AuthConfig{ClientID: "client-abc", APIURL: server.URL}
	_, err := LoginStatusSource(context.Background(), cfg, server.Client())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign in first")
}

func TestLoginStatusSourceRequiresClientID(t *testing.T) {
	_, err := LoginStatusSource(context.Background(), AuthConfig{}, nil)
	require.Error(t, err)
}

func TestLoginStatusSourceServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := AuthConfig{ClientID: "client-abc", APIURL: server.URL}
	_, err := LoginStatusSource(context.Background(), cfg, server.Client())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

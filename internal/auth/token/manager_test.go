package token

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, hits *atomic.Int64, respond func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		respond(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func TestTokenFreshCredentialSkipsNetwork(t *testing.T) {
	var hits atomic.Int64
	server := newTokenServer(t, &hits, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "next"})
	})

	mgr, err := NewManager(Credential{
		AccessToken:  "fresh",
		ExpiresAt:    time.Now().Add(time.Hour),
		RefreshToken: "refresh-1",
		ClientID:     "client-1",
	}, server.URL)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		tok, err := mgr.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "fresh", tok)
	}
	assert.Equal(t, int64(0), hits.Load())
}

func TestTokenRefreshesExpiredCredential(t *testing.T) {
	var hits atomic.Int64
	server := newTokenServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "client-1", r.Form.Get("client_id"))
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "refresh-1", r.Form.Get("refresh_token"))
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "rotated-access",
			"refresh_token": "rotated-refresh",
			"expires_in":    3600,
		})
	})

	mgr, err := NewManager(Credential{
		AccessToken:  "stale",
		ExpiresAt:    time.Now().Add(-time.Minute),
		RefreshToken: "refresh-1",
		ClientID:     "client-1",
	}, server.URL)
	require.NoError(t, err)

	tok, err := mgr.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rotated-access", tok)
	assert.Equal(t, int64(1), hits.Load())

	cred := mgr.Credential()
	assert.Equal(t, "rotated-refresh", cred.RefreshToken)
	assert.True(t, cred.ExpiresAt.After(time.Now().Add(30*time.Minute)))

	// The refreshed token is served without another network call.
	tok, err = mgr.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rotated-access", tok)
	assert.Equal(t, int64(1), hits.Load())
}

func TestTokenWithinBufferTriggersRefresh(t *testing.T) {
	var hits atomic.Int64
	server := newTokenServer(t, &hits, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "renewed", "expires_in": 3600})
	})

	// Not yet expired, but inside the 60s buffer.
	mgr, err := NewManager(Credential{
		AccessToken:  "nearly-stale",
		ExpiresAt:    time.Now().Add(30 * time.Second),
		RefreshToken: "refresh-1",
		ClientID:     "client-1",
	}, server.URL)
	require.NoError(t, err)

	tok, err := mgr.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "renewed", tok)
	assert.Equal(t, int64(1), hits.Load())
}

func TestTokenConcurrentCallersShareOneRefresh(t *testing.T) {
	var hits atomic.Int64
	release := make(chan struct{})
	server := newTokenServer(t, &hits, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "shared", "expires_in": 3600})
	})

	mgr, err := NewManager(Credential{
		AccessToken:  "stale",
		ExpiresAt:    time.Now().Add(-time.Minute),
		RefreshToken: "refresh-1",
		ClientID:     "client-1",
	}, server.URL)
	require.NoError(t, err)

	const callers = 16
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = mgr.Token(context.Background())
		}(i)
	}

	// Give every caller a chance to pile up behind the pending refresh
	// before the provider responds.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared", tokens[i])
	}
	assert.Equal(t, int64(1), hits.Load(), "concurrent callers must share one refresh request")
}

func TestTokenStragglerAfterCompletedRefreshSkipsSecondRequest(t *testing.T) {
	var hits atomic.Int64
	server := newTokenServer(t, &hits, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "rotated", "expires_in": 3600})
	})

	mgr, err := NewManager(Credential{
		AccessToken:  "stale",
		ExpiresAt:    time.Now().Add(-time.Minute),
		RefreshToken: "refresh-1",
		ClientID:     "client-1",
	}, server.URL)
	require.NoError(t, err)

	tok, err := mgr.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "rotated", tok)
	require.Equal(t, int64(1), hits.Load())

	// A caller that saw the stale credential just before the refresh landed
	// enters the flight on its own afterwards; the renewed credential must
	// short-circuit it instead of hitting the provider again.
	require.NoError(t, mgr.refreshIfExpired(context.Background()))
	assert.Equal(t, int64(1), hits.Load(), "a straggler behind a completed refresh must not refresh again")

	tok, err = mgr.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rotated", tok)
	assert.Equal(t, int64(1), hits.Load())
}

func TestTokenNoRefreshTokenFailsWithoutNetwork(t *testing.T) {
	var hits atomic.Int64
	server := newTokenServer(t, &hits, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "never"})
	})

	mgr, err := NewManager(Credential{
		AccessToken: "stale",
		ExpiresAt:   time.Now().Add(-time.Minute),
		ClientID:    "client-1",
	}, server.URL)
	require.NoError(t, err)

	_, err = mgr.Token(context.Background())
	require.ErrorIs(t, err, ErrNoRefreshToken)
	assert.Equal(t, int64(0), hits.Load())
}

func TestTokenProviderErrorPayload(t *testing.T) {
	var hits atomic.Int64
	server := newTokenServer(t, &hits, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":             "invalid_grant",
			"error_description": "refresh token revoked",
		})
	})

	mgr, err := NewManager(Credential{
		AccessToken:  "stale",
		ExpiresAt:    time.Now().Add(-time.Minute),
		RefreshToken: "refresh-1",
		ClientID:     "client-1",
	}, server.URL)
	require.NoError(t, err)

	_, err = mgr.Token(context.Background())
	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, "invalid_grant", refreshErr.Code)
	assert.Equal(t, "refresh token revoked", refreshErr.Description)
	assert.Contains(t, refreshErr.Error(), "refresh token revoked")

	// The stored credential must be untouched by a failed refresh.
	assert.Equal(t, "stale", mgr.Credential().AccessToken)
}

func TestTokenNonSuccessStatusWithoutPayload(t *testing.T) {
	var hits atomic.Int64
	server := newTokenServer(t, &hits, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	mgr, err := NewManager(Credential{
		AccessToken:  "stale",
		ExpiresAt:    time.Now().Add(-time.Minute),
		RefreshToken: "refresh-1",
		ClientID:     "client-1",
	}, server.URL)
	require.NoError(t, err)

	_, err = mgr.Token(context.Background())
	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, http.StatusBadGateway, refreshErr.Status)
}

func TestTokenTransportFailure(t *testing.T) {
	mgr, err := NewManager(Credential{
		AccessToken:  "stale",
		ExpiresAt:    time.Now().Add(-time.Minute),
		RefreshToken: "refresh-1",
		ClientID:     "client-1",
	}, "http://127.0.0.1:1/token")
	require.NoError(t, err)

	_, err = mgr.Token(context.Background())
	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	require.Error(t, refreshErr.Err)
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager(Credential{ClientID: "c"}, "http://example.com/token")
	assert.Error(t, err, "missing access token")

	_, err = NewManager(Credential{AccessToken: "a"}, "http://example.com/token")
	assert.Error(t, err, "missing client id")

	_, err = NewManager(Credential{AccessToken: "a", ClientID: "c", ExpiresAt: time.Now()}, "")
	assert.Error(t, err, "missing token endpoint")
}

func TestNewManagerInfersExpiryFromJWT(t *testing.T) {
	expiry := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	mgr, err := NewManager(Credential{
		AccessToken: unsignedJWT(t, expiry),
		ClientID:    "client-1",
	}, "http://example.com/token")
	require.NoError(t, err)
	assert.True(t, mgr.Credential().ExpiresAt.Equal(expiry))
}

func TestNewManagerOpaqueTokenWithoutExpiryFails(t *testing.T) {
	_, err := NewManager(Credential{
		AccessToken: "not-a-jwt",
		ClientID:    "client-1",
	}, "http://example.com/token")
	require.Error(t, err)
}

// unsignedJWT builds a structurally valid JWT carrying only an exp claim.
func unsignedJWT(t *testing.T, expiry time.Time) string {
	t.Helper()
	encode := func(v any) string {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(data)
	}
	header := encode(map[string]string{"alg": "none", "typ": "JWT"})
	claims := encode(map[string]int64{"exp": expiry.Unix()})
	return fmt.Sprintf("%s.%s.", header, claims)
}

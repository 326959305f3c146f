package webchat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/models"
)

// memStore is an in-memory CredentialStore for tests.
type memStore struct {
	cred          *models.SessionCredential
	stores        int
	invalidations int
}

func (m *memStore) Load(ctx context.Context) (*models.SessionCredential, error) {
	if m.cred == nil {
		return nil, nil
	}
	copied := *m.cred
	return &copied, nil
}

func (m *memStore) Store(ctx context.Context, cred *models.SessionCredential) error {
	copied := *cred
	m.cred = &copied
	m.stores++
	return nil
}

func (m *memStore) Invalidate(ctx context.Context) error {
	m.cred = nil
	m.invalidations++
	return nil
}

func newTestClient(baseURL string, store *memStore, refresh RefreshFunc) *Client {
	return NewClient(models.ProviderKimi, baseURL, store, refresh)
}

func countingRefresh(counter *atomic.Int32, token string) RefreshFunc {
	return func(ctx context.Context, httpc *http.Client, refreshToken string) (*RefreshResult, error) {
		if counter != nil {
			counter.Add(1)
		}
		return &RefreshResult{AccessToken: token}, nil
	}
}

func TestRequestWithAuthNoCredential(t *testing.T) {
	c := newTestClient("http://unused", &memStore{}, countingRefresh(&atomic.Int32{}, "x"))

	_, err := c.RequestWithAuth(context.Background(), func(string) (*http.Request, error) {
		t.Fatal("no request should be issued without a credential")
		return nil, nil
	})
	assert.Equal(t, apperr.KindAuthExpired, apperr.KindOf(err))
}

func TestRequestWithAuthRefreshRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") == "Bearer fresh" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := &memStore{cred: &models.SessionCredential{
		Provider:     models.ProviderKimi,
		RefreshToken: "refresh",
		AccessToken:  "stale",
	}}
	var refreshes atomic.Int32
	c := newTestClient(srv.URL, store, countingRefresh(&refreshes, "fresh"))

	resp, err := c.RequestWithAuth(context.Background(), func(access string) (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(1), refreshes.Load())

	// The rotated pair was persisted before the retried request.
	assert.Equal(t, 1, store.stores)
	assert.Equal(t, "fresh", store.cred.AccessToken)
}

func TestRequestWithAuthGivesUpAfterOneRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := &memStore{cred: &models.SessionCredential{
		Provider:     models.ProviderKimi,
		RefreshToken: "refresh",
		AccessToken:  "stale",
	}}
	var refreshes atomic.Int32
	c := newTestClient(srv.URL, store, countingRefresh(&refreshes, "still-bad"))

	_, err := c.RequestWithAuth(context.Background(), func(access string) (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	require.Error(t, err)

	// At most 2 upstream calls and 1 refresh, however many 401s occur.
	assert.Equal(t, apperr.KindAuthExpired, apperr.KindOf(err))
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, 1, store.invalidations)
}

func TestRequestWithAuthMintsTokenWhenAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := &memStore{cred: &models.SessionCredential{
		Provider:     models.ProviderKimi,
		RefreshToken: "refresh",
	}}
	var refreshes atomic.Int32
	c := newTestClient(srv.URL, store, countingRefresh(&refreshes, "fresh"))

	resp, err := c.RequestWithAuth(context.Background(), func(access string) (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, "fresh", store.cred.AccessToken)
}

func TestRequestWithAuthRefreshFailureInvalidates(t *testing.T) {
	store := &memStore{cred: &models.SessionCredential{
		Provider:     models.ProviderKimi,
		RefreshToken: "refresh",
	}}
	c := newTestClient("http://unused", store, func(ctx context.Context, httpc *http.Client, refreshToken string) (*RefreshResult, error) {
		return nil, apperr.New(apperr.KindAuthExpired, "登录已失效")
	})

	_, err := c.RequestWithAuth(context.Background(), func(string) (*http.Request, error) {
		t.Fatal("no request should be issued when the refresh fails")
		return nil, nil
	})
	assert.Equal(t, apperr.KindAuthExpired, apperr.KindOf(err))
	assert.Equal(t, 1, store.invalidations)
}

func TestTokenExpired(t *testing.T) {
	// Opaque tokens are treated as live; the 401 path covers them.
	assert.False(t, tokenExpired("opaque-token"))

	// Expired JWT (exp in 2001). Signature is irrelevant to the check.
	expired := "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9." +
		"eyJleHAiOjEwMDAwMDAwMDB9." +
		"invalid-signature"
	assert.True(t, tokenExpired(expired))
}

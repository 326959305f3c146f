package webchat

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/models"
)

// requestTimeout bounds every upstream call, streaming included; the
// whole stream is consumed before a call returns.
const requestTimeout = 30 * time.Second

// accessExpirySlack refreshes a token that is about to expire instead
// of spending the single retry on it.
const accessExpirySlack = 30 * time.Second

// CredentialStore is the credential sink a client reports rotations
// through. Implementations persist before the client issues the
// retried request.
type CredentialStore interface {
	Load(ctx context.Context) (*models.SessionCredential, error)
	Store(ctx context.Context, cred *models.SessionCredential) error
	Invalidate(ctx context.Context) error
}

// RefreshResult is a freshly minted credential pair. RefreshToken is
// empty when the backend does not rotate the long-lived secret.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}

// RefreshFunc mints a new access token from the refresh token.
type RefreshFunc func(ctx context.Context, httpc *http.Client, refreshToken string) (*RefreshResult, error)

// Client is the authenticated request layer shared by the web-session
// providers.
type Client struct {
	provider models.Provider
	baseURL  string
	httpc    *http.Client
	creds    CredentialStore
	refresh  RefreshFunc
	log      *logrus.Entry
}

// NewClient creates a client for one provider's API base.
func NewClient(provider models.Provider, baseURL string, creds CredentialStore, refresh RefreshFunc) *Client {
	return &Client{
		provider: provider,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		httpc:    &http.Client{Timeout: requestTimeout},
		creds:    creds,
		refresh:  refresh,
		log:      logrus.WithField("provider", provider),
	}
}

// BaseURL returns the API base the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RequestWithAuth runs one authenticated call: attempt with the cached
// access token (minting it first if absent or expired), and on 401/403
// refresh once and retry exactly once. A second 401/403 invalidates
// the stored credential and fails AuthExpired. At most two upstream
// calls and one refresh per invocation.
func (c *Client) RequestWithAuth(ctx context.Context, build func(accessToken string) (*http.Request, error)) (*http.Response, error) {
	cred, err := c.creds.Load(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternalFault, "读取凭证失败", err)
	}
	if cred == nil || strings.TrimSpace(cred.RefreshToken) == "" {
		return nil, apperr.New(apperr.KindAuthExpired, "尚未连接该服务，请先登录")
	}

	access := cred.AccessToken
	refreshed := false
	if access == "" || tokenExpired(access) {
		if access, err = c.refreshAndPersist(ctx, cred); err != nil {
			return nil, err
		}
		refreshed = true
	}

	resp, err := c.do(ctx, build, access)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden {
		return resp, nil
	}
	drain(resp)

	if !refreshed {
		if access, err = c.refreshAndPersist(ctx, cred); err != nil {
			return nil, err
		}
		resp, err = c.do(ctx, build, access)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden {
			return resp, nil
		}
		drain(resp)
	}

	if err := c.creds.Invalidate(ctx); err != nil {
		c.log.WithError(err).Warn("failed to invalidate credential")
	}
	return nil, apperr.New(apperr.KindAuthExpired, "登录已失效，请重新连接")
}

// refreshAndPersist mints a new pair and persists it before any
// retried request, so a crash mid-flow leaves the store holding the
// last known-good credential.
func (c *Client) refreshAndPersist(ctx context.Context, cred *models.SessionCredential) (string, error) {
	result, err := c.refresh(ctx, c.httpc, cred.RefreshToken)
	if err != nil {
		if apperr.IsKind(err, apperr.KindAuthExpired) {
			if ierr := c.creds.Invalidate(ctx); ierr != nil {
				c.log.WithError(ierr).Warn("failed to invalidate credential")
			}
		}
		return "", err
	}

	cred.AccessToken = result.AccessToken
	if result.RefreshToken != "" {
		cred.RefreshToken = result.RefreshToken
	}
	if err := c.creds.Store(ctx, cred); err != nil {
		return "", apperr.Wrap(apperr.KindInternalFault, "保存凭证失败", err)
	}

	c.log.Debug("access token refreshed")
	return result.AccessToken, nil
}

func (c *Client) do(ctx context.Context, build func(string) (*http.Request, error), access string) (*http.Response, error) {
	req, err := build(access)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternalFault, "构造请求失败", err)
	}
	req = req.WithContext(ctx)
	if req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, MapTransportError(err)
	}
	return resp, nil
}

// tokenExpired reports whether a JWT access token has (nearly) run
// out. Opaque tokens parse as errors and are treated as live; the
// 401 path covers them.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < accessExpirySlack
}

// MapTransportError converts a round-trip error into the closed error
// taxonomy: aborts become Timeout, everything else NetworkUnreachable.
func MapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindTimeout, "请求超时，请稍后重试", err)
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return apperr.Wrap(apperr.KindTimeout, "请求超时，请稍后重试", err)
	}
	return apperr.Wrap(apperr.KindNetworkUnreachable, "无法连接到服务", err)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

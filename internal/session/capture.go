package session

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/config"
	"github.com/pagelens/pagelens-backend/internal/models"
	"github.com/pagelens/pagelens-backend/internal/repository"
)

// Capturer bridges the backend and a browser tab of one provider's web
// app: it reads the session credential out of that tab's localStorage
// and persists it.
type Capturer struct {
	provider   models.Provider
	homeURL    string
	storageKey string
	creds      repository.CredentialRepository
	open       TabOpener
	cfg        config.CaptureConfig
	log        *logrus.Entry
}

func NewCapturer(provider models.Provider, homeURL, storageKey string, creds repository.CredentialRepository, open TabOpener, cfg config.CaptureConfig) *Capturer {
	return &Capturer{
		provider:   provider,
		homeURL:    homeURL,
		storageKey: storageKey,
		creds:      creds,
		open:       open,
		cfg:        cfg,
		log:        logrus.WithField("provider", provider),
	}
}

// EnsureCredential returns the stored credential, or runs a silent
// headless capture when none exists. Fails AuthExpired when the hidden
// tab never shows a logged-in session within the short timeout.
func (c *Capturer) EnsureCredential(ctx context.Context) (*models.SessionCredential, error) {
	cred, err := c.creds.Get(ctx, c.provider)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternalFault, "读取凭证失败", err)
	}
	if cred != nil && strings.TrimSpace(cred.RefreshToken) != "" {
		return cred, nil
	}

	c.log.Debug("no stored credential, starting silent capture")
	return c.capture(ctx, true, c.cfg.SilentTimeout,
		"尚未检测到登录状态，请先连接该服务")
}

// ConnectInteractive opens a visible tab so the user can log in, waits
// for the credential to appear, and reports the resulting status.
func (c *Capturer) ConnectInteractive(ctx context.Context) (models.AuthStatus, error) {
	_, err := c.capture(ctx, false, c.cfg.InteractiveTimeout,
		"等待登录超时，请在打开的页面中完成登录后重试")
	if err != nil {
		return models.AuthStatus{}, err
	}
	return c.creds.Status(ctx, c.provider)
}

// Invalidate drops the stored credential.
func (c *Capturer) Invalidate(ctx context.Context) error {
	return c.creds.Clear(ctx, c.provider)
}

func (c *Capturer) capture(ctx context.Context, headless bool, timeout time.Duration, timeoutMsg string) (*models.SessionCredential, error) {
	tab, err := c.open(ctx, c.homeURL, headless)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternalFault, "无法打开登录页面", err)
	}
	defer func() {
		// Best effort: a tab that refuses to close is not a capture
		// failure.
		if cerr := tab.Close(); cerr != nil {
			c.log.WithError(cerr).Warn("failed to close capture tab")
		}
	}()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(c.cfg.PollInterval)
	defer tick.Stop()

	for {
		value, rerr := tab.StorageItem(c.storageKey)
		if rerr != nil {
			c.log.WithError(rerr).Debug("storage read failed, retrying")
		} else if strings.TrimSpace(value) != "" {
			cred := &models.SessionCredential{
				Provider:     c.provider,
				RefreshToken: strings.TrimSpace(value),
			}
			if serr := c.creds.Save(ctx, cred); serr != nil {
				return nil, serr
			}
			c.log.Info("session credential captured")
			return cred, nil
		}

		select {
		case <-ctx.Done():
			return nil, apperr.Wrap(apperr.KindTimeout, "请求超时，请稍后重试", ctx.Err())
		case <-deadline.C:
			return nil, apperr.New(apperr.KindAuthExpired, timeoutMsg)
		case <-tick.C:
		}
	}
}

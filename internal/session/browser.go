package session

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"github.com/pagelens/pagelens-backend/internal/config"
)

// StorageTab is one open provider tab whose client-side storage gets
// polled for a credential key.
type StorageTab interface {
	// StorageItem returns the localStorage value for key, or "" when
	// the key is absent.
	StorageItem(key string) (string, error)
	Close() error
}

// TabOpener opens a tab on a provider's home page. headless selects
// the silent background capture; a visible window lets the user log in.
type TabOpener func(ctx context.Context, homeURL string, headless bool) (StorageTab, error)

// BrowserOpener drives a real Chromium via rod. One launcher per tab:
// captures are rare and sequential, so we pay the launch cost instead
// of keeping a browser resident.
type BrowserOpener struct {
	bin string
}

func NewBrowserOpener(cfg config.BrowserConfig) *BrowserOpener {
	return &BrowserOpener{bin: cfg.Bin}
}

// Open implements TabOpener.
func (o *BrowserOpener) Open(ctx context.Context, homeURL string, headless bool) (StorageTab, error) {
	l := launcher.New().
		Headless(headless).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage")
	if o.bin != "" {
		l = l.Bin(o.bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if err := page.Navigate(homeURL); err != nil {
		_ = page.Close()
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}

	return &rodTab{launcher: l, browser: browser, page: page}, nil
}

type rodTab struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

func (t *rodTab) StorageItem(key string) (string, error) {
	result, err := t.page.Eval(`(key) => window.localStorage.getItem(key) || ""`, key)
	if err != nil {
		return "", err
	}
	return result.Value.Str(), nil
}

func (t *rodTab) Close() error {
	err := t.page.Close()
	if cerr := t.browser.Close(); err == nil {
		err = cerr
	}
	t.launcher.Cleanup()
	return err
}

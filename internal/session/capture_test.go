package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/config"
	"github.com/pagelens/pagelens-backend/internal/models"
)

type memCreds struct {
	cred   *models.SessionCredential
	saves  int
	clears int
}

func (m *memCreds) Get(ctx context.Context, provider models.Provider) (*models.SessionCredential, error) {
	return m.cred, nil
}

func (m *memCreds) Save(ctx context.Context, cred *models.SessionCredential) error {
	m.cred = cred
	m.saves++
	return nil
}

func (m *memCreds) Clear(ctx context.Context, provider models.Provider) error {
	m.cred = nil
	m.clears++
	return nil
}

func (m *memCreds) Status(ctx context.Context, provider models.Provider) (models.AuthStatus, error) {
	status := models.AuthStatus{Provider: provider, Connected: m.cred != nil}
	if m.cred != nil {
		t := m.cred.UpdatedAt
		status.UpdatedAt = &t
	}
	return status, nil
}

type fakeTab struct {
	values   []string
	reads    atomic.Int32
	closed   atomic.Bool
	closeErr error
}

func (t *fakeTab) StorageItem(key string) (string, error) {
	i := int(t.reads.Add(1)) - 1
	if i >= len(t.values) {
		i = len(t.values) - 1
	}
	return t.values[i], nil
}

func (t *fakeTab) Close() error {
	t.closed.Store(true)
	return t.closeErr
}

func fakeOpener(tab *fakeTab, opens *int, sawHeadless *bool) TabOpener {
	return func(ctx context.Context, homeURL string, headless bool) (StorageTab, error) {
		*opens++
		*sawHeadless = headless
		return tab, nil
	}
}

func testCaptureConfig() config.CaptureConfig {
	return config.CaptureConfig{
		PollInterval:       time.Millisecond,
		SilentTimeout:      50 * time.Millisecond,
		InteractiveTimeout: 50 * time.Millisecond,
	}
}

func TestEnsureCredentialReturnsStoredWithoutTab(t *testing.T) {
	creds := &memCreds{cred: &models.SessionCredential{
		Provider:     models.ProviderKimi,
		RefreshToken: "stored-token",
	}}
	opens := 0
	headless := false
	capt := NewCapturer(models.ProviderKimi, "https://www.kimi.com", "refresh_token",
		creds, fakeOpener(&fakeTab{}, &opens, &headless), testCaptureConfig())

	cred, err := capt.EnsureCredential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stored-token", cred.RefreshToken)
	assert.Equal(t, 0, opens)
}

func TestEnsureCredentialCapturesHeadless(t *testing.T) {
	creds := &memCreds{}
	tab := &fakeTab{values: []string{"", "", "captured-token"}}
	opens := 0
	headless := false
	capt := NewCapturer(models.ProviderKimi, "https://www.kimi.com", "refresh_token",
		creds, fakeOpener(tab, &opens, &headless), testCaptureConfig())

	cred, err := capt.EnsureCredential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "captured-token", cred.RefreshToken)
	assert.Equal(t, 1, opens)
	assert.True(t, headless)
	assert.Equal(t, 1, creds.saves)
	assert.True(t, tab.closed.Load(), "capture tab should be closed")
}

func TestEnsureCredentialTimesOutAuthExpired(t *testing.T) {
	creds := &memCreds{}
	tab := &fakeTab{values: []string{""}}
	opens := 0
	headless := false
	capt := NewCapturer(models.ProviderGLM, "https://chatglm.cn", "chatglm_refresh_token",
		creds, fakeOpener(tab, &opens, &headless), testCaptureConfig())

	_, err := capt.EnsureCredential(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthExpired, apperr.KindOf(err))
	assert.Equal(t, 0, creds.saves)
	assert.True(t, tab.closed.Load())
}

func TestConnectInteractiveUsesVisibleTab(t *testing.T) {
	creds := &memCreds{}
	tab := &fakeTab{values: []string{"", "login-token"}}
	opens := 0
	headless := true
	capt := NewCapturer(models.ProviderGLM, "https://chatglm.cn", "chatglm_refresh_token",
		creds, fakeOpener(tab, &opens, &headless), testCaptureConfig())

	status, err := capt.ConnectInteractive(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.False(t, headless, "interactive capture should open a visible tab")
	require.NotNil(t, creds.cred)
	assert.Equal(t, "login-token", creds.cred.RefreshToken)
}

func TestCaptureSwallowsCloseError(t *testing.T) {
	creds := &memCreds{}
	tab := &fakeTab{values: []string{"tok"}, closeErr: errors.New("tab gone")}
	opens := 0
	headless := false
	capt := NewCapturer(models.ProviderKimi, "https://www.kimi.com", "refresh_token",
		creds, fakeOpener(tab, &opens, &headless), testCaptureConfig())

	_, err := capt.EnsureCredential(context.Background())
	assert.NoError(t, err)
}

func TestInvalidateClearsStore(t *testing.T) {
	creds := &memCreds{cred: &models.SessionCredential{
		Provider:     models.ProviderKimi,
		RefreshToken: "tok",
	}}
	opens := 0
	headless := false
	capt := NewCapturer(models.ProviderKimi, "https://www.kimi.com", "refresh_token",
		creds, fakeOpener(&fakeTab{}, &opens, &headless), testCaptureConfig())

	require.NoError(t, capt.Invalidate(context.Background()))
	assert.Nil(t, creds.cred)
	assert.Equal(t, 1, creds.clears)
}

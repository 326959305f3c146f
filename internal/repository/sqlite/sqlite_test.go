package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/config"
	"github.com/pagelens/pagelens-backend/internal/database"
	"github.com/pagelens/pagelens-backend/internal/models"
)

func testDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.NewConnection(config.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations())
	return db
}

func TestCredentialRepository_SaveRejectsEmptyRefreshToken(t *testing.T) {
	repo := NewCredentialRepository(testDB(t).DB)

	err := repo.Save(context.Background(), &models.SessionCredential{
		Provider:     models.ProviderKimi,
		RefreshToken: "   ",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestCredentialRepository_Roundtrip(t *testing.T) {
	repo := NewCredentialRepository(testDB(t).DB)
	ctx := context.Background()

	cred, err := repo.Get(ctx, models.ProviderKimi)
	require.NoError(t, err)
	assert.Nil(t, cred)

	require.NoError(t, repo.Save(ctx, &models.SessionCredential{
		Provider:     models.ProviderKimi,
		RefreshToken: "refresh-1",
		AccessToken:  "access-1",
	}))

	cred, err = repo.Get(ctx, models.ProviderKimi)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "refresh-1", cred.RefreshToken)
	assert.Equal(t, "access-1", cred.AccessToken)
	assert.False(t, cred.UpdatedAt.IsZero())

	// Rotation overwrites in place.
	require.NoError(t, repo.Save(ctx, &models.SessionCredential{
		Provider:     models.ProviderKimi,
		RefreshToken: "refresh-2",
	}))
	cred, err = repo.Get(ctx, models.ProviderKimi)
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", cred.RefreshToken)

	status, err := repo.Status(ctx, models.ProviderKimi)
	require.NoError(t, err)
	assert.True(t, status.Connected)
	require.NotNil(t, status.UpdatedAt)

	require.NoError(t, repo.Clear(ctx, models.ProviderKimi))
	status, err = repo.Status(ctx, models.ProviderKimi)
	require.NoError(t, err)
	assert.False(t, status.Connected)
}

func TestSettingsRepository_DefaultsAndRoundtrip(t *testing.T) {
	repo := NewSettingsRepository(testDB(t).DB)
	ctx := context.Background()

	settings, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderOpenAI, settings.Provider)
	assert.Equal(t, "tldr", settings.SummaryTemplateID)

	settings.Provider = models.ProviderKimi
	settings.SummaryTemplateID = "chapters"
	require.NoError(t, repo.Save(ctx, settings))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderKimi, got.Provider)
	assert.Equal(t, "chapters", got.SummaryTemplateID)
}

func TestSettingsRepository_SaveValidates(t *testing.T) {
	repo := NewSettingsRepository(testDB(t).DB)

	settings := models.DefaultSettings()
	settings.Provider = "nope"
	err := repo.Save(context.Background(), settings)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestSummaryRepository_BoundedNewestFirst(t *testing.T) {
	repo := NewSummaryRepository(testDB(t).DB)
	ctx := context.Background()

	for i := 0; i < maxRetained+5; i++ {
		require.NoError(t, repo.Add(ctx, &models.SummaryRecord{
			Title:      fmt.Sprintf("page %d", i),
			URL:        fmt.Sprintf("https://example.com/%d", i),
			Summary:    "summary",
			Provider:   models.ProviderOpenAI,
			Model:      "gpt-4o",
			TemplateID: "tldr",
		}))
	}

	records, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, maxRetained)

	// Insertion order is by ascending timestamp, so pruning keeps the
	// newest rows and List returns them newest first.
	assert.Equal(t, fmt.Sprintf("page %d", maxRetained+4), records[0].Title)
}

package store

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/componentry/pkg/types"
)

func TestSettings_Defaults(t *testing.T) {
	ctx := context.Background()
	s := NewSettings(newExecutor(t), zerolog.Nop())

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Settings{
		SidebarCollapsed:       false,
		VersionHistoryExpanded: true,
		PreviewWidth:           384,
		LastActiveTab:          "editor",
	}, got)
}

func TestSettings_SettersPersist(t *testing.T) {
	ctx := context.Background()
	db := newExecutor(t)
	s := NewSettings(db, zerolog.Nop())

	require.NoError(t, s.SetSidebarCollapsed(ctx, true))
	require.NoError(t, s.SetVersionHistoryExpanded(ctx, false))
	require.NoError(t, s.SetPreviewWidth(ctx, 512))
	require.NoError(t, s.SetLastActiveTab(ctx, "preview"))
	require.NoError(t, s.SetPreviewWidth(ctx, 640))

	want := types.Settings{
		SidebarCollapsed:       true,
		VersionHistoryExpanded: false,
		PreviewWidth:           640,
		LastActiveTab:          "preview",
	}
	assert.Equal(t, want, s.Snapshot())

	reloaded, err := NewSettings(db, zerolog.Nop()).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, reloaded)

	rows, err := db.Query(ctx, "SELECT id FROM ui_settings WHERE setting_key = ?", types.SettingPreviewWidth)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "upsert keeps one row per key")
}

func TestSettings_LoadSkipsUnknownAndInvalid(t *testing.T) {
	ctx := context.Background()
	db := newExecutor(t)
	s := NewSettings(db, zerolog.Nop())

	require.NoError(t, s.Save(ctx, "theme", "dark"))
	require.NoError(t, s.Save(ctx, types.SettingPreviewWidth, "wide"))
	require.NoError(t, s.Save(ctx, types.SettingSidebarCollapsed, "maybe"))
	require.NoError(t, s.Save(ctx, types.SettingLastActiveTab, "history"))

	got, err := NewSettings(db, zerolog.Nop()).Load(ctx)
	require.NoError(t, err)
	want := types.DefaultSettings()
	want.LastActiveTab = "history"
	assert.Equal(t, want, got)
}

func TestSettings_Set(t *testing.T) {
	ctx := context.Background()
	s := NewSettings(newExecutor(t), zerolog.Nop())

	require.NoError(t, s.Set(ctx, types.SettingSidebarCollapsed, "true"))
	assert.True(t, s.Snapshot().SidebarCollapsed)

	assert.ErrorIs(t, s.Set(ctx, "theme", "dark"), types.ErrUnknownSetting)
	assert.ErrorIs(t, s.Set(ctx, types.SettingPreviewWidth, "wide"), types.ErrInvalidSetting)
	assert.Equal(t, 384, s.Snapshot().PreviewWidth)
}

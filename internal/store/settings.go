package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/componentry/pkg/types"
)

const upsertSettingSQL = `INSERT INTO ui_settings (id, setting_key, setting_value, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(setting_key) DO UPDATE SET
    setting_value = excluded.setting_value,
    updated_at = excluded.updated_at`

// Settings holds the typed UI preferences backed by the ui_settings table.
type Settings struct {
	db  types.Executor
	log zerolog.Logger
	now func() time.Time

	mu      sync.RWMutex
	current types.Settings
}

// NewSettings creates a Settings store holding the defaults.
func NewSettings(db types.Executor, log zerolog.Logger) *Settings {
	return &Settings{
		db:      db,
		log:     log.With().Str("store", "settings").Logger(),
		now:     time.Now,
		current: types.DefaultSettings(),
	}
}

// Load reads every stored setting. Unknown keys are ignored and values that
// do not parse leave the field as it was.
func (s *Settings) Load(ctx context.Context) (types.Settings, error) {
	rows, err := s.db.Query(ctx, "SELECT setting_key, setting_value FROM ui_settings")
	if err != nil {
		s.log.Error().Err(err).Msg("load settings")
		return types.Settings{}, fmt.Errorf("loading settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		key, value := text(row, "setting_key"), text(row, "setting_value")
		if err := apply(&s.current, key, value); err != nil {
			s.log.Warn().Err(err).Str("key", key).Str("value", value).Msg("skipping stored setting")
		}
	}
	return s.current, nil
}

// apply parses value into the field named by key.
func apply(st *types.Settings, key, value string) error {
	switch key {
	case types.SettingSidebarCollapsed:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %w", types.ErrInvalidSetting, err)
		}
		st.SidebarCollapsed = b
	case types.SettingVersionHistoryExpanded:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %w", types.ErrInvalidSetting, err)
		}
		st.VersionHistoryExpanded = b
	case types.SettingPreviewWidth:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %w", types.ErrInvalidSetting, err)
		}
		st.PreviewWidth = n
	case types.SettingLastActiveTab:
		st.LastActiveTab = value
	default:
		return fmt.Errorf("%w: %q", types.ErrUnknownSetting, key)
	}
	return nil
}

// Save upserts one key/value pair.
func (s *Settings) Save(ctx context.Context, key, value string) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating UUID v7: %w", err)
	}
	if _, err := s.db.Mutate(ctx, upsertSettingSQL, id.String(), key, value, types.FormatTime(s.now())); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("save setting")
		return fmt.Errorf("saving setting %s: %w", key, err)
	}
	return nil
}

// Set parses value for a known key, updates the in-memory field, and saves
// it.
func (s *Settings) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	next := s.current
	err := apply(&next, key, value)
	if err == nil {
		s.current = next
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Save(ctx, key, value)
}

// SetSidebarCollapsed updates and saves sidebarCollapsed.
func (s *Settings) SetSidebarCollapsed(ctx context.Context, v bool) error {
	return s.Set(ctx, types.SettingSidebarCollapsed, strconv.FormatBool(v))
}

// SetVersionHistoryExpanded updates and saves versionHistoryExpanded.
func (s *Settings) SetVersionHistoryExpanded(ctx context.Context, v bool) error {
	return s.Set(ctx, types.SettingVersionHistoryExpanded, strconv.FormatBool(v))
}

// SetPreviewWidth updates and saves previewWidth.
func (s *Settings) SetPreviewWidth(ctx context.Context, v int) error {
	return s.Set(ctx, types.SettingPreviewWidth, strconv.Itoa(v))
}

// SetLastActiveTab updates and saves lastActiveTab.
func (s *Settings) SetLastActiveTab(ctx context.Context, v string) error {
	return s.Set(ctx, types.SettingLastActiveTab, v)
}

// Snapshot returns the in-memory settings.
func (s *Settings) Snapshot() types.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

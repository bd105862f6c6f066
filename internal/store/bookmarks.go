package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/componentry/pkg/types"
)

var bookmarkedComponentsSQL = `SELECT c.id, c.name, c.description, c.code, c.category, c.tags, c.created_at, c.updated_at
FROM components c
INNER JOIN bookmarks b ON b.component_id = c.id
ORDER BY ` + timeOrder("b.created_at") + ` DESC, b.rowid DESC`

// Bookmarks manages the bookmarked state of components.
type Bookmarks struct {
	db       types.Executor
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time

	mu         sync.RWMutex
	components []types.Component
}

// NewBookmarks creates a Bookmarks store. notifier may be nil.
func NewBookmarks(db types.Executor, notifier Notifier, log zerolog.Logger) *Bookmarks {
	return &Bookmarks{
		db:         db,
		notifier:   notifier,
		log:        log.With().Str("store", "bookmarks").Logger(),
		now:        time.Now,
		components: []types.Component{},
	}
}

func (s *Bookmarks) notify(message string, kind Kind) {
	if s.notifier != nil {
		s.notifier.Notify(message, kind)
	}
}

// Fetch reloads the bookmarked components, most recently bookmarked first.
func (s *Bookmarks) Fetch(ctx context.Context) ([]types.Component, error) {
	rows, err := s.db.Query(ctx, bookmarkedComponentsSQL)
	if err != nil {
		s.log.Error().Err(err).Msg("fetch bookmarks")
		return nil, fmt.Errorf("fetching bookmarks: %w", err)
	}
	list, err := hydrateComponents(rows)
	if err != nil {
		s.log.Error().Err(err).Msg("hydrate bookmarks")
		return nil, fmt.Errorf("fetching bookmarks: %w", err)
	}

	s.mu.Lock()
	s.components = list
	s.mu.Unlock()
	return cloneComponents(list), nil
}

// IsBookmarked reports whether componentID is bookmarked.
func (s *Bookmarks) IsBookmarked(ctx context.Context, componentID string) (bool, error) {
	rows, err := s.db.Query(ctx, "SELECT id FROM bookmarks WHERE component_id = ?", componentID)
	if err != nil {
		s.log.Error().Err(err).Str("component", componentID).Msg("check bookmark")
		return false, fmt.Errorf("checking bookmark of %s: %w", componentID, err)
	}
	return len(rows) > 0, nil
}

// Add bookmarks componentID.
func (s *Bookmarks) Add(ctx context.Context, componentID string) error {
	if componentID == "" {
		return types.ErrInvalidID
	}
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating UUID v7: %w", err)
	}
	_, err = s.db.Mutate(ctx, "INSERT INTO bookmarks (id, component_id, created_at) VALUES (?, ?, ?)",
		id.String(), componentID, types.FormatTime(s.now()))
	if err != nil {
		s.log.Error().Err(err).Str("component", componentID).Msg("add bookmark")
		s.notify("Failed to bookmark component", KindError)
		return fmt.Errorf("bookmarking %s: %w", componentID, err)
	}
	s.notify("Component bookmarked", KindSuccess)
	_, err = s.Fetch(ctx)
	return err
}

// Remove clears the bookmark of componentID.
func (s *Bookmarks) Remove(ctx context.Context, componentID string) error {
	if componentID == "" {
		return types.ErrInvalidID
	}
	if _, err := s.db.Mutate(ctx, "DELETE FROM bookmarks WHERE component_id = ?", componentID); err != nil {
		s.log.Error().Err(err).Str("component", componentID).Msg("remove bookmark")
		s.notify("Failed to remove bookmark", KindError)
		return fmt.Errorf("removing bookmark of %s: %w", componentID, err)
	}
	s.notify("Bookmark removed", KindSuccess)
	_, err := s.Fetch(ctx)
	return err
}

// Toggle flips the bookmarked state of componentID and returns the new
// state. The check and the write are separate statements.
func (s *Bookmarks) Toggle(ctx context.Context, componentID string) (bool, error) {
	bookmarked, err := s.IsBookmarked(ctx, componentID)
	if err != nil {
		return false, err
	}
	if bookmarked {
		return false, s.Remove(ctx, componentID)
	}
	return true, s.Add(ctx, componentID)
}

// Components returns the cached bookmarked components.
func (s *Bookmarks) Components() []types.Component {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneComponents(s.components)
}

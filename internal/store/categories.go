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

// Categories manages the category reference list.
type Categories struct {
	db       types.Executor
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time

	mu         sync.RWMutex
	categories []types.Category
}

// NewCategories creates a Categories store. notifier may be nil.
func NewCategories(db types.Executor, notifier Notifier, log zerolog.Logger) *Categories {
	return &Categories{
		db:         db,
		notifier:   notifier,
		log:        log.With().Str("store", "categories").Logger(),
		now:        time.Now,
		categories: []types.Category{},
	}
}

func (s *Categories) notify(message string, kind Kind) {
	if s.notifier != nil {
		s.notifier.Notify(message, kind)
	}
}

// Fetch reloads every category ordered by name.
func (s *Categories) Fetch(ctx context.Context) ([]types.Category, error) {
	rows, err := s.db.Query(ctx, "SELECT id, name, description, created_at FROM categories ORDER BY name")
	if err != nil {
		s.log.Error().Err(err).Msg("fetch categories")
		return nil, fmt.Errorf("fetching categories: %w", err)
	}

	list := make([]types.Category, 0, len(rows))
	for _, row := range rows {
		created, err := types.ParseTime(row["created_at"])
		if err != nil {
			return nil, fmt.Errorf("fetching categories: %w", err)
		}
		list = append(list, types.Category{
			ID:          text(row, "id"),
			Name:        text(row, "name"),
			Description: text(row, "description"),
			CreatedAt:   created,
		})
	}

	s.mu.Lock()
	s.categories = list
	s.mu.Unlock()

	out := make([]types.Category, len(list))
	copy(out, list)
	return out, nil
}

// Create adds a category.
func (s *Categories) Create(ctx context.Context, name, description string) (types.Category, error) {
	if name == "" {
		return types.Category{}, types.ErrInvalidName
	}
	id, err := uuid.NewV7()
	if err != nil {
		return types.Category{}, fmt.Errorf("generating UUID v7: %w", err)
	}

	now := s.now().UTC()
	_, err = s.db.Mutate(ctx, "INSERT INTO categories (id, name, description, created_at) VALUES (?, ?, ?, ?)",
		id.String(), name, nullable(description), types.FormatTime(now))
	if err != nil {
		s.log.Error().Err(err).Str("name", name).Msg("create category")
		s.notify("Failed to create category", KindError)
		return types.Category{}, fmt.Errorf("creating category: %w", err)
	}
	s.notify("Category created successfully", KindSuccess)

	if _, err := s.Fetch(ctx); err != nil {
		return types.Category{}, err
	}
	return types.Category{ID: id.String(), Name: name, Description: description, CreatedAt: now}, nil
}

// Delete removes a category. Components keep their free-text category.
func (s *Categories) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	res, err := s.db.Mutate(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("delete category")
		s.notify("Failed to delete category", KindError)
		return fmt.Errorf("deleting category %s: %w", id, err)
	}
	if res.Changes == 0 {
		s.notify("Failed to delete category", KindError)
		return fmt.Errorf("deleting category %s: %w", id, types.ErrNotFound)
	}
	s.notify("Category deleted successfully", KindSuccess)
	_, err = s.Fetch(ctx)
	return err
}

// Categories returns the cached list.
func (s *Categories) Categories() []types.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

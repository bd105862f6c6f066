package store

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/componentry/pkg/types"
)

func TestCategories(t *testing.T) {
	ctx := context.Background()
	db := newExecutor(t)
	notes := NewCollector(0)
	s := NewCategories(db, notes, zerolog.Nop())
	s.now = ticker()

	forms, err := s.Create(ctx, "Forms", "inputs and selects")
	require.NoError(t, err)
	buttons, err := s.Create(ctx, "Buttons", "")
	require.NoError(t, err)

	list, err := s.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Category{buttons, forms}, list, "ordered by name")
	assert.Equal(t, list, s.Categories())

	_, err = s.Create(ctx, "", "")
	assert.ErrorIs(t, err, types.ErrInvalidName)

	t.Run("components keep a deleted category as text", func(t *testing.T) {
		components := NewComponents(db, nil, zerolog.Nop())
		c, err := components.Create(ctx, types.ComponentCreate{Name: "Input", Code: "<input>", Category: "Forms"})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, forms.ID))
		got, err := components.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Forms", got.Category)
		assert.Len(t, s.Categories(), 1)
	})

	assert.ErrorIs(t, s.Delete(ctx, forms.ID), types.ErrNotFound)
	assert.Contains(t, messages(notes), "success:Category created successfully")
	assert.Contains(t, messages(notes), "error:Failed to delete category")
}

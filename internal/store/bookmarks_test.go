package store

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/componentry/pkg/types"
)

func TestBookmarks_ToggleIsAnInvolution(t *testing.T) {
	ctx := context.Background()
	db := newExecutor(t)
	notes := NewCollector(0)
	components := NewComponents(db, nil, zerolog.Nop())
	bookmarks := NewBookmarks(db, notes, zerolog.Nop())

	c, err := components.Create(ctx, types.ComponentCreate{Name: "Toast", Code: "<div/>"})
	require.NoError(t, err)

	for _, start := range []bool{false, true} {
		if start {
			require.NoError(t, bookmarks.Add(ctx, c.ID))
		}
		on, err := bookmarks.Toggle(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, !start, on)

		on, err = bookmarks.Toggle(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, start, on)

		got, err := bookmarks.IsBookmarked(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, start, got)
	}
	assert.Contains(t, messages(notes), "success:Component bookmarked")
	assert.Contains(t, messages(notes), "success:Bookmark removed")
}

func TestBookmarks_Fetch(t *testing.T) {
	ctx := context.Background()
	db := newExecutor(t)
	components := NewComponents(db, nil, zerolog.Nop())
	bookmarks := NewBookmarks(db, nil, zerolog.Nop())
	bookmarks.now = ticker()

	a, err := components.Create(ctx, types.ComponentCreate{Name: "A", Code: "a", Tags: []string{"x"}})
	require.NoError(t, err)
	b, err := components.Create(ctx, types.ComponentCreate{Name: "B", Code: "b"})
	require.NoError(t, err)
	_, err = components.Create(ctx, types.ComponentCreate{Name: "C", Code: "c"})
	require.NoError(t, err)

	require.NoError(t, bookmarks.Add(ctx, a.ID))
	require.NoError(t, bookmarks.Add(ctx, b.ID))

	list, err := bookmarks.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID, "most recently bookmarked first")
	assert.Equal(t, a.ID, list[1].ID)
	assert.Equal(t, []string{"x"}, list[1].Tags)
	assert.Equal(t, list, bookmarks.Components())

	t.Run("deleting a component drops its bookmark", func(t *testing.T) {
		require.NoError(t, components.Delete(ctx, b.ID))
		list, err := bookmarks.Fetch(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, a.ID, list[0].ID)
	})

	t.Run("one bookmark per component", func(t *testing.T) {
		err := bookmarks.Add(ctx, a.ID)
		assert.ErrorIs(t, err, types.ErrStatement)
	})

	t.Run("unknown component", func(t *testing.T) {
		err := bookmarks.Add(ctx, "missing")
		assert.ErrorIs(t, err, types.ErrStatement)
	})
}

func TestBookmarks_FetchLegacyTimestamps(t *testing.T) {
	ctx := context.Background()
	db := newExecutor(t)
	components := NewComponents(db, nil, zerolog.Nop())
	bookmarks := NewBookmarks(db, nil, zerolog.Nop())

	a, err := components.Create(ctx, types.ComponentCreate{Name: "A", Code: "a"})
	require.NoError(t, err)
	b, err := components.Create(ctx, types.ComponentCreate{Name: "B", Code: "b"})
	require.NoError(t, err)

	_, err = db.Mutate(ctx, "INSERT INTO bookmarks (id, component_id, created_at) VALUES ('old', ?, '2025-01-02 10:00:00')", a.ID)
	require.NoError(t, err)
	_, err = db.Mutate(ctx, "INSERT INTO bookmarks (id, component_id, created_at) VALUES ('new', ?, '2025-01-02T09:00:00.000000000Z')", b.ID)
	require.NoError(t, err)

	list, err := bookmarks.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID, "10:00 bookmark is the most recent")
}

func TestBookmarks_DefaultTimestamp(t *testing.T) {
	ctx := context.Background()
	db := newExecutor(t)
	components := NewComponents(db, nil, zerolog.Nop())
	bookmarks := NewBookmarks(db, nil, zerolog.Nop())

	c, err := components.Create(ctx, types.ComponentCreate{Name: "A", Code: "a"})
	require.NoError(t, err)

	// Raw insert relying on the column default.
	_, err = db.Mutate(ctx, "INSERT INTO bookmarks (id, component_id) VALUES (?, ?)", "bm1", c.ID)
	require.NoError(t, err)

	on, err := bookmarks.IsBookmarked(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, on)
	list, err := bookmarks.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

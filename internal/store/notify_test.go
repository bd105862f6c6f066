package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_KeepsUntilRemoved(t *testing.T) {
	c := NewCollector(0)
	c.Notify("saved", KindSuccess)
	c.Notify("failed", KindError)

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "saved", list[0].Message)
	assert.Equal(t, KindError, list[1].Kind)
	assert.NotEqual(t, list[0].ID, list[1].ID)

	c.Remove(list[0].ID)
	c.Remove("unknown")
	list = c.List()
	require.Len(t, list, 1)
	assert.Equal(t, "failed", list[0].Message)
}

func TestCollector_Expires(t *testing.T) {
	c := NewCollector(20 * time.Millisecond)
	c.Notify("short lived", KindSuccess)
	require.Len(t, c.List(), 1)

	assert.Eventually(t, func() bool { return len(c.List()) == 0 }, time.Second, 5*time.Millisecond)
}

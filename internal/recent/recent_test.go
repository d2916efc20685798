package recent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_MostRecentFirst(t *testing.T) {
	tr, err := NewTracker(5)
	require.NoError(t, err)

	tr.Record("user-1", "panel-580w")
	tr.Record("user-1", "inverter-5kw")
	tr.Record("user-1", "battery-48v")

	assert.Equal(t, []string{"battery-48v", "inverter-5kw", "panel-580w"}, tr.Views("user-1"))
}

func TestTracker_ReviewMovesToFront(t *testing.T) {
	tr, err := NewTracker(5)
	require.NoError(t, err)

	tr.Record("user-1", "panel-580w")
	tr.Record("user-1", "inverter-5kw")
	tr.Record("user-1", "panel-580w")

	views := tr.Views("user-1")
	assert.Equal(t, []string{"panel-580w", "inverter-5kw"}, views, "re-view must not duplicate")
}

func TestTracker_CapEvictsOldest(t *testing.T) {
	tr, err := NewTracker(3)
	require.NoError(t, err)

	tr.Record("user-1", "a")
	tr.Record("user-1", "b")
	tr.Record("user-1", "c")
	tr.Record("user-1", "d")

	assert.Equal(t, []string{"d", "c", "b"}, tr.Views("user-1"))
}

func TestTracker_UsersAreIsolated(t *testing.T) {
	tr, err := NewTracker(5)
	require.NoError(t, err)

	tr.Record("user-1", "panel-580w")
	tr.Record("user-2", "inverter-5kw")

	assert.Equal(t, []string{"panel-580w"}, tr.Views("user-1"))
	assert.Equal(t, []string{"inverter-5kw"}, tr.Views("user-2"))
}

func TestTracker_UnknownUserEmpty(t *testing.T) {
	tr, err := NewTracker(5)
	require.NoError(t, err)

	assert.Empty(t, tr.Views("nobody"))
}

func TestTracker_Forget(t *testing.T) {
	tr, err := NewTracker(5)
	require.NoError(t, err)

	tr.Record("user-1", "panel-580w")
	tr.Forget("user-1")

	assert.Empty(t, tr.Views("user-1"))
}

func TestTracker_IgnoresBlankIDs(t *testing.T) {
	tr, err := NewTracker(5)
	require.NoError(t, err)

	tr.Record("", "panel-580w")
	tr.Record("user-1", "")

	assert.Empty(t, tr.Views("user-1"))
}

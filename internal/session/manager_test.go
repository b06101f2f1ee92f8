package session

import (
	"testing"
	"time"

	"github.com/docsorter/backend/internal/testutil"
	"github.com/docsorter/backend/internal/upload"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(maxRuns int) (*Manager, *[]string) {
	logger, _ := test.NewNullLogger()
	var keys []string
	m := NewManager(ManagerConfig{
		MaxRuns: maxRuns,
		Logger:  logger,
		NewRemote: func(apiKey string) upload.Remote {
			keys = append(keys, apiKey)
			return testutil.NewFakeRemote()
		},
	})
	return m, &keys
}

func TestManagerCreateGetDelete(t *testing.T) {
	m, keys := newTestManager(0)

	run, err := m.Create(" P1 ", "key-1")
	require.NoError(t, err)
	assert.Equal(t, "P1", run.ProjectCode())
	assert.Equal(t, []string{"key-1"}, *keys)

	got, ok := m.Get(run.ID())
	require.True(t, ok)
	assert.Same(t, run, got)

	list := m.List()
	require.Len(t, list, 1)
	assert.Equal(t, run.ID(), list[0].ID)

	assert.True(t, m.Delete(run.ID()))
	assert.False(t, m.Delete(run.ID()))
	_, ok = m.Get(run.ID())
	assert.False(t, ok)

	_, err = m.Create("", "")
	assert.ErrorIs(t, err, ErrEmptyProject)
}

func TestManagerEvictsLeastRecentlyUsed(t *testing.T) {
	m, _ := newTestManager(2)

	first, err := m.Create("P1", "")
	require.NoError(t, err)
	second, err := m.Create("P2", "")
	require.NoError(t, err)

	m.runs[first.ID()].lastAccessed = time.Now().Add(-time.Hour)
	m.runs[second.ID()].lastAccessed = time.Now().Add(-2 * time.Hour)
	_, ok := m.Get(first.ID())
	require.True(t, ok)

	third, err := m.Create("P3", "")
	require.NoError(t, err)

	_, ok = m.Get(second.ID())
	assert.False(t, ok, "oldest run is evicted")
	_, ok = m.Get(first.ID())
	assert.True(t, ok)
	_, ok = m.Get(third.ID())
	assert.True(t, ok)
}

func TestCleanupOldRuns(t *testing.T) {
	m, _ := newTestManager(0)

	idle, err := m.Create("P1", "")
	require.NoError(t, err)
	fresh, err := m.Create("P2", "")
	require.NoError(t, err)

	m.runs[idle.ID()].lastAccessed = time.Now().Add(-2 * time.Hour)

	assert.Equal(t, 1, m.CleanupOldRuns(time.Hour))
	_, ok := m.Get(idle.ID())
	assert.False(t, ok)
	_, ok = m.Get(fresh.ID())
	assert.True(t, ok)
}

func TestCleanupKeepsRecentlyUsedRuns(t *testing.T) {
	m, _ := newTestManager(0)
	run, err := m.Create("P1", "")
	require.NoError(t, err)

	assert.Zero(t, m.CleanupOldRuns(0))
	_, ok := m.Get(run.ID())
	assert.True(t, ok)
}

package profile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/icp-discovery/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "icp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	p, err := s.SaveProfile(ctx, "ws-1", testResult())
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 1, p.Version)
	assert.Equal(t, model.ProfileActive, p.Status)

	got, err := s.ActiveProfile(ctx, "ws-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, 1, got.Version)
	require.Len(t, got.Personas, 1)
	assert.Equal(t, "vp__engineering", got.Personas[0].Key)
	assert.Equal(t, 9, got.Weights.Personas["vp__engineering"])
	assert.Equal(t, "run-1", got.Metadata.RunID)
}

func TestSQLiteStore_Versioning(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := s.SaveProfile(ctx, "ws-1", testResult())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	second, err := s.SaveProfile(ctx, "ws-1", testResult())
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	// Only the latest version is active.
	active, err := s.ActiveProfile(ctx, "ws-1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 2, active.Version)

	// History is append-only, newest first.
	versions, err := s.ListVersions(ctx, "ws-1")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, model.ProfileActive, versions[0].Status)
	assert.Equal(t, 1, versions[1].Version)
	assert.Equal(t, model.ProfileSuperseded, versions[1].Status)
}

func TestSQLiteStore_WorkspaceIsolation(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.SaveProfile(ctx, "ws-1", testResult())
	require.NoError(t, err)

	other, err := s.SaveProfile(ctx, "ws-2", testResult())
	require.NoError(t, err)
	assert.Equal(t, 1, other.Version)

	// Saving for ws-2 must not supersede ws-1's active profile.
	active, err := s.ActiveProfile(ctx, "ws-1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, model.ProfileActive, active.Status)
}

func TestSQLiteStore_ActiveProfile_None(t *testing.T) {
	s := newTestSQLiteStore(t)

	p, err := s.ActiveProfile(context.Background(), "ws-unknown")
	require.NoError(t, err)
	assert.Nil(t, p)
}

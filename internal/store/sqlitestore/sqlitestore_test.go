package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mj1618/desktop-flow/internal/model"
	"github.com/mj1618/desktop-flow/internal/store"
	"github.com/mj1618/desktop-flow/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", DBFile))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openTemp(t) })
}

func TestStore_DeleteCascadesSteps(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	require.NoError(t, s.SaveFlow(ctx, storetest.SampleFlow(t, "login")))
	require.NoError(t, s.DeleteFlow(ctx, "login"))

	var n int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM steps`).Scan(&n))
	assert.Zero(t, n)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), DBFile)

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.SaveWorkflow(ctx, model.Workflow{Name: "w", Flows: []string{"a"}}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	wf, err := s.GetWorkflow(ctx, "w")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, wf.Flows)
}

func TestConnect_EmptyPath(t *testing.T) {
	_, err := Connect(context.Background(), "")
	assert.ErrorContains(t, err, "database path is not set")
}

func TestOpenRegistered(t *testing.T) {
	s, err := store.Open(context.Background(), "sqlite", t.TempDir())
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &Store{}, s)
}

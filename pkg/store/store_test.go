package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minish/pkg/store"
)

func tempStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st, path
}

func TestAddCmdSequencesFromOne(t *testing.T) {
	st, _ := tempStore(t)
	for i, cmd := range []string{"ls", "echo hi", "cd /tmp"} {
		seq, err := st.AddCmd(cmd)
		require.NoError(t, err)
		assert.Equal(t, i+1, seq)
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	st, _ := tempStore(t)
	cmds := []string{"z last alphabetically first", "a", "m"}
	for _, cmd := range cmds {
		_, err := st.AddCmd(cmd)
		require.NoError(t, err)
	}
	got, err := st.List()
	require.NoError(t, err)
	assert.Equal(t, cmds, got)
}

func TestListEmpty(t *testing.T) {
	st, _ := tempStore(t)
	got, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLast(t *testing.T) {
	st, _ := tempStore(t)

	_, ok, err := st.Last()
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = st.AddCmd("first")
	require.NoError(t, err)
	_, err = st.AddCmd("second")
	require.NoError(t, err)

	cmd, ok, err := st.Last()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", cmd)
}

func TestReopenKeepsHistoryAndSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	_, err = st.AddCmd("before close")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = store.Open(path)
	require.NoError(t, err)
	defer st.Close()
	seq, err := st.AddCmd("after reopen")
	require.NoError(t, err)
	assert.Equal(t, 2, seq)

	got, err := st.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"before close", "after reopen"}, got)
}

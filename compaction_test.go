package diskcache_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pbardea/diskcache"
)

func Test_Cache_Compact_Preserves_Readable_Entries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := diskcache.Open(diskcache.Config{Dir: dir, ValueCount: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	for _, key := range []string{"a", "b", "c"} {
		ed, err := c.Edit(key)
		require.NoError(t, err)
		require.NoError(t, ed.Set(0, "value-"+key))
		require.NoError(t, ed.Commit())
	}

	require.NoError(t, c.Compact())

	for _, key := range []string{"a", "b", "c"} {
		snap, err := c.Read(key)
		require.NoError(t, err)
		require.NotNil(t, snap)

		v, err := snap.GetString(0)
		require.NoError(t, err)
		require.Equal(t, "value-"+key, v)
		_ = snap.Close()
	}
}

func Test_Cache_Compact_Is_Recoverable_After_Restart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c1, err := diskcache.Open(diskcache.Config{Dir: dir, ValueCount: 1})
	require.NoError(t, err)

	ed, err := c1.Edit("k")
	require.NoError(t, err)
	require.NoError(t, ed.Set(0, "v"))
	require.NoError(t, ed.Commit())

	require.NoError(t, c1.Compact())
	require.NoError(t, c1.Close())

	c2, err := diskcache.Open(diskcache.Config{Dir: dir, ValueCount: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c2.Close() })

	snap, err := c2.Read("k")
	require.NoError(t, err)
	require.NotNil(t, snap)

	v, err := snap.GetString(0)
	require.NoError(t, err)
	require.Equal(t, "v", v)
	_ = snap.Close()
}

func Test_Cache_Automatic_Compaction_Keeps_Cache_Functional(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := diskcache.Open(diskcache.Config{Dir: dir, ValueCount: 1, CompactionFactor: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	// Enough churn (many redundant ops relative to the small live-entry
	// count) to cross the rebuild threshold at least once.
	for i := 0; i < 50; i++ {
		ed, err := c.Edit("k")
		require.NoError(t, err)
		require.NoError(t, ed.Set(0, "v"))
		require.NoError(t, ed.Commit())
	}

	snap, err := c.Read("k")
	require.NoError(t, err)
	require.NotNil(t, snap)

	v, err := snap.GetString(0)
	require.NoError(t, err)
	require.Equal(t, "v", v)
	_ = snap.Close()
}

package diskcache_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pbardea/diskcache"
)

func Test_Editor_Methods_Fail_After_Commit(t *testing.T) {
	t.Parallel()

	c := openCache(t, diskcache.Config{Dir: t.TempDir(), ValueCount: 1})

	ed, err := c.Edit("k")
	require.NoError(t, err)
	require.NoError(t, ed.Set(0, "v"))
	require.NoError(t, ed.Commit())

	err = ed.Set(0, "again")
	require.ErrorIs(t, err, diskcache.ErrEditorInvalid)

	err = ed.Commit()
	require.ErrorIs(t, err, diskcache.ErrEditorInvalid)
}

func Test_Editor_Methods_Fail_After_Abort(t *testing.T) {
	t.Parallel()

	c := openCache(t, diskcache.Config{Dir: t.TempDir(), ValueCount: 1})

	ed, err := c.Edit("k")
	require.NoError(t, err)
	require.NoError(t, ed.Abort())

	_, err = ed.NewOutputStream(0)
	require.ErrorIs(t, err, diskcache.ErrEditorInvalid)
}

func Test_Editor_NewInputStream_Returns_Nil_For_Never_Readable_Entry(t *testing.T) {
	t.Parallel()

	c := openCache(t, diskcache.Config{Dir: t.TempDir(), ValueCount: 1})

	ed, err := c.Edit("k")
	require.NoError(t, err)

	r, err := ed.NewInputStream(0)
	require.NoError(t, err)
	require.Nil(t, r)
}

func Test_Editor_NewInputStream_Reads_Previously_Committed_Value(t *testing.T) {
	t.Parallel()

	c := openCache(t, diskcache.Config{Dir: t.TempDir(), ValueCount: 1})

	ed, err := c.Edit("k")
	require.NoError(t, err)
	require.NoError(t, ed.Set(0, "first"))
	require.NoError(t, ed.Commit())

	ed2, err := c.Edit("k")
	require.NoError(t, err)

	r, err := ed2.NewInputStream(0)
	require.NoError(t, err)
	require.NotNil(t, r)

	buf := make([]byte, 5)
	n, err := r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "first", string(buf[:n]))
}

package diskcache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pbardea/diskcache"
)

func Test_LoadConfig_Applies_File_Then_Override_Precedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.jsonc")

	// JWCC: comments and trailing commas are allowed.
	body := `{
		// cache directory, overridden below
		"dir": "/from-file",
		"valueCount": 2,
		"maxSize": 1000,
	}`
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o644))

	cfg, err := diskcache.LoadConfig(diskcache.LoadConfigInput{
		Base:       diskcache.DefaultConfig(),
		ConfigPath: configPath,
		Override:   diskcache.Config{Dir: dir},
	})
	require.NoError(t, err)

	require.Equal(t, dir, cfg.Dir, "override must win over file")
	require.Equal(t, 2, cfg.ValueCount, "file value kept when not overridden")
	require.EqualValues(t, 1000, cfg.MaxSize)
}

func Test_LoadConfig_Rejects_Missing_Dir(t *testing.T) {
	t.Parallel()

	_, err := diskcache.LoadConfig(diskcache.LoadConfigInput{
		Base: diskcache.Config{ValueCount: 1},
	})

	require.Error(t, err)
}

func Test_LoadConfig_Rejects_Zero_Value_Count(t *testing.T) {
	t.Parallel()

	_, err := diskcache.LoadConfig(diskcache.LoadConfigInput{
		Base: diskcache.Config{Dir: t.TempDir()},
	})

	require.Error(t, err)
}

func Test_LoadConfig_Defaults_Compaction_Factor(t *testing.T) {
	t.Parallel()

	cfg, err := diskcache.LoadConfig(diskcache.LoadConfigInput{
		Base: diskcache.Config{Dir: t.TempDir(), ValueCount: 1},
	})
	require.NoError(t, err)

	require.Greater(t, cfg.CompactionFactor, 0)
}

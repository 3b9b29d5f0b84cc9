package diskcache

import (
	"path/filepath"
	"strconv"
)

const (
	journalFileName    = "journal"
	journalTempName    = "journal.tmp"
	dirtyFileSuffix    = ".tmp"
	journalMagic       = "libcore.io.DiskLruCache"
	journalVersion     = "1"
	defaultCompactionK = 2
)

// cleanPath returns the on-disk path of value i of key in dir.
func cleanPath(dir, key string, i int) string {
	return filepath.Join(dir, key+"."+strconv.Itoa(i))
}

// dirtyPath returns the staging path of value i of key in dir.
func dirtyPath(dir, key string, i int) string {
	return filepath.Join(dir, key+"."+strconv.Itoa(i)+dirtyFileSuffix)
}

// journalPath returns the path of the cache's live journal file.
func journalPath(dir string) string {
	return filepath.Join(dir, journalFileName)
}

// journalTempPath returns the path compaction stages its rewritten journal at.
func journalTempPath(dir string) string {
	return filepath.Join(dir, journalTempName)
}

// validateKey reports whether key is a legal cache key: non-empty, free of
// U+0020, U+000A, and U+000D (which would corrupt journal line parsing),
// and free of '/' and '\' (which would let a key escape the cache
// directory via cleanPath/dirtyPath).
func validateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	for _, r := range key {
		switch r {
		case ' ', '\r', '\n', '/', '\\':
			return ErrInvalidKey
		}
	}

	return nil
}

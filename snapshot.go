package diskcache

import (
	"fmt"
	"io"

	"github.com/pbardea/diskcache/pkg/fs"
)

// Snapshot is a consistent, point-in-time view of one entry's values. The
// files it reads are never mutated or removed out from under it, even if
// the entry is later re-edited or evicted: a commit always writes to fresh
// dirty-file paths and only replaces the clean files via rename, and Unix
// rename leaves file descriptors opened against the old inode intact. A
// Snapshot must be closed to release its open file handles.
type Snapshot struct {
	key     string
	lengths []int64
	files   []fs.File
	closed  bool
}

// Lengths returns the byte length of each value as recorded at the time
// the Snapshot was taken.
func (s *Snapshot) Lengths() []int64 {
	return append([]int64(nil), s.lengths...)
}

// GetInputStream returns a reader for value i. The returned reader is only
// valid until the Snapshot is closed.
func (s *Snapshot) GetInputStream(i int) (io.Reader, error) {
	if i < 0 || i >= len(s.files) {
		return nil, fmt.Errorf("diskcache: value index %d out of range [0,%d)", i, len(s.files))
	}

	return s.files[i], nil
}

// GetString reads value i in full and returns it as a string.
func (s *Snapshot) GetString(i int) (string, error) {
	r, err := s.GetInputStream(i)
	if err != nil {
		return "", err
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("diskcache: read value %d for %q: %w", i, s.key, err)
	}

	return string(b), nil
}

// Close releases the Snapshot's open file handles. Safe to call more than
// once; I/O errors on close are swallowed since the Snapshot is read-only
// and a close failure leaves nothing for the caller to act on.
func (s *Snapshot) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	for _, f := range s.files {
		_ = f.Close()
	}

	return nil
}

package diskcache

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pbardea/diskcache/pkg/fs"
)

// Editor is an exclusive, transactional write handle for one entry.
//
// At most one Editor exists per key at a time. It is terminated by exactly
// one of [Editor.Commit] or [Editor.Abort], after which every method returns
// [ErrEditorInvalid].
type Editor struct {
	cache      *Cache
	key        string
	valueCount int
}

// valid reports whether ed still owns its entry. Must be called with the
// cache mutex held.
func (ed *Editor) valid() bool {
	e, ok := ed.cache.index.peek(ed.key)

	return ok && e.editor == ed
}

// NewInputStream opens the currently-published clean file for index i, or
// returns (nil, nil) if the entry has never been committed. It reads the
// entry's last-published value, not whatever this Editor itself has
// written to the dirty file.
func (ed *Editor) NewInputStream(i int) (fs.File, error) {
	if err := ed.checkIndex(i); err != nil {
		return nil, err
	}

	ed.cache.mu.Lock()

	if !ed.valid() {
		ed.cache.mu.Unlock()

		return nil, ErrEditorInvalid
	}

	e, _ := ed.cache.index.peek(ed.key)
	readable := e.readable
	path := cleanPath(ed.cache.dir, ed.key, i)

	ed.cache.mu.Unlock()

	if !readable {
		return nil, nil
	}

	f, err := ed.cache.fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open clean file %d for %q: %w", i, ed.key, err)
	}

	return f, nil
}

// NewOutputStream opens the dirty file for index i for truncating write.
// Ownership of the returned handle transfers to the caller.
func (ed *Editor) NewOutputStream(i int) (fs.File, error) {
	if err := ed.checkIndex(i); err != nil {
		return nil, err
	}

	ed.cache.mu.Lock()

	if !ed.valid() {
		ed.cache.mu.Unlock()

		return nil, ErrEditorInvalid
	}

	path := dirtyPath(ed.cache.dir, ed.key, i)

	ed.cache.mu.Unlock()

	f, err := ed.cache.fsys.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dirty file %d for %q: %w", i, ed.key, err)
	}

	return f, nil
}

// Set writes s as UTF-8 to the dirty stream for index i and closes it.
func (ed *Editor) Set(i int, s string) error {
	w, err := ed.NewOutputStream(i)
	if err != nil {
		return err
	}

	_, writeErr := io.Copy(w, strings.NewReader(s))
	closeErr := w.Close()

	if writeErr != nil {
		return fmt.Errorf("write value %d for %q: %w", i, ed.key, writeErr)
	}

	if closeErr != nil {
		return fmt.Errorf("close dirty file %d for %q: %w", i, ed.key, closeErr)
	}

	return nil
}

// Commit publishes every dirty value this Editor wrote (or, for indices it
// left untouched on an already-readable entry, keeps the prior value) and
// makes the entry readable. It fails with [ErrIncompleteEdit] if the entry
// was never readable and a value is missing for some index.
func (ed *Editor) Commit() error {
	return ed.cache.completeEdit(ed, true)
}

// Abort discards every dirty value this Editor wrote and releases its claim
// on the entry. If the entry was never readable, it is removed entirely.
func (ed *Editor) Abort() error {
	return ed.cache.completeEdit(ed, false)
}

func (ed *Editor) checkIndex(i int) error {
	if i < 0 || i >= ed.valueCount {
		return fmt.Errorf("diskcache: value index %d out of range [0,%d)", i, ed.valueCount)
	}

	return nil
}

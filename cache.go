package diskcache

import (
	"bufio"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/pbardea/diskcache/pkg/fs"
)

// Cache is a durable, size-bounded LRU cache over a directory. The zero
// value is not usable; construct one with [Open].
type Cache struct {
	mu sync.Mutex

	fsys             fs.FS
	dir              string
	valueCount       int
	maxSize          int64
	compactionFactor int

	index *lruIndex
	size  int64

	journalFile   fs.File
	journalWriter *bufio.Writer

	opsSinceRebuild int
	closed          bool
}

// Open opens or creates the cache directory described by cfg. If the
// directory holds a journal from a previous run, the cache's index is
// rebuilt by replaying it; a journal that fails validation causes the
// directory to be discarded and the cache to start empty, rather than
// failing Open outright.
func Open(cfg Config) (*Cache, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	fsys := cfg.FS
	dir := cfg.Dir
	jp := journalPath(dir)

	exists, err := fsys.Exists(jp)
	if err != nil {
		return nil, fmt.Errorf("diskcache: check journal: %w", err)
	}

	var idx *lruIndex

	switch {
	case exists:
		res, err := readJournal(fsys, jp, cfg.ValueCount)
		if err != nil {
			if !errors.Is(err, ErrCorruptJournal) {
				return nil, err
			}

			if err := resetDirectory(fsys, dir); err != nil {
				return nil, fmt.Errorf("diskcache: reset corrupt directory: %w", err)
			}

			idx = newLRUIndex()

			if err := writeFreshJournal(fsys, jp, cfg.ValueCount); err != nil {
				return nil, err
			}
		} else {
			idx = res.index

			if err := collectGarbage(fsys, dir, idx, cfg.ValueCount); err != nil {
				return nil, fmt.Errorf("diskcache: garbage collect: %w", err)
			}
		}

	default:
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("diskcache: create dir: %w", err)
		}

		idx = newLRUIndex()

		if err := writeFreshJournal(fsys, jp, cfg.ValueCount); err != nil {
			return nil, err
		}
	}

	var size int64

	idx.all(func(e *entry) bool {
		size += e.totalSize()

		return true
	})

	jf, err := openJournalForAppend(fsys, jp)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		fsys:             fsys,
		dir:              dir,
		valueCount:       cfg.ValueCount,
		maxSize:          cfg.MaxSize,
		compactionFactor: cfg.CompactionFactor,
		index:            idx,
		size:             size,
		journalFile:      jf,
		journalWriter:    bufio.NewWriter(jf),
	}

	if err := c.trimToSizeLocked(); err != nil {
		_ = jf.Close()

		return nil, err
	}

	return c, nil
}

func writeFreshJournal(fsys fs.FS, jp string, valueCount int) error {
	f, err := fsys.Create(jp)
	if err != nil {
		return fmt.Errorf("diskcache: create journal: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)

	return writeHeader(w, valueCount)
}

// resetDirectory removes every entry under dir without removing dir itself,
// used to discard a directory whose journal failed validation.
func resetDirectory(fsys fs.FS, dir string) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list directory: %w", err)
	}

	for _, de := range entries {
		if err := fsys.RemoveAll(filepath.Join(dir, de.Name())); err != nil {
			return fmt.Errorf("remove %s: %w", de.Name(), err)
		}
	}

	return nil
}

// Read returns a [Snapshot] of key's current values, promoting key to
// most-recently-used. Returns (nil, nil) if key has no readable entry.
func (c *Cache) Read(key string) (*Snapshot, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()

		return nil, ErrClosed
	}

	e, ok := c.index.get(key)
	if !ok || !e.readable {
		c.mu.Unlock()

		return nil, nil
	}

	lengths := append([]int64(nil), e.lengths...)
	paths := make([]string, c.valueCount)

	for i := range paths {
		paths[i] = cleanPath(c.dir, key, i)
	}

	if err := writeRead(c.journalWriter, key); err != nil {
		c.mu.Unlock()

		return nil, fmt.Errorf("diskcache: append read record: %w", err)
	}

	c.opsSinceRebuild++

	if err := c.maybeRebuildJournalLocked(); err != nil {
		c.mu.Unlock()

		return nil, err
	}

	// The value files are opened before the mutex is released so that every
	// handle refers to the same published version of the entry.
	files := make([]fs.File, 0, len(paths))

	for _, p := range paths {
		f, err := c.fsys.Open(p)
		if err != nil {
			for _, opened := range files {
				_ = opened.Close()
			}

			c.mu.Unlock()

			return nil, fmt.Errorf("diskcache: open value for %q: %w", key, err)
		}

		files = append(files, f)
	}

	c.mu.Unlock()

	return &Snapshot{key: key, lengths: lengths, files: files}, nil
}

// Edit opens an [Editor] for key, creating the entry if it doesn't exist.
// Returns (nil, nil) if key is already being edited elsewhere.
func (c *Cache) Edit(key string) (*Editor, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	e, ok := c.index.get(key)
	if ok && e.editor != nil {
		return nil, nil
	}

	if !ok {
		e = newEntry(key, c.valueCount)
		c.index.put(e)
	}

	ed := &Editor{cache: c, key: key, valueCount: c.valueCount}

	if err := writeDirty(c.journalWriter, key); err != nil {
		return nil, fmt.Errorf("diskcache: append dirty record: %w", err)
	}

	e.editor = ed
	c.opsSinceRebuild++

	return ed, nil
}

// completeEdit is the shared implementation behind [Editor.Commit] and
// [Editor.Abort].
func (c *Cache) completeEdit(ed *Editor, success bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.index.peek(ed.key)
	if !ok || e.editor != ed {
		return ErrEditorInvalid
	}

	wasReadable := e.readable

	if success && !wasReadable {
		complete, err := c.allDirtyFilesWrittenLocked(ed.key)
		if err != nil {
			return err
		}

		if !complete {
			if err := c.abortLocked(e, wasReadable); err != nil {
				return err
			}

			return ErrIncompleteEdit
		}
	}

	if !success {
		return c.abortLocked(e, wasReadable)
	}

	newLengths := make([]int64, c.valueCount)

	for i := 0; i < c.valueCount; i++ {
		dp := dirtyPath(c.dir, ed.key, i)
		cp := cleanPath(c.dir, ed.key, i)

		exists, err := c.fsys.Exists(dp)
		if err != nil {
			return fmt.Errorf("diskcache: check dirty file: %w", err)
		}

		if !exists {
			newLengths[i] = e.lengths[i]

			continue
		}

		if err := c.fsys.Rename(dp, cp); err != nil {
			return fmt.Errorf("diskcache: publish value %d for %q: %w", i, ed.key, err)
		}

		info, err := c.fsys.Stat(cp)
		if err != nil {
			return fmt.Errorf("diskcache: stat published value %d for %q: %w", i, ed.key, err)
		}

		newLengths[i] = info.Size()
	}

	oldTotal := e.totalSize()
	e.lengths = newLengths
	e.readable = true
	e.editor = nil
	c.index.put(e)
	c.size += e.totalSize() - oldTotal

	if err := writeClean(c.journalWriter, ed.key, newLengths); err != nil {
		return fmt.Errorf("diskcache: append clean record: %w", err)
	}

	c.opsSinceRebuild++

	if err := c.trimToSizeLocked(); err != nil {
		return err
	}

	return c.maybeRebuildJournalLocked()
}

func (c *Cache) allDirtyFilesWrittenLocked(key string) (bool, error) {
	for i := 0; i < c.valueCount; i++ {
		exists, err := c.fsys.Exists(dirtyPath(c.dir, key, i))
		if err != nil {
			return false, fmt.Errorf("diskcache: check dirty file: %w", err)
		}

		if !exists {
			return false, nil
		}
	}

	return true, nil
}

// abortLocked discards an edit's dirty files and restores the entry to its
// pre-edit state. Per the round-trip law, abort must still close the DIRTY
// record it opened: CLEAN with the entry's unchanged lengths if it was
// already readable, REMOVE if the edit was creating it. Caller must hold
// c.mu.
func (c *Cache) abortLocked(e *entry, wasReadable bool) error {
	for i := 0; i < c.valueCount; i++ {
		if err := removeIfExists(c.fsys, dirtyPath(c.dir, e.key, i)); err != nil {
			return fmt.Errorf("diskcache: remove dirty file: %w", err)
		}
	}

	e.editor = nil

	if wasReadable {
		c.index.put(e)

		if err := writeClean(c.journalWriter, e.key, e.lengths); err != nil {
			return fmt.Errorf("diskcache: append clean record: %w", err)
		}
	} else {
		c.index.delete(e.key)

		if err := writeRemove(c.journalWriter, e.key); err != nil {
			return fmt.Errorf("diskcache: append remove record: %w", err)
		}
	}

	c.opsSinceRebuild++

	return c.maybeRebuildJournalLocked()
}

// Remove deletes key's entry and its files. Reports false if key had no
// entry, or was mid-edit and could not be removed.
func (c *Cache) Remove(key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, ErrClosed
	}

	e, ok := c.index.peek(key)
	if !ok || e.editor != nil {
		return false, nil
	}

	if err := c.removeEntryFilesLocked(e); err != nil {
		return false, err
	}

	c.size -= e.totalSize()
	c.index.delete(key)

	if err := writeRemove(c.journalWriter, key); err != nil {
		return false, fmt.Errorf("diskcache: append remove record: %w", err)
	}

	c.opsSinceRebuild++

	return true, c.maybeRebuildJournalLocked()
}

func (c *Cache) removeEntryFilesLocked(e *entry) error {
	for i := 0; i < c.valueCount; i++ {
		if err := removeIfExists(c.fsys, cleanPath(c.dir, e.key, i)); err != nil {
			return fmt.Errorf("diskcache: remove value file: %w", err)
		}
	}

	return nil
}

// trimToSizeLocked evicts least-recently-used readable entries, skipping
// any entry currently mid-edit, until total size is within maxSize or no
// further entry can be evicted. Caller must hold c.mu.
func (c *Cache) trimToSizeLocked() error {
	if c.maxSize <= 0 {
		return nil
	}

	for c.size > c.maxSize {
		var victim *entry

		c.index.all(func(e *entry) bool {
			if e.editor == nil && e.readable {
				victim = e

				return false
			}

			return true
		})

		if victim == nil {
			return nil
		}

		if err := c.removeEntryFilesLocked(victim); err != nil {
			return err
		}

		c.size -= victim.totalSize()
		c.index.delete(victim.key)

		if err := writeRemove(c.journalWriter, victim.key); err != nil {
			return fmt.Errorf("diskcache: append remove record: %w", err)
		}

		c.opsSinceRebuild++
	}

	return nil
}

// maybeRebuildJournalLocked rebuilds the journal once enough redundant
// operations (DIRTY/CLEAN/REMOVE/READ entries a replay wouldn't need) have
// accumulated relative to the live entry count. Caller must hold c.mu.
func (c *Cache) maybeRebuildJournalLocked() error {
	if c.compactionFactor <= 0 {
		return nil
	}

	if c.opsSinceRebuild <= c.compactionFactor*c.index.len() {
		return nil
	}

	return c.rebuildJournalLocked()
}

// Close aborts every in-flight Editor to release its dirty files, then
// flushes and closes the cache's journal handle. Idempotent; the cache is
// unusable afterward and every other method returns [ErrClosed].
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	var inFlight []*entry

	c.index.all(func(e *entry) bool {
		if e.editor != nil {
			inFlight = append(inFlight, e)
		}

		return true
	})

	for _, e := range inFlight {
		if err := c.abortLocked(e, e.readable); err != nil {
			return err
		}
	}

	c.closed = true

	if err := c.journalWriter.Flush(); err != nil {
		_ = c.journalFile.Close()

		return fmt.Errorf("diskcache: flush journal: %w", err)
	}

	if err := c.journalFile.Close(); err != nil {
		return fmt.Errorf("diskcache: close journal: %w", err)
	}

	return nil
}

// Delete closes the cache and removes its entire directory from disk.
func (c *Cache) Delete() error {
	if err := c.Close(); err != nil {
		return err
	}

	if err := c.fsys.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("diskcache: delete directory: %w", err)
	}

	return nil
}

// Size reports the current total size in bytes of all readable values.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.size
}

// Keys returns every readable key, ordered from least- to
// most-recently-used.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.index.len())

	c.index.all(func(e *entry) bool {
		if e.readable {
			keys = append(keys, e.key)
		}

		return true
	})

	return keys
}

// GC forces an eviction pass, trimming entries in LRU order until the
// cache is within maxSize. Normally triggered automatically after every
// commit; exposed for callers that want to force it, e.g. after lowering
// maxSize at runtime.
func (c *Cache) GC() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	return c.trimToSizeLocked()
}

// Compact forces an immediate journal rebuild, regardless of how many
// redundant operations have accumulated.
func (c *Cache) Compact() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	return c.rebuildJournalLocked()
}

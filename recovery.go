package diskcache

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pbardea/diskcache/pkg/fs"
)

// recoveryResult is what readJournal reconstructs from an existing journal
// before any garbage collection of orphaned dirty files.
type recoveryResult struct {
	index *lruIndex
}

// readJournal parses an existing journal file at path and reconstructs the
// LRU index it describes. Any corrupt-journal condition is returned wrapped
// in [ErrCorruptJournal]; the caller is responsible for resetting the
// directory in that case.
func readJournal(fsys fs.FS, path string, valueCount int) (*recoveryResult, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := bufio.NewReader(f)

	if err := readHeader(r, valueCount); err != nil {
		return nil, err
	}

	index := newLRUIndex()

	for {
		rec, err := readRecord(r, valueCount)
		if errors.Is(err, io.EOF) {
			break
		}

		if errors.Is(err, io.ErrUnexpectedEOF) {
			// A truncated final record is accepted: it may have been
			// partially written and lost right before a crash.
			break
		}

		if err != nil {
			return nil, err
		}

		applyRecord(index, rec, valueCount)
	}

	return &recoveryResult{index: index}, nil
}

// applyRecord folds one decoded journal record into index, reconstructing
// LRU order from lookup order exactly as it was originally produced.
func applyRecord(index *lruIndex, rec record, valueCount int) {
	switch rec.op {
	case opRemove:
		index.delete(rec.key)

	case opDirty:
		e, ok := index.peek(rec.key)
		if !ok {
			e = newEntry(rec.key, valueCount)
		}

		e.editor = tombstoneEditor
		index.put(e)

	case opClean:
		e, ok := index.peek(rec.key)
		if !ok {
			e = newEntry(rec.key, valueCount)
		}

		e.editor = nil
		e.readable = true
		e.lengths = rec.lengths
		index.put(e)

	case opRead:
		// Promote an existing entry to most-recently-used; a READ for a key
		// with no live entry is a no-op and creates nothing.
		if e, ok := index.peek(rec.key); ok {
			index.put(e)
		}
	}
}

// tombstoneEditor marks an entry recovered from the journal as DIRTY with no
// matching CLEAN/REMOVE yet observed. It owns no real file handles and is
// never returned to a caller; [collectGarbage] replaces or clears it.
var tombstoneEditor = &Editor{}

// collectGarbage deletes both the clean and the dirty files of every entry
// that still carries an active editor after replay (a DIRTY with no matching
// CLEAN/REMOVE), and removes journal.tmp left over from an interrupted
// compaction. It drops those entries from the index entirely, including
// entries that were readable before their unfinished edit began.
func collectGarbage(fsys fs.FS, dir string, index *lruIndex, valueCount int) error {
	if err := removeIfExists(fsys, journalTempPath(dir)); err != nil {
		return fmt.Errorf("remove stale journal.tmp: %w", err)
	}

	var dirty []string

	index.all(func(e *entry) bool {
		if e.editor != nil {
			dirty = append(dirty, e.key)
		}

		return true
	})

	for _, key := range dirty {
		for i := 0; i < valueCount; i++ {
			if err := removeIfExists(fsys, cleanPath(dir, key, i)); err != nil {
				return fmt.Errorf("remove orphaned clean file: %w", err)
			}

			if err := removeIfExists(fsys, dirtyPath(dir, key, i)); err != nil {
				return fmt.Errorf("remove orphaned dirty file: %w", err)
			}
		}

		index.delete(key)
	}

	return nil
}

// removeIfExists deletes path, tolerating it already being absent so that
// garbage collection is idempotent across repeated recovery attempts.
func removeIfExists(fsys fs.FS, path string) error {
	err := fsys.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

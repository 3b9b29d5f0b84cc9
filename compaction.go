package diskcache

import (
	"bufio"
	"bytes"
	"fmt"

	"github.com/natefinch/atomic"
)

// rebuildJournalLocked rewrites the journal from the in-memory index,
// dropping every READ record and collapsing each key's DIRTY/CLEAN history
// to its current state. The rewrite is staged at journal.tmp and published
// with a single atomic rename, so a crash mid-rewrite leaves the live
// journal untouched and journal.tmp as the only trace, which
// [collectGarbage] removes on the next Open.
//
// Caller must hold c.mu.
func (c *Cache) rebuildJournalLocked() error {
	var buf bytes.Buffer

	w := bufio.NewWriter(&buf)

	if err := writeHeader(w, c.valueCount); err != nil {
		return fmt.Errorf("diskcache: rebuild journal header: %w", err)
	}

	var writeErr error

	c.index.all(func(e *entry) bool {
		switch {
		case e.editor != nil:
			writeErr = writeDirty(w, e.key)
		case e.readable:
			writeErr = writeClean(w, e.key, e.lengths)
		}

		return writeErr == nil
	})

	if writeErr != nil {
		return fmt.Errorf("diskcache: rebuild journal body: %w", writeErr)
	}

	tmp := journalTempPath(c.dir)

	if err := atomic.WriteFile(tmp, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("diskcache: stage rebuilt journal: %w", err)
	}

	if err := c.journalFile.Close(); err != nil {
		return fmt.Errorf("diskcache: close old journal: %w", err)
	}

	jp := journalPath(c.dir)

	if err := c.fsys.Rename(tmp, jp); err != nil {
		return fmt.Errorf("diskcache: publish rebuilt journal: %w", err)
	}

	jf, err := openJournalForAppend(c.fsys, jp)
	if err != nil {
		return fmt.Errorf("diskcache: reopen journal: %w", err)
	}

	c.journalFile = jf
	c.journalWriter = bufio.NewWriter(jf)
	c.opsSinceRebuild = 0

	return nil
}

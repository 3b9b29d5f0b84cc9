// Package diskcache is a durable, size-bounded LRU cache backed by a
// directory on a local filesystem.
//
// Each entry is identified by a key and holds a fixed, cache-wide number of
// independent byte-stream values. The cache survives process restart: its
// in-memory index is rebuilt from an on-disk append-only journal plus the
// data files the journal references.
//
// # Basic usage
//
//	c, err := diskcache.Open(diskcache.Config{Dir: dir, ValueCount: 2, MaxSize: 10 << 20})
//	if err != nil {
//	    // handle
//	}
//	defer c.Close()
//
//	ed, err := c.Edit("key")
//	if err != nil {
//	    // handle
//	}
//	ed.Set(0, "hello")
//	ed.Set(1, "world")
//	if err := ed.Commit(); err != nil {
//	    // handle
//	}
//
//	snap, err := c.Read("key")
//	if snap != nil {
//	    defer snap.Close()
//	    hello, _ := snap.GetString(0)
//	}
//
// # Concurrency
//
// Every public [Cache] operation acquires one coarse mutex for its duration.
// The mutex is not held while a caller reads a [Snapshot]'s streams or writes
// to an [Editor]'s output stream - only metadata updates and file-handle
// acquisition are serialized.
//
// # Durability
//
// Commits are atomic at the granularity of a single filesystem rename; the
// cache does not fsync individual writes. A directory must not be shared by
// more than one process.
package diskcache

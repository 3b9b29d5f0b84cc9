package diskcache

import "errors"

// Sentinel errors. Callers classify with [errors.Is]; never compare strings.
var (
	// ErrClosed is returned by any operation on a [Cache] after [Cache.Close].
	ErrClosed = errors.New("diskcache: closed")

	// ErrInvalidKey indicates a key that is empty or contains a space, CR,
	// LF, '/', or '\'. Using an invalid key is a programmer error.
	ErrInvalidKey = errors.New("diskcache: invalid key")

	// ErrEditorInvalid is returned by Editor methods once the Editor has
	// already been committed or aborted, or no longer owns its entry.
	ErrEditorInvalid = errors.New("diskcache: editor no longer owns entry")

	// ErrIncompleteEdit is returned by [Editor.Commit] when a never-published
	// entry is committed without a value written for every index.
	ErrIncompleteEdit = errors.New("diskcache: commit missing value for index")

	// ErrCorruptJournal classifies a journal that failed header or record
	// validation during recovery. Recovery handles it internally (by
	// discarding the directory and starting fresh); it is exposed so callers
	// and tests can observe why a directory was reset.
	ErrCorruptJournal = errors.New("diskcache: corrupt journal")
)

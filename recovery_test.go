package diskcache

import (
	"errors"
	"os"
	"testing"

	"github.com/pbardea/diskcache/pkg/fs"
)

func writeRawJournal(t *testing.T, dir, body string) string {
	t.Helper()

	path := journalPath(dir)
	header := journalMagic + "\n" + journalVersion + "\n1\n\n"

	if err := os.WriteFile(path, []byte(header+body), 0o644); err != nil {
		t.Fatalf("setup: write journal: %v", err)
	}

	return path
}

func Test_ReadJournal_Reconstructs_Readable_Entry(t *testing.T) {
	dir := t.TempDir()
	path := writeRawJournal(t, dir, "DIRTY a\nCLEAN a 5\n")

	res, err := readJournal(fs.NewReal(), path, 1)
	if err != nil {
		t.Fatalf("readJournal: %v", err)
	}

	e, ok := res.index.peek("a")
	if !ok {
		t.Fatalf("entry %q not found after replay", "a")
	}

	if !e.readable {
		t.Fatalf("entry not readable after CLEAN replay")
	}

	if got, want := e.lengths[0], int64(5); got != want {
		t.Fatalf("length=%d, want=%d", got, want)
	}
}

func Test_ReadJournal_Drops_Entry_On_Remove(t *testing.T) {
	dir := t.TempDir()
	path := writeRawJournal(t, dir, "DIRTY a\nCLEAN a 5\nREMOVE a\n")

	res, err := readJournal(fs.NewReal(), path, 1)
	if err != nil {
		t.Fatalf("readJournal: %v", err)
	}

	if _, ok := res.index.peek("a"); ok {
		t.Fatalf("entry %q still present after REMOVE", "a")
	}
}

func Test_ReadJournal_Accepts_Truncated_Final_Record(t *testing.T) {
	dir := t.TempDir()
	path := writeRawJournal(t, dir, "DIRTY a\nCLEAN a 5\nDIRTY b")

	res, err := readJournal(fs.NewReal(), path, 1)
	if err != nil {
		t.Fatalf("readJournal: %v", err)
	}

	if _, ok := res.index.peek("b"); ok {
		t.Fatalf("truncated DIRTY for %q should not have been applied", "b")
	}

	if _, ok := res.index.peek("a"); !ok {
		t.Fatalf("complete entry %q should still be present", "a")
	}
}

func Test_ReadJournal_Rejects_Corrupt_Header(t *testing.T) {
	dir := t.TempDir()
	path := journalPath(dir)

	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, err := readJournal(fs.NewReal(), path, 1)
	if !errors.Is(err, ErrCorruptJournal) {
		t.Fatalf("err=%v, want ErrCorruptJournal", err)
	}
}

func Test_CollectGarbage_Removes_Orphaned_Dirty_File_For_Unclean_Entry(t *testing.T) {
	dir := t.TempDir()
	path := writeRawJournal(t, dir, "DIRTY a\n")

	if err := os.WriteFile(dirtyPath(dir, "a", 0), []byte("partial"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	res, err := readJournal(fs.NewReal(), path, 1)
	if err != nil {
		t.Fatalf("readJournal: %v", err)
	}

	if err := collectGarbage(fs.NewReal(), dir, res.index, 1); err != nil {
		t.Fatalf("collectGarbage: %v", err)
	}

	if _, ok := res.index.peek("a"); ok {
		t.Fatalf("entry %q with no matching CLEAN should have been dropped", "a")
	}

	if _, err := os.Stat(dirtyPath(dir, "a", 0)); !os.IsNotExist(err) {
		t.Fatalf("dirty file still present after garbage collection")
	}
}

func Test_CollectGarbage_Removes_Stale_Journal_Tmp(t *testing.T) {
	dir := t.TempDir()
	path := writeRawJournal(t, dir, "")

	if err := os.WriteFile(journalTempPath(dir), []byte("stale"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	res, err := readJournal(fs.NewReal(), path, 1)
	if err != nil {
		t.Fatalf("readJournal: %v", err)
	}

	if err := collectGarbage(fs.NewReal(), dir, res.index, 1); err != nil {
		t.Fatalf("collectGarbage: %v", err)
	}

	if _, err := os.Stat(journalTempPath(dir)); !os.IsNotExist(err) {
		t.Fatalf("journal.tmp still present after garbage collection")
	}
}

func Test_CollectGarbage_Keeps_Readable_Entry_Files(t *testing.T) {
	dir := t.TempDir()
	path := writeRawJournal(t, dir, "DIRTY a\nCLEAN a 2\n")

	if err := os.WriteFile(cleanPath(dir, "a", 0), []byte("hi"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	res, err := readJournal(fs.NewReal(), path, 1)
	if err != nil {
		t.Fatalf("readJournal: %v", err)
	}

	if err := collectGarbage(fs.NewReal(), dir, res.index, 1); err != nil {
		t.Fatalf("collectGarbage: %v", err)
	}

	if _, ok := res.index.peek("a"); !ok {
		t.Fatalf("readable entry %q should survive garbage collection", "a")
	}

	if _, err := os.Stat(cleanPath(dir, "a", 0)); err != nil {
		t.Fatalf("clean file removed for readable entry: %v", err)
	}
}

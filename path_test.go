package diskcache

import (
	"errors"
	"testing"
)

func Test_ValidateKey_Rejects_Empty_Key(t *testing.T) {
	err := validateKey("")

	if got, want := errors.Is(err, ErrInvalidKey), true; got != want {
		t.Fatalf("errors.Is(err, ErrInvalidKey)=%v, want=%v", got, want)
	}
}

func Test_ValidateKey_Rejects_Space_CR_LF(t *testing.T) {
	for _, key := range []string{"a b", "a\r", "a\nb"} {
		if err := validateKey(key); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("validateKey(%q): want ErrInvalidKey, got %v", key, err)
		}
	}
}

func Test_ValidateKey_Rejects_Path_Separators(t *testing.T) {
	for _, key := range []string{"a/b", "a\\b", "../escape", "/etc/passwd"} {
		if err := validateKey(key); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("validateKey(%q): want ErrInvalidKey, got %v", key, err)
		}
	}
}

func Test_ValidateKey_Accepts_Ordinary_Key(t *testing.T) {
	if err := validateKey("hello-world_123"); err != nil {
		t.Fatalf("validateKey: unexpected error %v", err)
	}
}

func Test_CleanPath_And_DirtyPath_Differ_Only_By_Suffix(t *testing.T) {
	clean := cleanPath("/tmp/cache", "key", 2)
	dirty := dirtyPath("/tmp/cache", "key", 2)

	if got, want := clean, "/tmp/cache/key.2"; got != want {
		t.Fatalf("cleanPath=%q, want=%q", got, want)
	}

	if got, want := dirty, "/tmp/cache/key.2.tmp"; got != want {
		t.Fatalf("dirtyPath=%q, want=%q", got, want)
	}
}

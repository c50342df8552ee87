package fsstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestReadWriteJSONAtomic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	type payload struct {
		Name string `json:"name"`
	}
	in := payload{Name: "alpha"}

	if err := WriteJSONAtomic(path, in, FileOptions{}); err != nil {
		t.Fatalf("WriteJSONAtomic() error = %v", err)
	}

	var out payload
	found, err := ReadJSON(path, &out)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if !found {
		t.Fatalf("ReadJSON() found = false, want true")
	}
	if out != in {
		t.Fatalf("ReadJSON() = %+v, want %+v", out, in)
	}
}

func TestReadJSONMissingFile(t *testing.T) {
	t.Parallel()

	var out map[string]any
	found, err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &out)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if found {
		t.Fatalf("ReadJSON() found = true, want false")
	}
}

func TestReadJSONCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "corrupt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	var out map[string]any
	_, err := ReadJSON(path, &out)
	if !errors.Is(err, ErrDecodeFailed) {
		t.Fatalf("ReadJSON() error = %v, want ErrDecodeFailed", err)
	}
}

func TestReadWriteTextAtomic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lore.md")
	if err := WriteTextAtomic(path, "first line\n", FileOptions{}); err != nil {
		t.Fatalf("WriteTextAtomic() error = %v", err)
	}

	got, found, err := ReadText(path)
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	if !found {
		t.Fatalf("ReadText() found = false, want true")
	}
	if got != "first line\n" {
		t.Fatalf("ReadText() = %q, want %q", got, "first line\n")
	}
}

func TestRemoveMissingFile(t *testing.T) {
	t.Parallel()

	if err := Remove(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
}

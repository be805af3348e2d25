package documents

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func write(t *testing.T, dir, name, content string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestFileStore_LoadKeepsBytes(t *testing.T) {
	dir := t.TempDir()
	raw := "{\n  \"x\": 1,\n  \"nested\": {\"a\": [1, 2.50, null]}\n}\n"
	write(t, dir, "dastan.json", raw)

	doc, err := NewFileStore(dir, ".json", nil).Load(context.Background(), "dastan")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Name != "dastan" {
		t.Fatalf("name: got %q", doc.Name)
	}
	if string(doc.Body) != raw {
		t.Fatalf("body should be served verbatim\ngot:  %q\nwant: %q", doc.Body, raw)
	}
}

func TestFileStore_LoadAnyJSONValue(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, ".json", nil)

	for name, content := range map[string]string{
		"array":  `[1,"two",false]`,
		"string": `"hello"`,
		"null":   `null`,
		"number": `3.14`,
	} {
		write(t, dir, name+".json", content)

		doc, err := store.Load(context.Background(), name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if string(doc.Body) != content {
			t.Fatalf("%s: got %s want %s", name, doc.Body, content)
		}
	}
}

func TestFileStore_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "broken.json", `{"x":`)
	store := NewFileStore(dir, ".json", nil)

	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"missing", "modes", ErrDocumentNotFound},
		{"malformed", "broken", ErrDocumentParse},
		{"traversal", "../users", ErrInvalidName},
		{"empty", "", ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Load(context.Background(), tt.doc)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFileStore_List(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "modes.json", `{}`)
	write(t, dir, "dastan.json", `{}`)
	write(t, dir, "users.json", `{}`)
	write(t, dir, "notes.txt", `skip`)
	if err := os.Mkdir(filepath.Join(dir, "dir.json"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := NewFileStore(dir, ".json", nil).List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"dastan", "modes", "users"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestFileStore_ListMissingDir(t *testing.T) {
	_, err := NewFileStore(filepath.Join(t.TempDir(), "nope"), ".json", nil).List(context.Background())
	if err == nil {
		t.Fatalf("expected an error for a missing base directory")
	}
}

package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFileEnumeratorSortedAbsolutePaths(t *testing.T) {
	root := t.TempDir()
	files := []string{"z.jpg", "a.png", "IMG_7.HEIC", filepath.Join("nested", "m.gif"), "skip.md", filepath.Join(".cache", "x.jpg"), ".thumb.jpg"}
	for _, name := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	got, err := FileEnumerator{}.List(context.Background(), root)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{
		filepath.Join(root, "IMG_7.HEIC"),
		filepath.Join(root, "a.png"),
		filepath.Join(root, "nested", "m.gif"),
		filepath.Join(root, "z.jpg"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected listing (-want +got):\n%s", diff)
	}
}

func TestFileEnumeratorMissingRoot(t *testing.T) {
	if _, err := (FileEnumerator{}).List(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

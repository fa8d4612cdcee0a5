package resolution

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDirMoverAvoidsCollisions(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "keepers")
	writeFile(t, filepath.Join(dest, "IMG_1.jpg"), "existing")
	writeFile(t, filepath.Join(dest, "IMG_1_1.jpg"), "existing too")
	src := filepath.Join(root, "in", "IMG_1.jpg")
	writeFile(t, src, "fresh")

	got, err := DirMover{}.Move(src, dest)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	want := filepath.Join(dest, "IMG_1_2.jpg")
	if got != want {
		t.Fatalf("Move = %s, want %s", got, want)
	}
	data, err := os.ReadFile(want)
	if err != nil || string(data) != "fresh" {
		t.Fatalf("unexpected destination content %q, %v", data, err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source to be gone, stat err = %v", err)
	}
}

func TestDirMoverCreatesDestination(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "a.png")
	writeFile(t, src, "x")

	got, err := DirMover{}.Move(src, filepath.Join(root, "deep", "discards"))
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if filepath.Base(got) != "a.png" {
		t.Fatalf("unexpected destination %s", got)
	}
}

func TestDirMoverMissingSource(t *testing.T) {
	root := t.TempDir()
	if _, err := (DirMover{}).Move(filepath.Join(root, "nope.jpg"), filepath.Join(root, "out")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestCopyFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src.jpg")
	dst := filepath.Join(root, "dst.jpg")
	writeFile(t, src, "payload")

	if err := copyFile(src, dst); err != nil {
		t.Fatalf("copyFile failed: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "payload" {
		t.Fatalf("copy content %q, %v", data, err)
	}
	if err := copyFile(src, dst); err == nil {
		t.Fatal("expected copy onto an existing file to fail")
	}
}

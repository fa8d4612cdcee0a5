package resolution

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// FileMover relocates a file into destDir and returns its new path
type FileMover interface {
	Move(src, destDir string) (string, error)
}

// DirMover moves files on the local filesystem. Name collisions in the
// destination get a numeric suffix instead of overwriting.
type DirMover struct{}

// Move implements FileMover
func (DirMover) Move(src, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", destDir, err)
	}
	dest, err := uniqueDestination(destDir, filepath.Base(src))
	if err != nil {
		return "", err
	}

	err = os.Rename(src, dest)
	if err == nil {
		return dest, nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return "", fmt.Errorf("move %s: %w", src, err)
	}
	if err := copyFile(src, dest); err != nil {
		return "", fmt.Errorf("copy %s across devices: %w", src, err)
	}
	if err := os.Remove(src); err != nil {
		return dest, fmt.Errorf("remove %s after copy: %w", src, err)
	}
	return dest, nil
}

func uniqueDestination(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := filepath.Join(dir, name)
	for i := 1; ; i++ {
		_, err := os.Lstat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}

// Package atomicfile provides crash-safe file writes via temp-file-then-rename.
//
// Every component of the vault that touches disk goes through this package.
// The rename is the only externally visible mutation: a crash before the
// rename leaves the target untouched and orphans only a temp file.
//
// Known durability gap: the containing directory is not fsynced after the
// rename, so a power loss at exactly the wrong moment can lose the rename
// itself. This is a deliberate omission, not an oversight; see DESIGN.md.
package atomicfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileMode is the permission applied to every written file.
const FileMode = 0600

// WriteAtomic writes data to path atomically. The data is first written and
// flushed to a sibling temp file, which is then renamed over path. An existing
// file at path is replaced.
func WriteAtomic(path string, data []byte) error {
	tmp, err := writeTemp(path, data)
	if err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomicfile: rename failed: %w", err)
	}
	return nil
}

// WriteIfAbsent writes data to path atomically, but only if path does not
// already exist. It returns true if this call created the file, and false if
// the file already existed (whether before the call or because a concurrent
// writer won the race). A false return is not an error: callers that write
// identical content under content-addressed paths treat it as a no-op.
func WriteIfAbsent(path string, data []byte) (bool, error) {
	if _, err := os.Lstat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("atomicfile: stat failed: %w", err)
	}

	tmp, err := writeTemp(path, data)
	if err != nil {
		return false, err
	}

	// Hard-link into place so an existing target is never replaced. If the
	// target appeared between the stat and here, the loser cleans up its
	// temp file and reports false.
	if err := os.Link(tmp, path); err != nil {
		_ = os.Remove(tmp)
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("atomicfile: link failed: %w", err)
	}
	_ = os.Remove(tmp)
	return true, nil
}

// writeTemp creates a temp file next to path, writes and syncs data, and
// returns the temp file's path.
func writeTemp(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return "", fmt.Errorf("atomicfile: create temp failed: %w", err)
	}
	tmp := f.Name()

	if err := f.Chmod(FileMode); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("atomicfile: chmod failed: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("atomicfile: write failed: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("atomicfile: sync failed: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("atomicfile: close failed: %w", err)
	}

	return tmp, nil
}

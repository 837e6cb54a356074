package emit

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrStale is returned in check mode when a file is missing or differs from
// what would be written.
var ErrStale = errors.New("output is stale")

type WriteOptions struct {
	Check bool
}

// WriteFile writes data to path unless the file already holds it. Writes go
// through a temporary file in the same directory. In check mode nothing is
// written.
func WriteFile(path string, data []byte, opt WriteOptions) (wrote bool, err error) {
	existing, readErr := os.ReadFile(path)
	switch {
	case readErr == nil:
		if bytes.Equal(existing, data) {
			return false, nil
		}
		if opt.Check {
			return false, fmt.Errorf("%w: %s differs", ErrStale, path)
		}
	case !os.IsNotExist(readErr):
		return false, fmt.Errorf("read existing: %w", readErr)
	case opt.Check:
		return false, fmt.Errorf("%w: %s would be created", ErrStale, path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return false, fmt.Errorf("create tmp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return false, fmt.Errorf("write tmp: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return false, fmt.Errorf("chmod tmp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("close tmp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, fmt.Errorf("rename tmp: %w", err)
	}
	return true, nil
}

package files

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/mitchellh/go-homedir"

	apperrors "mlxcli/internal/errors"
)

const lockSuffix = ".lock"

// ReadText reads a whole text file. Decoding and line splitting are left to
// the parser.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// ExpandPath expands a leading ~ and makes p absolute
func ExpandPath(p string) (string, error) {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", apperrors.NewValidationError(fmt.Sprintf("cannot expand path %q", p), err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", apperrors.NewValidationError(fmt.Sprintf("cannot resolve path %q", p), err)
	}
	return abs, nil
}

// ResolveOutput places a relative output path inside dir
func ResolveOutput(dir, output string) (string, error) {
	expanded, err := homedir.Expand(output)
	if err != nil {
		return "", apperrors.NewValidationError(fmt.Sprintf("cannot expand path %q", output), err)
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(dir, expanded)
	}
	return filepath.Clean(expanded), nil
}

// OutputLock is an advisory lock on <output>.lock held while a workbook is
// written, so two runs never write the same output at once
type OutputLock struct {
	lock *flock.Flock
}

// LockOutput acquires the lock for output without blocking. If another
// process holds it, ErrOutputLocked is returned.
func LockOutput(output string) (*OutputLock, error) {
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create output directory", err)
	}

	lock := flock.New(output + lockSuffix)
	ok, err := lock.TryLock()
	if err != nil {
		_ = lock.Close()
		return nil, apperrors.NewStorageError("failed to lock output", err).WithContext("path", output)
	}
	if !ok {
		_ = lock.Close()
		return nil, apperrors.ErrOutputLocked.WithContext("path", output)
	}
	return &OutputLock{lock: lock}, nil
}

// Path returns the lock file path
func (l *OutputLock) Path() string {
	return l.lock.Path()
}

// Unlock releases the lock. The lock file itself is left in place.
func (l *OutputLock) Unlock() error {
	return l.lock.Close()
}

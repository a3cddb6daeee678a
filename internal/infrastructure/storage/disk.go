// Package storage holds the FileStorage drivers for uploaded receipts.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/expensehub/refund-api/internal/core/ports"
)

var errInvalidName = errors.New("storage: invalid file name")

// Disk stores files flat inside a single directory.
type Disk struct {
	dir string
}

var _ ports.FileStorage = (*Disk)(nil)

func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &Disk{dir: dir}, nil
}

// Dir is the directory served at GET /uploads/:filename.
func (d *Disk) Dir() string { return d.dir }

func (d *Disk) Save(ctx context.Context, name, _ string, body io.Reader, _ int64) error {
	path, err := d.path(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("storage: create %s: %w", name, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("storage: write %s: %w", name, err)
	}
	return f.Close()
}

// Delete is a no-op for files that are already gone.
func (d *Disk) Delete(_ context.Context, name string) error {
	path, err := d.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: remove %s: %w", name, err)
	}
	return nil
}

func (d *Disk) path(name string) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", errInvalidName, name)
	}
	return filepath.Join(d.dir, name), nil
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

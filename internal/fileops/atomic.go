package fileops

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"odfcrypt/internal/errors"
	"odfcrypt/internal/util"
)

// WriteOptions configures WriteAtomic.
type WriteOptions struct {
	Path      string // final output path
	Overwrite bool   // replace an existing file
	Perm      os.FileMode
}

// WriteAtomic calls fill with a writer over a temporary file next to
// opts.Path and renames it into place when fill succeeds. On any error the
// temporary file is removed and opts.Path is left untouched.
func WriteAtomic(opts WriteOptions, fill func(w io.Writer) error) (retErr error) {
	if !opts.Overwrite {
		if _, err := os.Lstat(opts.Path); err == nil {
			return fmt.Errorf("%s: %w", opts.Path, errors.ErrFileExists)
		}
	}
	perm := opts.Perm
	if perm == 0 {
		perm = 0o600
	}

	tmp := TempName(opts.Path)
	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	// Helper to cleanup on error
	defer func() {
		if retErr != nil {
			_ = file.Close()
			_ = os.Remove(tmp)
		}
	}()

	buf := bufio.NewWriterSize(file, util.MiB)
	if err := fill(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, opts.Path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// TempName returns a unique hidden sibling of path.
func TempName(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, "."+base+"."+uuid.NewString()+".tmp")
}

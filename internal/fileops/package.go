// Package fileops handles package files on disk: validating input packages
// and member names, and writing output packages atomically.
package fileops

import (
	"fmt"
	"os"
	"path"
	"strings"

	"odfcrypt/internal/errors"
	"odfcrypt/internal/util"
)

// MaxPackageSize bounds the input packages accepted. Entries are staged in
// memory, so a package must fit comfortably.
const MaxPackageSize = 1 * util.GiB

// ValidEntryName rejects member names that could escape a directory if the
// package were ever extracted.
func ValidEntryName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty member name", errors.ErrInvalidPackage)
	case strings.Contains(name, "\\"):
		return fmt.Errorf("%w: backslash in member name %q", errors.ErrInvalidPackage, name)
	case strings.HasPrefix(name, "/"):
		return fmt.Errorf("%w: absolute member name %q", errors.ErrInvalidPackage, name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." || part == "." {
			return fmt.Errorf("%w: potentially malicious member name %q", errors.ErrInvalidPackage, name)
		}
	}
	if path.Clean(name) != strings.TrimSuffix(name, "/") {
		return fmt.Errorf("%w: non-canonical member name %q", errors.ErrInvalidPackage, name)
	}
	return nil
}

// OpenPackage opens a package file for reading and returns it with its size.
// The caller closes the file.
func OpenPackage(name string) (*os.File, int64, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", name, err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat %s: %w", name, err)
	}
	if !stat.Mode().IsRegular() {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%s: not a regular file", name)
	}
	if stat.Size() > MaxPackageSize {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%s: %s exceeds the %s limit", name,
			util.Sizeify(stat.Size()), util.Sizeify(MaxPackageSize))
	}
	return f, stat.Size(), nil
}

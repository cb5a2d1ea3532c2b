package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"odfcrypt/internal/errors"
	"odfcrypt/internal/fileops"
	"odfcrypt/internal/pack"
)

// checkInput validates the -i flag of a command.
func checkInput(input string) error {
	if input == "" {
		return fmt.Errorf("input file is required (-i)")
	}
	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("input file not found: %s", input)
	}
	if info.IsDir() {
		return fmt.Errorf("input is a directory: %s", input)
	}
	return nil
}

// outputPath returns output, or input with tag inserted before its
// extension ("report.odt" becomes "report.encrypted.odt").
func outputPath(input, output, tag string) (string, error) {
	if output == "" {
		ext := filepath.Ext(input)
		base := strings.TrimSuffix(input, ext)
		base = strings.TrimSuffix(base, ".encrypted")
		base = strings.TrimSuffix(base, ".decrypted")
		output = base + "." + tag + ext
	}
	same, err := samePath(input, output)
	if err != nil {
		return "", err
	}
	if same {
		return "", fmt.Errorf("output must differ from input: %s", output)
	}
	return output, nil
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}

// loadPackage reads and decrypts the package at path.
func loadPackage(path string, password []byte) (*pack.Package, int64, error) {
	f, size, err := fileops.OpenPackage(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	pkg, err := pack.Open(f, size, password)
	if err != nil {
		return nil, 0, err
	}
	return pkg, size, nil
}

// writePackage writes a package to output through a reporter-aware writer.
// build wraps the destination in an archive writer and assembles into it.
func writePackage(r *Reporter, output string, force bool, expected int64, build func(w io.Writer) error) error {
	return fileops.WriteAtomic(fileops.WriteOptions{Path: output, Overwrite: force}, func(w io.Writer) error {
		return build(r.Writer(w, expected))
	})
}

// explain turns package errors into messages that name the likely cause.
func explain(err error) error {
	switch {
	case errors.Is(err, errors.ErrFileExists):
		return fmt.Errorf("%w (use --force to overwrite)", err)
	case errors.Is(err, errors.ErrAuthFailed):
		return fmt.Errorf("wrong password or damaged package: %w", err)
	case errors.Is(err, errors.ErrUnsupported):
		return fmt.Errorf("package uses encryption this tool cannot read: %w", err)
	case errors.IsCorrupt(err):
		return fmt.Errorf("package is damaged: %w", err)
	}
	return err
}

package pack

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"odfcrypt/internal/crypto"
	"odfcrypt/internal/errors"
	"odfcrypt/internal/fileops"
	"odfcrypt/internal/log"
	"odfcrypt/internal/manifest"
)

// Open reads a package and decrypts its encrypted members with password.
// A package without encrypted members opens with an empty password.
//
// The returned members carry plain descriptors: Assemble through a crypto
// writer encrypts them again with fresh parameters.
func Open(r io.ReaderAt, size int64, password []byte) (*Package, error) {
	zr, man, err := read(r, size)
	if err != nil {
		return nil, err
	}

	pkg := &Package{Version: man.Version()}
	if root, ok := man.Get(manifest.RootPath); ok {
		pkg.MediaType = root.MediaType
		if root.Version != "" {
			pkg.Version = root.Version
		}
	}

	for _, f := range zr.File {
		if f.Name == manifest.MimetypePath {
			data, err := readFile(f)
			if err != nil {
				return nil, err
			}
			if pkg.MediaType == "" {
				pkg.MediaType = string(data)
			}
			continue
		}
		if derived(f.Name) || strings.HasSuffix(f.Name, "/") {
			continue
		}

		e, ok := man.Get(f.Name)
		if !ok {
			e = manifest.NewEntry(f.Name, "")
		}

		data, err := readFile(f)
		if err != nil {
			return nil, err
		}

		if e.Encrypted() {
			if len(password) == 0 {
				return nil, errors.NewEntryError(f.Name, errors.ErrNoCredentials)
			}
			data, err = crypto.DecryptEntry(e.Encryption, data, password)
			if err != nil {
				return nil, errors.NewEntryError(f.Name, err)
			}
			log.Debug("member decrypted", log.String("path", f.Name), log.Int("size", len(data)))
			e.Encryption = manifest.EncryptionData{}
		}
		pkg.Add(e, data)
	}

	if pkg.MediaType == "" {
		return nil, fmt.Errorf("%w: no mimetype", errors.ErrInvalidPackage)
	}
	return pkg, nil
}

// ReadManifest returns the manifest of a package without decrypting
// anything. Encrypted descriptors are completed with the stored size and
// CRC-32 found in the archive.
func ReadManifest(r io.ReaderAt, size int64) (*manifest.Manifest, error) {
	_, man, err := read(r, size)
	return man, err
}

func read(r io.ReaderAt, size int64) (*zip.Reader, *manifest.Manifest, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errors.ErrInvalidPackage, err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if err := fileops.ValidEntryName(f.Name); err != nil {
			return nil, nil, err
		}
		if _, dup := files[f.Name]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate member %q", errors.ErrInvalidPackage, f.Name)
		}
		files[f.Name] = f
	}

	mf, ok := files[manifest.ManifestPath]
	if !ok {
		return nil, nil, fmt.Errorf("%w: no %s", errors.ErrInvalidPackage, manifest.ManifestPath)
	}
	data, err := readFile(mf)
	if err != nil {
		return nil, nil, err
	}
	parsed, err := manifest.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}

	man := manifest.New(parsed.Version())
	for _, e := range parsed.Entries() {
		if f, ok := files[e.Path]; ok && e.Encrypted() {
			e.Encryption.EncryptedSize = int(f.CompressedSize64)
			e.Encryption.CRC32 = f.CRC32
		}
		if err := man.Add(e); err != nil {
			return nil, nil, err
		}
	}
	return zr, man, nil
}

func readFile(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > uint64(fileops.MaxPackageSize) {
		return nil, errors.NewEntryError(f.Name, fmt.Errorf("%w: member too large", errors.ErrInvalidPackage))
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.NewEntryError(f.Name, fmt.Errorf("%w: %v", errors.ErrInvalidPackage, err))
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, fileops.MaxPackageSize))
	if err != nil {
		return nil, errors.NewEntryError(f.Name, fmt.Errorf("%w: %v", errors.ErrIntegrity, err))
	}
	return data, nil
}

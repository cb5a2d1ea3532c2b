// Package zipio provides the sequential archive writer that document
// packages are written through.
//
// Writer is the capability the rest of the module depends on. ZipWriter is
// the archive/zip implementation; odf.CryptoWriter decorates any Writer with
// per-entry encryption.
package zipio

import (
	"odfcrypt/internal/manifest"
)

// Writer writes one archive entry at a time.
//
// A Writer is not safe for concurrent use.
type Writer interface {
	// SetComment sets the archive comment written with the central directory.
	SetComment(comment string) error

	// PutNextEntry starts a new entry. Exactly one entry may be open.
	PutNextEntry(e manifest.Entry) error

	// PutAndRegisterNextEntry starts a new entry and registers its final
	// descriptor in the manifest once the entry is closed.
	PutAndRegisterNextEntry(e manifest.Entry) error

	// RegisterEntry adds a descriptor to the manifest without writing content.
	RegisterEntry(e manifest.Entry) error

	Write(p []byte) (int, error)
	WriteString(s string) (int, error)

	// CloseEntry completes the open entry.
	CloseEntry() error

	Flush() error

	// Finish closes any open entry and writes the central directory. The
	// underlying sink stays open.
	Finish() error

	// Close finishes the archive and closes the sink if it is an io.Closer.
	Close() error

	// Abort closes the sink like Close but never writes the central
	// directory, so a half-written archive is not mistaken for a whole one.
	Abort() error

	// Manifest returns the collection filled by the Register operations.
	Manifest() *manifest.Manifest
}

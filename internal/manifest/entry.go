// Package manifest describes the members of an OpenDocument package: the
// per-entry descriptor, the encryption parameters attached to encrypted
// entries, and the META-INF/manifest.xml collection that lists them.
package manifest

// Well-known package paths.
const (
	RootPath     = "/"
	MimetypePath = "mimetype"
	ManifestPath = "META-INF/manifest.xml"
)

// Media types used by the package assembler.
const (
	MediaTypeXML         = "text/xml"
	MediaTypeSpreadsheet = "application/vnd.oasis.opendocument.spreadsheet"
	MediaTypeText        = "application/vnd.oasis.opendocument.text"
)

// Entry is the descriptor of one archive member.
//
// Entry is a value: the archive writers and the Manifest keep their own
// copies, so a descriptor handed to them is never changed afterwards.
// WithEncryption returns a new descriptor rather than modifying the receiver.
type Entry struct {
	Path         string // full path inside the package, unique
	MediaType    string // optional
	Version      string // only set on the root entry "/"
	NeverEncrypt bool   // true for mimetype, manifest and other clear-text members

	// Encryption is the zero value for plain entries.
	Encryption EncryptionData
}

// NewEntry returns a descriptor for an entry that is encrypted whenever the
// writer has a password.
func NewEntry(path, mediaType string) Entry {
	return Entry{Path: path, MediaType: mediaType}
}

// NewPlainEntry returns a descriptor for an entry that is always stored in the clear.
func NewPlainEntry(path, mediaType string) Entry {
	return Entry{Path: path, MediaType: mediaType, NeverEncrypt: true}
}

// MimetypeEntry is the format-identifying first member of every package.
func MimetypeEntry() Entry {
	return NewPlainEntry(MimetypePath, "")
}

// ManifestFileEntry describes META-INF/manifest.xml itself.
func ManifestFileEntry() Entry {
	return NewPlainEntry(ManifestPath, MediaTypeXML)
}

// RootEntry describes the package as a whole ("/").
func RootEntry(mediaType, version string) Entry {
	return Entry{Path: RootPath, MediaType: mediaType, Version: version, NeverEncrypt: true}
}

// Encrypted reports whether encryption parameters are attached.
func (e Entry) Encrypted() bool {
	return e.Encryption.Algorithm != ""
}

// WithEncryption returns a copy of e carrying the given parameters.
func (e Entry) WithEncryption(data EncryptionData) Entry {
	e.Encryption = data
	return e
}

// Size is the value of manifest:size, the uncompressed plaintext length.
// It is only known for encrypted entries.
func (e Entry) Size() int64 {
	if !e.Encrypted() {
		return 0
	}
	return int64(e.Encryption.PlainSize)
}

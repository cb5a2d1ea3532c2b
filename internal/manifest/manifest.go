package manifest

import (
	"odfcrypt/internal/errors"
)

// DefaultVersion is the ODF version written on the manifest and root entry.
const DefaultVersion = "1.2"

// Manifest is the ordered collection of descriptors serialized as
// META-INF/manifest.xml. Entries keep their registration order.
type Manifest struct {
	version string
	entries []Entry
	index   map[string]int
}

// New creates an empty manifest for the given ODF version ("" means DefaultVersion).
func New(version string) *Manifest {
	if version == "" {
		version = DefaultVersion
	}
	return &Manifest{version: version, index: make(map[string]int)}
}

// Version returns the manifest:version attribute.
func (m *Manifest) Version() string {
	return m.version
}

// Add registers an entry. A package must not list the same path twice.
func (m *Manifest) Add(e Entry) error {
	if e.Path == "" {
		return errors.NewProtocolError("register", "", errors.ErrInvalidPackage)
	}
	if _, ok := m.index[e.Path]; ok {
		return errors.NewProtocolError("register", e.Path, errors.ErrDuplicateEntry)
	}
	m.index[e.Path] = len(m.entries)
	m.entries = append(m.entries, e)
	return nil
}

// Get returns the descriptor registered for path.
func (m *Manifest) Get(path string) (Entry, bool) {
	i, ok := m.index[path]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Contains reports whether path is registered.
func (m *Manifest) Contains(path string) bool {
	_, ok := m.index[path]
	return ok
}

// Entries returns a copy of the registered descriptors in order.
func (m *Manifest) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of registered descriptors.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// EncryptedCount returns how many registered descriptors carry encryption data.
func (m *Manifest) EncryptedCount() int {
	n := 0
	for _, e := range m.entries {
		if e.Encrypted() {
			n++
		}
	}
	return n
}

package crypto

import (
	"bytes"
	"crypto/subtle"
)

// SecureZero overwrites b with zeros. subtle.ConstantTimeCopy keeps the
// compiler from dropping the store; copies made by the runtime are not
// reached.
func SecureZero(b []byte) {
	if len(b) == 0 {
		return
	}
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
}

// KeyMaterial holds a password or key for as long as a writer needs it
// and zeroes it on Close.
type KeyMaterial struct {
	data   []byte
	closed bool
}

// NewKeyMaterial copies data, so the caller may clear its own slice.
func NewKeyMaterial(data []byte) *KeyMaterial {
	return &KeyMaterial{data: bytes.Clone(data)}
}

// Bytes returns the material, or nil after Close.
func (km *KeyMaterial) Bytes() []byte {
	if km.closed {
		return nil
	}
	return km.data
}

// Close zeroes the material. It is idempotent.
func (km *KeyMaterial) Close() {
	if km.closed {
		return
	}
	SecureZero(km.data)
	km.data = nil
	km.closed = true
}

// IsClosed reports whether Close has been called.
func (km *KeyMaterial) IsClosed() bool {
	return km.closed
}

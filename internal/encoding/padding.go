// Package encoding provides block padding for the CBC cipher suite.
package encoding

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// BlockSize is the AES block size; CBC input must be a multiple of it.
const BlockSize = 16

// ErrInvalidPadding is returned by Unpad when the trailing length byte is out of range.
var ErrInvalidPadding = errors.New("invalid block padding")

// Pad applies ISO 10126 padding (the W3C XML Encryption variant) so data fills
// a whole number of BlockSize blocks.
//
// N bytes are appended, where N is the number of bytes needed to reach the next
// block boundary (1..BlockSize). The first N-1 bytes are random and the last
// byte holds N. Data that is already block aligned gains a full block.
//
// Example: 100-byte data → 112 bytes (11 random bytes, then 0x0C)
func Pad(data []byte) ([]byte, error) {
	return PadFrom(rand.Reader, data)
}

// PadFrom is Pad with an explicit source for the filler bytes.
func PadFrom(random io.Reader, data []byte) ([]byte, error) {
	padLen := BlockSize - len(data)%BlockSize
	out := make([]byte, len(data)+padLen)
	copy(out, data)
	if padLen > 1 {
		if _, err := io.ReadFull(random, out[len(data):len(out)-1]); err != nil {
			return nil, fmt.Errorf("padding filler: %w", err)
		}
	}
	out[len(out)-1] = byte(padLen)
	return out, nil
}

// Unpad removes ISO 10126 padding.
//
// The padding length is the value of the last byte. Only the length byte is
// checked; filler bytes are arbitrary by definition.
func Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%BlockSize != 0 {
		return nil, ErrInvalidPadding
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > BlockSize {
		return nil, ErrInvalidPadding
	}
	return data[:len(data)-padLen], nil
}

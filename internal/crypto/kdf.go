// Package crypto provides the cryptographic engine for encrypted package entries.
//
// Changes to the constants in this file change the bytes a conforming reader
// must reproduce. Packages written with one set of values cannot be opened
// with another.
package crypto

import (
	"bytes"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// RandomBytes generates n cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("fatal crypto/rand error: %w", err)
	}

	// Sanity check: bytes should not be all zeros
	if n > 0 && bytes.Equal(b, make([]byte, n)) {
		return nil, errors.New("fatal crypto/rand error: produced zero bytes")
	}

	return b, nil
}

// Sizes shared by both suites.
const (
	SaltSize     = 16
	KeySize      = 32 // AES-256
	StartKeySize = sha256.Size
)

// PBKDF2 parameters (ODF 1.2 suite).
const (
	PBKDF2Iterations = 100000
)

// Argon2id parameters (ODF 1.3 extension suite).
const (
	Argon2Passes  = 3
	Argon2Memory  = 64 * 1024 // KiB, i.e. 64 MiB
	Argon2Threads = 4
)

// StartKey hashes the UTF-8 password with SHA-256. The digest, not the
// password, is the input to key derivation.
func StartKey(password []byte) []byte {
	sum := sha256.Sum256(password)
	return sum[:]
}

// DeriveKeyPBKDF2 derives the AES key with PBKDF2-HMAC-SHA1.
func DeriveKeyPBKDF2(startKey, salt []byte, iterations int) ([]byte, error) {
	if len(salt) == 0 {
		return nil, errors.New("empty salt")
	}
	if iterations <= 0 {
		return nil, fmt.Errorf("invalid iteration count %d", iterations)
	}

	key := pbkdf2.Key(startKey, salt, iterations, KeySize, sha1.New)

	if bytes.Equal(key, make([]byte, KeySize)) {
		return nil, errors.New("fatal pbkdf2 error: produced zero key")
	}
	return key, nil
}

// DeriveKeyArgon2 derives the AES key with Argon2id.
func DeriveKeyArgon2(startKey, salt []byte, passes, memory uint32, threads uint8) ([]byte, error) {
	if len(salt) == 0 {
		return nil, errors.New("empty salt")
	}
	if passes == 0 || memory == 0 || threads == 0 {
		return nil, fmt.Errorf("invalid argon2 parameters t=%d m=%d p=%d", passes, memory, threads)
	}

	key := argon2.IDKey(startKey, salt, passes, memory, threads, KeySize)

	if bytes.Equal(key, make([]byte, KeySize)) {
		return nil, errors.New("fatal argon2 error: produced zero key")
	}
	return key, nil
}

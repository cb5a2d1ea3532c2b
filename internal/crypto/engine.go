package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/klauspost/compress/flate"

	"odfcrypt/internal/errors"
	"odfcrypt/internal/manifest"
)

// Suite selects the key derivation and cipher used for encrypted entries.
type Suite int

const (
	// SuitePBKDF2AES256CBC is the ODF 1.2 default understood by every
	// current office suite.
	SuitePBKDF2AES256CBC Suite = iota
	// SuiteArgon2AES256GCM is the ODF 1.3 extended suite (LibreOffice 24.2+).
	SuiteArgon2AES256GCM
)

func (s Suite) String() string {
	switch s {
	case SuitePBKDF2AES256CBC:
		return "pbkdf2-aes256-cbc"
	case SuiteArgon2AES256GCM:
		return "argon2id-aes256-gcm"
	default:
		return fmt.Sprintf("Suite(%d)", int(s))
	}
}

// ParseSuite maps a suite name, as printed by String, back to a Suite.
func ParseSuite(name string) (Suite, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "pbkdf2", "pbkdf2-aes256-cbc":
		return SuitePBKDF2AES256CBC, nil
	case "argon2", "argon2id", "argon2id-aes256-gcm":
		return SuiteArgon2AES256GCM, nil
	}
	return 0, errors.NewConfigError("suite", fmt.Sprintf("unknown suite %q", name))
}

// ChecksumLimit is how much of the compressed stream the sha256-1k digest covers.
const ChecksumLimit = 1024

// Compression levels accepted by Compress.
const (
	MinLevel     = flate.NoCompression
	MaxLevel     = flate.BestCompression
	DefaultLevel = 6
)

// Encrypter turns the plaintext of one entry into stored bytes plus the
// parameters a reader needs to reverse the transformation.
type Encrypter interface {
	GenerateSalt() ([]byte, error)
	GenerateIV() ([]byte, error)
	Compress(plain []byte) ([]byte, error)
	Encrypt(compressed, salt, password, iv []byte) ([]byte, error)
	Digest(compressed []byte) []byte
	BuildParameters(plainSize, compressedSize, encryptedSize int, crc uint32, checksum, salt, iv string) manifest.EncryptionData
}

// StandardEncrypter implements Encrypter for one Suite.
//
// Every error it returns is a *errors.CryptoError.
type StandardEncrypter struct {
	suite Suite
	level int

	// randomBytes is replaced in tests to simulate a failing entropy source.
	randomBytes func(n int) ([]byte, error)
}

// NewStandardEncrypter returns an engine for suite that deflates at level.
func NewStandardEncrypter(suite Suite, level int) (*StandardEncrypter, error) {
	if suite != SuitePBKDF2AES256CBC && suite != SuiteArgon2AES256GCM {
		return nil, errors.NewConfigError("suite", fmt.Sprintf("unknown suite %d", int(suite)))
	}
	if level < MinLevel || level > MaxLevel {
		return nil, errors.NewConfigError("level",
			fmt.Sprintf("invalid compression level %d, must be between %d and %d", level, MinLevel, MaxLevel))
	}
	return &StandardEncrypter{suite: suite, level: level, randomBytes: RandomBytes}, nil
}

// Suite returns the configured suite.
func (e *StandardEncrypter) Suite() Suite {
	return e.suite
}

// Level returns the configured compression level.
func (e *StandardEncrypter) Level() int {
	return e.level
}

// GenerateSalt returns a fresh random salt.
func (e *StandardEncrypter) GenerateSalt() ([]byte, error) {
	salt, err := e.randomBytes(SaltSize)
	if err != nil {
		return nil, errors.NewCryptoError("rand", err)
	}
	return salt, nil
}

// GenerateIV returns a fresh random IV sized for the suite's cipher mode.
func (e *StandardEncrypter) GenerateIV() ([]byte, error) {
	iv, err := e.randomBytes(e.ivSize())
	if err != nil {
		return nil, errors.NewCryptoError("rand", err)
	}
	return iv, nil
}

func (e *StandardEncrypter) ivSize() int {
	if e.suite == SuiteArgon2AES256GCM {
		return GCMIVSize
	}
	return CBCIVSize
}

// Compress deflates plain as a raw RFC 1951 stream, the form ODF stores
// inside encrypted entries.
func (e *StandardEncrypter) Compress(plain []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, e.level)
	if err != nil {
		return nil, errors.NewCryptoError("compress", err)
	}
	if _, err := w.Write(plain); err != nil {
		return nil, errors.NewCryptoError("compress", err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.NewCryptoError("compress", err)
	}
	return buf.Bytes(), nil
}

// Encrypt derives the key from password and salt and encrypts compressed.
// The password is not retained; derived key material is zeroed before return.
func (e *StandardEncrypter) Encrypt(compressed, salt, password, iv []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, errors.NewCryptoError("kdf", fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt)))
	}

	key, err := e.deriveKey(password, salt)
	if err != nil {
		return nil, errors.NewCryptoError("kdf", err)
	}
	defer SecureZero(key)

	var out []byte
	switch e.suite {
	case SuiteArgon2AES256GCM:
		out, err = encryptGCM(key, iv, compressed)
	default:
		out, err = encryptCBC(key, iv, compressed)
	}
	if err != nil {
		return nil, errors.NewCryptoError("cipher", err)
	}
	return out, nil
}

func (e *StandardEncrypter) deriveKey(password, salt []byte) ([]byte, error) {
	start := StartKey(password)
	defer SecureZero(start)

	if e.suite == SuiteArgon2AES256GCM {
		return DeriveKeyArgon2(start, salt, Argon2Passes, Argon2Memory, Argon2Threads)
	}
	return DeriveKeyPBKDF2(start, salt, PBKDF2Iterations)
}

// Digest returns the sha256-1k checksum of the compressed stream.
func (e *StandardEncrypter) Digest(compressed []byte) []byte {
	return Checksum1K(compressed)
}

// Checksum1K hashes at most the first ChecksumLimit bytes of data.
func Checksum1K(data []byte) []byte {
	if len(data) > ChecksumLimit {
		data = data[:ChecksumLimit]
	}
	sum := sha256.Sum256(data)
	return sum[:]
}

// BuildParameters assembles the descriptor parameters for one entry.
// checksum, salt and iv are already encoded with Encode.
func (e *StandardEncrypter) BuildParameters(plainSize, compressedSize, encryptedSize int, crc uint32, checksum, salt, iv string) manifest.EncryptionData {
	d := manifest.EncryptionData{
		KeySize:        KeySize,
		StartKey:       manifest.StartKeySHA256,
		StartKeySize:   StartKeySize,
		Salt:           salt,
		IV:             iv,
		ChecksumType:   manifest.ChecksumSHA256_1K,
		Checksum:       checksum,
		PlainSize:      plainSize,
		CompressedSize: compressedSize,
		EncryptedSize:  encryptedSize,
		CRC32:          crc,
	}
	switch e.suite {
	case SuiteArgon2AES256GCM:
		d.Algorithm = manifest.AlgorithmAES256GCM
		d.KeyDerivation = manifest.KeyDerivationArgon2id
		d.Iterations = Argon2Passes
		d.Argon2Memory = Argon2Memory
		d.Argon2Lanes = Argon2Threads
	default:
		d.Algorithm = manifest.AlgorithmAES256CBC
		d.KeyDerivation = manifest.KeyDerivationPBKDF2
		d.Iterations = PBKDF2Iterations
	}
	return d
}

// Encode renders binary parameters the way the manifest stores them.
func Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Decode reverses Encode.
func Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

package crypto

import (
	"bytes"
	"crypto/subtle"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"

	"odfcrypt/internal/errors"
	"odfcrypt/internal/fileops"
	"odfcrypt/internal/manifest"
)

// Upper bounds on key derivation parameters read from a manifest. Anything
// beyond them is refused before a key is derived.
const (
	MaxPBKDF2Iterations = 10_000_000
	MaxArgon2Passes     = 16
	MaxArgon2Memory     = 1 << 20 // KiB, 1 GiB
	MaxArgon2Lanes      = 16
)

// DecryptEntry reverses what StandardEncrypter did to one entry and returns
// the plaintext. data comes from the package manifest; stored is the raw
// entry body.
//
// A wrong password shows up as ErrAuthFailed. A plaintext whose length
// disagrees with the manifest is reported as ErrIntegrity.
func DecryptEntry(data manifest.EncryptionData, stored, password []byte) ([]byte, error) {
	salt, err := Decode(data.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %v", errors.ErrInvalidPackage, err)
	}
	iv, err := Decode(data.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: initialisation vector: %v", errors.ErrInvalidPackage, err)
	}

	key, err := deriveKeyFor(data, password, salt)
	if err != nil {
		return nil, err
	}
	defer SecureZero(key)

	var compressed []byte
	switch data.Algorithm {
	case manifest.AlgorithmAES256CBC:
		compressed, err = decryptCBC(key, iv, stored)
	case manifest.AlgorithmAES256GCM:
		compressed, err = decryptGCM(key, iv, stored)
	default:
		return nil, fmt.Errorf("%w: algorithm %q", errors.ErrUnsupported, data.Algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrAuthFailed, err)
	}

	if err := verifyChecksum(data, compressed); err != nil {
		return nil, err
	}

	plain, err := Decompress(compressed, data.PlainSize)
	if err != nil {
		return nil, err
	}
	if data.PlainSize != 0 && len(plain) != data.PlainSize {
		return nil, fmt.Errorf("%w: plain size %d, manifest says %d", errors.ErrIntegrity, len(plain), data.PlainSize)
	}
	return plain, nil
}

func deriveKeyFor(data manifest.EncryptionData, password, salt []byte) ([]byte, error) {
	if data.StartKey != "" && data.StartKey != manifest.StartKeySHA256 {
		return nil, fmt.Errorf("%w: start key %q", errors.ErrUnsupported, data.StartKey)
	}
	if data.KeySize != 0 && data.KeySize != KeySize {
		return nil, fmt.Errorf("%w: key size %d", errors.ErrUnsupported, data.KeySize)
	}

	if err := checkKDFParams(data); err != nil {
		return nil, err
	}

	start := StartKey(password)
	defer SecureZero(start)

	var (
		key []byte
		err error
	)
	switch data.KeyDerivation {
	case manifest.KeyDerivationPBKDF2:
		key, err = DeriveKeyPBKDF2(start, salt, data.Iterations)
	case manifest.KeyDerivationArgon2id:
		key, err = DeriveKeyArgon2(start, salt, uint32(data.Iterations), data.Argon2Memory, data.Argon2Lanes)
	default:
		return nil, fmt.Errorf("%w: key derivation %q", errors.ErrUnsupported, data.KeyDerivation)
	}
	if err != nil {
		return nil, errors.NewCryptoError("kdf", err)
	}
	return key, nil
}

func checkKDFParams(data manifest.EncryptionData) error {
	switch data.KeyDerivation {
	case manifest.KeyDerivationPBKDF2:
		if data.Iterations < 1 || data.Iterations > MaxPBKDF2Iterations {
			return fmt.Errorf("%w: pbkdf2 iteration count %d", errors.ErrUnsupported, data.Iterations)
		}
	case manifest.KeyDerivationArgon2id:
		if data.Iterations < 1 || data.Iterations > MaxArgon2Passes {
			return fmt.Errorf("%w: argon2 passes %d", errors.ErrUnsupported, data.Iterations)
		}
		if data.Argon2Memory < 1 || data.Argon2Memory > MaxArgon2Memory {
			return fmt.Errorf("%w: argon2 memory %d KiB", errors.ErrUnsupported, data.Argon2Memory)
		}
		if data.Argon2Lanes < 1 || data.Argon2Lanes > MaxArgon2Lanes {
			return fmt.Errorf("%w: argon2 lanes %d", errors.ErrUnsupported, data.Argon2Lanes)
		}
	}
	return nil
}

func verifyChecksum(data manifest.EncryptionData, compressed []byte) error {
	switch data.ChecksumType {
	case "":
		return nil
	case manifest.ChecksumSHA256_1K:
	default:
		return fmt.Errorf("%w: checksum type %q", errors.ErrUnsupported, data.ChecksumType)
	}

	want, err := Decode(data.Checksum)
	if err != nil {
		return fmt.Errorf("%w: checksum: %v", errors.ErrInvalidPackage, err)
	}
	if subtle.ConstantTimeCompare(want, Checksum1K(compressed)) != 1 {
		return errors.ErrAuthFailed
	}
	return nil
}

// Decompress inflates a raw deflate stream. The output may not exceed
// sizeHint when it is positive, nor fileops.MaxPackageSize otherwise, so a
// corrupt stream cannot grow without bound.
func Decompress(compressed []byte, sizeHint int) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()

	limit := int64(fileops.MaxPackageSize)
	if sizeHint > 0 {
		limit = int64(sizeHint)
	}
	plain, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: inflate: %v", errors.ErrIntegrity, err)
	}
	if int64(len(plain)) > limit {
		return nil, fmt.Errorf("%w: inflated past %d bytes", errors.ErrIntegrity, limit)
	}
	return plain, nil
}

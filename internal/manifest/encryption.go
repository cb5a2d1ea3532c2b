package manifest

// Algorithm identifiers written to manifest:algorithm-name.
const (
	AlgorithmAES256CBC = "http://www.w3.org/2001/04/xmlenc#aes256-cbc"
	AlgorithmAES256GCM = "http://www.w3.org/2009/xmlenc11#aes256-gcm"
)

// Key derivation identifiers written to manifest:key-derivation-name.
const (
	KeyDerivationPBKDF2   = "PBKDF2"
	KeyDerivationArgon2id = "urn:org:documentfoundation:names:experimental:office:manifest:argon2id"
)

// StartKeySHA256 names the digest applied to the password before key derivation.
const StartKeySHA256 = "http://www.w3.org/2000/09/xmldsig#sha256"

// ChecksumSHA256_1K is a SHA-256 digest over the first 1024 bytes of the
// compressed entry.
const ChecksumSHA256_1K = "urn:oasis:names:tc:opendocument:xmlns:manifest:1.0#sha256-1k"

// EncryptionData holds everything a reader needs, besides the password, to
// decrypt and verify one entry.
//
// Salt, IV and Checksum are base64 (standard alphabet, padded). All sizes and
// checksums are measured on the bytes actually produced for the entry.
type EncryptionData struct {
	Algorithm     string
	KeyDerivation string
	KeySize       int
	Iterations    int    // PBKDF2 iteration count or Argon2 passes
	Argon2Memory  uint32 // KiB, argon2id only
	Argon2Lanes   uint8  // argon2id only
	StartKey      string
	StartKeySize  int
	Salt          string
	IV            string

	ChecksumType string
	Checksum     string // digest of the compressed plaintext

	PlainSize      int    // bytes written by the caller
	CompressedSize int    // deflated size, before encryption
	EncryptedSize  int    // ciphertext size, as stored in the archive
	CRC32          uint32 // container checksum of the ciphertext
}

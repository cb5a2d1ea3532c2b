package crypto

import (
	"bytes"
	"hash/crc32"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odfcrypt/internal/errors"
	"odfcrypt/internal/manifest"
)

var suites = []Suite{SuitePBKDF2AES256CBC, SuiteArgon2AES256GCM}

// sealEntry runs the same steps the crypto writer runs on close.
func sealEntry(t *testing.T, e *StandardEncrypter, plain, password []byte) (manifest.EncryptionData, []byte, []byte) {
	t.Helper()

	salt, err := e.GenerateSalt()
	require.NoError(t, err)
	iv, err := e.GenerateIV()
	require.NoError(t, err)
	compressed, err := e.Compress(plain)
	require.NoError(t, err)
	ct, err := e.Encrypt(compressed, salt, password, iv)
	require.NoError(t, err)

	data := e.BuildParameters(len(plain), len(compressed), len(ct), crc32.ChecksumIEEE(ct),
		Encode(e.Digest(compressed)), Encode(salt), Encode(iv))
	return data, ct, compressed
}

func TestNewStandardEncrypterValidation(t *testing.T) {
	for _, level := range []int{-1, 10, 99} {
		_, err := NewStandardEncrypter(SuitePBKDF2AES256CBC, level)
		require.Error(t, err, "level %d", level)
		assert.True(t, errors.IsConfig(err), "level %d: %v", level, err)
		assert.Contains(t, err.Error(), "invalid compression level")
	}

	_, err := NewStandardEncrypter(Suite(42), 6)
	assert.True(t, errors.IsConfig(err))

	e, err := NewStandardEncrypter(SuiteArgon2AES256GCM, 0)
	require.NoError(t, err)
	assert.Equal(t, SuiteArgon2AES256GCM, e.Suite())
	assert.Equal(t, 0, e.Level())
}

func TestParseSuite(t *testing.T) {
	tests := []struct {
		in   string
		want Suite
	}{
		{"", SuitePBKDF2AES256CBC},
		{"pbkdf2", SuitePBKDF2AES256CBC},
		{"PBKDF2-AES256-CBC", SuitePBKDF2AES256CBC},
		{"argon2id", SuiteArgon2AES256GCM},
		{SuiteArgon2AES256GCM.String(), SuiteArgon2AES256GCM},
	}
	for _, tt := range tests {
		got, err := ParseSuite(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseSuite("rot13")
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	assert.Equal(t, "Suite(7)", Suite(7).String())
}

func TestGenerateSizes(t *testing.T) {
	cbc, _ := NewStandardEncrypter(SuitePBKDF2AES256CBC, 6)
	gcm, _ := NewStandardEncrypter(SuiteArgon2AES256GCM, 6)

	salt, err := cbc.GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, salt, SaltSize)

	iv, err := cbc.GenerateIV()
	require.NoError(t, err)
	assert.Len(t, iv, CBCIVSize)

	iv, err = gcm.GenerateIV()
	require.NoError(t, err)
	assert.Len(t, iv, GCMIVSize)
}

func TestEntryRoundTrip(t *testing.T) {
	password := []byte("correct horse battery staple")
	inputs := [][]byte{
		{},
		[]byte("x"),
		[]byte(strings.Repeat("some long text that can be zipped ", 200)),
	}

	for _, suite := range suites {
		e, err := NewStandardEncrypter(suite, DefaultLevel)
		require.NoError(t, err)

		for _, plain := range inputs {
			data, ct, _ := sealEntry(t, e, plain, password)

			got, err := DecryptEntry(data, ct, password)
			require.NoError(t, err, "%s, %d bytes", suite, len(plain))
			assert.True(t, bytes.Equal(plain, got), "%s, %d bytes", suite, len(plain))
		}
	}
}

func TestIdenticalPlaintextsDiffer(t *testing.T) {
	password := []byte("pw")
	plain := []byte(strings.Repeat("same content ", 50))

	for _, suite := range suites {
		e, _ := NewStandardEncrypter(suite, 6)
		d1, ct1, _ := sealEntry(t, e, plain, password)
		d2, ct2, _ := sealEntry(t, e, plain, password)

		assert.NotEqual(t, d1.Salt, d2.Salt, suite.String())
		assert.NotEqual(t, d1.IV, d2.IV, suite.String())
		assert.NotEqual(t, ct1, ct2, suite.String())
	}
}

func TestChecksumMatchesCompressedBytes(t *testing.T) {
	e, _ := NewStandardEncrypter(SuitePBKDF2AES256CBC, 0)
	plain := bytes.Repeat([]byte("0123456789"), 300)

	data, _, compressed := sealEntry(t, e, plain, []byte("pw"))
	require.Equal(t, data.CompressedSize, len(compressed))
	require.Greater(t, len(compressed), ChecksumLimit)

	assert.Equal(t, Encode(Checksum1K(compressed[:data.CompressedSize])), data.Checksum)
	assert.Equal(t, Checksum1K(compressed[:ChecksumLimit]), Checksum1K(compressed))
}

func TestBuildParameters(t *testing.T) {
	cbc, _ := NewStandardEncrypter(SuitePBKDF2AES256CBC, 6)
	d := cbc.BuildParameters(10, 8, 16, 0xabcd, "c", "s", "i")
	assert.Equal(t, manifest.EncryptionData{
		Algorithm:      manifest.AlgorithmAES256CBC,
		KeyDerivation:  manifest.KeyDerivationPBKDF2,
		KeySize:        KeySize,
		Iterations:     PBKDF2Iterations,
		StartKey:       manifest.StartKeySHA256,
		StartKeySize:   StartKeySize,
		Salt:           "s",
		IV:             "i",
		ChecksumType:   manifest.ChecksumSHA256_1K,
		Checksum:       "c",
		PlainSize:      10,
		CompressedSize: 8,
		EncryptedSize:  16,
		CRC32:          0xabcd,
	}, d)

	gcm, _ := NewStandardEncrypter(SuiteArgon2AES256GCM, 6)
	d = gcm.BuildParameters(10, 8, 24, 1, "c", "s", "i")
	assert.Equal(t, manifest.AlgorithmAES256GCM, d.Algorithm)
	assert.Equal(t, manifest.KeyDerivationArgon2id, d.KeyDerivation)
	assert.Equal(t, Argon2Passes, d.Iterations)
	assert.Equal(t, uint32(Argon2Memory), d.Argon2Memory)
	assert.Equal(t, uint8(Argon2Threads), d.Argon2Lanes)
}

func TestEngineFailuresAreEncryptionFailures(t *testing.T) {
	e, _ := NewStandardEncrypter(SuitePBKDF2AES256CBC, 6)
	e.randomBytes = func(int) ([]byte, error) { return nil, io.ErrUnexpectedEOF }

	_, err := e.GenerateSalt()
	assert.ErrorIs(t, err, errors.ErrEncryptionFailure)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = e.GenerateIV()
	var cerr *errors.CryptoError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "rand", cerr.Op)

	_, err = e.Encrypt([]byte("data"), []byte("short"), []byte("pw"), make([]byte, CBCIVSize))
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "kdf", cerr.Op)

	gcm, _ := NewStandardEncrypter(SuiteArgon2AES256GCM, 6)
	_, err = gcm.Encrypt([]byte("data"), make([]byte, SaltSize), []byte("pw"), make([]byte, CBCIVSize))
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "cipher", cerr.Op)
	assert.True(t, errors.IsEncryptionFailure(err))
}

func TestLevelChangesCompressedSize(t *testing.T) {
	plain := []byte(strings.Repeat("some long text that can be zipped ", 4))

	stored, _ := NewStandardEncrypter(SuitePBKDF2AES256CBC, 0)
	best, _ := NewStandardEncrypter(SuitePBKDF2AES256CBC, 9)

	a, err := stored.Compress(plain)
	require.NoError(t, err)
	b, err := best.Compress(plain)
	require.NoError(t, err)

	assert.Greater(t, len(a), len(plain))
	assert.Less(t, len(b), len(plain))
}

func TestDecryptEntryWrongPassword(t *testing.T) {
	plain := []byte(strings.Repeat("confidential ", 100))

	for _, suite := range suites {
		e, _ := NewStandardEncrypter(suite, 6)
		data, ct, _ := sealEntry(t, e, plain, []byte("right"))

		_, err := DecryptEntry(data, ct, []byte("wrong"))
		assert.ErrorIs(t, err, errors.ErrAuthFailed, suite.String())
	}
}

func TestDecryptEntryIntegrity(t *testing.T) {
	e, _ := NewStandardEncrypter(SuitePBKDF2AES256CBC, 6)
	plain := []byte("hello, world")
	data, ct, _ := sealEntry(t, e, plain, []byte("pw"))

	wrongSize := data
	wrongSize.PlainSize = len(plain) + 5
	_, err := DecryptEntry(wrongSize, ct, []byte("pw"))
	assert.ErrorIs(t, err, errors.ErrIntegrity)

	badChecksum := data
	badChecksum.Checksum = Encode(make([]byte, 32))
	_, err = DecryptEntry(badChecksum, ct, []byte("pw"))
	assert.ErrorIs(t, err, errors.ErrAuthFailed)

	unknown := data
	unknown.Algorithm = "urn:example:rot13"
	_, err = DecryptEntry(unknown, ct, []byte("pw"))
	assert.ErrorIs(t, err, errors.ErrUnsupported)

	badSalt := data
	badSalt.Salt = "!!!"
	_, err = DecryptEntry(badSalt, ct, []byte("pw"))
	assert.ErrorIs(t, err, errors.ErrInvalidPackage)
}

func TestDecompressRejectsGarbage(t *testing.T) {
	_, err := Decompress([]byte{0xff, 0xff, 0xff, 0xff}, 0)
	assert.ErrorIs(t, err, errors.ErrIntegrity)
}

func TestDecryptEntryRejectsHostileKDFParams(t *testing.T) {
	cbc, _ := NewStandardEncrypter(SuitePBKDF2AES256CBC, 6)
	gcm, _ := NewStandardEncrypter(SuiteArgon2AES256GCM, 6)
	pbkdf2Data, pbkdf2CT, _ := sealEntry(t, cbc, []byte("hello"), []byte("pw"))
	argonData, argonCT, _ := sealEntry(t, gcm, []byte("hello"), []byte("pw"))

	tests := []struct {
		name   string
		edit   func(d *manifest.EncryptionData)
		stored []byte
		base   manifest.EncryptionData
	}{
		{"pbkdf2 zero iterations", func(d *manifest.EncryptionData) { d.Iterations = 0 }, pbkdf2CT, pbkdf2Data},
		{"pbkdf2 negative iterations", func(d *manifest.EncryptionData) { d.Iterations = -1 }, pbkdf2CT, pbkdf2Data},
		{"pbkdf2 huge iterations", func(d *manifest.EncryptionData) { d.Iterations = MaxPBKDF2Iterations + 1 }, pbkdf2CT, pbkdf2Data},
		{"argon2 negative passes", func(d *manifest.EncryptionData) { d.Iterations = -1 }, argonCT, argonData},
		{"argon2 too many passes", func(d *manifest.EncryptionData) { d.Iterations = MaxArgon2Passes + 1 }, argonCT, argonData},
		{"argon2 huge memory", func(d *manifest.EncryptionData) { d.Argon2Memory = 1<<32 - 1 }, argonCT, argonData},
		{"argon2 zero memory", func(d *manifest.EncryptionData) { d.Argon2Memory = 0 }, argonCT, argonData},
		{"argon2 zero lanes", func(d *manifest.EncryptionData) { d.Argon2Lanes = 0 }, argonCT, argonData},
		{"argon2 too many lanes", func(d *manifest.EncryptionData) { d.Argon2Lanes = 255 }, argonCT, argonData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.base
			tt.edit(&data)
			_, err := DecryptEntry(data, tt.stored, []byte("pw"))
			assert.ErrorIs(t, err, errors.ErrUnsupported)
		})
	}

	// The limits themselves are accepted.
	edge := argonData
	edge.Iterations = 1
	edge.Argon2Lanes = MaxArgon2Lanes
	_, err := DecryptEntry(edge, argonCT, []byte("pw"))
	assert.ErrorIs(t, err, errors.ErrAuthFailed)
}

func TestDecompressCapsOutput(t *testing.T) {
	e, _ := NewStandardEncrypter(SuitePBKDF2AES256CBC, 9)
	plain := bytes.Repeat([]byte{'a'}, 4096)
	compressed, err := e.Compress(plain)
	require.NoError(t, err)

	_, err = Decompress(compressed, 100)
	assert.ErrorIs(t, err, errors.ErrIntegrity)

	got, err := Decompress(compressed, len(plain))
	require.NoError(t, err)
	assert.Equal(t, plain, got)

	got, err = Decompress(compressed, 0)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

package odf

import (
	"io"

	"odfcrypt/internal/crypto"
	"odfcrypt/internal/errors"
	"odfcrypt/internal/zipio"
)

// CryptoBuilder assembles a CryptoWriter over a zipio.ZipWriter.
//
// Setters never fail. Build validates everything before touching the output,
// and either returns a usable writer or an error, never both nil.
type CryptoBuilder struct {
	password []byte
	suite    crypto.Suite
	zip      zipio.Config
}

// NewCryptoBuilder starts from zipio.DefaultConfig and SuitePBKDF2AES256CBC.
func NewCryptoBuilder(password []byte) *CryptoBuilder {
	return &CryptoBuilder{
		password: password,
		suite:    crypto.SuitePBKDF2AES256CBC,
		zip:      zipio.DefaultConfig(),
	}
}

// Suite selects the encryption suite.
func (b *CryptoBuilder) Suite(s crypto.Suite) *CryptoBuilder {
	b.suite = s
	return b
}

// Level sets the compression level, 0 through 9. It applies both to the
// deflate step before encryption and to plain entries of the archive.
func (b *CryptoBuilder) Level(level int) *CryptoBuilder {
	b.zip.Level = level
	return b
}

// ZipBuffer sets the buffer in front of the output sink.
func (b *CryptoBuilder) ZipBuffer(size int) *CryptoBuilder {
	b.zip.ZipBufferSize = size
	return b
}

// NoZipBuffer writes the archive straight to the sink.
func (b *CryptoBuilder) NoZipBuffer() *CryptoBuilder {
	return b.ZipBuffer(0)
}

// WriterBuffer sets the text buffer in front of each staged entry.
func (b *CryptoBuilder) WriterBuffer(size int) *CryptoBuilder {
	b.zip.WriterBufferSize = size
	return b
}

// NoWriterBuffer stages writes without a text buffer.
func (b *CryptoBuilder) NoWriterBuffer() *CryptoBuilder {
	return b.WriterBuffer(0)
}

// Config returns the archive settings collected so far.
func (b *CryptoBuilder) Config() zipio.Config {
	return b.zip
}

// Build validates the settings and returns a writer over out.
func (b *CryptoBuilder) Build(out io.Writer) (*CryptoWriter, error) {
	if err := b.zip.Validate(); err != nil {
		return nil, err
	}
	if len(b.password) == 0 {
		return nil, errors.NewConfigError("password", "must not be empty")
	}

	engine, err := crypto.NewStandardEncrypter(b.suite, b.zip.Level)
	if err != nil {
		return nil, err
	}

	// Entries reach the archive in one Write, so the archive needs no text
	// buffer of its own; the staging buffer takes that setting instead.
	zw, err := zipio.NewBuilder().
		Level(b.zip.Level).
		ZipBuffer(b.zip.ZipBufferSize).
		NoWriterBuffer().
		Build(out)
	if err != nil {
		return nil, err
	}

	return NewCryptoWriter(zw, engine, b.password, b.zip.WriterBufferSize), nil
}

// Package odf writes OpenDocument packages whose entries are encrypted
// individually, the way office suites protect a document with a password.
package odf

import (
	"fmt"
	"hash/crc32"

	"odfcrypt/internal/crypto"
	"odfcrypt/internal/errors"
	"odfcrypt/internal/log"
	"odfcrypt/internal/manifest"
	"odfcrypt/internal/zipio"
)

// CryptoWriter decorates a zipio.Writer with per-entry encryption.
//
// Content written to an entry is staged in memory. When the entry is closed
// it is either passed through unchanged (NeverEncrypt entries) or compressed,
// encrypted and checksummed, and the resulting descriptor carries the
// parameters a reader needs. The underlying writer only ever sees complete
// entries.
//
// If encrypting an entry fails the archive is left incomplete and every
// later operation except Close and Abort returns ErrWriterBroken.
//
// A CryptoWriter is not safe for concurrent use.
type CryptoWriter struct {
	w        zipio.Writer
	engine   crypto.Encrypter
	password *crypto.KeyMaterial
	textSize int
	names    map[string]struct{}

	// Open entry state.
	open     bool
	current  manifest.Entry
	register bool
	buf      *entryBuffer

	broken error
	closed bool
}

// NewCryptoWriter wraps w. The password is copied; the copy lives until Close.
// textSize is the text buffer placed in front of each staged entry, 0 disables it.
func NewCryptoWriter(w zipio.Writer, engine crypto.Encrypter, password []byte, textSize int) *CryptoWriter {
	return &CryptoWriter{
		w:        w,
		engine:   engine,
		password: crypto.NewKeyMaterial(password),
		textSize: textSize,
		names:    make(map[string]struct{}),
	}
}

// Manifest returns the collection of the underlying writer.
func (c *CryptoWriter) Manifest() *manifest.Manifest {
	return c.w.Manifest()
}

// SetComment is passed through to the underlying writer.
func (c *CryptoWriter) SetComment(comment string) error {
	if err := c.usable("comment"); err != nil {
		return err
	}
	return c.w.SetComment(comment)
}

// PutNextEntry opens an entry. Nothing reaches the underlying writer until
// CloseEntry.
func (c *CryptoWriter) PutNextEntry(e manifest.Entry) error {
	return c.put(e, false)
}

// PutAndRegisterNextEntry opens an entry and registers its final
// descriptor, encryption parameters included, when it is closed.
func (c *CryptoWriter) PutAndRegisterNextEntry(e manifest.Entry) error {
	return c.put(e, true)
}

func (c *CryptoWriter) put(e manifest.Entry, register bool) error {
	if err := c.usable("put"); err != nil {
		return err
	}
	if c.open {
		return errors.NewProtocolError("put", e.Path, errors.ErrEntryOpen)
	}
	if e.Path == "" {
		return errors.NewProtocolError("put", "", errors.ErrInvalidPackage)
	}
	if _, ok := c.names[e.Path]; ok || (register && c.w.Manifest().Contains(e.Path)) {
		return errors.NewProtocolError("put", e.Path, errors.ErrDuplicateEntry)
	}

	c.names[e.Path] = struct{}{}
	c.open = true
	c.current = e
	c.register = register
	c.buf = newEntryBuffer(c.textSize)

	log.Debug("entry opened",
		log.String("path", e.Path),
		log.Bool("never_encrypt", e.NeverEncrypt),
		log.Bool("register", register))
	return nil
}

// RegisterEntry registers a descriptor that does not go through this
// writer's staging, such as the manifest entry itself.
func (c *CryptoWriter) RegisterEntry(e manifest.Entry) error {
	if err := c.usable("register"); err != nil {
		return err
	}
	return c.w.RegisterEntry(e)
}

// Write appends p to the open entry.
func (c *CryptoWriter) Write(p []byte) (int, error) {
	if err := c.writable(); err != nil {
		return 0, err
	}
	return c.buf.Write(p)
}

// WriteString appends s to the open entry.
func (c *CryptoWriter) WriteString(s string) (int, error) {
	if err := c.writable(); err != nil {
		return 0, err
	}
	return c.buf.WriteString(s)
}

// WriteRune appends the UTF-8 encoding of r to the open entry.
func (c *CryptoWriter) WriteRune(r rune) (int, error) {
	if err := c.writable(); err != nil {
		return 0, err
	}
	return c.buf.WriteRune(r)
}

func (c *CryptoWriter) writable() error {
	if err := c.usable("write"); err != nil {
		return err
	}
	if !c.open {
		return errors.NewProtocolError("write", "", errors.ErrNoEntry)
	}
	return nil
}

// CloseEntry completes the open entry and hands it to the underlying writer.
func (c *CryptoWriter) CloseEntry() error {
	if err := c.usable("close"); err != nil {
		return err
	}
	if !c.open {
		return errors.NewProtocolError("close", "", errors.ErrNoEntry)
	}

	e, register, buf := c.current, c.register, c.buf
	c.open = false
	c.current = manifest.Entry{}
	c.register = false
	c.buf = nil

	plain, err := buf.Bytes()
	if err != nil {
		return c.fail(e.Path, err)
	}

	if e.NeverEncrypt {
		if err := c.delegate(e, plain, register); err != nil {
			return c.fail(e.Path, err)
		}
		log.Debug("entry closed",
			log.String("path", e.Path),
			log.Int("size", len(plain)),
			log.Bool("encrypted", false))
		return nil
	}

	enc, stored, err := c.seal(e, plain)
	if err != nil {
		return c.fail(e.Path, err)
	}

	if register {
		if err := c.w.RegisterEntry(enc); err != nil {
			return c.fail(e.Path, err)
		}
	}
	if err := c.delegate(enc, stored, false); err != nil {
		return c.fail(e.Path, err)
	}

	d := enc.Encryption
	log.Debug("entry closed",
		log.String("path", e.Path),
		log.Int("size", d.PlainSize),
		log.Int("compressed", d.CompressedSize),
		log.Int("stored", d.EncryptedSize),
		log.Hex32("crc32", d.CRC32),
		log.Bool("encrypted", true))
	return nil
}

// seal compresses and encrypts plain and returns the descriptor that
// describes the stored bytes.
func (c *CryptoWriter) seal(e manifest.Entry, plain []byte) (manifest.Entry, []byte, error) {
	salt, err := c.engine.GenerateSalt()
	if err != nil {
		return e, nil, err
	}
	iv, err := c.engine.GenerateIV()
	if err != nil {
		return e, nil, err
	}
	compressed, err := c.engine.Compress(plain)
	if err != nil {
		return e, nil, err
	}
	stored, err := c.engine.Encrypt(compressed, salt, c.password.Bytes(), iv)
	if err != nil {
		return e, nil, err
	}

	params := c.engine.BuildParameters(
		len(plain), len(compressed), len(stored),
		crc32.ChecksumIEEE(stored),
		crypto.Encode(c.engine.Digest(compressed)),
		crypto.Encode(salt),
		crypto.Encode(iv),
	)
	return e.WithEncryption(params), stored, nil
}

func (c *CryptoWriter) delegate(e manifest.Entry, data []byte, register bool) error {
	var err error
	if register {
		err = c.w.PutAndRegisterNextEntry(e)
	} else {
		err = c.w.PutNextEntry(e)
	}
	if err != nil {
		return err
	}
	if _, err := c.w.Write(data); err != nil {
		return err
	}
	if err := c.w.Flush(); err != nil {
		return err
	}
	return c.w.CloseEntry()
}

// fail marks the writer unusable. The archive written so far cannot be
// completed consistently.
func (c *CryptoWriter) fail(path string, err error) error {
	c.broken = err
	log.Error("entry failed", log.String("path", path), log.Err(err))
	if errors.IsEncryptionFailure(err) || errors.IsProtocol(err) {
		return err
	}
	return fmt.Errorf("close entry %s: %w", path, err)
}

// Flush flushes pending text of the open entry into its staging buffer and
// flushes the underlying writer.
func (c *CryptoWriter) Flush() error {
	if err := c.usable("flush"); err != nil {
		return err
	}
	if c.open {
		if err := c.buf.Flush(); err != nil {
			return err
		}
	}
	return c.w.Flush()
}

// Finish closes the open entry, if any, and finishes the underlying writer.
func (c *CryptoWriter) Finish() error {
	if err := c.usable("finish"); err != nil {
		return err
	}
	if c.open {
		if err := c.CloseEntry(); err != nil {
			return err
		}
	}
	return c.w.Finish()
}

// Close finishes the archive, closes the underlying writer and zeroes the
// password. A broken writer is aborted instead, leaving no central
// directory behind. Calling Close more than once is a no-op.
func (c *CryptoWriter) Close() error {
	if c.closed {
		return nil
	}

	var err error
	if c.broken == nil {
		err = c.Finish()
	}
	if c.broken != nil {
		if aerr := c.Abort(); err == nil {
			err = aerr
		}
		return err
	}

	defer c.password.Close()
	c.closed = true
	if cerr := c.w.Close(); err == nil {
		err = cerr
	}
	return err
}

// Abort drops the open entry, aborts the underlying writer and zeroes the
// password.
func (c *CryptoWriter) Abort() error {
	if c.closed {
		return nil
	}
	defer c.password.Close()
	c.closed = true
	c.open = false
	c.buf = nil
	return c.w.Abort()
}

// Broken returns the error that made the writer unusable, or nil.
func (c *CryptoWriter) Broken() error {
	return c.broken
}

func (c *CryptoWriter) usable(op string) error {
	if c.closed {
		return errors.NewProtocolError(op, "", errors.ErrWriterClosed)
	}
	if c.broken != nil {
		return errors.NewProtocolError(op, "", errors.ErrWriterBroken)
	}
	return nil
}

var _ zipio.Writer = (*CryptoWriter)(nil)

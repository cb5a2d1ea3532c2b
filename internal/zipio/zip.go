package zipio

import (
	"archive/zip"
	"bufio"
	"bytes"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/flate"

	"odfcrypt/internal/errors"
	"odfcrypt/internal/log"
	"odfcrypt/internal/manifest"
)

// ZipWriter writes a ZIP archive for a document package.
//
// Three kinds of entries are written differently:
//   - entries with encryption parameters are written raw with the method
//     Store, taking CRC-32 and sizes from the descriptor;
//   - stored plain entries (mimetype, or any entry at level 0) are held
//     until CloseEntry and written raw, so no data descriptor follows them;
//   - all other plain entries are deflated with klauspost/compress.
type ZipWriter struct {
	cfg Config

	out   io.Writer
	buf   *bufio.Writer // zip buffer, nil when disabled
	zw    *zip.Writer
	man   *manifest.Manifest
	names map[string]struct{} // paths already written

	// Open entry state.
	open     bool
	current  manifest.Entry
	register bool
	sink     io.Writer     // where entry bytes go
	text     *bufio.Writer // writer buffer over sink, nil when disabled
	held     *bytes.Buffer // content of a stored plain entry
	written  int64

	finished bool
	closed   bool
}

func newZipWriter(out io.Writer, cfg Config) *ZipWriter {
	w := &ZipWriter{
		cfg:   cfg,
		out:   out,
		man:   manifest.New(""),
		names: make(map[string]struct{}),
	}

	var dst io.Writer = out
	if cfg.ZipBufferSize > 0 {
		w.buf = bufio.NewWriterSize(out, cfg.ZipBufferSize)
		dst = w.buf
	}

	w.zw = zip.NewWriter(dst)
	level := cfg.Level
	w.zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
	return w
}

// Config returns the settings the writer was built with.
func (w *ZipWriter) Config() Config {
	return w.cfg
}

// Manifest returns the descriptors registered so far.
func (w *ZipWriter) Manifest() *manifest.Manifest {
	return w.man
}

// SetComment sets the archive comment.
func (w *ZipWriter) SetComment(comment string) error {
	if err := w.usable("comment"); err != nil {
		return err
	}
	return w.zw.SetComment(comment)
}

// PutNextEntry starts a new entry.
func (w *ZipWriter) PutNextEntry(e manifest.Entry) error {
	return w.put(e, false)
}

// PutAndRegisterNextEntry starts a new entry and registers it on close.
func (w *ZipWriter) PutAndRegisterNextEntry(e manifest.Entry) error {
	return w.put(e, true)
}

func (w *ZipWriter) put(e manifest.Entry, register bool) error {
	if err := w.usable("put"); err != nil {
		return err
	}
	if w.open {
		return errors.NewProtocolError("put", e.Path, errors.ErrEntryOpen)
	}
	if e.Path == "" {
		return errors.NewProtocolError("put", "", errors.ErrInvalidPackage)
	}
	if _, ok := w.names[e.Path]; ok || (register && w.man.Contains(e.Path)) {
		return errors.NewProtocolError("put", e.Path, errors.ErrDuplicateEntry)
	}

	switch {
	case e.Encrypted():
		d := e.Encryption
		sink, err := w.zw.CreateRaw(&zip.FileHeader{
			Name:               e.Path,
			Method:             zip.Store,
			CRC32:              d.CRC32,
			CompressedSize64:   uint64(d.EncryptedSize),
			UncompressedSize64: uint64(d.EncryptedSize),
		})
		if err != nil {
			return fmt.Errorf("create entry %s: %w", e.Path, err)
		}
		w.sink = sink
	case w.stored(e):
		w.held = new(bytes.Buffer)
		w.sink = w.held
	default:
		sink, err := w.zw.CreateHeader(&zip.FileHeader{
			Name:   e.Path,
			Method: zip.Deflate,
		})
		if err != nil {
			return fmt.Errorf("create entry %s: %w", e.Path, err)
		}
		w.sink = sink
	}

	if w.cfg.WriterBufferSize > 0 {
		w.text = bufio.NewWriterSize(w.sink, w.cfg.WriterBufferSize)
	}
	w.names[e.Path] = struct{}{}
	w.open = true
	w.current = e
	w.register = register
	w.written = 0
	return nil
}

// stored reports whether a plain entry is kept uncompressed.
func (w *ZipWriter) stored(e manifest.Entry) bool {
	return e.Path == manifest.MimetypePath || w.cfg.Level == 0
}

// RegisterEntry adds e to the manifest.
func (w *ZipWriter) RegisterEntry(e manifest.Entry) error {
	if err := w.usable("register"); err != nil {
		return err
	}
	return w.man.Add(e)
}

// Write appends p to the open entry.
func (w *ZipWriter) Write(p []byte) (int, error) {
	if err := w.usable("write"); err != nil {
		return 0, err
	}
	if !w.open {
		return 0, errors.NewProtocolError("write", "", errors.ErrNoEntry)
	}

	var (
		n   int
		err error
	)
	if w.text != nil {
		n, err = w.text.Write(p)
	} else {
		n, err = w.sink.Write(p)
	}
	w.written += int64(n)
	return n, err
}

// WriteString appends s to the open entry.
func (w *ZipWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// CloseEntry completes the open entry.
func (w *ZipWriter) CloseEntry() error {
	if err := w.usable("close"); err != nil {
		return err
	}
	if !w.open {
		return errors.NewProtocolError("close", "", errors.ErrNoEntry)
	}

	e := w.current
	if w.text != nil {
		if err := w.text.Flush(); err != nil {
			return fmt.Errorf("flush entry %s: %w", e.Path, err)
		}
	}

	if e.Encrypted() && w.written != int64(e.Encryption.EncryptedSize) {
		return errors.NewProtocolError("close", e.Path,
			fmt.Errorf("%w: wrote %d bytes, descriptor says %d", errors.ErrIntegrity, w.written, e.Encryption.EncryptedSize))
	}

	if w.held != nil {
		if err := w.writeStored(e.Path, w.held.Bytes()); err != nil {
			return err
		}
	}

	if w.register {
		if err := w.man.Add(e); err != nil {
			return err
		}
	}

	log.Debug("zip entry closed",
		log.String("path", e.Path),
		log.Int64("size", w.written),
		log.Bool("encrypted", e.Encrypted()))

	w.reset()
	return nil
}

func (w *ZipWriter) writeStored(name string, data []byte) error {
	sink, err := w.zw.CreateRaw(&zip.FileHeader{
		Name:               name,
		Method:             zip.Store,
		CRC32:              crc32.ChecksumIEEE(data),
		CompressedSize64:   uint64(len(data)),
		UncompressedSize64: uint64(len(data)),
	})
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := sink.Write(data); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

func (w *ZipWriter) reset() {
	w.open = false
	w.current = manifest.Entry{}
	w.register = false
	w.sink = nil
	w.text = nil
	w.held = nil
	w.written = 0
}

// Flush pushes buffered bytes towards the sink. Content of a stored entry
// stays held until CloseEntry.
func (w *ZipWriter) Flush() error {
	if err := w.usable("flush"); err != nil {
		return err
	}
	if w.text != nil {
		if err := w.text.Flush(); err != nil {
			return err
		}
	}
	if err := w.zw.Flush(); err != nil {
		return err
	}
	if w.buf != nil {
		return w.buf.Flush()
	}
	return nil
}

// Finish closes the open entry, if any, and writes the central directory.
func (w *ZipWriter) Finish() error {
	if w.finished {
		return nil
	}
	if w.open {
		if err := w.CloseEntry(); err != nil {
			return err
		}
	}
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("close zip writer: %w", err)
	}
	if w.buf != nil {
		if err := w.buf.Flush(); err != nil {
			return fmt.Errorf("flush output: %w", err)
		}
	}
	w.finished = true
	return nil
}

// Close finishes the archive and closes the sink when it is an io.Closer.
// Calling Close more than once is a no-op.
func (w *ZipWriter) Close() error {
	if w.closed {
		return nil
	}
	err := w.Finish()
	w.closed = true
	if c, ok := w.out.(io.Closer); ok {
		if cerr := c.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}
	return err
}

// Abort gives up on the archive. The central directory is not written
// unless Finish already ran, and the sink is closed when it is an io.Closer.
func (w *ZipWriter) Abort() error {
	if w.closed {
		return nil
	}
	w.open = false
	w.finished = true
	w.closed = true
	if c, ok := w.out.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close output: %w", err)
		}
	}
	return nil
}

func (w *ZipWriter) usable(op string) error {
	if w.finished || w.closed {
		return errors.NewProtocolError(op, "", errors.ErrWriterClosed)
	}
	return nil
}

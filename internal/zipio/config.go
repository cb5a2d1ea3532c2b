package zipio

import (
	"fmt"
	"io"

	"odfcrypt/internal/errors"
	"odfcrypt/internal/util"
)

// Defaults used by NewBuilder.
const (
	DefaultZipBufferSize    = 32 * util.KiB
	DefaultWriterBufferSize = 8 * util.KiB
	DefaultLevel            = 6
)

// Compression level bounds.
const (
	MinLevel = 0
	MaxLevel = 9
)

// Config holds the validated settings of a ZipWriter.
type Config struct {
	ZipBufferSize    int // bytes buffered between the archive and the sink, 0 disables
	WriterBufferSize int // bytes buffered between Write calls and the entry, 0 disables
	Level            int // deflate level, 0 stores entries uncompressed
}

// DefaultConfig returns the settings NewBuilder starts from.
func DefaultConfig() Config {
	return Config{
		ZipBufferSize:    DefaultZipBufferSize,
		WriterBufferSize: DefaultWriterBufferSize,
		Level:            DefaultLevel,
	}
}

// Validate checks the configuration. It returns a *errors.ConfigError.
func (c Config) Validate() error {
	if c.Level < MinLevel || c.Level > MaxLevel {
		return errors.NewConfigError("level",
			fmt.Sprintf("invalid compression level %d, must be between %d and %d", c.Level, MinLevel, MaxLevel))
	}
	if c.ZipBufferSize < 0 {
		return errors.NewConfigError("zip buffer size",
			fmt.Sprintf("must not be negative, got %d", c.ZipBufferSize))
	}
	if c.WriterBufferSize < 0 {
		return errors.NewConfigError("writer buffer size",
			fmt.Sprintf("must not be negative, got %d", c.WriterBufferSize))
	}
	return nil
}

// Builder assembles a ZipWriter. Setters never fail; Build validates.
type Builder struct {
	cfg Config
}

// NewBuilder returns a builder holding DefaultConfig.
func NewBuilder() *Builder {
	return &Builder{cfg: DefaultConfig()}
}

// Level sets the deflate level, 0 through 9.
func (b *Builder) Level(level int) *Builder {
	b.cfg.Level = level
	return b
}

// ZipBuffer sets the size of the buffer in front of the output sink.
func (b *Builder) ZipBuffer(size int) *Builder {
	b.cfg.ZipBufferSize = size
	return b
}

// NoZipBuffer writes the archive straight to the sink.
func (b *Builder) NoZipBuffer() *Builder {
	return b.ZipBuffer(0)
}

// WriterBuffer sets the size of the buffer in front of each entry.
func (b *Builder) WriterBuffer(size int) *Builder {
	b.cfg.WriterBufferSize = size
	return b
}

// NoWriterBuffer passes Write calls straight to the entry.
func (b *Builder) NoWriterBuffer() *Builder {
	return b.WriterBuffer(0)
}

// Config returns the current settings.
func (b *Builder) Config() Config {
	return b.cfg
}

// Build validates the settings and returns a writer over out. No bytes are
// written to out when validation fails.
func (b *Builder) Build(out io.Writer) (*ZipWriter, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.NewConfigError("output", "no output sink")
	}
	return newZipWriter(out, b.cfg), nil
}

package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"odfcrypt/internal/crypto"
	"odfcrypt/internal/errors"
	"odfcrypt/internal/zipio"
)

// Config holds the defaults read from config.toml. Command-line flags
// override every field.
//
//	suite = "argon2"         # or "pbkdf2"
//	level = 9
//	zip_buffer = 65536       # 0 disables the layer
//	writer_buffer = 8192
type Config struct {
	Suite        string `toml:"suite"`
	Level        int    `toml:"level"`
	ZipBuffer    int    `toml:"zip_buffer"`
	WriterBuffer int    `toml:"writer_buffer"`
}

// DefaultConfig mirrors the library defaults.
func DefaultConfig() Config {
	return Config{
		Suite:        crypto.SuitePBKDF2AES256CBC.String(),
		Level:        zipio.DefaultLevel,
		ZipBuffer:    zipio.DefaultZipBufferSize,
		WriterBuffer: zipio.DefaultWriterBufferSize,
	}
}

// settings is the configuration in effect for the running command.
var settings = DefaultConfig()

// DefaultConfigPath returns the per-user config.toml location.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "odfcrypt", "config.toml")
}

// LoadConfig reads path over DefaultConfig. A missing file is only an error
// when required is set.
func LoadConfig(path string, required bool) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.NewConfigError("config", fmt.Sprintf("unknown keys in %s: %s", path, strings.Join(keys, ", ")))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values against the library limits.
func (c Config) Validate() error {
	if _, err := crypto.ParseSuite(c.Suite); err != nil {
		return err
	}
	return zipio.Config{ZipBufferSize: c.ZipBuffer, WriterBufferSize: c.WriterBuffer, Level: c.Level}.Validate()
}

// SuiteValue returns the configured suite. Validate has accepted it.
func (c Config) SuiteValue() crypto.Suite {
	s, err := crypto.ParseSuite(c.Suite)
	if err != nil {
		return crypto.SuitePBKDF2AES256CBC
	}
	return s
}

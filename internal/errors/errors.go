// Package errors provides typed errors for odfcrypt operations.
// This enables callers to use errors.Is() and errors.As() for specific error handling.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
// Use errors.Is(err, errors.ErrEncryptionFailure) to check for specific errors.
var (
	// Error kinds. Every typed error below matches exactly one of these.
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrEncryptionFailure = errors.New("encryption failure")
	ErrProtocol          = errors.New("archive protocol violation")

	// Protocol errors
	ErrEntryOpen      = errors.New("an entry is already open")
	ErrNoEntry        = errors.New("no entry is open")
	ErrDuplicateEntry = errors.New("duplicate entry name")
	ErrWriterClosed   = errors.New("writer is closed")
	ErrWriterBroken   = errors.New("writer is unusable after a failed entry")

	// Package reading errors
	ErrInvalidPackage = errors.New("invalid document package")
	ErrAuthFailed     = errors.New("authentication failed")
	ErrIntegrity      = errors.New("integrity check failed")
	ErrUnsupported    = errors.New("unsupported encryption parameters")

	// Input validation errors
	ErrNoCredentials    = errors.New("no password provided")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrFileExists       = errors.New("file already exists")
	ErrCancelled        = errors.New("operation cancelled")
)

// CryptoError represents an error during cryptographic operations.
// It wraps the underlying error with operation context and always matches
// ErrEncryptionFailure, so callers never need to inspect the cause.
type CryptoError struct {
	Op  string // Operation name: "rand", "kdf", "cipher", "compress", "decrypt"
	Err error  // Underlying error
}

func (e *CryptoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("crypto %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("crypto %s failed", e.Op)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrEncryptionFailure.
func (e *CryptoError) Is(target error) bool {
	return target == ErrEncryptionFailure
}

// NewCryptoError creates a new CryptoError.
func NewCryptoError(op string, err error) *CryptoError {
	return &CryptoError{Op: op, Err: err}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string // Field name that failed validation
	Message string // Human-readable error message
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// ProtocolError represents an archive operation invoked out of order.
type ProtocolError struct {
	Op    string // Operation: "put", "write", "close", "register", "finish"
	Entry string // Entry path, when known
	Err   error  // One of the protocol sentinels
}

func (e *ProtocolError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Entry, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrProtocol.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

// NewProtocolError creates a new ProtocolError.
func NewProtocolError(op, entry string, err error) *ProtocolError {
	return &ProtocolError{Op: op, Entry: entry, Err: err}
}

// EntryError represents a failure reading one member of a package.
type EntryError struct {
	Path string // Entry path inside the package
	Err  error  // Underlying error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry %s: %v", e.Path, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// NewEntryError creates a new EntryError.
func NewEntryError(path string, err error) *EntryError {
	return &EntryError{Path: path, Err: err}
}

// Is checks if target matches any of our sentinel errors.
// This is a convenience function for common error checks.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsConfig checks if the error is a configuration error.
func IsConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsEncryptionFailure checks if the error came out of the cryptographic engine.
func IsEncryptionFailure(err error) bool {
	return errors.Is(err, ErrEncryptionFailure)
}

// IsProtocol checks if the error indicates operations invoked out of order.
func IsProtocol(err error) bool {
	return errors.Is(err, ErrProtocol)
}

// IsCorrupt checks if the error indicates a damaged or tampered package.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrIntegrity) || errors.Is(err, ErrInvalidPackage)
}

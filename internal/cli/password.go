package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/Picocrypt/zxcvbn-go"
	"golang.org/x/term"

	"odfcrypt/internal/errors"
	"odfcrypt/internal/util"
)

// WeakScore is the zxcvbn score below which encrypt warns about the password.
const WeakScore = 3

// DefaultGeneratedLength is the length of passwords made by --gen-password.
const DefaultGeneratedLength = 24

// isTerminal returns true if stdin is a terminal (not piped/redirected).
func isTerminal() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

// readPasswordSecure reads a password from stdin without echo.
// Falls back to buffered read if stdin is not a terminal.
func readPasswordSecure(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	if !isTerminal() {
		return readLine(os.Stdin)
	}

	// Terminal mode: disable echo
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// readLine reads one line without its line ending.
func readLine(r io.Reader) (string, error) {
	pw, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (err != io.EOF || pw == "") {
		return "", fmt.Errorf("reading password: %w", err)
	}
	pw = strings.TrimSuffix(pw, "\n")
	pw = strings.TrimSuffix(pw, "\r")
	return pw, nil
}

// ReadPasswordInteractive prompts for password interactively.
// If confirm is true, asks for confirmation (for encryption).
func ReadPasswordInteractive(confirm bool) (string, error) {
	password, err := readPasswordSecure("Password: ")
	if err != nil {
		return "", err
	}

	if password == "" {
		return "", errors.ErrNoCredentials
	}

	if confirm {
		again, err := readPasswordSecure("Confirm password: ")
		if err != nil {
			return "", err
		}
		if password != again {
			return "", errors.ErrPasswordMismatch
		}
	}

	return password, nil
}

// ReadPasswordFromStdin reads password from stdin (for piped input with -P flag).
func ReadPasswordFromStdin() (string, error) {
	return readLine(os.Stdin)
}

// passwordSource collects the password flags shared by the commands.
type passwordSource struct {
	value   string
	stdin   bool
	confirm bool
}

// resolve returns the password from the flag, stdin or an interactive prompt,
// in that order of precedence.
func (s passwordSource) resolve() (string, error) {
	var (
		pw  string
		err error
	)
	switch {
	case s.stdin:
		pw, err = ReadPasswordFromStdin()
	case s.value != "":
		pw = s.value
	default:
		pw, err = ReadPasswordInteractive(s.confirm)
	}
	if err != nil {
		return "", fmt.Errorf("password input: %w", err)
	}
	if pw == "" {
		return "", errors.ErrNoCredentials
	}
	return pw, nil
}

// PasswordStrength returns the zxcvbn score of pw, 0 (weak) to 4 (strong).
func PasswordStrength(pw string) int {
	return zxcvbn.PasswordStrength(pw, nil).Score
}

// GeneratePassword returns a random password using every character class.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		length = DefaultGeneratedLength
	}
	return util.GenPassword(util.PassgenOptions{
		Length:  length,
		Upper:   true,
		Lower:   true,
		Numbers: true,
		Symbols: true,
	})
}

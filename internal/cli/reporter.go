// Package cli provides the odfcrypt command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/briandowns/spinner"

	"odfcrypt/internal/errors"
	"odfcrypt/internal/util"
)

// Reporter prints progress for a running command on a single terminal line
// that gets overwritten.
type Reporter struct {
	mu        sync.Mutex
	out       io.Writer
	status    string
	progress  float32
	info      string
	quiet     bool
	cancelled atomic.Bool
	lastLine  int // Length of last printed line (for clearing)
}

// NewReporter creates a new CLI progress reporter writing to stderr.
// If quiet is true, only errors are printed.
func NewReporter(quiet bool) *Reporter {
	return &Reporter{out: os.Stderr, quiet: quiet}
}

// SetStatus updates the status message.
func (r *Reporter) SetStatus(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = text
}

// SetProgress updates the progress bar and info text.
func (r *Reporter) SetProgress(fraction float32, info string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = min(max(fraction, 0), 1)
	r.info = info
}

// Update prints the current status line.
func (r *Reporter) Update() {
	if r.quiet {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	barWidth := 30
	filled := min(int(r.progress*float32(barWidth)), barWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	// Format: [████████░░░░░░░░░░░░░░░░░░░░░░] 1.20 MiB | Encrypting
	line := fmt.Sprintf("\r[%s] %s | %s", bar, r.info, r.status)

	// Clear previous line if it was longer
	if len(line) < r.lastLine {
		line += strings.Repeat(" ", r.lastLine-len(line))
	}
	r.lastLine = len(line)

	fmt.Fprint(r.out, line)
}

// Spin shows a spinner next to msg until the returned function is called.
// It is used for phases without measurable progress.
func (r *Reporter) Spin(msg string) (stop func()) {
	if r.quiet {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(r.out))
	s.Suffix = " " + msg
	s.Start()
	return s.Stop
}

// IsCancelled checks if the operation was cancelled.
func (r *Reporter) IsCancelled() bool {
	return r.cancelled.Load()
}

// Cancel marks the operation as cancelled.
func (r *Reporter) Cancel() {
	r.cancelled.Store(true)
}

// Finish prints a newline to move past the progress line.
func (r *Reporter) Finish() {
	if !r.quiet && r.lastLine > 0 {
		fmt.Fprintln(r.out)
		r.lastLine = 0
	}
}

// PrintError prints an error message.
func (r *Reporter) PrintError(format string, args ...any) {
	// Move to new line if we were showing progress
	r.Finish()
	fmt.Fprintf(r.out, "Error: "+format+"\n", args...)
}

// PrintWarning prints a warning even in quiet mode.
func (r *Reporter) PrintWarning(format string, args ...any) {
	r.Finish()
	fmt.Fprintf(r.out, "Warning: "+format+"\n", args...)
}

// PrintSuccess prints a success message.
func (r *Reporter) PrintSuccess(format string, args ...any) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.out, format+"\n", args...)
}

// Writer returns a writer that forwards to w, reports the bytes written
// against an expected total and fails once the reporter is cancelled.
func (r *Reporter) Writer(w io.Writer, total int64) io.Writer {
	return &progressWriter{w: w, r: r, total: total}
}

type progressWriter struct {
	w       io.Writer
	r       *Reporter
	written int64
	total   int64
}

func (p *progressWriter) Write(b []byte) (int, error) {
	if p.r.IsCancelled() {
		return 0, errors.ErrCancelled
	}
	n, err := p.w.Write(b)
	p.written += int64(n)

	var fraction float32
	if p.total > 0 {
		fraction = float32(p.written) / float32(p.total)
	}
	p.r.SetProgress(fraction, util.Sizeify(p.written))
	p.r.Update()
	return n, err
}

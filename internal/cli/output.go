// Package cli renders command line output: status lines with optional
// color and a spinner shown while a request is in flight.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
)

// IsTerminal reports whether w is a character device.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Printer writes marked status lines. Color is used only on terminals.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter creates a printer for w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, color: IsTerminal(w)}
}

// Success prints a ✓ line.
func (p *Printer) Success(format string, args ...interface{}) {
	p.line(ColorGreen, "✓", format, args...)
}

// Error prints a ✗ line.
func (p *Printer) Error(format string, args ...interface{}) {
	p.line(ColorRed, "✗", format, args...)
}

// Warning prints a ⚠ line.
func (p *Printer) Warning(format string, args ...interface{}) {
	p.line(ColorYellow, "⚠", format, args...)
}

// Info prints an ℹ line.
func (p *Printer) Info(format string, args ...interface{}) {
	p.line(ColorBlue, "ℹ", format, args...)
}

// Field prints an indented "label: value" line.
func (p *Printer) Field(label, value string) {
	fmt.Fprintf(p.w, "  %s: %s\n", label, value)
}

func (p *Printer) line(color, mark, format string, args ...interface{}) {
	if p.color {
		mark = color + mark + ColorReset
	}
	fmt.Fprintf(p.w, "%s %s\n", mark, fmt.Sprintf(format, args...))
}

// Spinner animates a single status line until stopped. On anything other
// than a terminal it prints nothing.
type Spinner struct {
	frames []string
	prefix string
	w      io.Writer

	mu     sync.Mutex
	active bool
	done   chan struct{}
	exited chan struct{}
}

// NewSpinner creates a stopped spinner writing to w.
func NewSpinner(w io.Writer, prefix string) *Spinner {
	return &Spinner{
		frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		prefix: prefix,
		w:      w,
	}
}

// Start begins the animation. Calling it twice has no effect.
func (s *Spinner) Start() {
	if !IsTerminal(s.w) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	s.done = make(chan struct{})
	s.exited = make(chan struct{})

	go func(done, exited chan struct{}) {
		defer close(exited)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			fmt.Fprintf(s.w, "\r%s%s%s %s", ColorCyan, s.frames[i%len(s.frames)], ColorReset, s.prefix)
			select {
			case <-ticker.C:
			case <-done:
				return
			}
		}
	}(s.done, s.exited)
}

// Stop ends the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	close(s.done)
	<-s.exited
	fmt.Fprint(s.w, "\r"+strings.Repeat(" ", len(s.prefix)+4)+"\r")
}

// FormatDuration formats an elapsed time for display.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

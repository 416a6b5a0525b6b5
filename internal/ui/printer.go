// Package ui renders foundryup's user-facing terminal output: prefixed
// status lines and download progress.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"charm.land/lipgloss/v2"
	"golang.org/x/term"
)

// Prefix starts every status line.
const Prefix = "foundryup: "

var (
	prefixStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e0a458"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f5d547"))
)

// ColorEnabled reports whether styled output should be written to f.
// It respects NO_COLOR, TERM=dumb and non-terminal outputs.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Printer writes status lines.
type Printer struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer, color bool) *Printer {
	return &Printer{w: w, color: color}
}

// Discard returns a printer that writes nothing.
func Discard() *Printer {
	return NewPrinter(io.Discard, false)
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.w
}

// Say prints "foundryup: <msg>".
func (p *Printer) Say(format string, args ...any) {
	p.line("", format, args...)
}

// Warn prints "foundryup: warning: <msg>". Warnings never change the exit
// status.
func (p *Printer) Warn(format string, args ...any) {
	p.line("warning: ", format, args...)
}

func (p *Printer) line(label, format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if !p.color {
		fmt.Fprintln(p.w, Prefix+label+msg)
		return
	}

	head := prefixStyle.Render(Prefix)
	if label != "" {
		head += warnStyle.Render(label)
	}
	lipgloss.Fprintln(p.w, head+msg)
}

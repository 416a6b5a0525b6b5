package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/progress"
	"github.com/dustin/go-humanize"
)

const (
	barWidth      = 40
	redrawEvery   = 100 * time.Millisecond
	clearLineCode = "\r\033[K"
)

// Progress renders download progress on an interactive terminal. It
// implements transport.Reporter. On a non-interactive output it only prints
// a summary line per download.
type Progress struct {
	mu          sync.Mutex
	w           io.Writer
	interactive bool
	bar         progress.Model
	now         func() time.Time

	name     string
	total    int64
	done     int64
	lastDraw time.Time
}

// NewProgress creates a reporter writing to w.
func NewProgress(w io.Writer, interactive bool) *Progress {
	return &Progress{
		w:           w,
		interactive: interactive,
		bar:         progress.New(progress.WithWidth(barWidth)),
		now:         time.Now,
	}
}

// Start begins a new download. total is -1 when unknown.
func (p *Progress) Start(name string, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.name, p.total, p.done = name, total, 0
	p.lastDraw = time.Time{}
	if p.interactive {
		p.draw()
	}
}

// Advance records n more bytes.
func (p *Progress) Advance(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done += n
	if p.interactive && p.now().Sub(p.lastDraw) >= redrawEvery {
		p.draw()
	}
}

// Finish ends the current download line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.interactive {
		p.draw()
		fmt.Fprintln(p.w)
		return
	}
	fmt.Fprintf(p.w, "%sdownloaded %s (%s)\n", Prefix, p.name, humanize.Bytes(uint64(p.done)))
}

// draw rewrites the current terminal line. Callers hold p.mu.
func (p *Progress) draw() {
	p.lastDraw = p.now()
	fmt.Fprint(p.w, clearLineCode+p.status())
}

// status renders a bar with percentage when the total is known and a plain
// byte counter otherwise.
func (p *Progress) status() string {
	var b strings.Builder
	b.WriteString(p.name)
	b.WriteString(" ")

	if p.total > 0 {
		percent := float64(p.done) / float64(p.total)
		if percent > 1 {
			percent = 1
		}
		b.WriteString(p.bar.ViewAs(percent))
		fmt.Fprintf(&b, " %s / %s", humanize.Bytes(uint64(p.done)), humanize.Bytes(uint64(p.total)))
		return b.String()
	}

	fmt.Fprintf(&b, "%s downloaded", humanize.Bytes(uint64(p.done)))
	return b.String()
}

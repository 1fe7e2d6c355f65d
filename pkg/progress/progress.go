// Package progress renders counting progress bars for long-running phases.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

// Bar characters.
const (
	Filled = "█"
	Empty  = "░"
)

const (
	defaultBarWidth    = 30
	defaultRedrawEvery = 200 * time.Millisecond
)

// DrawBar draws a bar of the given width. Value is clamped to [0, 1].
// Example: DrawBar(0.7, 10) returns "███████░░░".
func DrawBar(value float64, width int) string {
	value = min(max(value, 0), 1)

	filled := int(value * float64(width))

	return strings.Repeat(Filled, filled) + strings.Repeat(Empty, width-filled)
}

// Printer starts one bar per phase on a shared writer.
type Printer struct {
	out         io.Writer
	interactive bool
	quiet       bool
	width       int
	redrawEvery time.Duration
}

// Option configures a Printer.
type Option func(*Printer)

// WithQuiet suppresses all output.
func WithQuiet(quiet bool) Option {
	return func(p *Printer) {
		p.quiet = quiet
	}
}

// WithInteractive overrides terminal detection.
func WithInteractive(interactive bool) Option {
	return func(p *Printer) {
		p.interactive = interactive
	}
}

// WithWidth sets the bar width in cells.
func WithWidth(width int) Option {
	return func(p *Printer) {
		p.width = width
	}
}

// NewPrinter creates a Printer on out. Bars redraw in place only when out is
// a terminal; otherwise each phase prints a single line when it finishes.
func NewPrinter(out io.Writer, opts ...Option) *Printer {
	p := &Printer{
		out:         out,
		interactive: isTerminal(out),
		width:       defaultBarWidth,
		redrawEvery: defaultRedrawEvery,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Phase starts a bar counting up to total.
func (p *Printer) Phase(label string, total int) *Bar {
	b := &Bar{printer: p, label: label}
	b.total.Store(int64(total))

	if p.interactive && !p.quiet {
		b.draw()
	}

	return b
}

// Message prints a line unless the printer is quiet.
func (p *Printer) Message(format string, args ...any) {
	if p.quiet {
		return
	}

	fmt.Fprintf(p.out, format+"\n", args...)
}

// Bar is a counting progress bar. Add may be called concurrently.
type Bar struct {
	printer *Printer
	label   string
	total   atomic.Int64
	done    atomic.Int64

	mu       sync.Mutex
	lastDraw time.Time
	finished bool
}

// Add advances the bar by n.
func (b *Bar) Add(n int) {
	b.done.Add(int64(n))

	if !b.printer.interactive || b.printer.quiet {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finished || time.Since(b.lastDraw) < b.printer.redrawEvery {
		return
	}

	b.draw()
}

// Done returns the current count.
func (b *Bar) Done() int64 {
	return b.done.Load()
}

// SetTotal changes the target, e.g. when a phase stops early.
func (b *Bar) SetTotal(total int) {
	b.total.Store(int64(total))
}

// Finish draws the final state and ends the line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finished {
		return
	}

	b.finished = true

	if b.printer.quiet {
		return
	}

	b.draw()
	fmt.Fprintln(b.printer.out)
}

// draw must be called with mu held or before the bar is shared.
func (b *Bar) draw() {
	b.lastDraw = time.Now()

	fmt.Fprint(b.printer.out, b.line())
}

func (b *Bar) line() string {
	done, total := b.done.Load(), b.total.Load()

	ratio := 1.0
	if total > 0 {
		ratio = float64(done) / float64(total)
	}

	prefix := ""
	if b.printer.interactive {
		prefix = "\r"
	}

	return fmt.Sprintf("%s%s [%s] %s/%s", prefix, b.label, DrawBar(ratio, b.printer.width),
		humanize.Comma(done), humanize.Comma(total))
}

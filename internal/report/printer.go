package report

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/roach88/parsetest/internal/config"
	"github.com/roach88/parsetest/internal/harness"
)

// Markers printed after each test name.
const (
	MarkerOK     = "OK"
	MarkerFailed = "FAILED"
)

// Printer writes progress lines. It implements harness.Observer and is
// safe for concurrent use; every line is written with a single Write.
type Printer struct {
	mu     sync.Mutex
	w      io.Writer
	ok     lipgloss.Style
	failed lipgloss.Style
}

// NewPrinter creates a printer for w. mode is one of the config color
// modes; auto enables color only when w is a terminal and NO_COLOR is unset.
func NewPrinter(w io.Writer, mode string) *Printer {
	r := lipgloss.NewRenderer(w)
	if ColorEnabled(w, mode) {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		w:      w,
		ok:     r.NewStyle().Foreground(lipgloss.Color("2")),
		failed: r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// ColorEnabled resolves a color mode for w.
func ColorEnabled(w io.Writer, mode string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// Marker renders the OK / FAILED marker for a result.
func (p *Printer) Marker(pass bool) string {
	if pass {
		return p.ok.Render(MarkerOK)
	}
	return p.failed.Render(MarkerFailed)
}

// CategoryStarted implements harness.Observer.
func (p *Printer) CategoryStarted(c harness.Category, _ int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "Running %s tests...\n", c.Name)
}

// TestFinished implements harness.Observer.
func (p *Printer) TestFinished(r harness.TestResult) {
	line := fmt.Sprintf("Running test: %s %s\n", r.Case.Name, p.Marker(r.Pass))

	p.mu.Lock()
	defer p.mu.Unlock()
	io.WriteString(p.w, line)
}

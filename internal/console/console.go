// Package console draws each snapshot as stacked short/long bars on a terminal.
package console

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"lsratio-go/internal/monitor"
	"lsratio-go/internal/signal"
)

const (
	defaultBarWidth = 50
	clearScreen     = "\033[2J\033[H"
)

// Renderer writes snapshots to out. It implements monitor.Renderer.
type Renderer struct {
	mu      sync.Mutex
	out     io.Writer
	width   int
	clear   bool
	title   string
	caption string

	titleStyle   lipgloss.Style
	captionStyle lipgloss.Style
	symbolStyle  lipgloss.Style
	shortStyle   lipgloss.Style
	longStyle    lipgloss.Style
	banners      map[signal.Classification]lipgloss.Style
}

// Option configures Renderer construction parameters.
type Option func(*Renderer)

// WithBarWidth sets the number of cells in a full bar.
func WithBarWidth(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.width = n
		}
	}
}

// WithClearScreen redraws in place instead of appending.
func WithClearScreen(enabled bool) Option {
	return func(r *Renderer) { r.clear = enabled }
}

// WithHeader sets the title and caption lines.
func WithHeader(title, caption string) Option {
	return func(r *Renderer) {
		r.title = title
		r.caption = caption
	}
}

// New builds a renderer whose colour profile follows out.
func New(out io.Writer, opts ...Option) *Renderer {
	lg := lipgloss.NewRenderer(out)
	r := &Renderer{
		out:   out,
		width: defaultBarWidth,
		title: "Long/Short Sentiment",

		titleStyle:   lg.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#1F2937")).Padding(0, 1),
		captionStyle: lg.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Italic(true),
		symbolStyle:  lg.NewStyle().Bold(true).Width(10),
		shortStyle:   lg.NewStyle().Foreground(lipgloss.Color("#FF4B4B")),
		longStyle:    lg.NewStyle().Foreground(lipgloss.Color("#00CC96")),
		banners: map[signal.Classification]lipgloss.Style{
			signal.ExtremeLong:  lg.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true),
			signal.ExtremeShort: lg.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
			signal.Unavailable:  lg.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws snap.
func (r *Renderer) Render(_ context.Context, snap monitor.Snapshot) error {
	var b strings.Builder
	if r.clear {
		b.WriteString(clearScreen)
	}
	b.WriteString(r.titleStyle.Render(r.title))
	b.WriteString("\n")
	if r.caption != "" {
		b.WriteString(r.captionStyle.Render(r.caption))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Last refreshed: %s\n\n", snap.StartedAt.Local().Format("15:04:05"))
	for _, reading := range snap.Readings {
		b.WriteString(r.row(reading))
		b.WriteString("\n")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := io.WriteString(r.out, b.String())
	return err
}

func (r *Renderer) row(reading signal.Reading) string {
	shortCells := cells(reading.ShortPct, r.width)
	bar := r.shortStyle.Render(strings.Repeat("█", shortCells)) +
		r.longStyle.Render(strings.Repeat("█", r.width-shortCells))

	line := fmt.Sprintf("%s %s  Short %6.2f%% | Long %6.2f%%",
		r.symbolStyle.Render(reading.Symbol), bar, reading.ShortPct, reading.LongPct)
	if banner := reading.Class.Banner(); banner != "" {
		line += "  " + r.banners[reading.Class].Render(banner)
	}
	if !reading.OK() {
		line += "\n" + strings.Repeat(" ", 11) + r.captionStyle.Render(reading.Err)
	}
	return line
}

// cells maps a percentage onto a bar of width cells, clamped to [0, width].
func cells(pct float64, width int) int {
	n := int(math.Round(pct / 100 * float64(width)))
	if n < 0 {
		return 0
	}
	if n > width {
		return width
	}
	return n
}

package ui

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar shows chunk progress for one table. Plain output prints
// nothing until the table finishes; the result line is enough there.
type ProgressBar struct {
	ui      *UI
	bar     progress.Model
	label   string
	total   int
	current int
	mu      sync.Mutex
}

// NewProgressBar returns a bar for total rows of label.
func (u *UI) NewProgressBar(label string, total int) *ProgressBar {
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
	return &ProgressBar{ui: u, bar: bar, label: label, total: total}
}

// Update sets the number of rows written so far and redraws.
func (p *ProgressBar) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current
	if !p.ui.shouldStyle() || p.total <= 0 {
		return
	}

	pct := min(float64(p.current)/float64(p.total), 1)
	labelStyle := lipgloss.NewStyle().Width(nameWidth)
	countStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	fmt.Fprintf(p.ui.out, "\r\033[K  %s %s %s %s",
		StyleProgress.Render(SymbolProgress),
		labelStyle.Render(p.label),
		p.bar.ViewAs(pct),
		countStyle.Render(fmt.Sprintf("%s/%s", FormatCount(p.current), FormatCount(p.total))),
	)
}

// Current returns the last value passed to Update.
func (p *ProgressBar) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Clear erases the bar so a result line can take its place.
func (p *ProgressBar) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ui.shouldStyle() {
		fmt.Fprint(p.ui.out, "\r\033[K")
	}
}

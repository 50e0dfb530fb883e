// Package ui renders sqlimport's terminal output. Styled output uses
// lipgloss; when stdout is not a terminal, or NO_COLOR / --no-color is set,
// everything falls back to plain text that is safe to pipe or log.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// UI holds the terminal state and the writer everything is printed to.
type UI struct {
	IsTTY   bool
	Width   int
	NoColor bool

	out io.Writer
}

// KV is one line of a summary box.
type KV struct {
	Key   string
	Value string
}

// Status is the outcome shown next to a line.
type Status int

const (
	StatusNone Status = iota
	StatusPending
	StatusProgress
	StatusSuccess
	StatusWarning
	StatusError
)

// New returns a UI writing to stdout with TTY detection.
func New() *UI {
	fd := int(os.Stdout.Fd())
	isTTY := term.IsTerminal(fd)
	width := 80
	if isTTY {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	}

	return &UI{
		IsTTY:   isTTY,
		Width:   width,
		NoColor: os.Getenv("NO_COLOR") != "",
		out:     os.Stdout,
	}
}

// NewWriter returns a plain-text UI writing to w.
func NewWriter(w io.Writer) *UI {
	return &UI{Width: 80, out: w}
}

// SetNoColor disables colors and animations.
func (u *UI) SetNoColor(noColor bool) {
	u.NoColor = noColor
}

// Writer returns the destination of all output.
func (u *UI) Writer() io.Writer {
	return u.out
}

func (u *UI) shouldStyle() bool {
	return u.IsTTY && !u.NoColor
}

// Println writes msg followed by a newline.
func (u *UI) Println(msg string) {
	fmt.Fprintln(u.out, msg)
}

// Header renders a bordered title.
func (u *UI) Header(title string) string {
	if !u.shouldStyle() {
		return fmt.Sprintf("=== %s ===", title)
	}

	return lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 2).
		Render(title)
}

// KeyValue renders an aligned key/value line.
func (u *UI) KeyValue(key, value string) string {
	if !u.shouldStyle() {
		return fmt.Sprintf("%-12s %s", key+":", value)
	}

	keyStyle := lipgloss.NewStyle().Foreground(ColorMuted).Width(12)
	return "  " + keyStyle.Render(key) + " " + StyleBold.Render(value)
}

// Success renders msg with a check mark.
func (u *UI) Success(msg string) string {
	if !u.shouldStyle() {
		return "[OK] " + msg
	}
	return StyleSuccess.Render(SymbolSuccess+" ") + msg
}

// Error renders msg as a failure.
func (u *UI) Error(msg string) string {
	if !u.shouldStyle() {
		return "[FAILED] " + msg
	}
	return StyleError.Render(SymbolError + " " + msg)
}

// Warning renders msg as a warning.
func (u *UI) Warning(msg string) string {
	if !u.shouldStyle() {
		return "[WARN] " + msg
	}
	return StyleWarning.Render(SymbolWarning + " " + msg)
}

// Muted renders secondary text.
func (u *UI) Muted(msg string) string {
	if !u.shouldStyle() {
		return msg
	}
	return StyleMuted.Render(msg)
}

// Section prints a section title preceded by a blank line.
func (u *UI) Section(title string) {
	if !u.shouldStyle() {
		fmt.Fprintf(u.out, "\n%s\n", title)
		return
	}
	fmt.Fprintf(u.out, "\n%s\n", StyleBold.Render(title))
}

// PrintTableResult prints one result line for a table. A non-empty errMsg is
// printed indented on the following line.
func (u *UI) PrintTableResult(name string, status Status, detail, errMsg string) {
	if !u.shouldStyle() {
		prefix := ""
		switch status {
		case StatusError:
			prefix = "FAILED"
			if detail != "" {
				prefix += " "
			}
		case StatusWarning:
			prefix = "WARN "
		}
		fmt.Fprintf(u.out, "  %-*s %s%s\n", nameWidth, name+":", prefix, detail)
		if errMsg != "" {
			fmt.Fprintf(u.out, "    Error: %s\n", errMsg)
		}
		return
	}

	nameStyle := lipgloss.NewStyle().Width(nameWidth)
	symbol, text := " ", detail
	switch status {
	case StatusSuccess:
		symbol = StyleSuccess.Render(SymbolSuccess)
	case StatusWarning:
		symbol = StyleWarning.Render(SymbolWarning)
	case StatusError:
		symbol = StyleError.Render(SymbolError)
		if text == "" {
			text = "FAILED"
		}
		text = StyleError.Render(text)
	case StatusPending:
		symbol = StyleMuted.Render(SymbolPending)
		text = StyleMuted.Render(text)
	case StatusProgress:
		symbol = StyleProgress.Render(SymbolProgress)
	}

	fmt.Fprintf(u.out, "  %s %s %s\n", symbol, nameStyle.Render(name), text)
	if errMsg != "" {
		fmt.Fprintf(u.out, "    %s\n", StyleError.Render(errMsg))
	}
}

// SummaryBox renders a titled box of key/value lines. A "Status" line is
// colored by its value.
func (u *UI) SummaryBox(title string, items []KV) string {
	if !u.shouldStyle() {
		var sb strings.Builder
		fmt.Fprintf(&sb, "\n=== %s ===\n", title)
		for _, item := range items {
			fmt.Fprintf(&sb, "%-14s %s\n", item.Key+":", item.Value)
		}
		return sb.String()
	}

	keyWidth := 0
	for _, item := range items {
		keyWidth = max(keyWidth, len(item.Key))
	}
	keyStyle := lipgloss.NewStyle().Foreground(ColorMuted).Width(keyWidth + 2)

	border := ColorSuccess
	lines := make([]string, 0, len(items))
	for _, item := range items {
		value := StyleBold.Render(item.Value)
		if item.Key == "Status" {
			switch lower := strings.ToLower(item.Value); {
			case strings.Contains(lower, "fail"):
				value = StyleError.Render(SymbolError + " " + item.Value)
				border = ColorError
			case strings.Contains(lower, "dry"):
				value = StyleProgress.Render(SymbolPending + " " + item.Value)
				border = ColorProgress
			default:
				value = StyleSuccess.Render(SymbolSuccess + " " + item.Value)
			}
		}
		lines = append(lines, "  "+keyStyle.Render(item.Key)+" "+value)
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(border)
	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)

	return "\n" + titleStyle.Render("  "+title) + "\n" + boxStyle.Render(strings.Join(lines, "\n"))
}

// ClearLine returns the sequence erasing the current line on a terminal.
func (u *UI) ClearLine() string {
	if !u.IsTTY {
		return ""
	}
	return "\r\033[K"
}

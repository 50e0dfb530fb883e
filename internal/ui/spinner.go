package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Spinner animates an indeterminate step such as connecting.
type Spinner struct {
	ui    *UI
	label string
	done  chan struct{}
	wg    sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// Braille animation frames.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner returns a spinner labelled label.
func (u *UI) NewSpinner(label string) *Spinner {
	return &Spinner{ui: u, label: label, done: make(chan struct{})}
}

// Start begins the animation. Plain output prints the label once.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	if !s.ui.shouldStyle() {
		fmt.Fprintf(s.ui.out, "%s...", s.label)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		style := lipgloss.NewStyle().Foreground(ColorPrimary)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for frame := 0; ; frame = (frame + 1) % len(spinnerFrames) {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				fmt.Fprintf(s.ui.out, "\r%s %s...", style.Render(spinnerFrames[frame]), s.label)
			}
		}
	}()
}

// stop ends the animation and reports whether the spinner was running.
func (s *Spinner) stop() bool {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return false
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()
	return true
}

// Success stops the spinner with a success message.
func (s *Spinner) Success(msg string) {
	if !s.stop() {
		return
	}
	if !s.ui.shouldStyle() {
		fmt.Fprintf(s.ui.out, " %s\n", msg)
		return
	}
	fmt.Fprintf(s.ui.out, "\r\033[K%s %s... %s\n", StyleSuccess.Render(SymbolSuccess), s.label, msg)
}

// Error stops the spinner with an error message.
func (s *Spinner) Error(msg string) {
	if !s.stop() {
		return
	}
	if !s.ui.shouldStyle() {
		fmt.Fprintf(s.ui.out, " %s\n", msg)
		return
	}
	fmt.Fprintf(s.ui.out, "\r\033[K%s %s... %s\n", StyleError.Render(SymbolError), s.label, StyleError.Render(msg))
}

package main

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	bannerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

var plain atomic.Bool

func disableColors() {
	plain.Store(true)
}

func paint(style lipgloss.Style, text string) string {
	if plain.Load() {
		return text
	}
	return style.Render(text)
}

// printBanner prints the saascannon ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, paint(bannerStyle, banner))
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint(successStyle, "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// field prints an aligned label and value.
func field(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "  %s %v\n", paint(labelStyle, fmt.Sprintf("%-14s", label+":")), value)
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint(warnStyle, "⚠"), fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint(errorStyle, "✗"), fmt.Sprintf(format, args...))
}

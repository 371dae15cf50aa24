package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	codeStyle  = lipgloss.NewStyle().Bold(true)
	cyan       = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	faint      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	linkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Underline(true)
	red        = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

var plain atomic.Bool

// DisableColors makes Format and PrintError emit plain text.
func DisableColors() { plain.Store(true) }

// EnableColors undoes DisableColors. lipgloss still drops styles when the
// output is not a terminal.
func EnableColors() { plain.Store(false) }

func paint(style lipgloss.Style, text string) string {
	if plain.Load() {
		return text
	}
	return style.Render(text)
}

// report accumulates the indented blocks of a formatted error.
type report struct{ strings.Builder }

func (r *report) line(parts ...string) {
	r.WriteString("  ")
	for _, p := range parts {
		r.WriteString(p)
	}
	r.WriteString("\n")
}

func (r *report) gap() { r.WriteString("\n") }

// Format renders e for a terminal.
func (e *Error) Format() string {
	var r report
	r.gap()
	if e.Code != "" {
		r.WriteString(paint(errorStyle, "ERROR ") + paint(codeStyle, e.Code+": "))
	} else {
		r.WriteString(paint(errorStyle, "ERROR: "))
	}
	r.WriteString(e.Message + "\n\n")

	if e.Location != nil {
		r.line(paint(cyan, e.Location.String()))
		r.gap()
		e.writeExcerpt(&r)
	}
	if e.Wrapped != nil {
		r.line(paint(faint, "Cause: "), e.Wrapped.Error())
		r.gap()
	}
	if e.Detail != "" {
		for _, l := range wrapText(e.Detail, 70) {
			r.line(l)
		}
		r.gap()
	}
	if e.Suggestion != "" {
		r.line(paint(cyan, "Hint: "), e.Suggestion)
		r.gap()
	}
	if e.Example != "" {
		r.line(paint(cyan, "Example:"))
		for _, l := range strings.Split(e.Example, "\n") {
			r.line("  ", l)
		}
		r.gap()
	}
	if e.DocURL != "" {
		r.line(paint(faint, "Learn more: "), paint(linkStyle, e.DocURL))
	}
	return r.String()
}

// writeExcerpt prints Context with line numbers, an arrow on the failing
// line and a caret under the column.
func (e *Error) writeExcerpt(r *report) {
	if len(e.Context) == 0 {
		return
	}
	first := max(e.Location.Line-2, 1)
	bar := paint(faint, " │ ")
	for i, text := range e.Context {
		n := first + i
		if n != e.Location.Line {
			r.line(fmt.Sprintf("  %4d", n), bar, text)
			continue
		}
		r.line(paint(red, "→ "), fmt.Sprintf("%4d", n), bar, text)
		if e.Location.Column > 0 {
			r.line("     ", paint(faint, "│ "), strings.Repeat(" ", e.Location.Column-1), paint(red, "^"))
		}
	}
	r.gap()
}

// FormatCompact renders e on one line, prefixed by its location.
func (e *Error) FormatCompact() string {
	if e.Location == nil {
		return e.Error()
	}
	return e.Location.String() + ": " + e.Error()
}

// FormatJSON renders e as a JSON object for machine consumers.
func (e *Error) FormatJSON() string {
	out := struct {
		Code       string    `json:"code,omitempty"`
		Category   Category  `json:"category"`
		Message    string    `json:"message"`
		Detail     string    `json:"detail,omitempty"`
		Cause      string    `json:"cause,omitempty"`
		Location   *Location `json:"location,omitempty"`
		Suggestion string    `json:"suggestion,omitempty"`
		DocURL     string    `json:"docUrl,omitempty"`
	}{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Location:   e.Location,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(data)
}

func (l *Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"file": l.File, "line": l.Line, "column": l.Column})
}

// wrapText breaks text into lines of at most width bytes at word
// boundaries. Words longer than width get a line of their own.
func wrapText(text string, width int) []string {
	var lines []string
	var cur []string
	n := 0
	for _, w := range strings.Fields(text) {
		if n > 0 && n+1+len(w) > width {
			lines = append(lines, strings.Join(cur, " "))
			cur, n = nil, 0
		}
		if n > 0 {
			n++
		}
		cur = append(cur, w)
		n += len(w)
	}
	if len(cur) > 0 {
		lines = append(lines, strings.Join(cur, " "))
	}
	return lines
}

// PrintError writes err to w, using Format when err holds an *Error.
func PrintError(w io.Writer, err error) {
	var e *Error
	if stderrors.As(err, &e) {
		fmt.Fprint(w, e.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", paint(errorStyle, "ERROR:"), err)
}

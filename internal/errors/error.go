package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"
)

// Category groups error codes by where they come from.
type Category string

const (
	CategoryRuntime Category = "runtime"
	CategoryAuth    Category = "auth"
	CategoryAPI     Category = "api"
	CategoryConfig  Category = "config"
	CategoryCLI     Category = "cli"
)

// Location points into a file, usually the config file.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l *Location) String() string {
	switch {
	case l == nil:
		return ""
	case l.Column > 0:
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	default:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
}

// Error is a coded error the CLI renders with its cause, the offending
// file lines and a hint. Build one with New and the With methods:
//
//	errors.New("S121").Wrap(err).WithSuggestion("Set saascannon.domain")
type Error struct {
	Code     string
	Category Category
	Message  string
	Detail   string

	Location *Location
	// Context holds the lines of Location.File around Location.Line.
	Context []string

	Suggestion string
	Example    string
	DocURL     string

	Wrapped error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code + ": ")
	}
	b.WriteString(e.Message)
	if e.Wrapped != nil {
		b.WriteString(": " + e.Wrapped.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Wrapped }

// WithLocation points e at file:line:column and loads the surrounding
// lines. A column of 0 means the whole line.
func (e *Error) WithLocation(file string, line, column int) *Error {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = excerpt(file, line, 2)
	return e
}

func (e *Error) WithSuggestion(s string) *Error { e.Suggestion = s; return e }

func (e *Error) WithExample(ex string) *Error { e.Example = ex; return e }

func (e *Error) WithDetail(d string) *Error { e.Detail = d; return e }

func (e *Error) Wrap(err error) *Error { e.Wrapped = err; return e }

// excerpt returns lines line-radius through line+radius of file. Missing
// files give nil.
func excerpt(file string, line, radius int) []string {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	from := max(line-radius, 1)
	to := min(line+radius, len(lines))
	if from > to {
		return nil
	}
	return lines[from-1 : to]
}

// New returns the error registered under code, or an "Unknown error" with
// that code.
func New(code string) *Error {
	t, ok := GetTemplate(code)
	if !ok {
		return &Error{Code: code, Message: "Unknown error"}
	}
	return &Error{
		Code:     code,
		Category: t.Category,
		Message:  t.Message,
		Detail:   t.Detail,
		DocURL:   t.DocURL,
	}
}

// Newf returns an uncoded error.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{Category: category, Message: fmt.Sprintf(format, args...)}
}

// FromError returns the *Error inside err, or wraps err under code.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(code).Wrap(err)
}

package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

const detailWidth = 70

var colorEnabled = true

// DisableColors turns off ANSI escapes in Format and Fprint, for
// non-terminal output and tests.
func DisableColors() { colorEnabled = false }

// EnableColors turns ANSI escapes back on.
func EnableColors() { colorEnabled = true }

// paint wraps text in the given escape codes.
func paint(text string, codes ...string) string {
	if !colorEnabled || len(codes) == 0 {
		return text
	}
	return strings.Join(codes, "") + text + colorReset
}

// Format renders the error for a terminal:
//
//	ERROR R001: Duplicate sibling route
//
//	  /adminPage/notice/:key
//
//	  notice/:key has the same shape as notice/:id
//
//	  Hint: Remove or rename one of the routes.
func (e *RouteError) Format() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(e.header())
	b.WriteString("\n\n")

	if e.Route != "" {
		fmt.Fprintf(&b, "  %s\n\n", paint(e.Route, colorCyan))
	}
	if lines := wrapText(e.Detail, detailWidth); len(lines) > 0 {
		for _, line := range lines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s%s\n\n", paint("Hint: ", colorCyan), e.Suggestion)
	}
	if e.Example != "" {
		fmt.Fprintf(&b, "  %s\n", paint("Example:", colorCyan))
		for _, line := range strings.Split(e.Example, "\n") {
			fmt.Fprintf(&b, "    %s\n", paint(line, colorGray))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (e *RouteError) header() string {
	label := paint("ERROR", colorRed, colorBold)
	if e.IsWarning() {
		label = paint("WARNING", colorYellow, colorBold)
	}
	if e.Code == "" {
		return label + ": " + e.Message
	}
	return label + " " + paint(e.Code+": ", colorBold) + e.Message
}

// FormatCompact renders the error on one line, as "route: CODE: message".
// The detail is appended in parentheses for wrapped errors.
func (e *RouteError) FormatCompact() string {
	parts := make([]string, 0, 3)
	if e.Route != "" {
		parts = append(parts, e.Route)
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	parts = append(parts, e.Message)

	s := strings.Join(parts, ": ")
	if e.Wrapped != nil && e.Detail != "" {
		s += " (" + e.Detail + ")"
	}
	return s
}

type jsonError struct {
	Code       string   `json:"code,omitempty"`
	Category   Category `json:"category"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Detail     string   `json:"detail,omitempty"`
	Route      string   `json:"route,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// MarshalJSON encodes the error without its example or wrapped error.
func (e *RouteError) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Severity:   e.Severity,
		Message:    e.Message,
		Detail:     e.Detail,
		Route:      e.Route,
		Suggestion: e.Suggestion,
	})
}

// FormatJSON returns the error as a single JSON object.
func (e *RouteError) FormatJSON() string {
	b, err := e.MarshalJSON()
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Message)
	}
	return string(b)
}

// wrapText breaks text on spaces into lines of at most width bytes. A
// single word longer than width gets a line of its own.
func wrapText(text string, width int) []string {
	var (
		lines []string
		line  []string
		n     int
	)
	for _, word := range strings.Fields(text) {
		if len(line) > 0 && n+1+len(word) > width {
			lines = append(lines, strings.Join(line, " "))
			line, n = line[:0], 0
		}
		if len(line) > 0 {
			n++
		}
		line = append(line, word)
		n += len(word)
	}
	if len(line) > 0 {
		lines = append(lines, strings.Join(line, " "))
	}
	return lines
}

// Fprint writes err to w. A RouteError anywhere in the chain is rendered
// with Format; anything else gets a plain ERROR line.
func Fprint(w io.Writer, err error) {
	var re *RouteError
	if stderrors.As(err, &re) {
		fmt.Fprint(w, re.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", paint("ERROR:", colorRed, colorBold), err)
}

// PrintError writes err to stderr.
func PrintError(err error) {
	Fprint(os.Stderr, err)
}

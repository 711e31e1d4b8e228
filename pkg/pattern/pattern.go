// Package pattern implements the path pattern grammar used by route tables.
//
// A pattern is a sequence of "/"-separated segments. Each segment is either
// a literal, which matches itself exactly, or a named parameter written as
// ":name", which matches any single non-empty segment and captures it:
//
//	/adminPage/notice/:id   matches /adminPage/notice/42 with id=42
//	notice/:id              relative pattern, joined under a parent
//
// The grammar is closed: wildcards, optional segments, regex constraints and
// empty segments are rejected by Parse.
package pattern

import (
	"errors"
	"fmt"
	"strings"
)

// Kind distinguishes literal and parameter segments.
type Kind uint8

const (
	// Literal segments match exactly.
	Literal Kind = iota
	// Param segments match any single non-empty segment.
	Param
)

func (k Kind) String() string {
	if k == Param {
		return "param"
	}
	return "literal"
}

// Segment is one element of a Pattern.
type Segment struct {
	Kind Kind
	// Value is the literal text, or the parameter name without ":".
	Value string
}

func (s Segment) String() string {
	if s.Kind == Param {
		return ":" + s.Value
	}
	return s.Value
}

// Pattern is a parsed path pattern. The zero value is the empty relative
// pattern, which matches zero segments.
type Pattern struct {
	segments []Segment
	absolute bool
}

// Syntax errors returned by Parse.
var (
	ErrEmptySegment     = errors.New("empty segment")
	ErrInvalidParamName = errors.New("invalid parameter name")
	ErrReservedChar     = errors.New("reserved character in segment")
	ErrDotSegment       = errors.New("dot segment")
	ErrDuplicateParam   = errors.New("duplicate parameter name")
	ErrMissingParam     = errors.New("missing parameter value")
)

// reserved holds characters that carry meaning in other pattern grammars
// (wildcards, optionals, groups). None of them may appear in a segment.
const reserved = "*?{}()[]+#"

// Parse parses a pattern. A leading "/" makes it absolute; a single trailing
// "/" is ignored. The root pattern "/" has no segments.
func Parse(s string) (Pattern, error) {
	p := Pattern{absolute: strings.HasPrefix(s, "/")}
	body := strings.TrimPrefix(s, "/")
	body = strings.TrimSuffix(body, "/")
	if body == "" {
		return p, nil
	}

	seen := make(map[string]bool)
	for _, raw := range strings.Split(body, "/") {
		seg, err := parseSegment(raw)
		if err != nil {
			return Pattern{}, fmt.Errorf("pattern %q: segment %q: %w", s, raw, err)
		}
		if seg.Kind == Param {
			if seen[seg.Value] {
				return Pattern{}, fmt.Errorf("pattern %q: %w %q", s, ErrDuplicateParam, seg.Value)
			}
			seen[seg.Value] = true
		}
		p.segments = append(p.segments, seg)
	}
	return p, nil
}

// MustParse is like Parse but panics on error. It is meant for patterns
// written as literals in source code.
func MustParse(s string) Pattern {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parseSegment(raw string) (Segment, error) {
	switch {
	case raw == "":
		return Segment{}, ErrEmptySegment
	case raw == "." || raw == "..":
		return Segment{}, ErrDotSegment
	case strings.ContainsAny(raw, reserved):
		return Segment{}, ErrReservedChar
	case strings.HasPrefix(raw, ":"):
		name := raw[1:]
		if !validName(name) {
			return Segment{}, ErrInvalidParamName
		}
		return Segment{Kind: Param, Value: name}, nil
	case strings.Contains(raw, ":"):
		return Segment{}, ErrReservedChar
	default:
		return Segment{Kind: Literal, Value: raw}, nil
	}
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// Absolute reports whether the pattern was written with a leading "/".
func (p Pattern) Absolute() bool { return p.absolute }

// Len returns the number of segments.
func (p Pattern) Len() int { return len(p.segments) }

// Segments returns a copy of the pattern's segments.
func (p Pattern) Segments() []Segment {
	return append([]Segment(nil), p.segments...)
}

// Params returns the parameter names in order of appearance.
func (p Pattern) Params() []string {
	var names []string
	for _, s := range p.segments {
		if s.Kind == Param {
			names = append(names, s.Value)
		}
	}
	return names
}

// HasParam reports whether the pattern captures name.
func (p Pattern) HasParam(name string) bool {
	for _, s := range p.segments {
		if s.Kind == Param && s.Value == name {
			return true
		}
	}
	return false
}

// String renders the pattern in source form.
func (p Pattern) String() string {
	parts := make([]string, len(p.segments))
	for i, s := range p.segments {
		parts[i] = s.String()
	}
	body := strings.Join(parts, "/")
	if p.absolute {
		return "/" + body
	}
	return body
}

// Shape returns a key that is equal for two patterns exactly when they match
// the same set of paths: parameter names are erased.
func (p Pattern) Shape() string {
	var b strings.Builder
	for _, s := range p.segments {
		b.WriteByte('/')
		if s.Kind == Param {
			b.WriteByte(':')
		} else {
			b.WriteString(s.Value)
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// Join resolves child under p. An absolute child stands on its own; a
// relative child's segments are appended to p's. Parameter names must stay
// unique across the joined pattern.
func (p Pattern) Join(child Pattern) (Pattern, error) {
	if child.absolute {
		return child, nil
	}
	joined := Pattern{
		absolute: p.absolute,
		segments: make([]Segment, 0, len(p.segments)+len(child.segments)),
	}
	joined.segments = append(joined.segments, p.segments...)
	for _, s := range child.segments {
		if s.Kind == Param && joined.HasParam(s.Value) {
			return Pattern{}, fmt.Errorf("pattern %q: %w %q", joined.String()+"/"+child.String(), ErrDuplicateParam, s.Value)
		}
		joined.segments = append(joined.segments, s)
	}
	return joined, nil
}

// HasPrefix reports whether every segment of prefix equals the
// corresponding segment of p, parameters compared by position only.
func (p Pattern) HasPrefix(prefix Pattern) bool {
	if len(prefix.segments) > len(p.segments) {
		return false
	}
	for i, s := range prefix.segments {
		o := p.segments[i]
		if s.Kind != o.Kind {
			return false
		}
		if s.Kind == Literal && s.Value != o.Value {
			return false
		}
	}
	return true
}

// MatchPrefix matches p against the leading segments of path. On success it
// returns the number of segments consumed and stores captured parameters in
// params; on failure params is left untouched.
func (p Pattern) MatchPrefix(path []string, params map[string]string) (int, bool) {
	if len(p.segments) > len(path) {
		return 0, false
	}
	for i, s := range p.segments {
		switch s.Kind {
		case Literal:
			if path[i] != s.Value {
				return 0, false
			}
		case Param:
			if path[i] == "" {
				return 0, false
			}
		}
	}
	for i, s := range p.segments {
		if s.Kind == Param {
			params[s.Value] = path[i]
		}
	}
	return len(p.segments), true
}

// Match matches p against the whole of path.
func (p Pattern) Match(path []string) (map[string]string, bool) {
	if len(path) != len(p.segments) {
		return nil, false
	}
	params := make(map[string]string)
	if _, ok := p.MatchPrefix(path, params); !ok {
		return nil, false
	}
	return params, true
}

// Expand substitutes params into p and returns an absolute path. Every
// parameter in p must have a non-empty value.
func (p Pattern) Expand(params map[string]string) (string, error) {
	parts := make([]string, len(p.segments))
	for i, s := range p.segments {
		if s.Kind == Literal {
			parts[i] = s.Value
			continue
		}
		v, ok := params[s.Value]
		if !ok || v == "" {
			return "", fmt.Errorf("pattern %q: %w %q", p.String(), ErrMissingParam, s.Value)
		}
		parts[i] = escape(v)
	}
	return "/" + strings.Join(parts, "/"), nil
}

// escape percent-encodes the characters that would change how an expanded
// value is split back into segments.
func escape(v string) string {
	r := strings.NewReplacer("%", "%25", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(v)
}

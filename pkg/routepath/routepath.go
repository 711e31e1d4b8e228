// Package routepath normalises navigation paths before they reach the route
// table and provides the small set of path operations the table needs
// (segment splitting, joining relative child paths, prefix checks).
package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Normalized is the result of Normalize.
type Normalized struct {
	// Path is the normalised path (leading slash, no trailing slash except root).
	Path string

	// Query is the query string without the leading "?".
	Query string

	// Fragment is the fragment without the leading "#".
	Fragment string

	// Changed reports whether Path differs from the input path part.
	Changed bool
}

// Path errors.
var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
	ErrEncodedSlash         = errors.New("encoded slash (%2F) in path segment")
)

// Normalize brings a navigation path into the form the route table expects:
//   - a leading "/" is added when missing
//   - repeated slashes collapse (/mypage//post → /mypage/post)
//   - "." segments are dropped and ".." segments resolved
//   - a trailing slash is removed, except for the root "/"
//
// Query and fragment are split off and returned untouched. Backslashes,
// NUL bytes, malformed percent escapes and ".." above the root are rejected.
func Normalize(input string) (Normalized, error) {
	if input == "" {
		return Normalized{Path: "/", Changed: true}, nil
	}

	rest, fragment, _ := strings.Cut(input, "#")
	path, query, _ := strings.Cut(rest, "?")

	if strings.Contains(path, "\\") {
		return Normalized{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Normalized{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return Normalized{}, err
		}
	}

	var out []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) == 0 {
				return Normalized{}, ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}

	normalized := "/" + strings.Join(out, "/")
	return Normalized{
		Path:     normalized,
		Query:    query,
		Fragment: fragment,
		Changed:  normalized != path,
	}, nil
}

func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Split returns the raw segments of an already normalised path.
// The root path has no segments.
func Split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// Segments splits a normalised path and percent-decodes every segment.
// A segment that decodes to something containing "/" is rejected so that a
// single parameter can never smuggle extra path levels.
func Segments(path string) ([]string, error) {
	raw := Split(path)
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(raw))
	for _, seg := range raw {
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			return nil, ErrInvalidPercentEscape
		}
		if strings.Contains(decoded, "/") {
			return nil, ErrEncodedSlash
		}
		out = append(out, decoded)
	}
	return out, nil
}

// IsAbsolute reports whether p starts at the root.
func IsAbsolute(p string) bool {
	return strings.HasPrefix(p, "/")
}

// Join resolves child against base the way nested route paths are resolved:
// an absolute child replaces base, a relative one is appended to it.
func Join(base, child string) string {
	if IsAbsolute(child) {
		return clean(child)
	}
	if child == "" {
		return clean(base)
	}
	return clean(strings.TrimSuffix(base, "/") + "/" + child)
}

func clean(p string) string {
	segs := Split(p)
	return "/" + strings.Join(segs, "/")
}

// Within reports whether p equals prefix or lies below it on a segment boundary.
func Within(prefix, p string) bool {
	prefix, p = clean(prefix), clean(p)
	if prefix == "/" || prefix == p {
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}

// ValidateTarget checks that p can be used as an in-app navigation target:
// it must be rooted and must not be a full or protocol-relative URL.
func ValidateTarget(p string) error {
	if strings.HasPrefix(p, "//") ||
		strings.HasPrefix(p, "http://") ||
		strings.HasPrefix(p, "https://") ||
		!strings.HasPrefix(p, "/") {
		return ErrInvalidPath
	}
	_, err := Normalize(p)
	return err
}

// SplitQuery splits p at the first "?". The query is returned without it.
func SplitQuery(p string) (path, query string) {
	path, query, _ = strings.Cut(p, "?")
	return path, query
}

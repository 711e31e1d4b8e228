package router

import (
	"fmt"
	"strings"

	"github.com/vango-dev/routetable/pkg/pattern"
	"github.com/vango-dev/routetable/pkg/routepath"
)

// DefectCode identifies a kind of table defect. The codes are shared with
// the CLI's error catalogue.
type DefectCode string

const (
	// DefectDuplicateRoute: two siblings match the same set of paths.
	// Example: "notice/:id" and "notice/:key" under the same parent.
	DefectDuplicateRoute DefectCode = "R001"

	// DefectNoTarget: an entry has neither a component nor a redirect.
	DefectNoTarget DefectCode = "R002"

	// DefectAmbiguousTarget: an entry has both a component and a redirect.
	DefectAmbiguousTarget DefectCode = "R003"

	// DefectInvalidPattern: an entry's path does not parse.
	DefectInvalidPattern DefectCode = "R004"

	// DefectInvalidRedirect: a redirect target is not an in-app path or uses
	// a parameter the entry does not capture.
	DefectInvalidRedirect DefectCode = "R005"

	// DefectDuplicateName: two entries share a route name.
	DefectDuplicateName DefectCode = "R006"

	// DefectOutsideParent: an absolute child path leaves its parent's prefix.
	// Reported as a warning; the entry is kept.
	DefectOutsideParent DefectCode = "R007"
)

// Severity grades a defect.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Defect is a problem found while building a table.
type Defect struct {
	Code     DefectCode
	Severity Severity

	// Path is the entry's path as written, joined onto its parent where possible.
	Path string

	Message string
}

func (d Defect) Error() string {
	return fmt.Sprintf("%s %s: %s", d.Code, d.Path, d.Message)
}

// TableError reports every error-severity defect found by New.
type TableError struct {
	Defects []Defect
}

func (e *TableError) Error() string {
	if len(e.Defects) == 1 {
		return "route table: " + e.Defects[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "route table: %d defects:\n", len(e.Defects))
	for i, d := range e.Defects {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, d.Error())
	}
	return sb.String()
}

// Has reports whether the error contains a defect with code.
func (e *TableError) Has(code DefectCode) bool {
	for _, d := range e.Defects {
		if d.Code == code {
			return true
		}
	}
	return false
}

// builder turns Route literals into nodes, collecting defects on the way.
type builder struct {
	defects []Defect
	names   map[string]*node
}

func newBuilder() *builder {
	return &builder{names: make(map[string]*node)}
}

func (b *builder) add(code DefectCode, sev Severity, path, format string, args ...any) {
	b.defects = append(b.defects, Defect{
		Code:     code,
		Severity: sev,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (b *builder) errors() []Defect {
	var out []Defect
	for _, d := range b.defects {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

func (b *builder) warnings() []Defect {
	var out []Defect
	for _, d := range b.defects {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// build converts one sibling list. parent is the resolved pattern of the
// enclosing entry ("/" for the top level).
func (b *builder) build(routes []Route, parent pattern.Pattern, depth int) []*node {
	nodes := make([]*node, 0, len(routes))
	shapes := make(map[string]string, len(routes))

	for i := range routes {
		r := &routes[i]
		display := routepath.Join(parent.String(), r.Path)

		rel, err := pattern.Parse(r.Path)
		if err != nil {
			b.add(DefectInvalidPattern, SeverityError, display, "%v", err)
			continue
		}
		full, err := parent.Join(rel)
		if err != nil {
			b.add(DefectInvalidPattern, SeverityError, display, "%v", err)
			continue
		}
		display = full.String()

		shape := full.Shape()
		if prev, ok := shapes[shape]; ok {
			b.add(DefectDuplicateRoute, SeverityError, display,
				"sibling %q already matches the same paths", prev)
			continue
		}
		shapes[shape] = display

		n := &node{
			full:      full,
			name:      r.Name,
			component: r.Component,
			props:     r.Props,
			depth:     depth,
		}

		switch {
		case r.Component == nil && r.Redirect == "":
			b.add(DefectNoTarget, SeverityError, display, "route has neither a component nor a redirect")
		case r.Component != nil && r.Redirect != "":
			b.add(DefectAmbiguousTarget, SeverityError, display, "route has both a component and a redirect")
		case r.Redirect != "":
			b.buildRedirect(n, r.Redirect, display)
		}

		if r.Name != "" {
			if prev, ok := b.names[r.Name]; ok {
				b.add(DefectDuplicateName, SeverityError, display,
					"name %q is already used by %q", r.Name, prev.full.String())
			} else {
				b.names[r.Name] = n
			}
		}

		if depth > 0 && rel.Absolute() && !full.HasPrefix(parent) {
			n.detached = true
			b.add(DefectOutsideParent, SeverityWarning, display,
				"absolute child path is outside its parent %q", parent.String())
		}

		n.children = b.build(r.Children, full, depth+1)
		nodes = append(nodes, n)
	}
	return nodes
}

func (b *builder) buildRedirect(n *node, target, display string) {
	if err := routepath.ValidateTarget(target); err != nil {
		b.add(DefectInvalidRedirect, SeverityError, display, "redirect %q: %v", target, err)
		return
	}
	pathPart, query := routepath.SplitQuery(target)
	tp, err := pattern.Parse(pathPart)
	if err != nil {
		b.add(DefectInvalidRedirect, SeverityError, display, "redirect %q: %v", target, err)
		return
	}
	for _, name := range tp.Params() {
		if !n.full.HasParam(name) {
			b.add(DefectInvalidRedirect, SeverityError, display,
				"redirect %q uses parameter %q not captured by the route", target, name)
			return
		}
	}
	n.redirect = &tp
	n.redirectQuery = query
}

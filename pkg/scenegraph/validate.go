package scenegraph

import "fmt"

// ValidationSeverity tells whether a finding makes the graph unusable or is
// advisory.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // graph is unusable
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Node     NodeIndex // Invalid for graph-level findings
	Path     string
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	if !e.Node.IsValid() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	if e.Path == "" {
		return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Node, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.Path, e.Message)
}

// ValidationResult separates blocking findings from advisory ones.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no errors.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate checks the structural invariants of g and returns every finding.
// An empty result means the graph is consistent. Validate never mutates g.
func Validate(g *SceneGraph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateRoot(g)...)
	errs = append(errs, validateLinks(g)...)
	errs = append(errs, validateSiblings(g)...)
	errs = append(errs, validateNames(g)...)
	return errs
}

// ValidateAll runs the structural checks and then asks every payload that
// implements ContentChecker to check itself.
func ValidateAll(g *SceneGraph) ValidationResult {
	var result ValidationResult
	add := func(e ValidationError) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, e)
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	for _, e := range Validate(g) {
		add(e)
	}
	for n, c := range g.Contents() {
		checker, ok := c.(ContentChecker)
		if !ok {
			continue
		}
		for _, issue := range checker.CheckContent() {
			add(ValidationError{
				Node:     n,
				Path:     g.NodeName(n).Path(),
				Message:  fmt.Sprintf("%s content: %s", c.TypeName(), issue.Message),
				Severity: issue.Severity,
			})
		}
	}
	return result
}

func (g *SceneGraph) finding(n NodeIndex, sev ValidationSeverity, format string, args ...any) ValidationError {
	e := ValidationError{Node: n, Message: fmt.Sprintf(format, args...), Severity: sev}
	if p := g.pos(n); p >= 0 {
		e.Path = g.names[p].path
	}
	return e
}

func validateRoot(g *SceneGraph) []ValidationError {
	if len(g.hierarchy) == 0 {
		return []ValidationError{{Message: "graph has no root", Severity: SeverityError}}
	}
	root := g.Root()
	var errs []ValidationError
	h := g.hierarchy[0]
	if h.parent.IsValid() {
		errs = append(errs, g.finding(root, SeverityError, "root has parent %s", h.parent))
	}
	if h.nextSibling.IsValid() {
		errs = append(errs, g.finding(root, SeverityError, "root has sibling %s", h.nextSibling))
	}
	if h.endPoint {
		errs = append(errs, g.finding(root, SeverityError, "root is an end point"))
	}
	if g.names[0] != (Name{}) {
		errs = append(errs, g.finding(root, SeverityError, "root name is %q, want empty", g.names[0].path))
	}
	if g.content[0] != nil {
		errs = append(errs, g.finding(root, SeverityError, "root has %s content", g.content[0].TypeName()))
	}
	return errs
}

// validateLinks checks that every link addresses an existing node and that
// each non-root node is reachable from its parent's child chain.
func validateLinks(g *SceneGraph) []ValidationError {
	var errs []ValidationError
	for n, h := range g.Hierarchy() {
		for _, link := range []struct {
			kind string
			to   NodeIndex
		}{{"parent", h.parent}, {"first child", h.firstChild}, {"next sibling", h.nextSibling}} {
			if link.to.IsValid() && g.pos(link.to) < 0 {
				errs = append(errs, g.finding(n, SeverityError, "%s link %s does not exist", link.kind, link.to))
			}
		}
		if n == g.Root() {
			continue
		}
		if !h.parent.IsValid() {
			errs = append(errs, g.finding(n, SeverityError, "node has no parent"))
			continue
		}
		if g.pos(h.parent) < 0 {
			continue
		}
		if !chainContains(g, h.parent, n) {
			errs = append(errs, g.finding(n, SeverityError, "node is not in the child chain of %s", g.names[h.parent.AsNumber()].path))
		}
		if g.hierarchy[h.parent.AsNumber()].endPoint {
			errs = append(errs, g.finding(n, SeverityWarning, "node is a child of end point %s", g.names[h.parent.AsNumber()].path))
		}
	}
	return errs
}

func chainContains(g *SceneGraph, parent, n NodeIndex) bool {
	steps := 0
	for c := g.hierarchy[parent.AsNumber()].firstChild; g.pos(c) >= 0; c = g.hierarchy[c.AsNumber()].nextSibling {
		if c == n {
			return true
		}
		if steps++; steps > len(g.hierarchy) {
			return false
		}
	}
	return false
}

// validateSiblings checks that every sibling chain ends, that its members
// share the parent, and that their leaf names are unique.
func validateSiblings(g *SceneGraph) []ValidationError {
	var errs []ValidationError
	for parent, h := range g.Hierarchy() {
		seen := make(map[string]NodeIndex)
		visited := make(map[NodeIndex]bool)
		for c := h.firstChild; g.pos(c) >= 0; c = g.hierarchy[c.AsNumber()].nextSibling {
			if visited[c] {
				errs = append(errs, g.finding(parent, SeverityError, "child chain has a cycle at %s", c))
				break
			}
			visited[c] = true
			if ch := g.hierarchy[c.AsNumber()]; ch.parent != parent {
				errs = append(errs, g.finding(c, SeverityError, "node is chained under %s but its parent is %s", parent, ch.parent))
			}
			leaf := g.names[c.AsNumber()].Leaf()
			if prev, dup := seen[leaf]; dup {
				errs = append(errs, g.finding(c, SeverityError, "duplicate sibling name %q (also %s)", leaf, prev))
				continue
			}
			seen[leaf] = c
		}
	}
	return errs
}

// validateNames checks that each node's path is its parent's path extended
// by a valid leaf.
func validateNames(g *SceneGraph) []ValidationError {
	var errs []ValidationError
	for n, name := range g.Names() {
		if n == g.Root() {
			continue
		}
		if !ValidName(name.Leaf()) {
			errs = append(errs, g.finding(n, SeverityError, "invalid leaf name %q", name.Leaf()))
			continue
		}
		parent := g.hierarchy[n.AsNumber()].parent
		if g.pos(parent) < 0 {
			continue
		}
		if want := childName(g.names[parent.AsNumber()].path, name.Leaf()); want != name {
			errs = append(errs, g.finding(n, SeverityError, "path %q does not extend parent path %q", name.path, g.names[parent.AsNumber()].path))
		}
	}
	return errs
}

package report

import (
	"strings"

	"github.com/goccy/go-yaml"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/chazu/scenecore/pkg/scenegraph"
	"github.com/chazu/scenecore/pkg/scenegraph/views"
)

// Entry describes one node of a listing.
type Entry struct {
	Path     string `yaml:"path"`
	Type     string `yaml:"type,omitempty"`
	EndPoint bool   `yaml:"endPoint,omitempty"`
	Children int    `yaml:"children,omitempty"`
	Content  string `yaml:"content,omitempty"`
}

type document struct {
	Nodes []Entry `yaml:"nodes"`
}

// Listing returns every node but the root in depth-first order.
func Listing(g *scenegraph.SceneGraph) []Entry {
	var out []Entry
	for n := range views.Downwards(g, g.Root(), views.DepthFirst) {
		if n == g.Root() {
			continue
		}
		e := Entry{
			Path:     g.NodeName(n).Path(),
			EndPoint: g.IsNodeEndPoint(n),
		}
		for range views.Children(g, n, views.AcceptAll) {
			e.Children++
		}
		if c := g.NodeContent(n); c != nil {
			e.Type = c.TypeName()
			e.Content = Describe(c)
		}
		out = append(out, e)
	}
	return out
}

// MarshalYAML renders Listing(g) as a YAML document.
func MarshalYAML(g *scenegraph.SceneGraph) ([]byte, error) {
	return yaml.Marshal(document{Nodes: Listing(g)})
}

// Diff returns a line diff from a to b, each line prefixed with "- ", "+ "
// or "  ". Equal inputs give "".
func Diff(a, b []byte) string {
	dmp := diffpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(string(a), string(b))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	changed := false
	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffpatch.DiffInsert:
			prefix, changed = "+ ", true
		case diffpatch.DiffDelete:
			prefix, changed = "- ", true
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteByte('\n')
			}
		}
	}
	if !changed {
		return ""
	}
	return sb.String()
}

// DiffGraphs diffs the YAML listings of a and b.
func DiffGraphs(a, b *scenegraph.SceneGraph) (string, error) {
	ya, err := MarshalYAML(a)
	if err != nil {
		return "", err
	}
	yb, err := MarshalYAML(b)
	if err != nil {
		return "", err
	}
	return Diff(ya, yb), nil
}

package scenegraph

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

type testObject struct{ value int }

func (*testObject) TypeName() string { return "test" }

type otherObject struct{}

func (otherObject) TypeName() string { return "other" }

// recorder collects assertion messages instead of panicking.
type recorder struct{ msgs []string }

func (r *recorder) handle(msg string) { r.msgs = append(r.msgs, msg) }

func newRecorded() (*SceneGraph, *recorder) {
	r := &recorder{}
	return New(WithAssertHandler(r.handle)), r
}

// buildChain builds A -> A.C -> A.C.E -> A.C.E.G plus the side nodes
// A.B, A.C.D and A.C.E.F.
func buildChain(t *testing.T, g *SceneGraph) map[string]NodeIndex {
	t.Helper()
	nodes := make(map[string]NodeIndex)
	add := func(parent NodeIndex, name string) NodeIndex {
		n := g.AddChild(parent, name)
		if !n.IsValid() {
			t.Fatalf("AddChild(%v, %q) returned invalid index", parent, name)
		}
		nodes[g.NodeName(n).Path()] = n
		return n
	}
	a := add(g.Root(), "A")
	add(a, "B")
	c := add(a, "C")
	add(c, "D")
	e := add(c, "E")
	add(e, "F")
	add(e, "G")
	return nodes
}

// ---------------------------------------------------------------------------
// Construction and root
// ---------------------------------------------------------------------------

func TestNewGraphHasOnlyRoot(t *testing.T) {
	g := New()
	if g.NodeCount() != 1 {
		t.Fatalf("NodeCount() = %d, want 1", g.NodeCount())
	}
	root := g.Root()
	if !root.IsValid() {
		t.Fatal("Root() is invalid")
	}
	if g.HasNodeParent(root) {
		t.Error("root should have no parent")
	}
	if g.NodeParent(root).IsValid() {
		t.Error("NodeParent(root) should be invalid")
	}
	if g.HasNodeContent(root) || g.HasNodeChild(root) || g.HasNodeSibling(root) {
		t.Error("fresh root should have no content, children or siblings")
	}
	if g.IsNodeEndPoint(root) {
		t.Error("root should not be an end point")
	}
	if name := g.NodeName(root); name.Path() != "" || name.Leaf() != "" {
		t.Errorf("root name = %q/%q, want empty", name.Path(), name.Leaf())
	}
}

func TestClearResetsToRoot(t *testing.T) {
	g := New(WithCapacity(16))
	buildChain(t, g)
	if g.NodeCount() != 8 {
		t.Fatalf("NodeCount() = %d, want 8", g.NodeCount())
	}
	g.Clear()
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount() after Clear = %d, want 1", g.NodeCount())
	}
	if g.HasNodeChild(g.Root()) {
		t.Error("root still has a child after Clear")
	}
	if g.Find("A").IsValid() {
		t.Error("Find(A) should fail after Clear")
	}

	// The graph is usable again.
	if !g.AddChild(g.Root(), "A").IsValid() {
		t.Error("AddChild after Clear failed")
	}
}

// ---------------------------------------------------------------------------
// Names
// ---------------------------------------------------------------------------

func TestIsValidName(t *testing.T) {
	valid := "valid"
	empty := ""
	dotted := "a.b"

	tests := []struct {
		name string
		in   *string
		want bool
	}{
		{"nil", nil, false},
		{"empty", &empty, false},
		{"separator", &dotted, false},
		{"plain", &valid, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidName(tt.in); got != tt.want {
				t.Errorf("IsValidName = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNameAccessors(t *testing.T) {
	tests := []struct {
		name     string
		in       Name
		wantPath string
		wantLeaf string
	}{
		{"root", Name{}, "", ""},
		{"top level", NewName("A", 0), "A", "A"},
		{"nested", NewName("A.C.E", 4), "A.C.E", "E"},
		{"offset at end", NewName("A.C", 3), "A.C", ""},
		{"offset past end", NewName("A.C", 9), "A.C", ""},
		{"negative offset", NewName("A.C", -1), "A.C", ""},
		{"invalid", InvalidName, "<Invalid>", "<Invalid>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Path(); got != tt.wantPath {
				t.Errorf("Path() = %q, want %q", got, tt.wantPath)
			}
			if got := tt.in.Leaf(); got != tt.wantLeaf {
				t.Errorf("Leaf() = %q, want %q", got, tt.wantLeaf)
			}
			if got := tt.in.LeafLength(); got != len(tt.wantLeaf) {
				t.Errorf("LeafLength() = %d, want %d", got, len(tt.wantLeaf))
			}
		})
	}
}

func TestNameEqualityIsStructural(t *testing.T) {
	if NewName("A.C", 2) != NewName("A.C", 2) {
		t.Error("identical names should be equal")
	}
	if NewName("A.C", 2) == NewName("A.C", 0) {
		t.Error("names with different offsets should differ")
	}
}

func TestNodeNamesAreFullPaths(t *testing.T) {
	g := New()
	nodes := buildChain(t, g)
	g2 := nodes["A.C.E.G"]
	name := g.NodeName(g2)
	if name.Path() != "A.C.E.G" || name.Leaf() != "G" {
		t.Errorf("NodeName = %q/%q, want A.C.E.G/G", name.Path(), name.Leaf())
	}
	if name != NewName("A.C.E.G", 6) {
		t.Errorf("NodeName = %#v, want offset 6", name)
	}
	if got := g.NodeName(Invalid); got != InvalidName {
		t.Errorf("NodeName(Invalid) = %v, want InvalidName", got)
	}
}

func TestInvalidNameIsNotANodeName(t *testing.T) {
	g := New()
	n := g.AddChild(g.Root(), invalidPlaceholder)
	if !n.IsValid() {
		t.Fatalf("AddChild(%q) failed", invalidPlaceholder)
	}
	name := g.NodeName(n)
	if name == InvalidName {
		t.Errorf("NodeName of a node called %q equals InvalidName", invalidPlaceholder)
	}
	if name.Path() != InvalidName.Path() || name.Leaf() != InvalidName.Leaf() {
		t.Errorf("NodeName = %q/%q, want both to render as %q", name.Path(), name.Leaf(), invalidPlaceholder)
	}
	if g.Find(invalidPlaceholder) != n {
		t.Errorf("Find(%q) should return the node", invalidPlaceholder)
	}
}

// ---------------------------------------------------------------------------
// Insertion
// ---------------------------------------------------------------------------

func TestAddChildThenFind(t *testing.T) {
	g := New()
	parent := g.AddChild(g.Root(), "parent")
	for _, name := range []string{"a", "b", "mesh_lod0", "x-y", "with space"} {
		n := g.AddChild(parent, name)
		if !n.IsValid() {
			t.Fatalf("AddChild(%q) failed", name)
		}
		if got := g.FindFrom(parent, name); got != n {
			t.Errorf("FindFrom(parent, %q) = %v, want %v", name, got, n)
		}
	}
}

func TestAddChildAppendsInOrder(t *testing.T) {
	g := New()
	p := g.AddChild(g.Root(), "p")
	want := []NodeIndex{
		g.AddChild(p, "one"),
		g.AddChild(p, "two"),
		g.AddChild(p, "three"),
	}
	var got []NodeIndex
	for c := g.NodeChild(p); c.IsValid(); c = g.NodeSibling(c) {
		got = append(got, c)
		if g.NodeParent(c) != p {
			t.Errorf("NodeParent(%v) = %v, want %v", c, g.NodeParent(c), p)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("chain length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chain[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAddSiblingChainOrder(t *testing.T) {
	g := New()
	p := g.AddChild(g.Root(), "p")
	first := g.AddChild(p, "first")

	second := g.AddSibling(first, "second")
	if !second.IsValid() {
		t.Fatal("AddSibling failed")
	}
	if g.NodeSibling(first) != second {
		t.Errorf("NodeSibling(first) = %v, want %v", g.NodeSibling(first), second)
	}

	// Anchoring on the head still appends at the tail.
	third := g.AddSibling(first, "third")
	if g.NodeSibling(second) != third {
		t.Errorf("NodeSibling(second) = %v, want %v", g.NodeSibling(second), third)
	}
	if g.HasNodeSibling(third) {
		t.Error("tail should have no sibling")
	}
	if g.NodeParent(third) != p {
		t.Errorf("NodeParent(third) = %v, want %v", g.NodeParent(third), p)
	}
	if got := g.NodeName(third).Path(); got != "p.third" {
		t.Errorf("path = %q, want p.third", got)
	}
	if g.NodeCount() != 5 {
		t.Errorf("NodeCount() = %d, want 5", g.NodeCount())
	}
}

func TestAddSiblingTopLevel(t *testing.T) {
	g := New()
	a := g.AddChild(g.Root(), "A")
	b := g.AddSibling(a, "B")
	if got := g.NodeName(b); got.Path() != "B" || got.Leaf() != "B" {
		t.Errorf("top-level sibling name = %q/%q, want B/B", got.Path(), got.Leaf())
	}
	if g.NodeParent(b) != g.Root() {
		t.Errorf("NodeParent(B) = %v, want root", g.NodeParent(b))
	}
}

func TestAddWithContent(t *testing.T) {
	g := New()
	obj := &testObject{value: 7}
	n := g.AddChild(g.Root(), "n", obj)
	if g.NodeContent(n) != obj {
		t.Errorf("NodeContent = %v, want %v", g.NodeContent(n), obj)
	}
	s := g.AddSibling(n, "s", otherObject{})
	if _, ok := g.NodeContent(s).(otherObject); !ok {
		t.Errorf("sibling content = %T, want otherObject", g.NodeContent(s))
	}
}

func TestInvalidInsertions(t *testing.T) {
	tests := []struct {
		name       string
		do         func(g *SceneGraph, n NodeIndex) NodeIndex
		wantAssert bool
	}{
		{"child of invalid parent", func(g *SceneGraph, _ NodeIndex) NodeIndex { return g.AddChild(Invalid, "x") }, false},
		{"sibling of invalid anchor", func(g *SceneGraph, _ NodeIndex) NodeIndex { return g.AddSibling(Invalid, "x") }, false},
		{"child of foreign index", func(g *SceneGraph, _ NodeIndex) NodeIndex { return g.AddChild(indexAt(99), "x") }, false},
		{"empty child name", func(g *SceneGraph, n NodeIndex) NodeIndex { return g.AddChild(n, "") }, true},
		{"dotted child name", func(g *SceneGraph, n NodeIndex) NodeIndex { return g.AddChild(n, "a.b") }, true},
		{"dotted sibling name", func(g *SceneGraph, n NodeIndex) NodeIndex { return g.AddSibling(n, "a.b") }, true},
		{"sibling of root", func(g *SceneGraph, _ NodeIndex) NodeIndex { return g.AddSibling(g.Root(), "x") }, true},
		{"duplicate child", func(g *SceneGraph, _ NodeIndex) NodeIndex { return g.AddChild(g.Root(), "n") }, true},
		{"duplicate sibling", func(g *SceneGraph, n NodeIndex) NodeIndex { return g.AddSibling(n, "n") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, r := newRecorded()
			n := g.AddChild(g.Root(), "n")
			before := g.NodeCount()

			if got := tt.do(g, n); got.IsValid() {
				t.Errorf("got valid index %v, want Invalid", got)
			}
			if g.NodeCount() != before {
				t.Errorf("NodeCount() = %d, want %d", g.NodeCount(), before)
			}
			if asserted := len(r.msgs) > 0; asserted != tt.wantAssert {
				t.Errorf("asserted = %v (%q), want %v", asserted, r.msgs, tt.wantAssert)
			}
		})
	}
}

func TestDuplicateSiblingIsNoOp(t *testing.T) {
	g, r := newRecorded()
	p := g.AddChild(g.Root(), "p")
	a := g.AddChild(p, "a")
	b := g.AddChild(p, "b")

	// Anchor on the tail; the duplicate is earlier in the chain.
	if got := g.AddSibling(b, "a"); got.IsValid() {
		t.Fatalf("duplicate AddSibling returned %v", got)
	}
	if len(r.msgs) != 1 || !strings.Contains(r.msgs[0], "duplicate") {
		t.Errorf("assert messages = %q, want one duplicate message", r.msgs)
	}
	if g.NodeCount() != 4 {
		t.Errorf("NodeCount() = %d, want 4", g.NodeCount())
	}
	if g.NodeSibling(a) != b || g.HasNodeSibling(b) {
		t.Error("sibling chain changed")
	}
	if g.FindFrom(p, "a") != a {
		t.Error("original node no longer found")
	}
	if len(Validate(g)) != 0 {
		t.Errorf("Validate() = %v, want no findings", Validate(g))
	}
}

// ---------------------------------------------------------------------------
// End points
// ---------------------------------------------------------------------------

func TestEndPointForbidsChildrenOnly(t *testing.T) {
	g, r := newRecorded()
	p := g.AddChild(g.Root(), "p")
	n := g.AddChild(p, "n")
	g.MakeEndPoint(n)
	if !g.IsNodeEndPoint(n) {
		t.Fatal("IsNodeEndPoint = false after MakeEndPoint")
	}

	before := g.NodeCount()
	if got := g.AddChild(n, "x"); got.IsValid() {
		t.Errorf("AddChild under end point = %v, want Invalid", got)
	}
	if g.NodeCount() != before {
		t.Errorf("NodeCount() = %d, want %d", g.NodeCount(), before)
	}
	if len(r.msgs) != 1 {
		t.Errorf("assert messages = %q, want 1", r.msgs)
	}

	if got := g.AddSibling(n, "x"); !got.IsValid() {
		t.Error("AddSibling on end point anchor failed")
	}
	if g.NodeCount() != before+1 {
		t.Errorf("NodeCount() = %d, want %d", g.NodeCount(), before+1)
	}
}

func TestEndPointKeepsExistingChildren(t *testing.T) {
	g, r := newRecorded()
	p := g.AddChild(g.Root(), "p")
	c := g.AddChild(p, "c")
	g.MakeEndPoint(p)

	if g.NodeChild(p) != c {
		t.Error("existing child lost after MakeEndPoint")
	}
	if got := g.AddSibling(c, "d"); got.IsValid() {
		t.Error("AddSibling under an end point parent should fail")
	}
	if len(r.msgs) != 1 {
		t.Errorf("assert messages = %q, want 1", r.msgs)
	}
	findings := Validate(g)
	if len(findings) != 1 || findings[0].Severity != SeverityWarning {
		t.Errorf("Validate() = %v, want one warning", findings)
	}
}

func TestEndPointInvalidNode(t *testing.T) {
	g := New()
	g.MakeEndPoint(Invalid)
	if g.IsNodeEndPoint(Invalid) {
		t.Error("IsNodeEndPoint(Invalid) = true")
	}
}

// ---------------------------------------------------------------------------
// Find
// ---------------------------------------------------------------------------

func TestFindPaths(t *testing.T) {
	g := New()
	nodes := buildChain(t, g)

	tests := []struct {
		path string
		want NodeIndex
	}{
		{"A", nodes["A"]},
		{"A.B", nodes["A.B"]},
		{"A.C.E.G", nodes["A.C.E.G"]},
		{"A.C.D", nodes["A.C.D"]},
		{"A.C.E.Z", Invalid},
		{"B", Invalid},
		{"A..C", Invalid},
		{"A.", Invalid},
		{".A", Invalid},
		{"", Invalid},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := g.Find(tt.path); got != tt.want {
				t.Errorf("Find(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	g := New()
	nodes := buildChain(t, g)
	n, err := g.Lookup("A.C.E")
	if err != nil || n != nodes["A.C.E"] {
		t.Errorf("Lookup(A.C.E) = %v, %v, want %v", n, err, nodes["A.C.E"])
	}
	if _, err := g.Lookup("A.Z"); !errors.Is(err, ErrNoSuchNode) {
		t.Errorf("Lookup(A.Z) error = %v, want ErrNoSuchNode", err)
	}
}

func TestFindFromRelative(t *testing.T) {
	g := New()
	nodes := buildChain(t, g)
	e := g.Find("A.C.E")
	if e != nodes["A.C.E"] {
		t.Fatalf("Find(A.C.E) = %v, want %v", e, nodes["A.C.E"])
	}
	if got := g.FindFrom(e, "G"); got != nodes["A.C.E.G"] {
		t.Errorf("FindFrom(E, G) = %v, want %v", got, nodes["A.C.E.G"])
	}
	if got := g.FindFrom(e, "Z"); got.IsValid() {
		t.Errorf("FindFrom(E, Z) = %v, want Invalid", got)
	}
	if got := g.FindFrom(g.Find("A"), "C.E.F"); got != nodes["A.C.E.F"] {
		t.Errorf("FindFrom(A, C.E.F) = %v, want %v", got, nodes["A.C.E.F"])
	}
	if got := g.FindFrom(Invalid, "A"); got.IsValid() {
		t.Errorf("FindFrom(Invalid, A) = %v, want Invalid", got)
	}
}

// ---------------------------------------------------------------------------
// Content and structural queries
// ---------------------------------------------------------------------------

func TestSetContentRoundTrip(t *testing.T) {
	g := New()
	n := g.AddChild(g.Root(), "n")
	obj := &testObject{value: 42}

	if !g.SetContent(n, obj) {
		t.Fatal("SetContent returned false")
	}
	got, ok := ContentAs[*testObject](g, n)
	if !ok || got != obj {
		t.Fatalf("ContentAs = %v, %v; want %v, true", got, ok, obj)
	}
	if got.value != 42 {
		t.Errorf("value = %d, want 42", got.value)
	}
	if _, ok := ContentAs[otherObject](g, n); ok {
		t.Error("ContentAs with the wrong type should fail")
	}

	// The caller's reference outlives the slot.
	g.SetContent(n, nil)
	if g.HasNodeContent(n) {
		t.Error("content still present after SetContent(nil)")
	}
	if obj.value != 42 {
		t.Error("external payload changed")
	}
	if g.SetContent(Invalid, obj) {
		t.Error("SetContent(Invalid) returned true")
	}
	if g.NodeContent(Invalid) != nil {
		t.Error("NodeContent(Invalid) should be nil")
	}
}

func TestInvalidNodeQueries(t *testing.T) {
	g := New()
	buildChain(t, g)
	for _, n := range []NodeIndex{Invalid, indexAt(1000)} {
		if g.HasNodeContent(n) || g.HasNodeChild(n) || g.HasNodeSibling(n) || g.HasNodeParent(n) {
			t.Errorf("%v: structural predicate returned true", n)
		}
		if g.NodeParent(n).IsValid() || g.NodeChild(n).IsValid() || g.NodeSibling(n).IsValid() {
			t.Errorf("%v: link accessor returned a valid index", n)
		}
		if g.IsNodeEndPoint(n) {
			t.Errorf("%v: IsNodeEndPoint = true", n)
		}
	}
}

func TestNodeIndex(t *testing.T) {
	var zero NodeIndex
	if zero.IsValid() || zero != Invalid {
		t.Error("zero NodeIndex should equal Invalid")
	}
	if zero.AsNumber() != -1 {
		t.Errorf("Invalid.AsNumber() = %d, want -1", zero.AsNumber())
	}
	if got := indexAt(3).AsNumber(); got != 3 {
		t.Errorf("AsNumber() = %d, want 3", got)
	}
	if got := indexAt(3).String(); got != "NodeIndex(3)" {
		t.Errorf("String() = %q", got)
	}
	if got := Invalid.String(); got != "NodeIndex(invalid)" {
		t.Errorf("String() = %q", got)
	}
}

// ---------------------------------------------------------------------------
// Assertions
// ---------------------------------------------------------------------------

func TestDefaultAssertLogs(t *testing.T) {
	var buf bytes.Buffer
	g := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	if g.AddChild(g.Root(), "").IsValid() {
		t.Fatal("AddChild with empty name succeeded")
	}
	if !strings.Contains(buf.String(), "invalid node name") {
		t.Errorf("log output = %q, want assertion message", buf.String())
	}
}

func TestPanicOnAssert(t *testing.T) {
	g := New(WithAssertHandler(PanicOnAssert))
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		if g.NodeCount() != 1 {
			t.Errorf("NodeCount() = %d after panic, want 1", g.NodeCount())
		}
	}()
	g.AddChild(g.Root(), "a.b")
}

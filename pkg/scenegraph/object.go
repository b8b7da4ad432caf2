package scenegraph

// GraphObject is the payload attached to a node. Consumers recover the
// concrete type with a type assertion or ContentAs.
//
// Payloads are held by reference. Replacing or clearing a node's content
// drops the graph's reference only; other holders keep the payload alive.
type GraphObject interface {
	// TypeName identifies the payload kind, e.g. "mesh" or "transform".
	TypeName() string
}

// ContentAs returns the content of node as a T. It reports false when the
// node is invalid, has no content, or holds content of another type.
func ContentAs[T any](g *SceneGraph, node NodeIndex) (T, bool) {
	v, ok := g.NodeContent(node).(T)
	return v, ok
}

// ContentIssue is a problem a payload reports about its own data.
type ContentIssue struct {
	Message  string
	Severity ValidationSeverity
}

// ContentChecker is implemented by payloads that can check their own data.
// ValidateAll collects these findings.
type ContentChecker interface {
	CheckContent() []ContentIssue
}

// Package scenegraph holds the node hierarchy of an imported asset while it is
// processed offline.
//
// A SceneGraph keeps three parallel, append-only storages (hierarchy records,
// names and content) addressed by NodeIndex handles. The graph always has a
// root node. Nodes are added with AddChild and AddSibling and are never removed
// individually; Clear resets the graph to its single root.
//
// Node names are dotted paths ("A.C.E"). Find resolves a path one segment at a
// time by walking the sibling chain under the current node.
//
// A SceneGraph is not safe for concurrent use while it is being written.
package scenegraph

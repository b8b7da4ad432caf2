package importer

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/scenecore/pkg/datatypes"
	"github.com/chazu/scenecore/pkg/scenegraph"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values between builtins
// ---------------------------------------------------------------------------

type sexpVec3 struct {
	vec datatypes.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpPayload carries node content from (box ...), (material ...) and friends
// to (node ...).
type sexpPayload struct {
	obj scenegraph.GraphObject
}

func (p *sexpPayload) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s)", p.obj.TypeName())
}
func (p *sexpPayload) Type() *zygo.RegisteredType { return nil }

type sexpNode struct {
	desc *nodeDesc
}

func (n *sexpNode) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(node %q)", n.desc.name)
}
func (n *sexpNode) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW reports whether s is a keyword produced by preprocessSource and
// returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	return strings.CutPrefix(str.S, kwPrefix)
}

type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates keyword arguments from positional ones. A trailing
// keyword without a value maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (datatypes.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return datatypes.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a list or array to a Go slice. The empty list is
// nil.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

func toFloat32s(s zygo.Sexp) ([]float32, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]float32, 0, len(items))
	for i, item := range items {
		f, err := toFloat64(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, float32(f))
	}
	return out, nil
}

func toIndices(s zygo.Sexp) ([]uint32, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, 0, len(items))
	for i, item := range items {
		v, ok := item.(*zygo.SexpInt)
		if !ok || v.Val < 0 {
			return nil, fmt.Errorf("element %d: expected non-negative integer, got %s", i, item.SexpString(nil))
		}
		out = append(out, uint32(v.Val))
	}
	return out, nil
}

// kwFloat reads an optional numeric keyword into dst.
func kwFloat(pa kwArgs, fn, key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = f
	return nil
}

// kwVec3 reads an optional vec3 keyword into dst.
func kwVec3(pa kwArgs, fn, key string, dst *datatypes.Vec3) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = vec
	return nil
}

// collectNodes flattens node arguments, accepting lists of nodes produced by
// user code.
func collectNodes(fn string, args []zygo.Sexp) ([]*nodeDesc, error) {
	var out []*nodeDesc
	for i, a := range args {
		switch v := a.(type) {
		case *sexpNode:
			out = append(out, v.desc)
		case *zygo.SexpPair, *zygo.SexpArray:
			items, err := sexpListToSlice(v)
			if err != nil {
				return nil, fmt.Errorf("%s: argument %d: %w", fn, i, err)
			}
			nested, err := collectNodes(fn, items)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		default:
			if a == zygo.SexpNull {
				continue
			}
			return nil, fmt.Errorf("%s: argument %d: expected node, got %T (%s)", fn, i, a, a.SexpString(nil))
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene builtins into env. Nodes described by
// user code are inserted into b's graph by (scene ...).
//
// Source must go through preprocessSource first so that :keyword tokens are
// recognizable.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: datatypes.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// (box :size (vec3 40 40 4))
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		p := &datatypes.PrimitiveData{Kind: datatypes.PrimBox}
		if _, ok := pa.kw["size"]; !ok {
			return zygo.SexpNull, fmt.Errorf("box requires :size")
		}
		if err := kwVec3(pa, "box", "size", &p.Size); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpPayload{obj: p}, nil
	})

	// (cylinder :height 10 :radius 2)
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		p := &datatypes.PrimitiveData{Kind: datatypes.PrimCylinder}
		if err := kwFloat(pa, "cylinder", "height", &p.Height); err != nil {
			return zygo.SexpNull, err
		}
		if err := kwFloat(pa, "cylinder", "radius", &p.Radius); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpPayload{obj: p}, nil
	})

	// (sphere :radius 5)
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		p := &datatypes.PrimitiveData{Kind: datatypes.PrimSphere}
		if err := kwFloat(pa, "sphere", "radius", &p.Radius); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpPayload{obj: p}, nil
	})

	// (transform :translate (vec3 0 0 10) :rotate (vec3 0 0 90))
	env.AddFunction("transform", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		td := &datatypes.TransformData{}
		if err := kwVec3(pa, "transform", "translate", &td.Translate); err != nil {
			return zygo.SexpNull, err
		}
		if err := kwVec3(pa, "transform", "rotate", &td.Rotate); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpPayload{obj: td}, nil
	})

	// (material "oak" :color "#c8a165")
	env.AddFunction("material", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("material requires a name argument")
		}
		md := &datatypes.MaterialData{}
		var err error
		if md.Name, err = toString(pa.positional[0]); err != nil {
			return zygo.SexpNull, fmt.Errorf("material: name: %w", err)
		}
		if v, ok := pa.kw["color"]; ok {
			if md.Color, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("material: color: %w", err)
			}
		}
		return &sexpPayload{obj: md}, nil
	})

	// (bone "spine" :offset (vec3 0 10 0))
	env.AddFunction("bone", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("bone requires a name argument")
		}
		bd := &datatypes.BoneData{}
		var err error
		if bd.Name, err = toString(pa.positional[0]); err != nil {
			return zygo.SexpNull, fmt.Errorf("bone: name: %w", err)
		}
		if err := kwVec3(pa, "bone", "offset", &bd.Offset); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpPayload{obj: bd}, nil
	})

	// (mesh :vertices (list 0 0 0 1 0 0 0 1 0) :indices (list 0 1 2))
	env.AddFunction("mesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		md := &datatypes.MeshData{}
		var err error
		if v, ok := pa.kw["vertices"]; ok {
			if md.Vertices, err = toFloat32s(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("mesh: vertices: %w", err)
			}
		}
		if v, ok := pa.kw["normals"]; ok {
			if md.Normals, err = toFloat32s(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("mesh: normals: %w", err)
			}
		}
		if v, ok := pa.kw["indices"]; ok {
			if md.Indices, err = toIndices(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("mesh: indices: %w", err)
			}
		}
		return &sexpPayload{obj: md}, nil
	})

	// (node "name" [payload] children...)
	env.AddFunction("node", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("node requires a name argument")
		}
		nodeName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node: name: %w", err)
		}
		d := &nodeDesc{name: nodeName}

		rest := args[1:]
		if len(rest) > 0 {
			if p, ok := rest[0].(*sexpPayload); ok {
				d.content = p.obj
				rest = rest[1:]
			}
		}
		for _, a := range rest {
			if _, ok := a.(*sexpPayload); ok {
				return zygo.SexpNull, fmt.Errorf("node %q: only one payload is allowed and it must come first", nodeName)
			}
		}
		if d.children, err = collectNodes("node "+nodeName, rest); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpNode{desc: d}, nil
	})

	// (endpoint (node ...))
	env.AddFunction("endpoint", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("endpoint requires exactly one node, got %d arguments", len(args))
		}
		n, ok := args[0].(*sexpNode)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("endpoint: expected node, got %T (%s)", args[0], args[0].SexpString(nil))
		}
		if len(n.desc.children) > 0 {
			return zygo.SexpNull, fmt.Errorf("endpoint: node %q has children", n.desc.name)
		}
		n.desc.endPoint = true
		return n, nil
	})

	// (scene nodes...)
	env.AddFunction("scene", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		descs, err := collectNodes("scene", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		for _, d := range descs {
			b.insert(b.g.Root(), d)
		}
		return zygo.SexpNull, nil
	})
}

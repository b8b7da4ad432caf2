// Package pipeline runs a scene file through import, validation,
// tessellation and mesh gathering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/chazu/scenecore/internal/ctxlog"
	"github.com/chazu/scenecore/pkg/datatypes"
	"github.com/chazu/scenecore/pkg/importer"
	"github.com/chazu/scenecore/pkg/importer/hclscene"
	"github.com/chazu/scenecore/pkg/kernel"
	"github.com/chazu/scenecore/pkg/kernel/sdfx"
	"github.com/chazu/scenecore/pkg/meshgroup"
	"github.com/chazu/scenecore/pkg/scenegraph"
	"github.com/chazu/scenecore/pkg/selector"
	"github.com/chazu/scenecore/pkg/tessellate"
)

var (
	// ErrUnsupportedFormat is returned for files whose extension names no
	// known scene format.
	ErrUnsupportedFormat = errors.New("unsupported scene format")
	// ErrInvalidGraph is returned when validation reports errors.
	ErrInvalidGraph = errors.New("scene graph failed validation")
)

// Palette assigns colors to meshes that carry no material.
var Palette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// Options configures a Pipeline.
type Options struct {
	Importer importer.Options
	// Vars are visible to HCL manifests as var.<name>.
	Vars map[string]cty.Value
	// Kernel builds geometry. Nil means the sdfx kernel.
	Kernel kernel.Kernel
	// Selection picks the meshes to gather. Nil selects everything.
	Selection *selector.SelectionList
	// Lods assigns meshes to levels explicitly instead of by name.
	Lods *meshgroup.Rules
	// Bake produces meshes in world space.
	Bake bool
	// SkipTessellation stops after validation.
	SkipTessellation bool
}

// Mesh is a gathered mesh ready for display.
type Mesh struct {
	Path  string
	Lod   int
	Color string
	Mesh  meshgroup.Mesh
}

// Result is everything a run produced. Graph is nil when import failed.
type Result struct {
	Graph      *scenegraph.SceneGraph
	EvalErrors []importer.EvalError
	Validation scenegraph.ValidationResult
	Stats      tessellate.Stats
	Lods       []meshgroup.LodGroup
	Meshes     []Mesh
}

// Pipeline holds the importer and kernel shared by runs.
type Pipeline struct {
	opts     Options
	importer *importer.Importer
	kernel   kernel.Kernel
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	k := opts.Kernel
	if k == nil {
		k = sdfx.New()
	}
	return &Pipeline{
		opts:     opts,
		importer: importer.New(opts.Importer),
		kernel:   k,
	}
}

// Format names the importer for filename: "lisp" or "hcl".
func Format(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".lisp", ".zy", ".scene":
		return "lisp", nil
	case ".hcl":
		return "hcl", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
}

// Load imports src without further processing. Problems in the source are
// returned as eval errors for Lisp and as an error for HCL.
func (p *Pipeline) Load(ctx context.Context, filename string, src []byte) (*scenegraph.SceneGraph, []importer.EvalError, error) {
	format, err := Format(filename)
	if err != nil {
		return nil, nil, err
	}
	if format == "hcl" {
		g, err := hclscene.Load(ctx, filename, src, p.opts.Vars, p.opts.Importer.GraphOptions...)
		return g, nil, err
	}
	return p.importer.Import(ctx, string(src))
}

// Run imports, validates, tessellates and gathers src. Eval errors are not
// a Go error: the result carries them and Graph is nil. A graph that fails
// validation is returned together with ErrInvalidGraph.
func (p *Pipeline) Run(ctx context.Context, filename string, src []byte) (*Result, error) {
	log := ctxlog.FromContext(ctx).With("file", filename)

	g, evalErrs, err := p.Load(ctx, filename, src)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", filename, err)
	}
	res := &Result{EvalErrors: evalErrs}
	if len(evalErrs) > 0 {
		log.Info("import reported errors", "count", len(evalErrs))
		return res, nil
	}
	res.Graph = g

	res.Validation = scenegraph.ValidateAll(g)
	for _, w := range res.Validation.Warnings {
		log.Warn("validation", "node", w.Path, "message", w.Message)
	}
	if !res.Validation.OK() {
		return res, fmt.Errorf("%s: %w: %d errors, first: %s", filename, ErrInvalidGraph, len(res.Validation.Errors), res.Validation.Errors[0].Error())
	}
	if p.opts.SkipTessellation {
		return res, nil
	}

	res.Stats, err = tessellate.Tessellate(ctx, g, p.kernel, tessellate.Options{Bake: p.opts.Bake})
	if err != nil {
		return res, fmt.Errorf("%s: %w", filename, err)
	}

	list := selector.All()
	if p.opts.Selection != nil {
		list = *p.opts.Selection
	}
	res.Lods, err = meshgroup.GatherWithRules(g, list, p.opts.Lods)
	switch {
	case errors.Is(err, meshgroup.ErrNoMeshes):
		log.Debug("no meshes selected")
	case err != nil:
		return res, fmt.Errorf("%s: %w", filename, err)
	}
	res.Meshes = colorMeshes(res.Lods)

	log.Debug("pipeline finished",
		"nodes", g.NodeCount(),
		"meshes", res.Stats.Meshes,
		"skipped", res.Stats.Skipped,
		"triangles", res.Stats.Triangles,
		"lods", len(res.Lods))
	return res, nil
}

// colorMeshes flattens lods, taking each mesh's color from a material among
// its children or else from Palette.
func colorMeshes(lods []meshgroup.LodGroup) []Mesh {
	var out []Mesh
	i := 0
	for _, l := range lods {
		for _, m := range l.Meshes {
			c := Palette[i%len(Palette)]
			for _, x := range m.Extras {
				if md, ok := x.(*datatypes.MaterialData); ok && md.Color != "" {
					c = md.Color
					break
				}
			}
			out = append(out, Mesh{Path: m.Path, Lod: l.Index, Color: c, Mesh: m})
			i++
		}
	}
	return out
}

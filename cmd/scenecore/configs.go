package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/scott-cotton/cli"
	"github.com/zclconf/go-cty/cty"

	"github.com/mattn/go-isatty"

	"github.com/chazu/scenecore/internal/ctxlog"
	"github.com/chazu/scenecore/pkg/kernel"
	"github.com/chazu/scenecore/pkg/kernel/manifold"
	"github.com/chazu/scenecore/pkg/kernel/sdfx"
	"github.com/chazu/scenecore/pkg/pipeline"
)

type MainConfig struct {
	Verbose bool `cli:"name=v aliases=verbose desc='log debug records to stderr'"`
	Color   bool `cli:"name=color desc='color tree output'"`
	Cells   int  `cli:"name=cells desc='sdfx marching cubes cells along the longest axis'"`

	Kernel   string `cli:"name=kernel desc='geometry kernel: sdfx or manifold'"`
	Segments int    `cli:"name=segments desc='manifold segments per circle'"`

	// Vars are visible to HCL manifests as var.<name>.
	Vars map[string]cty.Value

	ctx context.Context

	Main *cli.Command
}

// context returns the command context carrying the configured logger.
func (cfg *MainConfig) context() context.Context {
	if cfg.ctx == nil {
		cfg.ctx = ctxlog.WithLogger(context.Background(), ctxlog.New(os.Stderr, cfg.Verbose))
	}
	return cfg.ctx
}

func (cfg *MainConfig) pipeline(opts pipeline.Options) (*pipeline.Pipeline, error) {
	opts.Vars = cfg.Vars
	if opts.Kernel == nil {
		k, err := cfg.kernel()
		if err != nil {
			return nil, err
		}
		opts.Kernel = k
	}
	return pipeline.New(opts), nil
}

func (cfg *MainConfig) kernel() (kernel.Kernel, error) {
	switch cfg.Kernel {
	case "", "sdfx":
		return sdfx.New(sdfx.WithMeshCells(cfg.Cells)), nil
	case "manifold":
		k, err := manifold.New(manifold.WithSegments(cfg.Segments))
		if err != nil {
			return nil, err
		}
		return k, nil
	}
	return nil, fmt.Errorf("%w: unknown kernel %q", cli.ErrUsage, cfg.Kernel)
}

// useColor reports whether output to w should be colored: -color decides
// when given, otherwise color is used on terminals.
func (cfg *MainConfig) useColor(w io.Writer) bool {
	if cfg.Color {
		return true
	}
	if cfg.Main != nil {
		for _, opt := range cfg.Main.Opts {
			if opt.Name == "color" && opt.Value != nil {
				return false
			}
		}
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

// varOptFunc parses name=value. The value is read as an HCL expression so
// numbers, booleans and lists keep their type; anything that does not parse
// is taken as a string.
func varOptFunc(vars map[string]cty.Value) cli.FuncOpt {
	return cli.FuncOpt(func(_ *cli.Context, a string) (any, error) {
		name, val, err := parseVar(a)
		if err != nil {
			return nil, err
		}
		vars[name] = val
		return val, nil
	})
}

func parseVar(a string) (string, cty.Value, error) {
	name, raw, ok := strings.Cut(a, "=")
	if !ok || name == "" {
		return "", cty.NilVal, fmt.Errorf("%w: argument %q expected name=value", cli.ErrUsage, a)
	}
	if !hclsyntax.ValidIdentifier(name) {
		return "", cty.NilVal, fmt.Errorf("%w: %q is not a valid variable name", cli.ErrUsage, name)
	}
	expr, diags := hclsyntax.ParseExpression([]byte(raw), "-var "+name, hcl.InitialPos)
	if diags.HasErrors() {
		return name, cty.StringVal(raw), nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return name, cty.StringVal(raw), nil
	}
	return name, v, nil
}

type TreeConfig struct {
	*MainConfig
	Details bool `cli:"name=d aliases=details desc='describe node content'"`

	Tree *cli.Command
}

type DumpConfig struct {
	*MainConfig

	Dump *cli.Command
}

type FindConfig struct {
	*MainConfig

	Find *cli.Command
}

type SelectConfig struct {
	*MainConfig
	Expr     string `cli:"name=e aliases=expr desc='boolean filter expression over node fields'"`
	Selected string `cli:"name=s aliases=select desc='comma separated paths to select'"`

	Select *cli.Command
}

type LodsConfig struct {
	*MainConfig
	Bake bool `cli:"name=bake desc='apply ancestor transforms to meshes'"`

	Lods *cli.Command
}

type DiffConfig struct {
	*MainConfig

	Diff *cli.Command
}

type ValidateConfig struct {
	*MainConfig
	Strict bool `cli:"name=strict desc='treat warnings as errors'"`

	Validate *cli.Command
}

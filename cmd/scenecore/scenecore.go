package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/scott-cotton/cli"

	"github.com/chazu/scenecore/internal/ctxlog"
	"github.com/chazu/scenecore/pkg/importer"
	"github.com/chazu/scenecore/pkg/pipeline"
	"github.com/chazu/scenecore/pkg/scenegraph"
)

func sceneMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

// sourceError reports a Lisp source that did not evaluate.
type sourceError struct {
	file string
	errs []importer.EvalError
}

func (e *sourceError) Error() string {
	msgs := make([]string, len(e.errs))
	for i, ee := range e.errs {
		msgs[i] = ee.Error()
	}
	return fmt.Sprintf("%s: %s", e.file, strings.Join(msgs, "; "))
}

// loadFile reads and imports one scene file without tessellating it.
func (cfg *MainConfig) loadFile(file string) (*scenegraph.SceneGraph, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", file, err)
	}
	ctx := cfg.context()
	p := pipeline.New(pipeline.Options{Vars: cfg.Vars, SkipTessellation: true})
	g, evalErrs, err := p.Load(ctx, file, src)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", file, err)
	}
	if len(evalErrs) > 0 {
		return nil, &sourceError{file: file, errs: evalErrs}
	}
	ctxlog.FromContext(ctx).Debug("loaded scene", "file", file, "nodes", g.NodeCount())
	return g, nil
}

func requireFiles(cmd string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: %s requires at least one file", cli.ErrUsage, cmd)
	}
	return nil
}

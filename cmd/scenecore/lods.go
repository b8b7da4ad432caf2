package main

import (
	"fmt"
	"io"
	"os"

	"github.com/scott-cotton/cli"

	"github.com/chazu/scenecore/pkg/pipeline"
	"github.com/chazu/scenecore/pkg/scenegraph"
)

func lods(cfg *LodsConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Lods.Parse(cc, args)
	if err != nil {
		cfg.Lods.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if err := requireFiles("lods", args); err != nil {
		return err
	}
	return writeLods(cfg, cc.Out, args)
}

func writeLods(cfg *LodsConfig, w io.Writer, files []string) error {
	p, err := cfg.pipeline(pipeline.Options{Bake: cfg.Bake})
	if err != nil {
		return err
	}
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("error reading %s: %w", file, err)
		}
		res, err := p.Run(cfg.context(), file, src)
		if err != nil {
			return err
		}
		if len(res.EvalErrors) > 0 {
			return &sourceError{file: file, errs: res.EvalErrors}
		}
		fmt.Fprintf(w, "%s: %d meshes, %d vertices, %d triangles",
			file, res.Stats.Meshes, res.Stats.Vertices, res.Stats.Triangles)
		if res.Stats.Skipped > 0 {
			fmt.Fprintf(w, ", %d too thin to mesh", res.Stats.Skipped)
		}
		fmt.Fprintln(w)
		for _, l := range res.Lods {
			fmt.Fprintf(w, "lod %d\n", l.Index)
			for _, m := range res.Meshes {
				if m.Lod != l.Index {
					continue
				}
				fmt.Fprintf(w, "  %s %s %d/%d\n", m.Path, m.Color,
					m.Mesh.Data.VertexCount(), m.Mesh.Data.TriangleCount())
			}
		}
	}
	return nil
}

func validate(cfg *ValidateConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Validate.Parse(cc, args)
	if err != nil {
		cfg.Validate.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if err := requireFiles("validate", args); err != nil {
		return err
	}
	failed, err := writeValidation(cfg, cc.Out, args)
	if err != nil {
		return err
	}
	if failed > 0 {
		return cli.ExitCodeErr(1)
	}
	return nil
}

// writeValidation reports the findings for each file and returns how many
// files failed.
func writeValidation(cfg *ValidateConfig, w io.Writer, files []string) (int, error) {
	failed := 0
	for _, file := range files {
		g, err := cfg.loadFile(file)
		if err != nil {
			return failed, err
		}
		res := scenegraph.ValidateAll(g)
		for _, e := range res.Errors {
			fmt.Fprintf(w, "%s: %s\n", file, e.Error())
		}
		for _, e := range res.Warnings {
			fmt.Fprintf(w, "%s: %s\n", file, e.Error())
		}
		if !res.OK() || (cfg.Strict && len(res.Warnings) > 0) {
			failed++
			continue
		}
		fmt.Fprintf(w, "%s: ok (%d nodes)\n", file, g.NodeCount())
	}
	return failed, nil
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/scott-cotton/cli"

	"github.com/chazu/scenecore/pkg/report"
	"github.com/chazu/scenecore/pkg/scenegraph"
	"github.com/chazu/scenecore/pkg/selector"
)

func tree(cfg *TreeConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Tree.Parse(cc, args)
	if err != nil {
		cfg.Tree.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if err := requireFiles("tree", args); err != nil {
		return err
	}
	return writeTrees(cfg, cc.Out, args)
}

func writeTrees(cfg *TreeConfig, w io.Writer, files []string) error {
	opts := report.TreeOptions{Color: cfg.useColor(w), Details: cfg.Details}
	for _, file := range files {
		g, err := cfg.loadFile(file)
		if err != nil {
			return err
		}
		if len(files) > 1 {
			fmt.Fprintf(w, "%s:\n", file)
		}
		if err := report.WriteTree(w, g, opts); err != nil {
			return fmt.Errorf("error writing tree of %s: %w", file, err)
		}
	}
	return nil
}

func dump(cfg *DumpConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Dump.Parse(cc, args)
	if err != nil {
		cfg.Dump.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if err := requireFiles("dump", args); err != nil {
		return err
	}
	return writeDumps(cfg.MainConfig, cc.Out, args)
}

// writeDumps writes one YAML document per file.
func writeDumps(cfg *MainConfig, w io.Writer, files []string) error {
	for i, file := range files {
		g, err := cfg.loadFile(file)
		if err != nil {
			return err
		}
		d, err := report.MarshalYAML(g)
		if err != nil {
			return fmt.Errorf("error encoding %s: %w", file, err)
		}
		if i > 0 {
			io.WriteString(w, "---\n")
		}
		if _, err := w.Write(d); err != nil {
			return err
		}
	}
	return nil
}

func find(cfg *FindConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Find.Parse(cc, args)
	if err != nil {
		cfg.Find.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: find requires a node path and at least one file", cli.ErrUsage)
	}
	return findPath(cfg.MainConfig, cc.Out, args[0], args[1:])
}

func findPath(cfg *MainConfig, w io.Writer, path string, files []string) error {
	for _, file := range files {
		g, err := cfg.loadFile(file)
		if err != nil {
			return err
		}
		n, err := g.Lookup(path)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		if len(files) > 1 {
			fmt.Fprintf(w, "%s: ", file)
		}
		fmt.Fprintln(w, describeNode(g, n))
	}
	return nil
}

// describeNode renders "path[*] #index [type] description".
func describeNode(g *scenegraph.SceneGraph, n scenegraph.NodeIndex) string {
	var sb strings.Builder
	sb.WriteString(g.NodeName(n).Path())
	if g.IsNodeEndPoint(n) {
		sb.WriteByte('*')
	}
	fmt.Fprintf(&sb, " #%d", n.AsNumber())
	if c := g.NodeContent(n); c != nil {
		fmt.Fprintf(&sb, " [%s]", c.TypeName())
		if d := report.Describe(c); d != "" {
			sb.WriteString(" " + d)
		}
	}
	return sb.String()
}

func selectNodes(cfg *SelectConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Select.Parse(cc, args)
	if err != nil {
		cfg.Select.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if err := requireFiles("select", args); err != nil {
		return err
	}
	return writeSelection(cfg, cc.Out, args)
}

func (cfg *SelectConfig) selection() selector.SelectionList {
	if cfg.Selected == "" {
		return selector.All()
	}
	var list selector.SelectionList
	for p := range strings.SplitSeq(cfg.Selected, ",") {
		if p = strings.TrimSpace(p); p != "" {
			list.Selected = append(list.Selected, p)
		}
	}
	return list
}

func writeSelection(cfg *SelectConfig, w io.Writer, files []string) error {
	var pred selector.Predicate
	if cfg.Expr != "" {
		p, err := selector.Compile(cfg.Expr)
		if err != nil {
			return fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		pred = p
	}
	list := cfg.selection()
	for _, file := range files {
		g, err := cfg.loadFile(file)
		if err != nil {
			return err
		}
		for _, path := range selector.GenerateTargetNodes(g, list, pred) {
			if len(files) > 1 {
				fmt.Fprintf(w, "%s: ", file)
			}
			fmt.Fprintln(w, path)
		}
	}
	return nil
}

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		cfg.Diff.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires exactly two files", cli.ErrUsage)
	}
	differ, err := writeDiff(cfg.MainConfig, cc.Out, args[0], args[1])
	if err != nil {
		return err
	}
	if differ {
		return cli.ExitCodeErr(1)
	}
	return nil
}

// writeDiff writes the listing diff of two files and reports whether they
// differ.
func writeDiff(cfg *MainConfig, w io.Writer, a, b string) (bool, error) {
	ga, err := cfg.loadFile(a)
	if err != nil {
		return false, err
	}
	gb, err := cfg.loadFile(b)
	if err != nil {
		return false, err
	}
	d, err := report.DiffGraphs(ga, gb)
	if err != nil {
		return false, fmt.Errorf("error diffing %s and %s: %w", a, b, err)
	}
	if d == "" {
		return false, nil
	}
	fmt.Fprintf(w, "--- %s\n+++ %s\n%s", a, b, d)
	return true, nil
}

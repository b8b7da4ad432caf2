package main

import (
	"github.com/scott-cotton/cli"
	"github.com/zclconf/go-cty/cty"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{Vars: map[string]cty.Value{}}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts, &cli.Opt{
		Name:        "var",
		Description: "set an HCL variable, repeatable",
		Type:        cli.NamedFuncOpt(varOptFunc(cfg.Vars), "(name=value)"),
	})

	return cli.NewCommandAt(&cfg.Main, "scenecore").
		WithSynopsis("scenecore [opts] command [opts] files...").
		WithDescription("scenecore loads Lisp and HCL scene descriptions into a scene graph and inspects them.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return sceneMain(cfg, cc, args)
		}).
		WithSubs(
			TreeCommand(cfg),
			DumpCommand(cfg),
			FindCommand(cfg),
			SelectCommand(cfg),
			LodsCommand(cfg),
			DiffCommand(cfg),
			ValidateCommand(cfg))
}

func TreeCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &TreeConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("tree").
		WithAliases("t").
		WithSynopsis("tree [-d] files...").
		WithDescription("print the node hierarchy of each file").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return tree(cfg, cc, args)
		})
	cfg.Tree = cmd
	return cmd
}

func DumpCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DumpConfig{MainConfig: mainCfg}
	cmd := cli.NewCommand("dump").
		WithSynopsis("dump files...").
		WithDescription("list every node of each file as YAML").
		WithRun(func(cc *cli.Context, args []string) error {
			return dump(cfg, cc, args)
		})
	cfg.Dump = cmd
	return cmd
}

func FindCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &FindConfig{MainConfig: mainCfg}
	cmd := cli.NewCommand("find").
		WithAliases("f").
		WithSynopsis("find path files...").
		WithDescription("resolve a dotted node path in each file").
		WithRun(func(cc *cli.Context, args []string) error {
			return find(cfg, cc, args)
		})
	cfg.Find = cmd
	return cmd
}

func SelectCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SelectConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("select").
		WithAliases("sel").
		WithSynopsis("select [-e expr] [-s paths] files...").
		WithDescription("list the nodes matching a selection and filter expression, breadth first").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return selectNodes(cfg, cc, args)
		})
	cfg.Select = cmd
	return cmd
}

func LodsCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &LodsConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("lods").
		WithAliases("l").
		WithSynopsis("lods [-bake] files...").
		WithDescription("tessellate each file and print its meshes grouped by level of detail").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return lods(cfg, cc, args)
		})
	cfg.Lods = cmd
	return cmd
}

func DiffCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DiffConfig{MainConfig: mainCfg}
	cmd := cli.NewCommand("diff").
		WithAliases("d").
		WithSynopsis("diff a b").
		WithDescription("diff the node listings of two scene files").
		WithRun(func(cc *cli.Context, args []string) error {
			return diff(cfg, cc, args)
		})
	cfg.Diff = cmd
	return cmd
}

func ValidateCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ValidateConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("validate").
		WithAliases("check").
		WithSynopsis("validate [-strict] files...").
		WithDescription("check structural invariants and node content").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return validate(cfg, cc, args)
		})
	cfg.Validate = cmd
	return cmd
}

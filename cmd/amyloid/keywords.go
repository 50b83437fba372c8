package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hazyhaar/amyloid-notes/pkg/keywords"
)

func cmdKeywords(args []string) {
	fs := flag.NewFlagSet("keywords", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	export := fs.String("export", "", "write the built-in groups as manifests under this directory")
	fs.Parse(args)

	cfg, logger := setup(*cfgPath)

	if *export != "" {
		if err := keywords.ExportDefaults(*export); err != nil {
			fatal(logger, "export keyword groups", err)
		}
		fmt.Printf("%d groups written to %s\n", len(keywords.DefaultGroups()), *export)
		return
	}

	reg := keywords.NewRegistry(cfg.KeywordsDir)
	if err := reg.Load(); err != nil {
		fatal(logger, "failed to load keyword groups", err)
	}
	for _, g := range reg.ListGroups() {
		fmt.Fprintf(os.Stdout, "  %-18s %-10s %-9s %3d  %s\n", g.ID, g.Category, g.Method, g.Size, g.Description)
	}
}

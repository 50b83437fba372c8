package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hazyhaar/amyloid-notes/pkg/corpus"
	"github.com/hazyhaar/amyloid-notes/pkg/keywords"
	"github.com/hazyhaar/amyloid-notes/pkg/textnorm"
)

func cmdIngest(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	dataset := fs.String("dataset", "", "dataset ID to ingest (e.g. cardiac_path_reports)")
	all := fs.Bool("all", false, "ingest every preprocessed dataset")
	path := fs.String("path", "", "read the extract from this path instead of the stored one")
	fs.Parse(args)

	cfg, logger := setup(*cfgPath)
	if !*all && *dataset == "" {
		fmt.Fprintln(os.Stderr, "Usage:\n  amyloid ingest -dataset <id> [-path <csv>]\n  amyloid ingest -all")
		os.Exit(1)
	}

	norm, err := textnorm.NewEnglish()
	if err != nil {
		fatal(logger, "sentence tokenizer", err)
	}
	reg := keywords.NewRegistry(cfg.KeywordsDir)
	if err := reg.Load(); err != nil {
		fatal(logger, "failed to load keyword groups", err)
	}
	store := openStore(cfg, logger)
	defer store.Close()

	in := &corpus.Ingester{
		Store:      store,
		Normalizer: norm,
		Keywords:   reg,
		Workers:    cfg.Workers,
		Logger:     logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	if *all {
		failed := 0
		for _, ds := range corpus.All() {
			if !ds.Preprocessed() {
				continue
			}
			if _, err := in.Ingest(ctx, ds); err != nil {
				logger.Error("ingest failed", "dataset", ds.ID(), "error", err)
				failed++
			}
		}
		if failed > 0 {
			os.Exit(1)
		}
		return
	}

	ds, err := corpus.Get(*dataset)
	if err != nil {
		fatal(logger, "dataset", err)
	}
	var res *corpus.IngestResult
	if *path != "" {
		res, err = in.IngestPath(ctx, ds, *path)
	} else {
		res, err = in.Ingest(ctx, ds)
	}
	if err != nil {
		fatal(logger, "ingest failed", err)
	}
	fmt.Printf("[%s] %d documents, %d skipped, %d flagged (%s)\n",
		res.DatasetID, res.Documents, res.Skipped, res.Flagged, res.Duration.Round(time.Millisecond))
}

func cmdSources(args []string) {
	fs := flag.NewFlagSet("sources", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	set := fs.String("set", "", "override a document path: <dataset>=<path>")
	fs.Parse(args)

	cfg, logger := setup(*cfgPath)
	store := openStore(cfg, logger)
	defer store.Close()

	if *set != "" {
		id, p, ok := strings.Cut(*set, "=")
		if !ok || id == "" || p == "" {
			fatal(logger, "sources", fmt.Errorf("-set wants <dataset>=<path>, got %q", *set))
		}
		if err := store.SetPath(id, p); err != nil {
			fatal(logger, "set path", err)
		}
	}

	sources, err := store.ListSources()
	if err != nil {
		fatal(logger, "list sources", err)
	}
	for _, src := range sources {
		status := ""
		if src.LastStatus != nil {
			status = fmt.Sprintf("  [%d]", *src.LastStatus)
		}
		fmt.Printf("  %-22s  %s%s\n      %s\n", src.DatasetID, src.Description, status, src.Path)
	}
}

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	cfg, logger := setup(*cfgPath)
	store := openStore(cfg, logger)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	corpus.NewChecker(store, logger, cfg.CheckInterval).CheckAll(ctx)
}

func cmdLabels(args []string) {
	fs := flag.NewFlagSet("labels", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	dataset := fs.String("dataset", "", "dataset ID")
	annPath := fs.String("annotations", "", "annotation file (default: the dataset's)")
	diagPath := fs.String("diagnosis", "", "patient diagnosis file (default: the dataset's)")
	fs.Parse(args)

	_, logger := setup(*cfgPath)
	ds, err := corpus.Get(*dataset)
	if err != nil {
		fatal(logger, "dataset", err)
	}
	paths := ds.DefaultPaths()
	if *annPath != "" {
		paths.Annotations = *annPath
	}
	if *diagPath != "" {
		paths.PatientDiagnosis = *diagPath
	}

	ctx := context.Background()
	anns, err := corpus.LoadAnnotations(ctx, ds, paths.Annotations)
	if err != nil {
		logger.Warn("annotations", "dataset", ds.ID(), "error", err)
	} else {
		fmt.Printf("[%s] %d annotated documents\n", ds.ID(), len(anns))
	}

	diags, err := corpus.LoadPatientDiagnosis(ctx, ds, paths.PatientDiagnosis)
	if err != nil {
		logger.Warn("patient diagnosis", "dataset", ds.ID(), "error", err)
		return
	}
	positive := 0
	for _, d := range diags {
		if d.Diagnosis != 0 {
			positive++
		}
	}
	fmt.Printf("[%s] %d patients, %d with amyloidosis\n", ds.ID(), len(diags), positive)
}

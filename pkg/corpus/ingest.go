package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/amyloid-notes/pkg/keywords"
	"github.com/hazyhaar/amyloid-notes/pkg/textnorm"
)

// Ingester loads a dataset extract, cleans and flags every document and
// persists the result.
type Ingester struct {
	Store      *Store
	Normalizer *textnorm.Normalizer
	// Keywords is optional; without it no flags are stored.
	Keywords *keywords.Registry
	// Workers bounds the cleaning goroutines. Zero means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// IngestResult summarizes one ingest run.
type IngestResult struct {
	DatasetID string        `json:"dataset_id"`
	Path      string        `json:"path"`
	Documents int           `json:"documents"`
	Skipped   int           `json:"skipped"`
	Flagged   int           `json:"flagged"`
	Duration  time.Duration `json:"duration"`
}

// Ingest reads the dataset from its stored path.
func (in *Ingester) Ingest(ctx context.Context, ds Dataset) (*IngestResult, error) {
	path, err := in.Store.GetPath(ds.ID())
	if err != nil {
		return nil, err
	}
	return in.IngestPath(ctx, ds, path)
}

// IngestPath reads the dataset from path.
func (in *Ingester) IngestPath(ctx context.Context, ds Dataset, path string) (*IngestResult, error) {
	start := time.Now()
	clean, err := in.Normalizer.Func(ds.Mode())
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", ds.ID(), err)
	}

	loaded, err := readDocuments(ctx, ds, path)
	if err != nil {
		return nil, err
	}
	docs := loaded.Documents
	hits := make([][]keywords.Hit, len(docs))

	workers := in.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range docs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs[i].Text = clean(docs[i].Raw)
			if in.Keywords != nil {
				hits[i] = in.Keywords.Flag(docs[i].Text, nil).Hits
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("clean %s: %w", ds.ID(), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	flags := make(map[int64][]keywords.Hit)
	for i, h := range hits {
		if len(h) > 0 {
			flags[docs[i].DocumentID] = h
		}
	}
	if err := in.Store.PutDocuments(ctx, ds.ID(), docs, flags); err != nil {
		return nil, fmt.Errorf("store %s: %w", ds.ID(), err)
	}

	res := &IngestResult{
		DatasetID: ds.ID(),
		Path:      path,
		Documents: len(docs),
		Skipped:   loaded.Skipped,
		Flagged:   len(flags),
		Duration:  time.Since(start),
	}
	if in.Logger != nil {
		in.Logger.Info("dataset ingested",
			"dataset", res.DatasetID,
			"documents", res.Documents,
			"skipped", res.Skipped,
			"flagged", res.Flagged,
			"duration", res.Duration,
		)
	}
	return res, nil
}

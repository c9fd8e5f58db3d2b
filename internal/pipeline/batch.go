package pipeline

import (
	"context"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/docforge/internal/model"
)

// Failure is a document that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// BatchResult collects the outcome of a batch. Summaries are sorted by
// source path.
type BatchResult struct {
	Summaries []model.Summary
	Failures  []Failure
}

// Runner processes one document.
type Runner interface {
	Run(ctx context.Context, path string) (*Outcome, error)
}

type batchItem struct {
	path    string
	summary *model.Summary
	err     error
}

// Batch runs every path on at most workers concurrent goroutines. A failing
// document is written to errOut as "[ERR] <path>: <error>" and does not stop
// its siblings.
func Batch(ctx context.Context, r Runner, paths []string, workers int, errOut io.Writer) BatchResult {
	if workers < 1 {
		workers = 1
	}
	zap.L().Info("pipeline: processing batch",
		zap.Int("documents", len(paths)),
		zap.Int("workers", workers),
	)

	results := make(chan batchItem, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, path := range paths {
		g.Go(func() error {
			out, err := r.Run(gctx, path)
			if err != nil {
				results <- batchItem{path: path, err: err}
				return nil
			}
			results <- batchItem{path: path, summary: &out.Summary}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	var res BatchResult
	for item := range results {
		if item.err != nil {
			res.Failures = append(res.Failures, Failure{Path: item.path, Err: item.err})
			continue
		}
		res.Summaries = append(res.Summaries, *item.summary)
	}

	sort.Slice(res.Summaries, func(i, j int) bool { return res.Summaries[i].SourcePath < res.Summaries[j].SourcePath })
	sort.Slice(res.Failures, func(i, j int) bool { return res.Failures[i].Path < res.Failures[j].Path })

	for _, f := range res.Failures {
		if errOut != nil {
			fmt.Fprintf(errOut, "[ERR] %s: %v\n", f.Path, f.Err) //nolint:errcheck
		}
		zap.L().Error("pipeline: document failed", zap.String("path", f.Path), zap.Error(f.Err))
	}

	zap.L().Info("pipeline: batch complete",
		zap.Int("succeeded", len(res.Summaries)),
		zap.Int("failed", len(res.Failures)),
	)
	return res
}

/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package driver is the outer concurrent fan-out layer spec §5 names
// but leaves to a "higher-level driver": each artifact is analyzed
// independently, so a batch of paths can run concurrently under a
// bounded worker count.
package driver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/binsift/triage/report"
	"github.com/binsift/triage/triage"
	"github.com/binsift/triage/triagelog"
)

// Result pairs one requested path with its outcome. Exactly one of
// Artifact/Err is non-nil.
type Result struct {
	Path     string
	Artifact *report.TriagedArtifact
	Err      error
}

// Driver fans a batch of paths out across triage.Engine.AnalyzePath
// calls, bounded to at most Concurrency simultaneous analyses.
type Driver struct {
	Engine      *triage.Engine
	Concurrency int
	Log         *triagelog.Logger
}

// New builds a Driver. A Concurrency of 0 or less defaults to 4,
// matching spec §5's "free threaded across artifacts" without letting
// an unbounded batch spawn one goroutine per file.
func New(engine *triage.Engine, concurrency int, log *triagelog.Logger) *Driver {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Driver{Engine: engine, Concurrency: concurrency, Log: log}
}

// AnalyzeAll runs every path in paths, returning one Result per input
// in the same order regardless of completion order. A per-artifact
// failure never aborts the batch; it is recorded on that Result only.
// Grounded on campaign/intelligence_gatherer.go's errgroup.WithContext
// fan-out: independent, cancellation-aware goroutines feeding a shared
// context, none of which fails the whole group on an individual error.
func (d *Driver) AnalyzeAll(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(d.Concurrency)

	for i, p := range paths {
		i, p := i, p
		eg.Go(func() error {
			select {
			case <-egCtx.Done():
				results[i] = Result{Path: p, Err: egCtx.Err()}
				return nil
			default:
			}
			d.Log.Debugf("analyzing %s", p)
			artifact, err := d.Engine.AnalyzePath(p)
			if err != nil {
				d.Log.Warnf("analyze %s: %v", p, err)
			}
			results[i] = Result{Path: p, Artifact: artifact, Err: err}
			return nil
		})
	}
	// Errors are captured per-Result, not propagated through the
	// group, so eg.Wait's return is always nil here; called anyway to
	// block until every goroutine completes.
	_ = eg.Wait()
	return results
}

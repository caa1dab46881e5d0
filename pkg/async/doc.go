// Package async provides safe concurrent execution primitives.
//
// # Overview
//
// Goroutines started through this package recover from panics and report
// them as errors wrapping ErrPanic instead of crashing the process.
//
// # Key Functions
//
// SafeGo: run a background task with panic recovery and optional timeout
//
//	async.SafeGo(ctx, 0, log, "descriptor watcher", func(ctx context.Context) error {
//		return watcher.Run(ctx)
//	})
//
// Group: bounded fan-out over errgroup
//
//	g := async.NewGroup(8)
//	for _, dep := range deps {
//		g.Go(func() error { return prefetch(ctx, dep) })
//	}
//	err := g.Wait()
//
// Each: index-based fan-out collecting one error per item
//
//	errs := async.Each(len(items), 4, func(i int) error {
//		return process(items[i])
//	})
//
// # Related Packages
//
//   - pkg/collector: prefetches descriptors and version ranges with Each
//   - cmd/depcollect-server: runs the descriptor watcher with SafeGo
package async

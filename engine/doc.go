// Package engine implements the span engine: the per-track controller that
// turns a viewport change into a quantized frame.
//
// An Engine is bound to one interval source and one track scope. The first
// OnBoundsChange call probes the longest slice duration in scope and the
// trace bounds; both are cached for the life of the engine. Every call then
// fetches the grouped rows overlapping the window, widened to the left by
// the cached duration so slices that started before the window but still
// cover it are included, and aggregates them into a frame.Frame.
//
// A typical caller keeps one engine per visible track:
//
//	eng, err := engine.New(src, source.NewScope(trackIDs...),
//	    engine.WithPolicy(color.Jank()),
//	    engine.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	f, err := eng.OnBoundsChange(ctx, start, end, resolution)
//
// An Engine is not safe for concurrent use. Group refreshes several engines
// in parallel while keeping each engine on a single goroutine.
package engine

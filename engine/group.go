package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/spanq/errs"
	"github.com/arloliu/spanq/frame"
)

// Result pairs a frame with the engine that built it.
type Result struct {
	Track string
	Frame *frame.Frame
}

// Group refreshes a set of independent engines in parallel. Each engine is
// driven by at most one goroutine per call; the Group itself is not safe
// for concurrent use.
type Group struct {
	engines []*Engine
	names   map[string]struct{}
	limit   int
}

// NewGroup creates a group running at most limit refreshes at once.
// A limit of zero or less means no limit.
func NewGroup(limit int) *Group {
	return &Group{
		names: make(map[string]struct{}),
		limit: limit,
	}
}

// Add registers an engine. Engine names must be unique within a group.
func (g *Group) Add(e *Engine) error {
	if e == nil {
		return fmt.Errorf("%w: nil engine", errs.ErrInvalidConfig)
	}
	if _, dup := g.names[e.Name()]; dup {
		return fmt.Errorf("%w: duplicate track %q", errs.ErrInvalidConfig, e.Name())
	}
	g.names[e.Name()] = struct{}{}
	g.engines = append(g.engines, e)

	return nil
}

// Len returns the number of engines.
func (g *Group) Len() int { return len(g.engines) }

// OnBoundsChange calls OnBoundsChange on every engine and returns the
// frames in registration order. The first failure cancels the remaining
// refreshes and is returned.
func (g *Group) OnBoundsChange(ctx context.Context, start, end, resolution float64) ([]Result, error) {
	eg, ctx := errgroup.WithContext(ctx)
	if g.limit > 0 {
		eg.SetLimit(g.limit)
	}

	results := make([]Result, len(g.engines))
	for i, e := range g.engines {
		eg.Go(func() error {
			f, err := e.OnBoundsChange(ctx, start, end, resolution)
			if err != nil {
				return fmt.Errorf("track %s: %w", e.Name(), err)
			}
			results[i] = Result{Track: e.Name(), Frame: f}

			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

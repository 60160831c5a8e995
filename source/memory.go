package source

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/arloliu/spanq/bucket"
)

// Slice is a raw interval stored by Memory.
type Slice struct {
	ID       int64
	TrackID  int64
	Ts       int64
	Dur      int64
	Depth    uint32
	Name     string
	Category string
}

// Memory is an IntervalSource over slices held in memory.
//
// It applies the same grouping rules as the SQL source, which makes it the
// reference implementation for tests and demos. Memory is safe for
// concurrent use.
type Memory struct {
	mu     sync.RWMutex
	bounds Bounds
	slices []Slice
}

var _ IntervalSource = (*Memory)(nil)

// NewMemory creates a source with the given trace bounds and slices.
func NewMemory(bounds Bounds, items ...Slice) *Memory {
	m := &Memory{bounds: bounds}
	m.Add(items...)

	return m
}

// Add appends slices. Ties between equally long slices in one group are
// broken by insertion order.
func (m *Memory) Add(items ...Slice) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slices = append(m.slices, items...)
}

// ProbeMaxDuration implements IntervalSource.
func (m *Memory) ProbeMaxDuration(ctx context.Context, scope Scope) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		maxDur int64
		found  bool
	)
	for i := range m.slices {
		s := &m.slices[i]
		if !scope.Contains(s.TrackID) {
			continue
		}
		dur := bucket.EffectiveDuration(s.Ts, s.Dur, m.bounds.EndPs)
		if !found || dur > maxDur {
			maxDur = dur
			found = true
		}
	}

	return maxDur, found, nil
}

// TraceBounds implements IntervalSource.
func (m *Memory) TraceBounds(ctx context.Context) (Bounds, error) {
	if err := ctx.Err(); err != nil {
		return Bounds{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.bounds, nil
}

type groupKey struct {
	tsq   int64
	depth uint32
}

type group struct {
	key    groupKey
	effDur int64
	slice  *Slice
}

// FetchIntervals implements IntervalSource.
func (m *Memory) FetchIntervals(ctx context.Context, q Query) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	groups := make(map[groupKey]*group)
	for i := range m.slices {
		s := &m.slices[i]
		if !q.Scope.Contains(s.TrackID) || s.Ts < q.WindowStartPs || s.Ts > q.WindowEndPs {
			continue
		}

		key := groupKey{tsq: bucket.QuantizeStart(s.Ts, q.BucketPs), depth: s.Depth}
		dur := bucket.EffectiveDuration(s.Ts, s.Dur, m.bounds.EndPs)
		if g, ok := groups[key]; !ok {
			groups[key] = &group{key: key, effDur: dur, slice: s}
		} else if dur > g.effDur {
			g.effDur = dur
			g.slice = s
		}
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	slices.SortFunc(ordered, func(a, b *group) int {
		if c := cmp.Compare(a.key.tsq, b.key.tsq); c != 0 {
			return c
		}

		return cmp.Compare(a.key.depth, b.key.depth)
	})

	rows := make([]Row, len(ordered))
	for i, g := range ordered {
		rows[i] = Row{
			ID:    g.slice.ID,
			Ts:    g.slice.Ts,
			Dur:   g.slice.Dur,
			Depth: g.slice.Depth,
			Name:  g.slice.Name,
		}
		if q.WithCategory {
			rows[i].Category = g.slice.Category
		}
	}

	return rows, nil
}

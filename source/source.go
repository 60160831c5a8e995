// Package source defines the interval source consumed by the span engine
// and provides an in-memory implementation.
//
// A source owns the grouping arithmetic: FetchIntervals returns one row per
// (quantized bucket start, depth) pair, choosing the slice with the largest
// effective duration as the group's representative, ordered ascending by
// bucket start and then depth. The engine only quantizes, interns and packs.
package source

import (
	"context"
	"strconv"
	"strings"
)

// Row is one grouped interval as returned by FetchIntervals.
type Row struct {
	ID    int64  // source slice id
	Ts    int64  // start, picoseconds
	Dur   int64  // duration, picoseconds; bucket.OpenDuration when still running
	Depth uint32 // nesting level
	Name  string
	// Category is the tag used by category color policies. Empty when the
	// query did not ask for categories or the slice has none.
	Category string
}

// Scope is the opaque set of track ids a source filters on.
type Scope struct {
	TrackIDs []int64
}

// NewScope builds a scope from track ids.
func NewScope(trackIDs ...int64) Scope {
	return Scope{TrackIDs: trackIDs}
}

// String renders the comma-joined id list used as the filter key.
func (s Scope) String() string {
	var sb strings.Builder
	for i, id := range s.TrackIDs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(id, 10))
	}

	return sb.String()
}

// Contains reports whether trackID is part of the scope.
func (s Scope) Contains(trackID int64) bool {
	for _, id := range s.TrackIDs {
		if id == trackID {
			return true
		}
	}

	return false
}

// Bounds is the overall time span of a trace in picoseconds.
type Bounds struct {
	StartPs int64
	EndPs   int64
}

// Query describes one grouped interval fetch.
type Query struct {
	Scope         Scope
	WindowStartPs int64 // inclusive lower bound on slice start
	WindowEndPs   int64 // inclusive upper bound on slice start
	BucketPs      int64
	WithCategory  bool
}

// IntervalSource is the query engine the span engine reads from.
//
// Implementations must be safe to call sequentially from one goroutine per
// engine; sharing a source between engines requires it to be safe for
// concurrent use.
type IntervalSource interface {
	// ProbeMaxDuration returns the largest effective duration over all
	// slices in scope, with open slices measured to the trace end.
	// ok is false when the scope has no slices.
	ProbeMaxDuration(ctx context.Context, scope Scope) (maxDur int64, ok bool, err error)

	// TraceBounds returns the trace time span.
	TraceBounds(ctx context.Context) (Bounds, error)

	// FetchIntervals returns the grouped rows for q.
	FetchIntervals(ctx context.Context, q Query) ([]Row, error)
}

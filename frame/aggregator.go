package frame

import (
	"math"

	"github.com/arloliu/spanq/bucket"
	"github.com/arloliu/spanq/color"
	"github.com/arloliu/spanq/internal/intern"
	"github.com/arloliu/spanq/source"
)

// TimeConverter converts picoseconds to the caller's time unit.
type TimeConverter func(ps int64) float64

// Params configures one aggregation pass.
type Params struct {
	// Start, End and Resolution are echoed into the frame unchanged.
	Start      float64
	End        float64
	Resolution float64

	BucketPs   int64
	TraceEndPs int64 // substituted for the end of open slices

	// Policy selects the color key per row. Nil paints every row green.
	Policy color.Policy
	// Convert maps quantized picoseconds to output units. Nil means seconds.
	Convert TimeConverter
}

// Aggregate quantizes grouped rows into a new Frame.
//
// rows must already be grouped by (bucket start, depth) and ordered as they
// should be drawn; Aggregate keeps that order. Every column is sized to
// len(rows) up front and filled by index. Aggregate does not retain rows.
func Aggregate(rows []source.Row, p Params) *Frame {
	policy := p.Policy
	if policy == nil {
		policy = color.Fixed(color.Green)
	}
	convert := p.Convert
	if convert == nil {
		convert = bucket.FromPs
	}

	n := len(rows)
	f := newFrame(n)
	f.Start = p.Start
	f.End = p.End
	f.Resolution = p.Resolution
	f.BucketPs = p.BucketPs
	if n == 0 {
		return f
	}

	strs := intern.New(n/4 + 2)

	// A fixed color is interned once ahead of the titles.
	var (
		fixedIdx uint32
		isFixed  bool
	)
	if fixed, ok := policy.(color.FixedPolicy); ok {
		fixedIdx = strs.Intern(fixed.Key())
		isFixed = true
	}

	for i := range rows {
		row := &rows[i]

		tsq := bucket.QuantizeStart(row.Ts, p.BucketPs)
		endq := bucket.QuantizeEnd(row.Ts, tsq, row.Dur, p.BucketPs, p.TraceEndPs)

		f.SliceIDs[i] = row.ID
		f.Starts[i] = convert(tsq)
		f.Ends[i] = convert(endq)
		// Buckets narrower than one ulp of the output unit collapse after
		// conversion; keep the interval non-empty.
		if !(f.Starts[i] < f.Ends[i]) {
			f.Ends[i] = math.Nextafter(f.Starts[i], math.Inf(1))
		}
		f.Depths[i] = row.Depth
		f.Titles[i] = strs.Intern(row.Name)
		if isFixed {
			f.Colors[i] = fixedIdx
		} else {
			f.Colors[i] = strs.Intern(policy.Color(row))
		}
		if row.Dur == 0 {
			f.IsInstant[i] = 1
		}
		if row.Dur == bucket.OpenDuration {
			f.IsIncomplete[i] = 1
		}
	}
	f.Strings = strs.Strings()

	return f
}

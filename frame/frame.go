// Package frame holds the columnar output of the span engine and the row
// aggregator that builds it.
//
// A Frame stores one logical row per index across parallel columns, the
// layout a renderer can iterate without per-row allocations:
//
//	for i := 0; i < f.Len(); i++ {
//	    draw(f.Starts[i], f.Ends[i], f.Depths[i], f.Strings[f.Titles[i]], f.Strings[f.Colors[i]])
//	}
//
// Frames are immutable once returned. The frame codec (Encode, Decode)
// serializes them for caching or for shipping to a renderer process.
package frame

import (
	"fmt"
	"math"

	"github.com/arloliu/spanq/errs"
	"github.com/arloliu/spanq/internal/hash"
)

// Frame is the quantized, columnar result of one bounds change.
type Frame struct {
	// Start, End and Resolution echo the request so callers can match a
	// frame to the viewport it was built for.
	Start      float64
	End        float64
	Resolution float64
	// BucketPs is the quantization bucket the frame was built with.
	BucketPs int64

	// Strings is the interned string table; Titles and Colors index into it.
	Strings []string

	SliceIDs     []int64
	Starts       []float64 // quantized start, seconds
	Ends         []float64 // quantized end, seconds
	Depths       []uint32
	Titles       []uint32
	Colors       []uint32
	IsInstant    []uint8 // 1 when the slice had zero duration
	IsIncomplete []uint8 // 1 when the slice had not ended
}

// newFrame allocates every column with exactly n rows.
func newFrame(n int) *Frame {
	return &Frame{
		Strings:      []string{},
		SliceIDs:     make([]int64, n),
		Starts:       make([]float64, n),
		Ends:         make([]float64, n),
		Depths:       make([]uint32, n),
		Titles:       make([]uint32, n),
		Colors:       make([]uint32, n),
		IsInstant:    make([]uint8, n),
		IsIncomplete: make([]uint8, n),
	}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.SliceIDs)
}

// Title returns the title string of row i.
func (f *Frame) Title(i int) string {
	return f.Strings[f.Titles[i]]
}

// ColorKey returns the color key of row i.
func (f *Frame) ColorKey(i int) string {
	return f.Strings[f.Colors[i]]
}

// Matches reports whether the frame was built for exactly this request.
func (f *Frame) Matches(start, end, resolution float64) bool {
	return f.Start == start && f.End == end && f.Resolution == resolution
}

// Validate checks the structural invariants of the frame: equal column
// lengths, a duplicate-free string table, in-range string indices and
// non-empty quantized intervals.
func (f *Frame) Validate() error {
	n := f.Len()
	lengths := []struct {
		name string
		len  int
	}{
		{"starts", len(f.Starts)},
		{"ends", len(f.Ends)},
		{"depths", len(f.Depths)},
		{"titles", len(f.Titles)},
		{"colors", len(f.Colors)},
		{"isInstant", len(f.IsInstant)},
		{"isIncomplete", len(f.IsIncomplete)},
	}
	for _, col := range lengths {
		if col.len != n {
			return fmt.Errorf("%w: %s has %d rows, want %d", errs.ErrColumnLengthMismatch, col.name, col.len, n)
		}
	}

	seen := make(map[string]struct{}, len(f.Strings))
	for _, s := range f.Strings {
		if _, dup := seen[s]; dup {
			return fmt.Errorf("%w: %q", errs.ErrDuplicateString, s)
		}
		seen[s] = struct{}{}
	}

	numStrings := uint32(len(f.Strings)) //nolint: gosec
	for i := 0; i < n; i++ {
		if f.Titles[i] >= numStrings {
			return fmt.Errorf("%w: title %d at row %d, table has %d", errs.ErrInvalidStringIndex, f.Titles[i], i, numStrings)
		}
		if f.Colors[i] >= numStrings {
			return fmt.Errorf("%w: color %d at row %d, table has %d", errs.ErrInvalidStringIndex, f.Colors[i], i, numStrings)
		}
		if !(f.Starts[i] < f.Ends[i]) {
			return fmt.Errorf("%w: row %d spans [%v, %v)", errs.ErrEmptyBucket, i, f.Starts[i], f.Ends[i])
		}
	}

	return nil
}

// Fingerprint hashes the frame contents, request parameters included.
// Two frames built from the same rows and request have equal fingerprints.
func (f *Frame) Fingerprint() uint64 {
	d := hash.NewDigest()
	d.Uint64(math.Float64bits(f.Start))
	d.Uint64(math.Float64bits(f.End))
	d.Uint64(math.Float64bits(f.Resolution))
	d.Uint64(uint64(f.BucketPs)) //nolint: gosec

	d.Uint64(uint64(len(f.Strings)))
	for _, s := range f.Strings {
		d.String(s)
	}

	n := f.Len()
	d.Uint64(uint64(n)) //nolint: gosec
	for i := 0; i < n; i++ {
		d.Uint64(uint64(f.SliceIDs[i])) //nolint: gosec
		d.Uint64(math.Float64bits(f.Starts[i]))
		d.Uint64(math.Float64bits(f.Ends[i]))
		d.Uint64(uint64(f.Depths[i]))
		d.Uint64(uint64(f.Titles[i])<<32 | uint64(f.Colors[i]))
		d.Uint64(uint64(f.IsInstant[i])<<8 | uint64(f.IsIncomplete[i]))
	}

	return d.Sum64()
}

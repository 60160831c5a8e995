package bucket

import "math"

const (
	// OpenDuration marks a slice that has not ended yet. It is rendered as
	// extending to the end of the trace.
	OpenDuration int64 = -1

	// PsPerSecond is the number of picoseconds in one second.
	PsPerSecond = 1e12

	// MaxSize is the largest even int64, the saturation value of Size.
	MaxSize int64 = math.MaxInt64 - 1
)

// Size returns the bucket width in picoseconds for a resolution given in
// seconds per pixel and a device pixel size.
//
// The result is round(resolution * 1e12 * pixelSize / 2) * 2, floored at 1.
// Zero, negative and NaN inputs yield 1; results beyond int64 saturate to
// MaxSize.
func Size(resolution, pixelSize float64) int64 {
	half := math.Floor(resolution*PsPerSecond*pixelSize/2 + 0.5)
	if math.IsNaN(half) || half < 1 {
		return 1
	}
	if half >= float64(MaxSize/2) {
		return MaxSize
	}

	return int64(half) * 2
}

// QuantizeStart snaps ts to the boundary of the bucket whose center is
// nearest: floor((ts + b/2) / b) * b.
func QuantizeStart(ts, b int64) int64 {
	b = normalize(b)
	return floorDiv(ts+b/2, b) * b
}

// QuantizeEnd computes the quantized end of a slice starting at ts with
// duration dur, where tsq is QuantizeStart(ts, b).
//
// An OpenDuration is replaced by traceEnd - ts. The result is
// floor((ts + dur + b/2 - 1) / b) * b, raised to tsq + b when smaller.
func QuantizeEnd(ts, tsq, dur, b, traceEnd int64) int64 {
	b = normalize(b)
	if dur == OpenDuration {
		dur = traceEnd - ts
	}

	endq := floorDiv(ts+dur+b/2-1, b) * b
	if minEnd := tsq + b; endq < minEnd {
		endq = minEnd
	}

	return endq
}

// EffectiveDuration returns dur with OpenDuration replaced by traceEnd - ts.
func EffectiveDuration(ts, dur, traceEnd int64) int64 {
	if dur == OpenDuration {
		return traceEnd - ts
	}

	return dur
}

// ToPs converts seconds to picoseconds, rounding half up.
func ToPs(seconds float64) int64 {
	return int64(math.Floor(seconds*PsPerSecond + 0.5))
}

// FromPs converts picoseconds to seconds.
func FromPs(ps int64) float64 {
	return float64(ps) / PsPerSecond
}

func normalize(b int64) int64 {
	if b < 1 {
		return 1
	}

	return b
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}

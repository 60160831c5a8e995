// Package bucket quantizes picosecond intervals to screen-resolution buckets.
//
// A bucket is roughly one device pixel wide at the current zoom level. Bucket
// widths are always even and at least one picosecond, so half a bucket is an
// integer and no caller can divide by zero:
//
//	b := bucket.Size(resolution, pixelSize)
//	tsq := bucket.QuantizeStart(ts, b)
//	endq := bucket.QuantizeEnd(ts, tsq, dur, b, traceEndPs)
//
// Start edges snap to the nearest bucket boundary. End edges use
// floor((end + b/2 - 1) / b) * b and are then clamped so every quantized
// slice spans at least one full bucket. The arithmetic is exact integer
// arithmetic with floored division; rounding of the float inputs is
// round-half-up.
package bucket

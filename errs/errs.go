// Package errs defines the sentinel errors returned by spanq packages.
//
// Call sites wrap these with fmt.Errorf("%w: ...") to add context, so callers
// should match them with errors.Is rather than by equality.
package errs

import "errors"

// Source errors.
var (
	// ErrSourceUnavailable is returned when the interval source cannot be queried.
	// The whole request failed and nothing was produced; the caller may retry it.
	ErrSourceUnavailable = errors.New("interval source unavailable")
	// ErrInvalidWindow is returned when a viewport is not finite or ends before it starts.
	ErrInvalidWindow = errors.New("invalid viewport window")
)

// Frame validation errors.
var (
	ErrColumnLengthMismatch = errors.New("frame column length mismatch")
	ErrInvalidStringIndex   = errors.New("string index out of range")
	ErrDuplicateString      = errors.New("duplicate string table entry")
	ErrEmptyBucket          = errors.New("quantized slice does not span a bucket")
	ErrTooManyStrings       = errors.New("string table exceeds maximum size")
)

// Frame codec errors.
var (
	ErrInvalidHeaderSize  = errors.New("invalid header size")
	ErrInvalidMagicNumber = errors.New("invalid magic number")
	ErrInvalidHeaderFlags = errors.New("invalid header flags")
	ErrChecksumMismatch   = errors.New("frame checksum mismatch")
	ErrTruncatedPayload   = errors.New("truncated frame payload")
)

// Configuration errors.
var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrUnknownTrackKind = errors.New("unknown track kind")
)

// IsRetryable reports whether err was caused by a transient source failure,
// in which case the whole request may be issued again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

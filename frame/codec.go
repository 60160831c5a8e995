package frame

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arloliu/spanq/compress"
	"github.com/arloliu/spanq/endian"
	"github.com/arloliu/spanq/errs"
	"github.com/arloliu/spanq/format"
	"github.com/arloliu/spanq/internal/hash"
	"github.com/arloliu/spanq/internal/options"
	"github.com/arloliu/spanq/internal/pool"
	"github.com/arloliu/spanq/section"
)

// EncoderConfig holds the frame codec settings.
type EncoderConfig struct {
	compression format.CompressionType
	bigEndian   bool
}

// EncodeOption configures Encode.
type EncodeOption = options.Option[*EncoderConfig]

// WithCompression selects the payload compression. The default is none.
func WithCompression(c format.CompressionType) EncodeOption {
	return options.New(func(cfg *EncoderConfig) error {
		if !c.IsValid() {
			return fmt.Errorf("invalid frame compression: %s", c)
		}
		cfg.compression = c

		return nil
	})
}

// WithBigEndian writes header fields and columns in big-endian order.
func WithBigEndian() EncodeOption {
	return options.NoError(func(cfg *EncoderConfig) {
		cfg.bigEndian = true
	})
}

// WithLittleEndian writes little-endian output. It is the default.
func WithLittleEndian() EncodeOption {
	return options.NoError(func(cfg *EncoderConfig) {
		cfg.bigEndian = false
	})
}

// WithNativeEndian writes output in the host byte order.
func WithNativeEndian() EncodeOption {
	return options.NoError(func(cfg *EncoderConfig) {
		cfg.bigEndian = !endian.IsNativeLittleEndian()
	})
}

// Encode serializes a valid frame into the binary frame format described in
// package section.
func Encode(f *Frame, opts ...EncodeOption) ([]byte, error) {
	cfg := &EncoderConfig{compression: format.CompressionNone}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	n := f.Len()
	if uint64(len(f.Strings)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d strings", errs.ErrTooManyStrings, len(f.Strings))
	}
	if uint64(n) > math.MaxUint32 {
		return nil, fmt.Errorf("frame of %d rows exceeds the format limit", n)
	}

	header := section.NewFrameHeader()
	if cfg.bigEndian {
		header.Flag.WithBigEndian()
	}
	header.Flag.SetCompression(cfg.compression)
	header.RowCount = uint32(n)                 //nolint: gosec
	header.StringCount = uint32(len(f.Strings)) //nolint: gosec
	header.BucketPs = f.BucketPs
	engine := header.GetEndianEngine()

	buf := pool.GetFrameBuffer()
	defer pool.PutFrameBuffer(buf)

	stringBytes := 0
	for _, s := range f.Strings {
		stringBytes += binary.MaxVarintLen32 + len(s)
	}
	buf.Grow(section.PreambleSize + stringBytes + n*section.RowSize)

	b := buf.B
	b = endian.AppendFloat64(engine, b, f.Start)
	b = endian.AppendFloat64(engine, b, f.End)
	b = endian.AppendFloat64(engine, b, f.Resolution)
	for _, s := range f.Strings {
		b = binary.AppendUvarint(b, uint64(len(s)))
		b = append(b, s...)
	}
	for _, id := range f.SliceIDs {
		b = engine.AppendUint64(b, uint64(id)) //nolint: gosec
	}
	for _, v := range f.Starts {
		b = endian.AppendFloat64(engine, b, v)
	}
	for _, v := range f.Ends {
		b = endian.AppendFloat64(engine, b, v)
	}
	for _, cols := range [][]uint32{f.Depths, f.Titles, f.Colors} {
		for _, v := range cols {
			b = engine.AppendUint32(b, v)
		}
	}
	b = append(b, f.IsInstant...)
	b = append(b, f.IsIncomplete...)
	buf.B = b

	payload := buf.Bytes()
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, fmt.Errorf("frame payload of %d bytes exceeds the format limit", len(payload))
	}
	header.PayloadSize = uint32(len(payload)) //nolint: gosec
	header.Checksum = hash.Checksum(payload)

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, err
	}
	packed, err := codec.Compress(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to compress frame payload: %w", err)
	}

	out := make([]byte, 0, section.HeaderSize+len(packed))
	out = append(out, header.Bytes()...)
	out = append(out, packed...)

	return out, nil
}

// DecodeHeader parses only the header of an encoded frame.
func DecodeHeader(data []byte) (*section.FrameHeader, error) {
	if len(data) < section.HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", errs.ErrInvalidHeaderSize, len(data))
	}

	header := &section.FrameHeader{}
	if err := header.Parse(data[:section.HeaderSize]); err != nil {
		return nil, err
	}

	return header, nil
}

// Decode parses a frame produced by Encode and validates it.
func Decode(data []byte) (*Frame, error) {
	f, _, err := DecodeWithHeader(data)

	return f, err
}

// DecodeWithHeader is Decode that also returns the parsed header.
func DecodeWithHeader(data []byte) (*Frame, *section.FrameHeader, error) {
	header, err := DecodeHeader(data)
	if err != nil {
		return nil, nil, err
	}

	codec, err := compress.GetCodec(header.Flag.GetCompression())
	if err != nil {
		return nil, nil, err
	}
	payload, err := compress.DecompressSized(codec, data[section.HeaderSize:], int(header.PayloadSize))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", errs.ErrTruncatedPayload, err)
	}
	if len(payload) != int(header.PayloadSize) {
		return nil, nil, fmt.Errorf("%w: payload has %d bytes, header says %d",
			errs.ErrTruncatedPayload, len(payload), header.PayloadSize)
	}
	if sum := hash.Checksum(payload); sum != header.Checksum {
		return nil, nil, fmt.Errorf("%w: got 0x%016x, want 0x%016x", errs.ErrChecksumMismatch, sum, header.Checksum)
	}

	n := int(header.RowCount)
	if uint64(section.PreambleSize)+uint64(n)*section.RowSize > uint64(len(payload)) {
		return nil, nil, fmt.Errorf("%w: %d rows do not fit in %d bytes", errs.ErrTruncatedPayload, n, len(payload))
	}

	r := &payloadReader{b: payload, engine: header.GetEndianEngine()}
	f := newFrame(n)
	f.BucketPs = header.BucketPs
	f.Start = r.f64()
	f.End = r.f64()
	f.Resolution = r.f64()

	f.Strings = make([]string, 0, min(int(header.StringCount), len(payload)))
	for i := uint32(0); i < header.StringCount && r.err == nil; i++ {
		f.Strings = append(f.Strings, r.str())
	}
	if r.err == nil && len(r.b) != n*section.RowSize {
		r.err = fmt.Errorf("%w: %d column bytes, want %d", errs.ErrTruncatedPayload, len(r.b), n*section.RowSize)
	}
	if r.err != nil {
		return nil, nil, r.err
	}

	for i := 0; i < n; i++ {
		f.SliceIDs[i] = int64(r.u64()) //nolint: gosec
	}
	for i := 0; i < n; i++ {
		f.Starts[i] = r.f64()
	}
	for i := 0; i < n; i++ {
		f.Ends[i] = r.f64()
	}
	for _, col := range [][]uint32{f.Depths, f.Titles, f.Colors} {
		for i := 0; i < n; i++ {
			col[i] = r.u32()
		}
	}
	copy(f.IsInstant, r.bytes(n))
	copy(f.IsIncomplete, r.bytes(n))
	if r.err != nil {
		return nil, nil, r.err
	}

	if err := f.Validate(); err != nil {
		return nil, nil, err
	}

	return f, header, nil
}

// payloadReader consumes a payload front to back. The first short read
// sets err and turns every later read into a zero value.
type payloadReader struct {
	b      []byte
	engine endian.EndianEngine
	err    error
}

func (r *payloadReader) take(size int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.b) < size {
		r.err = fmt.Errorf("%w: need %d bytes, have %d", errs.ErrTruncatedPayload, size, len(r.b))
		return nil
	}
	out := r.b[:size]
	r.b = r.b[size:]

	return out
}

func (r *payloadReader) u64() uint64 {
	if b := r.take(8); b != nil {
		return r.engine.Uint64(b)
	}

	return 0
}

func (r *payloadReader) u32() uint32 {
	if b := r.take(4); b != nil {
		return r.engine.Uint32(b)
	}

	return 0
}

func (r *payloadReader) f64() float64 {
	if b := r.take(8); b != nil {
		return endian.Float64(r.engine, b)
	}

	return 0
}

func (r *payloadReader) bytes(n int) []byte {
	return r.take(n)
}

func (r *payloadReader) str() string {
	if r.err != nil {
		return ""
	}
	length, k := binary.Uvarint(r.b)
	if k <= 0 {
		r.err = fmt.Errorf("%w: bad string length", errs.ErrTruncatedPayload)
		return ""
	}
	r.b = r.b[k:]
	if length > uint64(len(r.b)) {
		r.err = fmt.Errorf("%w: string of %d bytes, have %d", errs.ErrTruncatedPayload, length, len(r.b))
		return ""
	}

	return string(r.take(int(length)))
}

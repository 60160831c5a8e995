package section

import (
	"github.com/arloliu/spanq/endian"
	"github.com/arloliu/spanq/errs"
)

// FrameHeader is the 32-byte header of an encoded frame.
type FrameHeader struct {
	Flag        FrameFlag // offset 0-3
	RowCount    uint32    // offset 4-7
	StringCount uint32    // offset 8-11
	PayloadSize uint32    // offset 12-15, uncompressed payload bytes
	Checksum    uint64    // offset 16-23, xxHash64 of the uncompressed payload
	BucketPs    int64     // offset 24-31
}

// NewFrameHeader returns a header with a default flag.
func NewFrameHeader() *FrameHeader {
	return &FrameHeader{Flag: NewFrameFlag()}
}

// GetEndianEngine returns the engine matching the header's byte order.
func (h *FrameHeader) GetEndianEngine() endian.EndianEngine {
	if h.Flag.IsBigEndian() {
		return endian.GetBigEndianEngine()
	}

	return endian.GetLittleEndianEngine()
}

// Bytes serializes the header.
func (h *FrameHeader) Bytes() []byte {
	b := make([]byte, HeaderSize)
	engine := h.GetEndianEngine()

	// Options is always little-endian.
	b[0] = byte(h.Flag.Options)
	b[1] = byte(h.Flag.Options >> 8)
	b[2] = h.Flag.Compression
	b[3] = h.Flag.Reserved
	engine.PutUint32(b[4:8], h.RowCount)
	engine.PutUint32(b[8:12], h.StringCount)
	engine.PutUint32(b[12:16], h.PayloadSize)
	engine.PutUint64(b[16:24], h.Checksum)
	engine.PutUint64(b[24:32], uint64(h.BucketPs)) //nolint: gosec

	return b
}

// Parse reads a header from exactly HeaderSize bytes and validates its flag.
func (h *FrameHeader) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	h.Flag.Options = uint16(data[0]) | uint16(data[1])<<8
	h.Flag.Compression = data[2]
	h.Flag.Reserved = data[3]
	if err := h.Flag.Validate(); err != nil {
		return err
	}

	engine := h.GetEndianEngine()
	h.RowCount = engine.Uint32(data[4:8])
	h.StringCount = engine.Uint32(data[8:12])
	h.PayloadSize = engine.Uint32(data[12:16])
	h.Checksum = engine.Uint64(data[16:24])
	h.BucketPs = int64(engine.Uint64(data[24:32])) //nolint: gosec

	return nil
}

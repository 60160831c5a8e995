package section

import (
	"github.com/arloliu/spanq/errs"
	"github.com/arloliu/spanq/format"
)

// FrameFlag is the packed flag word at the start of a frame header.
type FrameFlag struct {
	// Options packs the byte order (bit 1) and the magic number (bits 4-15).
	Options uint16
	// Compression is the format.CompressionType of the payload.
	Compression uint8
	// Reserved must be zero.
	Reserved uint8
}

// NewFrameFlag returns a little-endian, uncompressed flag.
func NewFrameFlag() FrameFlag {
	return FrameFlag{
		Options:     MagicFrameV1Opt,
		Compression: uint8(format.CompressionNone),
	}
}

func (f FrameFlag) IsBigEndian() bool {
	return (f.Options & EndiannessMask) != 0
}

func (f *FrameFlag) WithLittleEndian() {
	f.Options &^= EndiannessMask
}

func (f *FrameFlag) WithBigEndian() {
	f.Options |= EndiannessMask
}

// GetMagicNumber returns the magic number bits.
func (f FrameFlag) GetMagicNumber() uint16 {
	return f.Options & MagicNumberMask
}

func (f *FrameFlag) SetCompression(c format.CompressionType) {
	f.Compression = uint8(c)
}

func (f FrameFlag) GetCompression() format.CompressionType {
	return format.CompressionType(f.Compression)
}

// Validate checks the magic number, reserved bits and compression type.
func (f FrameFlag) Validate() error {
	if f.GetMagicNumber() != MagicFrameV1Opt {
		return errs.ErrInvalidMagicNumber
	}
	if (f.Options&ReservedBitsMask) != 0 || f.Reserved != 0 {
		return errs.ErrInvalidHeaderFlags
	}
	if !f.GetCompression().IsValid() {
		return errs.ErrInvalidHeaderFlags
	}

	return nil
}

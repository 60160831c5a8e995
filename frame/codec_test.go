package frame

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/spanq/color"
	"github.com/arloliu/spanq/endian"
	"github.com/arloliu/spanq/errs"
	"github.com/arloliu/spanq/format"
	"github.com/arloliu/spanq/section"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	big := Aggregate(randomRows(rand.New(rand.NewPCG(7, 8)), 1000), Params{
		Start: 0, End: 1e-6, Resolution: 1e-9,
		BucketPs: 1000, TraceEndPs: 2_000_000, Policy: color.Jank(),
	})
	frames := map[string]*Frame{
		"sample": sampleFrame(),
		"empty":  Aggregate(nil, Params{Start: 1, End: 2, Resolution: 1e-3, BucketPs: 2}),
		"large":  big,
	}
	compressions := []format.CompressionType{
		format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4,
	}

	for name, f := range frames {
		for _, c := range compressions {
			for _, bigEndian := range []bool{false, true} {
				opts := []EncodeOption{WithCompression(c)}
				order := "le"
				if bigEndian {
					opts = append(opts, WithBigEndian())
					order = "be"
				}

				t.Run(name+"/"+c.String()+"/"+order, func(t *testing.T) {
					data, err := Encode(f, opts...)
					require.NoError(t, err)

					header, err := DecodeHeader(data)
					require.NoError(t, err)
					require.Equal(t, c, header.Flag.GetCompression())
					require.Equal(t, bigEndian, header.Flag.IsBigEndian())
					require.Equal(t, uint32(f.Len()), header.RowCount) //nolint: gosec
					require.Equal(t, f.BucketPs, header.BucketPs)

					got, err := Decode(data)
					require.NoError(t, err)
					require.Equal(t, f, got)
					require.Equal(t, f.Fingerprint(), got.Fingerprint())
				})
			}
		}
	}
}

func TestEncode_Errors(t *testing.T) {
	_, err := Encode(sampleFrame(), WithCompression(format.CompressionType(99)))
	require.Error(t, err)

	bad := sampleFrame()
	bad.Titles[0] = 42
	_, err = Encode(bad)
	require.ErrorIs(t, err, errs.ErrInvalidStringIndex)
}

func TestDecode_Corruption(t *testing.T) {
	valid, err := Encode(sampleFrame())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(b []byte) []byte
		want   error
	}{
		{"short header", func(b []byte) []byte { return b[:10] }, errs.ErrInvalidHeaderSize},
		{"bad magic", func(b []byte) []byte { b[1] ^= 0xFF; return b }, errs.ErrInvalidMagicNumber},
		{"reserved bits", func(b []byte) []byte { b[0] |= 0x01; return b }, errs.ErrInvalidHeaderFlags},
		{"unknown compression", func(b []byte) []byte { b[2] = 42; return b }, errs.ErrInvalidHeaderFlags},
		{"flipped payload byte", func(b []byte) []byte { b[len(b)-1] ^= 0xFF; return b }, errs.ErrChecksumMismatch},
		{"truncated payload", func(b []byte) []byte { return b[:len(b)-5] }, errs.ErrTruncatedPayload},
		{"inflated row count", func(b []byte) []byte { b[4] = 0xFF; b[5] = 0xFF; return b }, errs.ErrTruncatedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), valid...))
			_, err := Decode(data)
			require.ErrorIs(t, err, tt.want)

			f, header, err := DecodeWithHeader(data)
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, f)
			require.Nil(t, header)
		})
	}
}

func TestEncode_HeaderLayout(t *testing.T) {
	data, err := Encode(sampleFrame())
	require.NoError(t, err)
	require.Greater(t, len(data), section.HeaderSize)

	header, err := DecodeHeader(data)
	require.NoError(t, err)
	require.Equal(t, uint32(3), header.StringCount)
	require.Equal(t, uint32(len(data)-section.HeaderSize), header.PayloadSize) //nolint: gosec
}

func TestDecodeWithHeader(t *testing.T) {
	data, err := Encode(sampleFrame(), WithCompression(format.CompressionLZ4), WithBigEndian())
	require.NoError(t, err)

	f, header, err := DecodeWithHeader(data)
	require.NoError(t, err)

	want, err := DecodeHeader(data)
	require.NoError(t, err)
	require.Equal(t, want, header)
	require.True(t, header.Flag.IsBigEndian())
	require.Equal(t, format.CompressionLZ4, header.Flag.GetCompression())
	require.Equal(t, sampleFrame().Fingerprint(), f.Fingerprint())
}

func TestEncode_NativeEndian(t *testing.T) {
	data, err := Encode(sampleFrame(), WithBigEndian(), WithNativeEndian())
	require.NoError(t, err)

	header, err := DecodeHeader(data)
	require.NoError(t, err)
	require.True(t, endian.CompareNativeEndian(header.GetEndianEngine()))
	require.Equal(t, !endian.IsNativeLittleEndian(), header.Flag.IsBigEndian())
}

func BenchmarkEncode(b *testing.B) {
	f := Aggregate(randomRows(rand.New(rand.NewPCG(9, 10)), 10_000), Params{BucketPs: 1000, Policy: color.Jank()})

	b.ReportAllocs()
	for b.Loop() {
		if _, err := Encode(f, WithCompression(format.CompressionS2)); err != nil {
			b.Fatal(err)
		}
	}
}

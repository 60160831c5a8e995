package compress

// ZstdCompressor compresses with Zstandard. It gives the best ratio of the
// built-in codecs and suits frames cached on disk.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}

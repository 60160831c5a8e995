// Package compress provides the payload codecs of the frame encoder.
//
// An encoded frame is dominated by fixed-width columns: slice ids and
// float64 bounds that share long common prefixes, and small depth and string
// indices. General-purpose compression removes most of that redundancy:
//
//   - None: no compression, the payload is stored as is
//   - Zstd: best ratio, for frame caches on disk
//   - S2: balanced, for frames shipped between processes
//   - LZ4: fastest decompression, for renderers on the hot path
//
// Codecs are stateless values and are safe for concurrent use; Zstd and LZ4
// keep pooled encoder state internally.
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	packed, err := codec.Compress(payload)
//	payload, err = codec.Decompress(packed)
//
// Zstd uses klauspost/compress by default. Building with the cgo_zstd tag
// switches to the cgo binding of the reference library.
package compress

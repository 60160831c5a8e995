// Package section defines the fixed-size header of an encoded frame.
//
// An encoded frame is a 32-byte header followed by the (optionally
// compressed) columnar payload:
//
//	┌───────────────────────────────────────────────┐
//	│ Header (32 bytes, fixed)                      │
//	│  - Flag (4 bytes): magic, byte order, codec   │
//	│  - RowCount (4 bytes)                         │
//	│  - StringCount (4 bytes)                      │
//	│  - PayloadSize (4 bytes, uncompressed)        │
//	│  - Checksum (8 bytes, xxHash64 of payload)    │
//	│  - BucketPs (8 bytes)                         │
//	├───────────────────────────────────────────────┤
//	│ Payload (variable)                            │
//	│  - start, end, resolution (3 × float64)       │
//	│  - string table (uvarint length + bytes)      │
//	│  - sliceIds, starts, ends (N × 8 bytes each)  │
//	│  - depths, titles, colors (N × 4 bytes each)  │
//	│  - isInstant, isIncomplete (N × 1 byte each)  │
//	└───────────────────────────────────────────────┘
//
// The first two bytes (the Options field) are always little-endian so a
// reader can discover the byte order of the remaining fields.
package section

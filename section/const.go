package section

const (
	EndiannessMask   = 0x0002 // bit 1: 0=little, 1=big
	ReservedBitsMask = 0x000D // bits 0, 2, 3 must be zero
	MagicNumberMask  = 0xFFF0 // bits 4-15

	MagicFrameV1Opt = 0xEC10 // version 1 quantized frame
)

const (
	HeaderSize = 32 // fixed header size in bytes

	RowIDSize    = 8 // slice id
	RowTimeSize  = 8 // one float64 bound
	RowIndexSize = 4 // depth, title or color
	RowFlagSize  = 1 // isInstant or isIncomplete

	// RowSize is the fixed payload footprint of one row.
	RowSize = RowIDSize + 2*RowTimeSize + 3*RowIndexSize + 2*RowFlagSize

	// PreambleSize holds start, end and resolution.
	PreambleSize = 3 * RowTimeSize
)

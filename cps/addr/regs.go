package addr

// Register file layout. All fields are big-endian 16 bit words.
const (
	// RegisterFileSize is the size in bytes of the board register block.
	RegisterFileSize = 0x100
	// AuxSize is the size in bytes of the auxiliary register block copied
	// alongside every raster snapshot.
	AuxSize = 0x10
)

// scroll registers
const (
	// Scroll 1 X position.
	Scroll1X uint16 = 0x0C
	// Scroll 1 Y position.
	Scroll1Y uint16 = 0x0E
	// Scroll 2 X position.
	Scroll2X uint16 = 0x10
	// Scroll 2 Y position.
	Scroll2Y uint16 = 0x12
	// Scroll 3 X position.
	Scroll3X uint16 = 0x14
	// Scroll 3 Y position.
	Scroll3Y uint16 = 0x16
)

// beam-synchronized interrupt registers
const (
	// Control register. Bit 9 set disables beam-synchronized interrupts.
	Control uint16 = 0x4E
	// Primary trigger line. Bit 15 enables auto-repeat, bits 0-8 hold the line.
	PrimaryLine uint16 = 0x50
	// Secondary trigger line, same layout as PrimaryLine.
	SecondaryLine uint16 = 0x52
)

// Bit positions and masks within the interrupt registers.
const (
	BeamSyncDisableBit uint16 = 9
	AutoRepeatBit      uint16 = 15
	LineMask           uint16 = 0x01FF
)

// Interrupt levels asserted on the main processor.
type Interrupt int

const (
	// VBlankInterrupt is asserted once per frame at the start of vertical blank.
	VBlankInterrupt Interrupt = 2
	// RasterInterrupt is asserted by the beam-synchronized scheduler.
	RasterInterrupt Interrupt = 4
)

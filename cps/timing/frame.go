package timing

// Raster geometry of the board.
const (
	// FirstLine is the first scanline of the visible display.
	FirstLine = 0x10
	// ActiveLines is the number of visible scanlines.
	ActiveLines = 224
	// DefaultScanlines is the total number of scanlines in a frame.
	DefaultScanlines = 259
	// RepeatLines is the distance between two auto-repeated interrupts.
	RepeatLines = 32
)

// SpeedAdjustUnit is the fixed-point denominator of the speed adjustment
// factor: a factor of SpeedAdjustUnit runs the processor at nominal speed.
const SpeedAdjustUnit = 0x100

// Frame holds the cycle budget of a single video frame and converts
// scanline positions to cycle counts. It is recomputed at the start of every
// frame.
type Frame struct {
	Cycles    int
	Scanlines int
}

// ClockPerFrame converts a processor clock in Hz and a refresh rate in
// hundredths of Hz into processor cycles per frame.
func ClockPerFrame(clockHz, refreshRate int) int {
	if refreshRate <= 0 {
		return 0
	}
	return int(int64(clockHz) * 100 / int64(refreshRate))
}

// NewFrame returns the frame timing for the given per-frame clock, speed
// adjustment (fixed point, SpeedAdjustUnit = 1.0) and scanline count.
func NewFrame(clockPerFrame, speedAdjust, scanlines int) Frame {
	return Frame{
		Cycles:    int(int64(clockPerFrame) * int64(speedAdjust) / SpeedAdjustUnit),
		Scanlines: scanlines,
	}
}

// LineCycles returns the cycle count at which the given scanline starts.
func (f Frame) LineCycles(line int) int {
	return int(int64(f.Cycles) * int64(line) / int64(f.Scanlines))
}

// IrqCycles returns the cycle count at which an interrupt for the given
// scanline fires.
func (f Frame) IrqCycles(line int) int {
	return f.LineCycles(line) + 1
}

// NoIrq is the cycle count used when no interrupt remains in the frame.
func (f Frame) NoIrq() int {
	return f.Cycles + 1
}

// ScanlineCycles returns the width of one scanline in cycles.
func (f Frame) ScanlineCycles() int {
	return f.Cycles / f.Scanlines
}

// DisplayStart returns the cycle count at the first visible scanline.
func (f Frame) DisplayStart() int {
	return f.LineCycles(FirstLine)
}

// DisplayEnd returns the cycle count at the end of the visible display, where
// vertical blank begins.
func (f Frame) DisplayEnd() int {
	return f.LineCycles(FirstLine + ActiveLines)
}

// Segment returns the end of active display segment i out of n.
func (f Frame) Segment(i, n int) int {
	return int(int64(i+1) * int64(f.DisplayEnd()) / int64(n))
}

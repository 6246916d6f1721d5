package cpu

// IRQStatus selects how an interrupt line is driven.
type IRQStatus int

const (
	// IRQNone releases the line.
	IRQNone IRQStatus = iota
	// IRQAuto asserts the line until the processor acknowledges it, using the
	// automatic vector for the level.
	IRQAuto
)

func (s IRQStatus) String() string {
	switch s {
	case IRQNone:
		return "none"
	case IRQAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// Core is the main processor as seen by the frame executor. Every call other
// than Open must be bracketed by Open and Close.
type Core interface {
	// Open selects the processor context with the given id.
	Open(id int)
	// Close releases the selected context.
	Close()
	// Reset performs a hardware reset.
	Reset()
	// NewFrame resets the per-frame cycle accounting.
	NewFrame()
	// Run executes at least the given number of cycles and returns the
	// number actually executed. Instructions are never split, so the result
	// may exceed the request. A non-positive request executes nothing.
	Run(cycles int) int
	// Idle adds cycles to the frame total without executing anything. The
	// count may be negative.
	Idle(cycles int)
	// TotalCycles returns the cycles accounted for since NewFrame.
	TotalCycles() int
	// SetIRQLine drives the interrupt line for the given priority level.
	SetIRQLine(level int, status IRQStatus)
	// SetCyclesScanline tells the core how many cycles make up a scanline.
	SetCyclesScanline(cycles int)
}

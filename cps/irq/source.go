// Package irq schedules and dispatches the two beam-synchronized raster
// interrupts of the board.
//
// Each frame the interrupt registers are decoded into two Sources. The
// scheduler picks the earliest armed trigger line and converts it into a
// cycle count; the dispatcher fires it, captures the register state one
// scanline later, advances or exhausts the sources and schedules the next one.
package irq

import (
	"github.com/valerio/go-cps/cps/addr"
	"github.com/valerio/go-cps/cps/bit"
	"github.com/valerio/go-cps/cps/memory"
	"github.com/valerio/go-cps/cps/timing"
)

// Trigger is a decoded trigger line register.
type Trigger struct {
	AutoRepeat bool
	Line       int
}

// Control is the decoded state of the beam-synchronized interrupt registers.
type Control struct {
	// Disabled is the global beam-sync disable bit. Auto-repeating triggers
	// are armed regardless of it.
	Disabled  bool
	Primary   Trigger
	Secondary Trigger
}

// DecodeControl reads the interrupt control registers.
func DecodeControl(regs memory.WordReader) Control {
	return Control{
		Disabled:  bit.IsSet16(addr.BeamSyncDisableBit, regs.Read16(addr.Control)),
		Primary:   decodeTrigger(regs.Read16(addr.PrimaryLine)),
		Secondary: decodeTrigger(regs.Read16(addr.SecondaryLine)),
	}
}

func decodeTrigger(value uint16) Trigger {
	return Trigger{
		AutoRepeat: bit.IsSet16(addr.AutoRepeatBit, value),
		Line:       int(value & addr.LineMask),
	}
}

// Source is one of the two interrupt sources during a frame. A source whose
// Line equals the frame's scanline count is inactive.
type Source struct {
	AutoRepeat bool
	Line       int
}

func newSource(t Trigger, disabled bool, scanlines int) Source {
	s := Source{
		AutoRepeat: t.AutoRepeat,
		Line:       scanlines,
	}

	if t.AutoRepeat || !disabled {
		s.Line = clampLine(t.Line, scanlines)
	}

	return s
}

// exhaust deactivates the source for the rest of the frame.
func (s *Source) exhaust(scanlines int) {
	s.Line = scanlines
}

// repeat re-arms the source RepeatLines further down the frame.
func (s *Source) repeat(scanlines int) {
	s.Line = clampLine(s.Line+timing.RepeatLines, scanlines)
}

func clampLine(line, scanlines int) int {
	if line > scanlines {
		return scanlines
	}
	return line
}

package irq

import "github.com/valerio/go-cps/cps/timing"

// Scheduled is the next beam-synchronized interrupt of the frame.
type Scheduled struct {
	Line  int
	Cycle int
}

// State is the per-frame scheduler state shared by the frame executor, the
// scheduler and the dispatcher.
type State struct {
	Timing    timing.Frame
	Primary   Source
	Secondary Source
	Next      Scheduled
	// Interrupts counts the dispatches at or after the first visible line and
	// indexes the raster slot they write to.
	Interrupts int
}

// Begin resets the state for a new frame from the decoded control registers
// and schedules the first interrupt.
func (st *State) Begin(frame timing.Frame, c Control) {
	st.Timing = frame
	st.Interrupts = 0
	st.Primary = newSource(c.Primary, c.Disabled, frame.Scanlines)
	st.Secondary = newSource(c.Secondary, c.Disabled, frame.Scanlines)
	st.Schedule()
}

// Rearm reloads both trigger lines from the control registers, leaving the
// auto-repeat flags alone, and reschedules.
func (st *State) Rearm(c Control) {
	st.Primary.Line = clampLine(c.Primary.Line, st.Timing.Scanlines)
	st.Secondary.Line = clampLine(c.Secondary.Line, st.Timing.Scanlines)
	st.Schedule()
}

// Pending returns true if an interrupt remains in this frame.
func (st *State) Pending() bool {
	return st.Next.Line < st.Timing.Scanlines
}

// Schedule recomputes Next from the current trigger lines.
func (st *State) Schedule() {
	st.Next = Next(st.Timing, st.Primary, st.Secondary)
}

// Next returns the earliest of the two sources' trigger lines as a
// scheduled interrupt. The primary source wins a tie. When neither source
// fires before the end of the frame the result is past the frame's last
// cycle.
func Next(frame timing.Frame, primary, secondary Source) Scheduled {
	line := frame.Scanlines

	if primary.Line <= line {
		line = primary.Line
	}
	if secondary.Line < line {
		line = secondary.Line
	}

	if line < frame.Scanlines {
		return Scheduled{Line: line, Cycle: frame.IrqCycles(line)}
	}

	return Scheduled{Line: frame.Scanlines, Cycle: frame.NoIrq()}
}

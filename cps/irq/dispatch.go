package irq

import (
	"log/slog"

	"github.com/valerio/go-cps/cps/addr"
	"github.com/valerio/go-cps/cps/cpu"
	"github.com/valerio/go-cps/cps/events"
	"github.com/valerio/go-cps/cps/memory"
	"github.com/valerio/go-cps/cps/raster"
	"github.com/valerio/go-cps/cps/timing"
)

// Dispatcher fires the scheduled beam-synchronized interrupt and records the
// register state it leaves behind.
type Dispatcher struct {
	Core  cpu.Core
	Regs  *memory.RegisterFile
	Aux   *memory.AuxBlock
	Store *raster.Store
	// Log is optional.
	Log *events.Log
}

// Dispatch fires st.Next. The processor must already have run up to the
// scheduled cycle.
//
// An interrupt at or after the first visible line takes a new raster slot.
// The processor then runs for one scanline so the service routine can update
// the registers, and the result is captured into the current slot if it
// still lies within the visible display. The sources are advanced, the next
// interrupt is scheduled and pushed past the cycles already executed.
func (d *Dispatcher) Dispatch(st *State) {
	line := st.Next.Line
	frame := st.Timing

	if line >= timing.FirstLine {
		st.Interrupts++
		d.setLine(st.Interrupts, line-timing.FirstLine)
	}
	d.Log.Record(d.Core.TotalCycles(), events.Dispatch, line, st.Interrupts)

	d.Core.SetIRQLine(int(addr.RasterInterrupt), cpu.IRQAuto)
	d.Core.Run(frame.ScanlineCycles())

	d.capture(st.Interrupts)

	if !st.Primary.AutoRepeat {
		if line >= st.Primary.Line {
			st.Primary.exhaust(frame.Scanlines)
		}
	} else {
		if st.Primary.AutoRepeat && line == st.Primary.Line {
			st.Primary.repeat(frame.Scanlines)
		}
	}

	if !st.Secondary.AutoRepeat && line >= st.Secondary.Line {
		st.Secondary.exhaust(frame.Scanlines)
	} else if st.Secondary.AutoRepeat && line == st.Secondary.Line {
		st.Secondary.repeat(frame.Scanlines)
	}

	st.Schedule()

	if total := d.Core.TotalCycles(); st.Next.Cycle <= total {
		st.Next.Cycle = total + 1
	}
}

func (d *Dispatcher) setLine(slot, line int) {
	if err := d.Store.SetLine(slot, line); err != nil {
		slog.Warn("Raster interrupt dropped", "line", line, "error", err)
	}
}

// capture copies the registers into slot when its line is visible, and
// discards the slot otherwise.
func (d *Dispatcher) capture(slot int) {
	line, err := d.Store.Line(slot)
	if err != nil {
		return
	}

	total := d.Core.TotalCycles()
	if line < timing.ActiveLines {
		_ = d.Store.Capture(slot, d.Regs.Image(), d.Aux.Image())
		d.Log.Record(total, events.Snapshot, line, slot)
		return
	}

	_ = d.Store.Discard(slot)
	d.Log.Record(total, events.Discard, line, slot)
}

package cps

import (
	"log/slog"

	"github.com/valerio/go-cps/cps/addr"
	"github.com/valerio/go-cps/cps/cpu"
	"github.com/valerio/go-cps/cps/events"
	"github.com/valerio/go-cps/cps/irq"
	"github.com/valerio/go-cps/cps/raster"
	"github.com/valerio/go-cps/cps/timing"
)

// displaySegments is the number of parts active display is run in.
const displaySegments = 3

// statsInterval is the number of frames between cycle accounting reports.
const statsInterval = 60

// RunFrame executes one video frame. A pending reset is performed first.
//
// The processor runs up to the first visible line, dispatching a raster
// interrupt scheduled before it, and the registers are captured as the
// baseline snapshot. Active display is run in three segments with the
// raster interrupts dispatched in between, after which the object list is
// captured, vertical blank is asserted and the frame is drawn. The rest of
// the frame is then executed; the cycles run past the budget are carried
// into the next frame.
func (m *Machine) RunFrame() {
	if !m.ready {
		panic("cps: RunFrame on a machine that is not initialized")
	}

	if m.resetPending {
		m.Reset()
	}

	core := m.dev.Core
	frame := m.setup()

	core.Idle(m.carry)

	displayStart := frame.DisplayStart()
	if m.sched.Next.Cycle < displayStart {
		m.dispatch()
	}
	m.runTo(displayStart)

	_ = m.store.Capture(0, m.regs.Image(), m.aux.Image())
	m.log.Record(core.TotalCycles(), events.Snapshot, 0, 0)

	if control := irq.DecodeControl(m.regs); !m.sched.Pending() && !control.Disabled {
		m.sched.Rearm(control)
	}

	for i := 0; i < displaySegments; i++ {
		boundary := frame.Segment(i, displaySegments)

		for m.sched.Next.Cycle < boundary && m.sched.Interrupts < raster.MaxRaster {
			m.dispatch()
		}
		m.runTo(boundary)

		if i == 1 {
			call(m.hooks.FrameMiddle)
		}
	}

	saturated := m.sched.Interrupts >= raster.MaxRaster && m.sched.Next.Cycle < frame.DisplayEnd()
	if saturated {
		m.stats.Saturated++
		slog.Debug("Raster store full, interrupts dropped",
			"frame", m.stats.Frames, "next_line", m.sched.Next.Line)
	}

	if m.dev.Objects != nil {
		m.dev.Objects.Capture()
	}
	m.log.Record(core.TotalCycles(), events.ObjectCapture, 0, 0)

	core.SetIRQLine(int(addr.VBlankInterrupt), cpu.IRQAuto)
	m.log.Record(core.TotalCycles(), events.VBlank, timing.FirstLine+timing.ActiveLines, 0)

	if m.drawing() && m.dev.Renderer != nil {
		m.dev.Renderer.Draw(m.store)
		m.stats.Drawn++
		m.log.Record(core.TotalCycles(), events.Draw, 0, m.sched.Interrupts)
	}

	m.runTo(frame.Cycles)

	executed := core.TotalCycles()
	m.carry = executed - frame.Cycles

	if m.soundEnabled {
		m.dev.Sound.EndFrame()
	}

	call(m.hooks.FrameEnd)
	m.log.Record(executed, events.FrameEnd, 0, 0)

	core.Close()

	m.finish(frame, executed)
}

// setup starts the frame: the cycle budget is recomputed, the inputs are
// polled and the interrupt sources are reloaded from the registers.
func (m *Machine) setup() timing.Frame {
	core := m.dev.Core

	core.NewFrame()
	if m.soundEnabled {
		m.dev.Sound.NewFrame()
	}

	frame := timing.NewFrame(m.cfg.ClockPerFrame(), m.speedAdjust, m.cfg.Video.Scanlines)

	core.Open(mainContext)
	core.SetCyclesScanline(frame.ScanlineCycles())

	if m.dev.Input != nil {
		m.dev.Input.Poll()
	}

	m.log.Reset()
	m.log.Record(core.TotalCycles(), events.FrameStart, 0, 0)

	m.store.Clear()
	m.sched.Begin(frame, irq.DecodeControl(m.regs))

	call(m.hooks.FrameStart)
	return frame
}

// dispatch runs the processor up to the scheduled interrupt and fires it.
func (m *Machine) dispatch() {
	m.runTo(m.sched.Next.Cycle)
	m.dispatcher.Dispatch(&m.sched)
	m.stats.Dispatches++
}

// runTo runs the processor until its frame total reaches cycle. Nothing is
// run when it is already there.
func (m *Machine) runTo(cycle int) {
	if n := cycle - m.dev.Core.TotalCycles(); n > 0 {
		m.dev.Core.Run(n)
	}
}

func (m *Machine) drawing() bool {
	if m.skipFrame {
		return false
	}

	skip := m.cfg.Video.FrameSkip
	return skip <= 0 || m.stats.Frames%(skip+1) == 0
}

func (m *Machine) finish(frame timing.Frame, executed int) {
	m.stats.Frames++
	m.stats.Budget = frame.Cycles
	m.stats.Executed = executed
	m.stats.Interrupts = m.sched.Interrupts
	m.stats.Carry = m.carry

	if m.stats.Frames%statsInterval == 0 {
		slog.Debug("Frame cycles",
			"frame", m.stats.Frames,
			"budget", frame.Cycles,
			"executed", executed,
			"carry", m.carry,
			"dispatches", m.stats.Dispatches)
	}
}

package cps

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-cps/cps/addr"
	"github.com/valerio/go-cps/cps/config"
	"github.com/valerio/go-cps/cps/cpu"
	"github.com/valerio/go-cps/cps/events"
	"github.com/valerio/go-cps/cps/raster"
	"github.com/valerio/go-cps/cps/timing"
)

var stockFrame = timing.NewFrame(197886, timing.SpeedAdjustUnit, timing.DefaultScanlines)

func (r *machineRig) program(control, primary, secondary uint16) {
	regs := r.m.Registers()
	regs.Write16(addr.Control, control)
	regs.Write16(addr.PrimaryLine, primary)
	regs.Write16(addr.SecondaryLine, secondary)
}

func dispatchedLines(log *events.Log) []int {
	var lines []int
	for _, e := range log.Of(events.Dispatch) {
		lines = append(lines, e.Line)
	}
	return lines
}

func eventTypes(log *events.Log) []events.EventType {
	var types []events.EventType
	for _, e := range log.Events() {
		types = append(types, e.Type)
	}
	return types
}

func TestRunFrameQuiet(t *testing.T) {
	r := newReadyRig(t)

	r.m.RunFrame()

	assert.Equal(t, []events.EventType{
		events.FrameStart,
		events.Snapshot,
		events.ObjectCapture,
		events.VBlank,
		events.Draw,
		events.FrameEnd,
	}, eventTypes(r.log))

	stats := r.m.Stats()
	assert.Zero(t, stats.Interrupts)
	assert.Equal(t, 1, r.m.Rasters().Captured(), "only the baseline snapshot")
	assert.Equal(t, stockFrame.Cycles, stats.Budget)
	assert.Equal(t, stockFrame.Cycles, stats.Executed)
	assert.Zero(t, r.m.Carry())

	assert.Equal(t, []int{int(addr.VBlankInterrupt)}, r.core.irqs)
	assert.Equal(t, stockFrame.ScanlineCycles(), r.core.lineCycles)
	assert.False(t, r.core.open)

	assert.Equal(t, 1, r.renderer.draws)
	assert.Equal(t, 1, r.objects.captures)
	assert.Equal(t, 1, r.snd.newFrames)
	assert.Equal(t, 1, r.snd.endFrames)
	assert.Equal(t, 1, r.input.polls)
	assert.Equal(t, 1, r.hooks["frame-start"])
	assert.Equal(t, 1, r.hooks["frame-middle"])
	assert.Equal(t, 1, r.hooks["frame-end"])
}

func TestRunFrameTwoSources(t *testing.T) {
	r := newReadyRig(t)
	r.program(0, 100, 150)

	r.m.RunFrame()

	assert.Equal(t, []int{100, 150}, dispatchedLines(r.log))
	assert.Equal(t, 2, r.m.Stats().Interrupts)
	assert.Equal(t, []raster.Band{
		{Start: 0, End: 84, Slot: 0},
		{Start: 84, End: 134, Slot: 1},
		{Start: 134, End: timing.ActiveLines, Slot: 2},
	}, r.renderer.bands[0])
	assert.Equal(t, []int{
		int(addr.RasterInterrupt),
		int(addr.RasterInterrupt),
		int(addr.VBlankInterrupt),
	}, r.core.irqs)
}

func TestRunFrameAutoRepeat(t *testing.T) {
	r := newReadyRig(t)
	r.program(0x0200, 0x8010, 0x1FF)

	r.m.RunFrame()

	assert.Equal(t, []int{16, 48, 80, 112, 144, 176, 208}, dispatchedLines(r.log))
	assert.Equal(t, 7, r.m.Stats().Interrupts)
	assert.Equal(t, 240, r.m.sched.Next.Line, "blanking interrupt falls after active display")
	assert.Equal(t, 8, r.m.Rasters().Captured())
}

func TestRunFrameCapacity(t *testing.T) {
	r := newReadyRig(t)
	r.program(0, 0x8010, 0x8020)

	for i := 0; i < 3; i++ {
		r.m.RunFrame()

		assert.Equal(t, raster.MaxRaster, r.m.Stats().Interrupts)
		assert.LessOrEqual(t, r.m.Stats().Interrupts, raster.Capacity)
		assert.Equal(t, raster.MaxRaster, r.log.Count(events.Dispatch))
		assert.Equal(t, raster.MaxRaster+1, r.m.Rasters().Captured())
	}
	assert.Equal(t, 3, r.m.Stats().Saturated)
}

func TestRunFrameLeadIn(t *testing.T) {
	r := newReadyRig(t)
	r.program(0, 0x8008, 0x1FF)
	r.m.Aux().Write16(0, 0xCAFE)

	r.m.RunFrame()

	assert.Equal(t, []int{8, 40, 72, 104, 136, 168, 200, 232}, dispatchedLines(r.log))
	assert.Equal(t, 7, r.m.Stats().Interrupts)

	first := r.log.Of(events.Dispatch)[0]
	assert.Less(t, first.Cycle, stockFrame.DisplayStart())
	assert.Zero(t, first.Slot)

	baseline, err := r.m.Rasters().At(0)
	require.NoError(t, err)
	assert.True(t, baseline.Captured)
	assert.Zero(t, baseline.Line)
	assert.Equal(t, byte(0xCA), baseline.Aux[0])
}

func TestRunFrameLateReschedule(t *testing.T) {
	t.Run("armed by the lead-in", func(t *testing.T) {
		r := newReadyRig(t)
		r.program(0, 0x1FF, 0x1FF)
		r.core.onRun = func(int) {
			r.m.Registers().Write16(addr.PrimaryLine, 100)
		}

		r.m.RunFrame()

		assert.Equal(t, []int{100}, dispatchedLines(r.log))
	})

	t.Run("not while globally disabled", func(t *testing.T) {
		r := newReadyRig(t)
		r.program(0x0200, 0x1FF, 0x1FF)
		r.core.onRun = func(int) {
			r.m.Registers().Write16(addr.PrimaryLine, 100)
		}

		r.m.RunFrame()

		assert.Empty(t, dispatchedLines(r.log))
	})
}

func TestRunFrameOrdering(t *testing.T) {
	r := newReadyRig(t)
	r.program(0, 0x8010, 0x8018)
	r.core.overrun = []int{0, 5, 37, 11, 43}

	for frame := 0; frame < 20; frame++ {
		r.m.RunFrame()

		last := -1 << 31
		for _, e := range r.log.Events() {
			assert.GreaterOrEqual(t, e.Cycle, last, "event %v out of order", e)
			last = e.Cycle
		}

		for _, e := range r.log.Of(events.Dispatch) {
			assert.GreaterOrEqual(t, e.Cycle, stockFrame.IrqCycles(e.Line), "dispatch %v before its line", e)
		}

		assert.GreaterOrEqual(t, r.m.Carry(), 0)
		assert.Less(t, r.m.Carry(), stockFrame.ScanlineCycles())
	}
}

// countingCore counts the cycles the stub actually executes.
type countingCore struct {
	*cpu.Stub
	ran int
}

func (c *countingCore) Run(cycles int) int {
	n := c.Stub.Run(cycles)
	c.ran += n
	return n
}

func TestRunFrameDrift(t *testing.T) {
	core := &countingCore{Stub: cpu.NewStub()}
	m := New(config.Default(), Devices{Core: core}, Hooks{})
	require.NoError(t, m.Init())

	regs := m.Registers()
	regs.Write16(addr.Control, 0)
	regs.Write16(addr.PrimaryLine, 0x8010)
	regs.Write16(addr.SecondaryLine, 77)

	const frames = 500
	for i := 0; i < frames; i++ {
		m.RunFrame()

		carry := m.Carry()
		assert.GreaterOrEqual(t, carry, 0)
		assert.LessOrEqual(t, carry, core.MaxOverrun())
	}

	drift := core.ran - frames*stockFrame.Cycles
	assert.Equal(t, m.Carry(), drift)
	assert.InDelta(t, 0, drift, float64(stockFrame.ScanlineCycles()))
	assert.Equal(t, frames, core.Acknowledged(int(addr.VBlankInterrupt)))
}

func TestRunFrameSkip(t *testing.T) {
	cfg := config.Default()
	cfg.Video.FrameSkip = 1
	r := newRig(cfg)
	require.NoError(t, r.m.Init())

	for i := 0; i < 6; i++ {
		r.m.RunFrame()
	}
	assert.Equal(t, 3, r.renderer.draws)

	r.m.SetSkipFrame(true)
	for i := 0; i < 4; i++ {
		r.m.RunFrame()
	}
	assert.Equal(t, 3, r.renderer.draws)
	assert.Equal(t, 3, r.m.Stats().Drawn)
	assert.Zero(t, r.log.Count(events.Draw))
	assert.Equal(t, 1, r.log.Count(events.VBlank), "vblank is asserted on skipped frames")
}

func TestRunFrameSpeedAdjust(t *testing.T) {
	r := newReadyRig(t)

	r.m.SetSpeedAdjust(2 * timing.SpeedAdjustUnit)
	r.m.RunFrame()

	assert.Equal(t, 2*stockFrame.Cycles, r.m.Stats().Budget)
	assert.Equal(t, 2*stockFrame.ScanlineCycles(), r.core.lineCycles)

	for _, adjust := range []int{0, -timing.SpeedAdjustUnit} {
		t.Run(fmt.Sprintf("non-positive %d", adjust), func(t *testing.T) {
			r.m.SetSpeedAdjust(adjust)
			r.m.RunFrame()

			assert.Equal(t, stockFrame.Cycles, r.m.Stats().Budget)
			assert.Equal(t, stockFrame.ScanlineCycles(), r.core.lineCycles)
		})
	}
}

func TestRunFrameMiddle(t *testing.T) {
	r := newReadyRig(t)
	var at int
	r.m.hooks.FrameMiddle = func() { at = r.core.TotalCycles() }

	r.m.RunFrame()

	assert.Equal(t, stockFrame.Segment(1, 3), at)
}

func TestRunFrameCarry(t *testing.T) {
	r := newReadyRig(t)
	r.core.overrun = []int{9}

	r.m.RunFrame()
	require.Equal(t, 9, r.m.Carry())

	r.core.overrun = nil
	before := r.core.ran
	r.m.RunFrame()

	assert.Equal(t, stockFrame.Cycles-9, r.core.ran-before, "carry is paid back as idle cycles")
	assert.Equal(t, stockFrame.Cycles, r.m.Stats().Executed)
	assert.Zero(t, r.m.Carry())
}

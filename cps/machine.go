// Package cps runs the main processor of a CPS2 board one video frame at a
// time, interleaving the beam-synchronized raster interrupts and the
// vertical blank with the processor's execution.
package cps

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-cps/cps/addr"
	"github.com/valerio/go-cps/cps/bit"
	"github.com/valerio/go-cps/cps/config"
	"github.com/valerio/go-cps/cps/events"
	"github.com/valerio/go-cps/cps/irq"
	"github.com/valerio/go-cps/cps/memory"
	"github.com/valerio/go-cps/cps/raster"
	"github.com/valerio/go-cps/cps/sound"
	"github.com/valerio/go-cps/cps/timing"
)

// mainContext is the processor context the machine runs in.
const mainContext = 0

// Stats describes the work done by the machine.
type Stats struct {
	Frames     int
	Drawn      int
	Dispatches int
	// Saturated counts the frames in which interrupts were left undispatched
	// because the raster store was full.
	Saturated int

	// Budget, Executed, Interrupts and Carry describe the last frame.
	Budget     int
	Executed   int
	Interrupts int
	Carry      int
}

// Machine owns the register file, the raster store and the scheduler state of
// one board and drives its devices through frames.
type Machine struct {
	cfg   config.Config
	dev   Devices
	hooks Hooks

	regs       *memory.RegisterFile
	aux        *memory.AuxBlock
	store      *raster.Store
	sched      irq.State
	dispatcher irq.Dispatcher
	log        *events.Log

	speedAdjust  int
	soundEnabled bool
	skipFrame    bool
	resetPending bool
	ready        bool

	carry int
	stats Stats
}

// New creates a machine. Init must succeed before the first frame.
func New(cfg *config.Config, dev Devices, hooks Hooks) *Machine {
	m := &Machine{
		cfg:   *cfg,
		dev:   dev,
		hooks: hooks,
		regs:  memory.NewRegisterFile(),
		aux:   memory.NewAuxBlock(),
		store: raster.NewStore(),
	}

	m.dispatcher = irq.Dispatcher{
		Core:  dev.Core,
		Regs:  m.regs,
		Aux:   m.aux,
		Store: m.store,
	}
	m.speedAdjust = cfg.CPU.SpeedAdjust
	m.soundEnabled = m.soundDefault()

	return m
}

type stage struct {
	name string
	dev  Subsystem
}

func (m *Machine) soundDefault() bool {
	return !m.cfg.Audio.Disabled && m.dev.Sound != nil
}

// Init sets up every device and performs the first reset. On failure the
// devices already set up are released again and a *SetupError is returned.
func (m *Machine) Init() error {
	if m.dev.Core == nil {
		return &SetupError{Stage: StageCore, Err: ErrNoCore}
	}

	if err := m.cfg.Validate(); err != nil {
		return &SetupError{Stage: StageConfig, Err: err}
	}
	m.speedAdjust = normalizeSpeed(m.speedAdjust)

	var done []Subsystem
	setup := func(stages ...stage) error {
		for _, s := range stages {
			if s.dev == nil {
				continue
			}
			if err := s.dev.Init(); err != nil {
				for i := len(done) - 1; i >= 0; i-- {
					done[i].Exit()
				}
				slog.Error("Machine setup failed", "stage", s.name, "error", err)
				return &SetupError{Stage: s.name, Err: err}
			}
			done = append(done, s.dev)
		}
		return nil
	}

	if err := setup(stage{StageMemory, m.dev.Memory}, stage{StageEEPROM, m.dev.EEPROM}); err != nil {
		return err
	}

	m.regs.Clear()
	m.aux.Clear()

	var snd Subsystem
	if m.soundEnabled {
		snd = m.dev.Sound
	}
	err := setup(
		stage{StagePalette, m.dev.Palette},
		stage{StageObjects, m.dev.Objects},
		stage{StageSound, snd},
	)
	if err != nil {
		return err
	}

	if m.soundEnabled {
		m.dev.Sound.SetRoute(0, 1.0, sound.Left)
		m.dev.Sound.SetRoute(1, 1.0, sound.Right)
	}

	call(m.hooks.PostInit)

	m.ready = true
	m.Reset()

	slog.Info("Machine initialized",
		"clock_per_frame", m.cfg.ClockPerFrame(),
		"scanlines", m.cfg.Video.Scanlines,
		"sound", m.soundEnabled)
	return nil
}

// Reset performs a full machine reset. The interrupt registers are set to a
// known disabled state and the cycle carry is cleared.
func (m *Machine) Reset() {
	if m.dev.EEPROM != nil {
		m.dev.EEPROM.Reset()
	}

	m.dev.Core.Open(mainContext)
	m.dev.Core.Reset()
	m.dev.Core.Close()

	m.regs.Write16(addr.Control, bit.Set16(addr.BeamSyncDisableBit, 0))
	m.regs.Write16(addr.PrimaryLine, uint16(m.cfg.Video.Scanlines))
	m.regs.Write16(addr.SecondaryLine, uint16(m.cfg.Video.Scanlines))

	if m.dev.Objects != nil {
		m.dev.Objects.MapBanks(0)
	}

	m.carry = 0

	if m.soundEnabled {
		m.dev.Sound.Reset()
	}

	call(m.hooks.PostReset)

	m.resetPending = false
	slog.Debug("Machine reset", "control", fmt.Sprintf("0x%04X", m.regs.Read16(addr.Control)))
}

// Exit releases every device in reverse setup order, then runs the PreExit
// hook and clears all hooks. Devices of a machine whose setup failed were
// already released by Init.
func (m *Machine) Exit() {
	if m.ready {
		m.release()
	}

	call(m.hooks.PreExit)
	m.hooks = Hooks{}

	m.soundEnabled = m.soundDefault()
	m.skipFrame = false
	m.ready = false

	slog.Info("Machine exited", "frames", m.stats.Frames)
}

func (m *Machine) release() {
	if m.dev.EEPROM != nil {
		m.dev.EEPROM.Exit()
	}
	if m.soundEnabled {
		m.dev.Sound.Exit()
	}
	if m.dev.Objects != nil {
		m.dev.Objects.Exit()
	}
	if m.dev.Palette != nil {
		m.dev.Palette.Exit()
	}

	m.regs.Clear()
	m.aux.Clear()

	if m.dev.Memory != nil {
		m.dev.Memory.Exit()
	}
	if c, ok := m.dev.Core.(exiter); ok {
		c.Exit()
	}
}

// RequestReset schedules a full reset at the start of the next frame.
func (m *Machine) RequestReset() {
	m.resetPending = true
}

// SetSkipFrame suppresses drawing until cleared.
func (m *Machine) SetSkipFrame(skip bool) {
	m.skipFrame = skip
}

// SetSpeedAdjust changes the cycle budget scale from the next frame on.
// A non-positive scale restores the nominal speed.
func (m *Machine) SetSpeedAdjust(adjust int) {
	m.speedAdjust = normalizeSpeed(adjust)
}

func normalizeSpeed(adjust int) int {
	if adjust <= 0 {
		return timing.SpeedAdjustUnit
	}
	return adjust
}

// SetEventLog attaches a log that receives the events of the current frame.
// A nil log disables event recording.
func (m *Machine) SetEventLog(log *events.Log) {
	m.log = log
	m.dispatcher.Log = log
}

// Registers returns the board register file.
func (m *Machine) Registers() *memory.RegisterFile {
	return m.regs
}

// Aux returns the auxiliary register block.
func (m *Machine) Aux() *memory.AuxBlock {
	return m.aux
}

// Rasters returns the raster snapshots of the last frame.
func (m *Machine) Rasters() *raster.Store {
	return m.store
}

// Stats returns a copy of the machine statistics.
func (m *Machine) Stats() Stats {
	return m.stats
}

// Carry returns the cycle surplus that the next frame starts with.
func (m *Machine) Carry() int {
	return m.carry
}

// SoundEnabled returns true if the sound subsystem takes part in frames.
func (m *Machine) SoundEnabled() bool {
	return m.soundEnabled
}

package cps

import (
	"github.com/valerio/go-cps/cps/cpu"
	"github.com/valerio/go-cps/cps/raster"
	"github.com/valerio/go-cps/cps/sound"
)

// Subsystem is a peripheral initialized once at setup and released at exit.
type Subsystem interface {
	Init() error
	Reset()
	Exit()
}

// ObjectUnit is the sprite hardware. Capture latches the object list once
// per frame, between active display and vertical blank.
type ObjectUnit interface {
	Subsystem
	MapBanks(bank int)
	Capture()
}

// Renderer consumes the raster snapshots of a completed frame.
type Renderer interface {
	Draw(store *raster.Store)
}

// InputPoller refreshes the input ports once per frame.
type InputPoller interface {
	Poll()
}

// Devices are the collaborators the machine drives. Only Core is required.
type Devices struct {
	Core cpu.Core

	Memory  Subsystem
	EEPROM  Subsystem
	Palette Subsystem
	Objects ObjectUnit
	Sound   sound.Subsystem

	Renderer Renderer
	Input    InputPoller
}

type exiter interface {
	Exit()
}

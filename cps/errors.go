package cps

import (
	"errors"
	"fmt"
)

// Setup stages, in the order Init runs them.
const (
	StageCore    = "core"
	StageConfig  = "config"
	StageMemory  = "memory"
	StageEEPROM  = "eeprom"
	StagePalette = "palette"
	StageObjects = "objects"
	StageSound   = "sound"
)

// ErrNoCore is returned by Init when no processor core was provided.
var ErrNoCore = errors.New("no processor core")

// SetupError reports the stage at which machine setup failed.
type SetupError struct {
	Stage string
	Err   error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup failed at %s: %v", e.Stage, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// Code returns the integer failure code reported to the driver.
func (e *SetupError) Code() int {
	return 1
}

// Package script runs Lua scripts against a machine's register blocks.
//
// A script may define any of the global functions on_post_init,
// on_post_reset, on_pre_exit, on_frame_start, on_frame_middle, on_frame_end
// and on_irq(level). The first six become machine hooks; on_irq is called for
// every interrupt the processor takes and stands in for its service routine.
// Scripts reach the registers through reg_read16, reg_write16, aux_read16 and
// aux_write16, and can log through log(message).
package script

import (
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/valerio/go-cps/cps"
	"github.com/valerio/go-cps/cps/addr"
	"github.com/valerio/go-cps/cps/memory"
)

const (
	hookPostInit    = "on_post_init"
	hookPostReset   = "on_post_reset"
	hookPreExit     = "on_pre_exit"
	hookFrameStart  = "on_frame_start"
	hookFrameMiddle = "on_frame_middle"
	hookFrameEnd    = "on_frame_end"
	hookInterrupt   = "on_irq"
)

// registerConstants are the register offsets exposed to scripts by name.
var registerConstants = map[string]uint16{
	"SCROLL1_X":      addr.Scroll1X,
	"SCROLL1_Y":      addr.Scroll1Y,
	"SCROLL2_X":      addr.Scroll2X,
	"SCROLL2_Y":      addr.Scroll2Y,
	"SCROLL3_X":      addr.Scroll3X,
	"SCROLL3_Y":      addr.Scroll3Y,
	"CONTROL":        addr.Control,
	"PRIMARY_LINE":   addr.PrimaryLine,
	"SECONDARY_LINE": addr.SecondaryLine,
}

// Engine owns a Lua state and the register blocks its script works on.
// It is not safe for concurrent use.
type Engine struct {
	state *lua.LState
	regs  *memory.RegisterFile
	aux   *memory.AuxBlock
	err   error
}

// New creates an engine with the register bindings installed and no script
// loaded.
func New() *Engine {
	e := &Engine{state: lua.NewState()}

	e.state.SetGlobal("reg_read16", e.state.NewFunction(e.regRead16))
	e.state.SetGlobal("reg_write16", e.state.NewFunction(e.regWrite16))
	e.state.SetGlobal("aux_read16", e.state.NewFunction(e.auxRead16))
	e.state.SetGlobal("aux_write16", e.state.NewFunction(e.auxWrite16))
	e.state.SetGlobal("log", e.state.NewFunction(scriptLog))

	for name, offset := range registerConstants {
		e.state.SetGlobal(name, lua.LNumber(offset))
	}
	e.state.SetGlobal("IRQ_VBLANK", lua.LNumber(addr.VBlankInterrupt))
	e.state.SetGlobal("IRQ_RASTER", lua.LNumber(addr.RasterInterrupt))

	return e
}

// Attach points the register bindings at a machine's register blocks.
func (e *Engine) Attach(regs *memory.RegisterFile, aux *memory.AuxBlock) {
	e.regs = regs
	e.aux = aux
}

// LoadFile runs the script at path.
func (e *Engine) LoadFile(path string) error {
	if err := e.state.DoFile(path); err != nil {
		return fmt.Errorf("failed to load script %s: %w", path, err)
	}
	slog.Info("Loaded script", "path", path)
	return nil
}

// LoadString runs a script held in memory.
func (e *Engine) LoadString(source string) error {
	if err := e.state.DoString(source); err != nil {
		return fmt.Errorf("failed to load script: %w", err)
	}
	return nil
}

// Hooks returns machine hooks for the hook functions the loaded script
// defines. Undefined hooks are left nil.
func (e *Engine) Hooks() cps.Hooks {
	return cps.Hooks{
		PostInit:    e.hook(hookPostInit),
		PostReset:   e.hook(hookPostReset),
		PreExit:     e.hook(hookPreExit),
		FrameStart:  e.hook(hookFrameStart),
		FrameMiddle: e.hook(hookFrameMiddle),
		FrameEnd:    e.hook(hookFrameEnd),
	}
}

// InterruptHandler returns a function calling on_irq with the interrupt
// level, or nil when the script does not define it.
func (e *Engine) InterruptHandler() func(level int) {
	fn := e.function(hookInterrupt)
	if fn == nil {
		return nil
	}
	return func(level int) {
		e.call(hookInterrupt, fn, lua.LNumber(level))
	}
}

// Err returns the first error raised by a script function, if any.
func (e *Engine) Err() error {
	return e.err
}

// Close releases the Lua state.
func (e *Engine) Close() {
	e.state.Close()
}

func (e *Engine) function(name string) *lua.LFunction {
	fn, _ := e.state.GetGlobal(name).(*lua.LFunction)
	return fn
}

func (e *Engine) hook(name string) func() {
	fn := e.function(name)
	if fn == nil {
		return nil
	}
	return func() {
		e.call(name, fn)
	}
}

// call runs a script function. Errors are logged and the first one is kept;
// a failing script never stops the machine.
func (e *Engine) call(name string, fn *lua.LFunction, args ...lua.LValue) {
	err := e.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...)
	if err == nil {
		return
	}

	slog.Warn("Script function failed", "function", name, "error", err)
	if e.err == nil {
		e.err = fmt.Errorf("%s: %w", name, err)
	}
}

func (e *Engine) regRead16(L *lua.LState) int {
	if e.regs == nil {
		L.RaiseError("register file not attached")
		return 0
	}
	L.Push(lua.LNumber(e.regs.Read16(uint16(L.CheckInt(1)))))
	return 1
}

func (e *Engine) regWrite16(L *lua.LState) int {
	if e.regs == nil {
		L.RaiseError("register file not attached")
		return 0
	}
	e.regs.Write16(uint16(L.CheckInt(1)), uint16(L.CheckInt(2)))
	return 0
}

func (e *Engine) auxRead16(L *lua.LState) int {
	if e.aux == nil {
		L.RaiseError("aux block not attached")
		return 0
	}
	L.Push(lua.LNumber(e.aux.Read16(uint16(L.CheckInt(1)))))
	return 1
}

func (e *Engine) auxWrite16(L *lua.LState) int {
	if e.aux == nil {
		L.RaiseError("aux block not attached")
		return 0
	}
	e.aux.Write16(uint16(L.CheckInt(1)), uint16(L.CheckInt(2)))
	return 0
}

func scriptLog(L *lua.LState) int {
	slog.Info("script", "message", L.CheckString(1))
	return 0
}

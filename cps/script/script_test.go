package script_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-cps/cps"
	"github.com/valerio/go-cps/cps/addr"
	"github.com/valerio/go-cps/cps/config"
	"github.com/valerio/go-cps/cps/cpu"
	"github.com/valerio/go-cps/cps/debug"
	"github.com/valerio/go-cps/cps/memory"
	"github.com/valerio/go-cps/cps/raster"
	"github.com/valerio/go-cps/cps/script"
)

func newEngine(t *testing.T, source string) *script.Engine {
	t.Helper()
	e := script.New()
	t.Cleanup(e.Close)
	require.NoError(t, e.LoadString(source))
	return e
}

func TestHooks(t *testing.T) {
	e := newEngine(t, `
		starts = 0
		function on_frame_start() starts = starts + 1 end
		function on_pre_exit() end
	`)

	hooks := e.Hooks()

	assert.NotNil(t, hooks.FrameStart)
	assert.NotNil(t, hooks.PreExit)
	assert.Nil(t, hooks.PostInit)
	assert.Nil(t, hooks.PostReset)
	assert.Nil(t, hooks.FrameMiddle)
	assert.Nil(t, hooks.FrameEnd)
	assert.Nil(t, e.InterruptHandler())

	hooks.FrameStart()
	hooks.FrameStart()
	assert.NoError(t, e.Err())
}

func TestRegisterBindings(t *testing.T) {
	e := newEngine(t, `
		function on_frame_end()
			reg_write16(SCROLL1_X, reg_read16(SCROLL1_X) + 1)
			aux_write16(2, 0xBEEF)
		end
		function on_irq(level)
			if level == IRQ_RASTER then
				reg_write16(SCROLL2_Y, 0x40)
			end
		end
	`)
	regs := memory.NewRegisterFile()
	aux := memory.NewAuxBlock()
	e.Attach(regs, aux)
	regs.Write16(addr.Scroll1X, 0x0010)

	e.Hooks().FrameEnd()
	handler := e.InterruptHandler()
	require.NotNil(t, handler)
	handler(int(addr.VBlankInterrupt))

	assert.Equal(t, uint16(0x0011), regs.Read16(addr.Scroll1X))
	assert.Equal(t, uint16(0xBEEF), aux.Read16(2))
	assert.Zero(t, regs.Read16(addr.Scroll2Y), "vblank leaves the raster registers alone")

	handler(int(addr.RasterInterrupt))
	assert.Equal(t, uint16(0x40), regs.Read16(addr.Scroll2Y))
	assert.NoError(t, e.Err())
}

func TestScriptErrors(t *testing.T) {
	t.Run("runtime error is kept", func(t *testing.T) {
		e := newEngine(t, `
			function on_frame_middle() error("boom") end
			function on_frame_end() error("second") end
		`)
		hooks := e.Hooks()

		hooks.FrameMiddle()
		hooks.FrameEnd()

		require.Error(t, e.Err())
		assert.Contains(t, e.Err().Error(), "on_frame_middle")
	})

	t.Run("unattached registers", func(t *testing.T) {
		e := newEngine(t, `function on_post_init() reg_write16(CONTROL, 0) end`)

		e.Hooks().PostInit()

		require.Error(t, e.Err())
		assert.Contains(t, e.Err().Error(), "register file not attached")
	})

	t.Run("syntax error", func(t *testing.T) {
		e := script.New()
		defer e.Close()
		assert.Error(t, e.LoadString("function ("))
	})

	t.Run("missing file", func(t *testing.T) {
		e := script.New()
		defer e.Close()
		assert.Error(t, e.LoadFile(filepath.Join(t.TempDir(), "missing.lua")))
	})
}

// A script programs a one-shot raster interrupt after every reset and moves
// scroll layer 1 from its service routine.
const splitScreen = `
function on_post_reset()
	reg_write16(CONTROL, 0)
	reg_write16(PRIMARY_LINE, 100)
end

function on_irq(level)
	if level == IRQ_RASTER then
		reg_write16(SCROLL1_X, 0x1234)
	end
end

function on_frame_end()
	reg_write16(SCROLL1_X, 0)
end
`

func TestMachineIntegration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "split.lua")
	require.NoError(t, os.WriteFile(path, []byte(splitScreen), 0644))

	e := script.New()
	defer e.Close()
	require.NoError(t, e.LoadFile(path))

	core := cpu.NewStub()
	core.Handler = e.InterruptHandler()

	m := cps.New(config.Default(), cps.Devices{Core: core}, e.Hooks())
	e.Attach(m.Registers(), m.Aux())
	require.NoError(t, m.Init())
	defer m.Exit()

	m.RunFrame()
	require.NoError(t, e.Err())

	assert.Equal(t, []raster.Band{
		{Start: 0, End: 84, Slot: 0},
		{Start: 84, End: 224, Slot: 1},
	}, m.Rasters().Bands())

	snap, err := m.Rasters().At(1)
	require.NoError(t, err)
	assert.Equal(t, debug.Scroll{X: 0x1234}, debug.Scrolls(&snap.Regs)[0])

	snap, err = m.Rasters().At(0)
	require.NoError(t, err)
	assert.Equal(t, debug.Scroll{}, debug.Scrolls(&snap.Regs)[0])

	assert.Zero(t, m.Registers().Read16(addr.Scroll1X), "frame end hook ran")
	assert.Equal(t, 1, core.Acknowledged(int(addr.RasterInterrupt)))
	assert.Equal(t, 1, core.Acknowledged(int(addr.VBlankInterrupt)))
}

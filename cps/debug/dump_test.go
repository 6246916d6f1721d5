package debug

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-cps/cps/addr"
	"github.com/valerio/go-cps/cps/memory"
	"github.com/valerio/go-cps/cps/raster"
)

func testStore(t *testing.T) *raster.Store {
	t.Helper()
	regs := memory.NewRegisterFile()
	aux := memory.NewAuxBlock()
	store := raster.NewStore()

	regs.Write16(addr.Scroll1X, 0x0040)
	require.NoError(t, store.Capture(0, regs.Image(), aux.Image()))

	regs.Write16(addr.Scroll2Y, 0x0123)
	require.NoError(t, store.SetLine(1, 100))
	require.NoError(t, store.Capture(1, regs.Image(), aux.Image()))

	require.NoError(t, store.SetLine(2, 230))
	require.NoError(t, store.Discard(2))
	return store
}

func TestScrolls(t *testing.T) {
	var img memory.RegImage
	img[addr.Scroll3X] = 0x12
	img[addr.Scroll3X+1] = 0x34

	s := Scrolls(&img)

	assert.Equal(t, Scroll{X: 0x1234}, s[2])
	assert.Equal(t, "1234,0000", s[2].String())
}

func TestWriteRasterDump(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteRasterDump(&buf, 7, testStore(t)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "frame 7 bands 2 captured 2", lines[0])
	assert.Equal(t, "band   0- 99 slot  0 scroll1 0040,0000 scroll2 0000,0000 scroll3 0000,0000", lines[1])
	assert.Equal(t, "band 100-223 slot  1 scroll1 0040,0000 scroll2 0000,0123 scroll3 0000,0000", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "slot  0 line   0 captured true"))
	assert.True(t, strings.HasPrefix(lines[4], "slot  1 line 100 captured true"))
}

func TestSaveRasterDump(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveRasterDump(testStore(t), 42, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, path, "raster_frame_000042.txt")
	assert.True(t, strings.HasPrefix(string(data), "frame 42"))

	_, err = SaveRasterDump(testStore(t), 1, dir+"/missing")
	assert.Error(t, err)
}

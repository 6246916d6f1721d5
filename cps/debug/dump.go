package debug

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/valerio/go-cps/cps/addr"
	"github.com/valerio/go-cps/cps/memory"
	"github.com/valerio/go-cps/cps/raster"
)

// Scroll is the position of one scroll layer.
type Scroll struct {
	X, Y uint16
}

func (s Scroll) String() string {
	return fmt.Sprintf("%04X,%04X", s.X, s.Y)
}

// Scrolls returns the positions of the three scroll layers held in a
// register image.
func Scrolls(img *memory.RegImage) [3]Scroll {
	return [3]Scroll{
		{X: img.Word(addr.Scroll1X), Y: img.Word(addr.Scroll1Y)},
		{X: img.Word(addr.Scroll2X), Y: img.Word(addr.Scroll2Y)},
		{X: img.Word(addr.Scroll3X), Y: img.Word(addr.Scroll3Y)},
	}
}

// WriteRasterDump writes a text description of the raster snapshots of a
// frame: the visible bands first, then every slot of the store.
func WriteRasterDump(w io.Writer, frame int, store *raster.Store) error {
	bw := bufio.NewWriter(w)

	bands := store.Bands()
	fmt.Fprintf(bw, "frame %d bands %d captured %d\n", frame, len(bands), store.Captured())

	for _, b := range bands {
		snap, err := store.At(b.Slot)
		if err != nil {
			return err
		}
		s := Scrolls(&snap.Regs)
		fmt.Fprintf(bw, "band %3d-%3d slot %2d scroll1 %s scroll2 %s scroll3 %s\n",
			b.Start, b.End-1, b.Slot, s[0], s[1], s[2])
	}

	for i := 0; i < raster.Capacity; i++ {
		snap, err := store.At(i)
		if err != nil {
			return err
		}
		if !snap.Captured && snap.Line == 0 {
			continue
		}
		fmt.Fprintf(bw, "slot %2d line %3d captured %t control %04X aux % X\n",
			i, snap.Line, snap.Captured, snap.Regs.Word(addr.Control), snap.Aux[:])
	}

	return bw.Flush()
}

// SaveRasterDump writes the raster dump of a frame into directory and
// returns the path of the file.
func SaveRasterDump(store *raster.Store, frame int, directory string) (string, error) {
	path := filepath.Join(directory, fmt.Sprintf("raster_frame_%06d.txt", frame))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	if err := WriteRasterDump(file, frame, store); err != nil {
		return "", fmt.Errorf("failed to write raster dump: %w", err)
	}

	slog.Debug("Raster dump saved", "path", path, "frame", frame)
	return path, nil
}

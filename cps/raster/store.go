package raster

import (
	"errors"
	"fmt"

	"github.com/valerio/go-cps/cps/memory"
	"github.com/valerio/go-cps/cps/timing"
)

// MaxRaster is the number of beam-synchronized interrupts per frame that may
// be dispatched during active display.
const MaxRaster = 10

// Capacity is the number of snapshot slots in a Store.
const Capacity = MaxRaster + 2

// ErrSlotOutOfRange is returned when a slot index is outside the store.
var ErrSlotOutOfRange = errors.New("raster slot out of range")

// Snapshot is the register state captured for one interrupt of the frame.
type Snapshot struct {
	Regs memory.RegImage
	Aux  memory.AuxImage
	// Line is the visible scanline, relative to the first visible line, from
	// which this snapshot applies.
	Line int
	// Captured is false for empty and discarded slots.
	Captured bool
}

// Store holds the raster snapshots of the current frame. Slot 0 is the state
// at the start of active display; slots 1..n follow the interrupts of the
// frame in order.
type Store struct {
	slots [Capacity]Snapshot
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Clear empties every slot.
func (s *Store) Clear() {
	for i := range s.slots {
		s.slots[i] = Snapshot{}
	}
}

// Capture copies the register images into slot i.
func (s *Store) Capture(i int, regs memory.RegImage, aux memory.AuxImage) error {
	if err := checkSlot(i); err != nil {
		return err
	}

	s.slots[i].Regs = regs
	s.slots[i].Aux = aux
	s.slots[i].Captured = true
	return nil
}

// SetLine records the raster line for slot i.
func (s *Store) SetLine(i, line int) error {
	if err := checkSlot(i); err != nil {
		return err
	}

	s.slots[i].Line = line
	return nil
}

// Line returns the raster line recorded for slot i.
func (s *Store) Line(i int) (int, error) {
	if err := checkSlot(i); err != nil {
		return 0, err
	}

	return s.slots[i].Line, nil
}

// Discard marks slot i as unusable for raster effects.
func (s *Store) Discard(i int) error {
	if err := checkSlot(i); err != nil {
		return err
	}

	s.slots[i].Line = 0
	s.slots[i].Captured = false
	return nil
}

// At returns a copy of slot i.
func (s *Store) At(i int) (Snapshot, error) {
	if err := checkSlot(i); err != nil {
		return Snapshot{}, err
	}

	return s.slots[i], nil
}

// Captured returns the number of captured slots.
func (s *Store) Captured() int {
	n := 0
	for i := range s.slots {
		if s.slots[i].Captured {
			n++
		}
	}
	return n
}

// Band is a range of visible lines [Start, End) drawn with the registers of
// snapshot Slot.
type Band struct {
	Start int
	End   int
	Slot  int
}

// Bands splits the visible display into the line ranges covered by each
// snapshot. Slot 0 covers the display up to the first captured interrupt.
// The walk stops at the first slot that was not captured, and a later
// snapshot for the same line replaces an earlier one.
func (s *Store) Bands() []Band {
	var bands []Band
	start, current := 0, 0

	for i := 1; i < Capacity; i++ {
		slot := &s.slots[i]
		if !slot.Captured || slot.Line < start || slot.Line >= timing.ActiveLines {
			break
		}

		if slot.Line > start {
			bands = append(bands, Band{Start: start, End: slot.Line, Slot: current})
			start = slot.Line
		}
		current = i
	}

	return append(bands, Band{Start: start, End: timing.ActiveLines, Slot: current})
}

func checkSlot(i int) error {
	if i < 0 || i >= Capacity {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, i)
	}
	return nil
}

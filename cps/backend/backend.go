package backend

import (
	"github.com/valerio/go-cps/cps/raster"
)

// Backend presents the raster state of the frames a machine runs.
// Backends are responsible for:
// - Receiving the raster snapshots of each drawn frame while it runs
// - Presenting them on their specific output (terminal, files, nothing)
// - Translating platform events into Events for the driver loop
type Backend interface {
	// Init configures the backend. It must be called before Draw or Update.
	Init(config Config) error

	// Draw receives the completed raster store of a frame. It is called from
	// inside the frame, so the store must be copied if it is kept.
	Draw(store *raster.Store)

	// Update presents the last drawn frame and returns the platform events
	// that arrived since the previous call.
	Update() ([]Event, error)

	// Cleanup releases the backend resources.
	Cleanup() error
}

// Event is a request from the backend to the driver loop.
type Event int

const (
	EventQuit Event = iota
	EventReset
	EventToggleSkip
)

func (e Event) String() string {
	switch e {
	case EventQuit:
		return "quit"
	case EventReset:
		return "reset"
	case EventToggleSkip:
		return "toggle-skip"
	default:
		return "unknown"
	}
}

// Config holds configuration for backends.
type Config struct {
	Title string
	// ShowLog enables the log panel where a backend has one.
	ShowLog bool
}

// Frame is a copy of the raster state of one drawn frame.
type Frame struct {
	Number    int
	Bands     []raster.Band
	Snapshots [raster.Capacity]raster.Snapshot
}

// CaptureFrame copies the raster store into a Frame.
func CaptureFrame(number int, store *raster.Store) Frame {
	f := Frame{Number: number, Bands: store.Bands()}
	for i := range f.Snapshots {
		f.Snapshots[i], _ = store.At(i)
	}
	return f
}

// Interrupts returns the number of slots captured after the baseline.
func (f *Frame) Interrupts() int {
	n := 0
	for i := 1; i < len(f.Snapshots); i++ {
		if f.Snapshots[i].Captured {
			n++
		}
	}
	return n
}

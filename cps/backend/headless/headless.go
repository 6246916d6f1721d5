package headless

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/valerio/go-cps/cps/backend"
	"github.com/valerio/go-cps/cps/debug"
	"github.com/valerio/go-cps/cps/raster"
)

// progressInterval is the number of frames between progress reports.
const progressInterval = 600

// Backend implements the Backend interface for automated testing and batch processing
type Backend struct {
	config     backend.Config
	frameCount int
	drawCount  int
	maxFrames  int
	dumpConfig DumpConfig
	dumps      []string
}

// DumpConfig holds configuration for raster dumps
type DumpConfig struct {
	Enabled   bool
	Interval  int    // Save a dump every N frames
	Directory string // Directory to save dumps
}

// New creates a headless backend that asks to quit after maxFrames frames.
// A non-positive maxFrames runs forever.
func New(maxFrames int, dumpConfig DumpConfig) *Backend {
	return &Backend{
		maxFrames:  maxFrames,
		dumpConfig: dumpConfig,
	}
}

var _ backend.Backend = (*Backend)(nil)

func (h *Backend) Init(config backend.Config) error {
	h.config = config

	slog.Info("Running headless mode",
		"frames", h.maxFrames,
		"dump_interval", h.dumpConfig.Interval,
		"dump_dir", h.dumpConfig.Directory)

	return nil
}

// Draw saves a raster dump when one is due for the frame being drawn.
func (h *Backend) Draw(store *raster.Store) {
	h.drawCount++
	frame := h.frameCount + 1

	if h.dumpConfig.Enabled && frame%h.dumpConfig.Interval == 0 {
		path, err := debug.SaveRasterDump(store, frame, h.dumpConfig.Directory)
		if err != nil {
			slog.Error("Failed to save raster dump", "frame", frame, "error", err)
			return
		}
		h.dumps = append(h.dumps, path)
	}
}

// Update counts the frame and signals completion once maxFrames is reached.
func (h *Backend) Update() ([]backend.Event, error) {
	h.frameCount++

	if h.frameCount%progressInterval == 0 {
		slog.Info("Frame progress", "completed", h.frameCount, "total", h.maxFrames)
	}

	if h.maxFrames > 0 && h.frameCount >= h.maxFrames {
		slog.Info("Headless execution completed",
			"frames", h.frameCount,
			"drawn", h.drawCount,
			"dumps", len(h.dumps))
		return []backend.Event{backend.EventQuit}, nil
	}

	return nil, nil
}

func (h *Backend) Cleanup() error {
	return nil
}

// Frames returns the number of frames run so far.
func (h *Backend) Frames() int {
	return h.frameCount
}

// Drawn returns the number of frames drawn so far.
func (h *Backend) Drawn() int {
	return h.drawCount
}

// Dumps returns the paths of the raster dumps written so far.
func (h *Backend) Dumps() []string {
	return h.dumps
}

// CreateDumpConfig creates a dump configuration from CLI parameters
func CreateDumpConfig(interval int, directory string) (DumpConfig, error) {
	config := DumpConfig{
		Enabled:  interval > 0,
		Interval: interval,
	}

	if !config.Enabled {
		return config, nil
	}

	if directory == "" {
		tempDir, err := os.MkdirTemp("", "cps-rasters-*")
		if err != nil {
			return config, fmt.Errorf("failed to create dump directory: %w", err)
		}
		config.Directory = tempDir
	} else {
		if err := os.MkdirAll(directory, 0755); err != nil {
			return config, fmt.Errorf("failed to create dump directory: %w", err)
		}
		config.Directory = directory
	}

	return config, nil
}

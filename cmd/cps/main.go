package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/valerio/go-cps/cps"
	"github.com/valerio/go-cps/cps/backend"
	"github.com/valerio/go-cps/cps/backend/headless"
	"github.com/valerio/go-cps/cps/backend/terminal"
	"github.com/valerio/go-cps/cps/config"
	"github.com/valerio/go-cps/cps/cpu"
	"github.com/valerio/go-cps/cps/script"
	"github.com/valerio/go-cps/cps/sound"
	"github.com/valerio/go-cps/cps/timing"
)

const (
	toneFrequency = 440
	toneAmplitude = 4000
)

func main() {
	app := cli.NewApp()
	app.Name = "cps"
	app.Description = "Frame execution engine for a CPS2-style arcade board"
	app.Usage = "cps [options]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "Path to a YAML configuration file",
		},
		cli.StringFlag{
			Name:  "save-config",
			Usage: "Write the effective configuration to this path and exit",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without the terminal viewer",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run (required for headless)",
		},
		cli.IntFlag{
			Name:  "clock",
			Usage: "Main processor clock in Hz",
		},
		cli.IntFlag{
			Name:  "refresh-rate",
			Usage: "Video refresh rate in hundredths of Hz",
		},
		cli.IntFlag{
			Name:  "speed-adjust",
			Usage: "Cycle budget scale, 256 = 1.0",
		},
		cli.IntFlag{
			Name:  "scanlines",
			Usage: "Scanlines per frame",
		},
		cli.IntFlag{
			Name:  "frame-skip",
			Usage: "Draw one of every N+1 frames",
		},
		cli.BoolFlag{
			Name:  "no-audio",
			Usage: "Disable the sound subsystem",
		},
		cli.StringFlag{
			Name:  "wav",
			Usage: "Record the audio stream to this WAV file",
		},
		cli.StringFlag{
			Name:  "script",
			Usage: "Lua script providing machine hooks and the interrupt handler",
		},
		cli.StringFlag{
			Name:  "pace",
			Usage: "Frame pacing for the terminal viewer: adaptive, ticker or none",
			Value: timing.PaceAdaptive,
		},
		cli.IntFlag{
			Name:  "dump-interval",
			Usage: "Save raster dumps every N frames in headless mode (0 = disabled)",
		},
		cli.StringFlag{
			Name:  "dump-dir",
			Usage: "Directory to save raster dumps (default: temp directory)",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
	app.Action = runMachine

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running machine", "error", err)

		var setupErr *cps.SetupError
		if errors.As(err, &setupErr) {
			os.Exit(setupErr.Code())
		}
		os.Exit(1)
	}
}

func runMachine(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if path := c.String("save-config"); path != "" {
		if err := cfg.Save(path); err != nil {
			return err
		}
		slog.Info("Configuration saved", "path", path)
		return nil
	}

	frames := c.Int("frames")
	isHeadless := c.Bool("headless")
	if isHeadless && frames <= 0 {
		return errors.New("headless mode requires --frames option with a positive value")
	}

	var (
		be      backend.Backend
		limiter timing.Limiter
	)
	if isHeadless {
		dumpConfig, err := headless.CreateDumpConfig(c.Int("dump-interval"), c.String("dump-dir"))
		if err != nil {
			return err
		}
		be = headless.New(frames, dumpConfig)
		limiter = timing.NewNoOpLimiter()
	} else {
		limiter, err = timing.NewLimiter(c.String("pace"), cfg.CPU.RefreshRate)
		if err != nil {
			return err
		}
		be = terminal.New()
	}
	if ticker, ok := limiter.(*timing.TickerLimiter); ok {
		defer ticker.Stop()
	}

	core := cpu.NewStub()
	dev := cps.Devices{Core: core, Renderer: be}

	// The recorder keeps the whole stream in memory, so an open-ended
	// terminal session only gets one when it is asked to write a file.
	if !cfg.Audio.Disabled && (isHeadless || cfg.Audio.WAVPath != "") {
		tone := &sound.Tone{
			SampleRate: cfg.Audio.SampleRate,
			Frequency:  toneFrequency,
			Amplitude:  toneAmplitude,
		}
		dev.Sound = sound.NewRecorder(cfg.Audio.SampleRate, cfg.CPU.RefreshRate, tone, cfg.Audio.WAVPath)
	}

	var (
		hooks  cps.Hooks
		engine *script.Engine
	)
	if cfg.Script.Path != "" {
		engine = script.New()
		defer engine.Close()

		if err := engine.LoadFile(cfg.Script.Path); err != nil {
			return err
		}
		hooks = engine.Hooks()
		core.Handler = engine.InterruptHandler()
	}

	m := cps.New(cfg, dev, hooks)
	if engine != nil {
		engine.Attach(m.Registers(), m.Aux())
	}

	if err := be.Init(backend.Config{Title: "CPS", ShowLog: !isHeadless}); err != nil {
		return err
	}
	defer be.Cleanup()

	if err := m.Init(); err != nil {
		return err
	}
	defer m.Exit()

	err = run(m, be, limiter, frames)

	stats := m.Stats()
	slog.Info("Machine stopped",
		"frames", stats.Frames,
		"drawn", stats.Drawn,
		"dispatches", stats.Dispatches,
		"carry", stats.Carry)
	if engine != nil && engine.Err() != nil {
		slog.Warn("Script reported errors", "error", engine.Err())
	}
	return err
}

// run drives the machine one frame at a time until the backend asks to
// quit or the frame limit is reached.
func run(m *cps.Machine, be backend.Backend, limiter timing.Limiter, frames int) error {
	skip := false

	for n := 1; ; n++ {
		m.RunFrame()

		events, err := be.Update()
		if err != nil {
			return fmt.Errorf("backend update failed: %w", err)
		}

		for _, ev := range events {
			switch ev {
			case backend.EventQuit:
				return nil
			case backend.EventReset:
				slog.Info("Reset requested")
				m.RequestReset()
			case backend.EventToggleSkip:
				skip = !skip
				m.SetSkipFrame(skip)
				slog.Info("Frame skip toggled", "skip", skip)
			}
		}

		if frames > 0 && n >= frames {
			return nil
		}
		limiter.WaitForNextFrame()
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("clock") {
		cfg.CPU.ClockHz = c.Int("clock")
	}
	if c.IsSet("refresh-rate") {
		cfg.CPU.RefreshRate = c.Int("refresh-rate")
	}
	if c.IsSet("speed-adjust") {
		cfg.CPU.SpeedAdjust = c.Int("speed-adjust")
	}
	if c.IsSet("scanlines") {
		cfg.Video.Scanlines = c.Int("scanlines")
	}
	if c.IsSet("frame-skip") {
		cfg.Video.FrameSkip = c.Int("frame-skip")
	}
	if c.Bool("no-audio") {
		cfg.Audio.Disabled = true
	}
	if c.IsSet("wav") {
		cfg.Audio.WAVPath = c.String("wav")
	}
	if c.IsSet("script") {
		cfg.Script.Path = c.String("script")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

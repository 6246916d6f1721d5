package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-cps/cps/backend"
	"github.com/valerio/go-cps/cps/debug"
	"github.com/valerio/go-cps/cps/raster"
	"github.com/valerio/go-cps/cps/timing"
)

const (
	mapX          = 1
	mapWidth      = 4
	tableX        = mapX + mapWidth + 2
	tableY        = 1
	logsY         = tableY + raster.Capacity + 2
	logBufferSize = 200
	minTermWidth  = 80
	minTermHeight = 24
)

// slotColors gives every snapshot slot its own color in the raster map.
var slotColors = [raster.Capacity]tcell.Color{
	tcell.ColorWhite,
	tcell.ColorRed,
	tcell.ColorGreen,
	tcell.ColorYellow,
	tcell.ColorBlue,
	tcell.ColorFuchsia,
	tcell.ColorAqua,
	tcell.ColorOrange,
	tcell.ColorPurple,
	tcell.ColorLime,
	tcell.ColorTeal,
	tcell.ColorSilver,
}

// Backend shows the raster bands of the last drawn frame in a terminal,
// next to the most recent log messages.
type Backend struct {
	screen     tcell.Screen
	config     backend.Config
	logBuffer  *LogBuffer
	logLevel   slog.Level
	prevLogger *slog.Logger
	signals    chan os.Signal

	frame  backend.Frame
	drawn  int
	shown  bool
	closed bool
}

// New creates a terminal backend drawing on the process terminal.
func New() *Backend {
	return &Backend{logLevel: slog.LevelInfo}
}

// NewWithScreen creates a terminal backend drawing on screen.
func NewWithScreen(screen tcell.Screen) *Backend {
	return &Backend{screen: screen, logLevel: slog.LevelInfo}
}

var _ backend.Backend = (*Backend)(nil)

func (t *Backend) Init(config backend.Config) error {
	t.config = config
	if t.config.Title == "" {
		t.config.Title = "CPS"
	}

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}

	// The terminal owns stdout while it runs, so logs go to the panel.
	t.logBuffer = NewLogBuffer(logBufferSize)
	t.prevLogger = slog.Default()
	slog.SetDefault(slog.New(NewLogHandler(t.logBuffer, slog.LevelDebug)))

	t.signals = make(chan os.Signal, 1)
	signal.Notify(t.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	slog.Info("Terminal backend initialized")
	return nil
}

// Draw keeps a copy of the frame's raster state for the next Update.
func (t *Backend) Draw(store *raster.Store) {
	t.drawn++
	t.frame = backend.CaptureFrame(t.drawn, store)
	t.shown = true
}

// Update handles pending key and signal events, then renders the last
// drawn frame.
func (t *Backend) Update() ([]backend.Event, error) {
	var events []backend.Event

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			if e, ok := t.processKeyEvent(ev); ok {
				events = append(events, e)
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	select {
	case sig := <-t.signals:
		slog.Info("Received signal", "signal", sig)
		events = append(events, backend.EventQuit)
	default:
	}

	t.render()
	t.screen.Show()
	return events, nil
}

func (t *Backend) Cleanup() error {
	if t.closed {
		return nil
	}
	t.closed = true

	if t.signals != nil {
		signal.Stop(t.signals)
	}
	if t.prevLogger != nil {
		slog.SetDefault(t.prevLogger)
	}
	if t.screen != nil {
		slog.Info("Cleaning up terminal backend")
		t.screen.Fini()
	}
	return nil
}

// LogLevel returns the minimum level shown in the log panel.
func (t *Backend) LogLevel() slog.Level {
	return t.logLevel
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey) (backend.Event, bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return backend.EventQuit, true
	case tcell.KeyRune:
	default:
		return 0, false
	}

	switch ev.Rune() {
	case 'q':
		return backend.EventQuit, true
	case 'r':
		return backend.EventReset, true
	case 's':
		return backend.EventToggleSkip, true
	case '+', '=':
		t.changeLogLevel(-1)
	case '-', '_':
		t.changeLogLevel(1)
	}
	return 0, false
}

// changeLogLevel moves the panel filter by direction steps of 4, the
// distance between the slog levels.
func (t *Backend) changeLogLevel(direction int) {
	old := t.logLevel
	level := t.logLevel + slog.Level(4*direction)
	if level < slog.LevelDebug || level > slog.LevelError {
		return
	}
	t.logLevel = level
	slog.Info("Log filter changed", "from", old, "to", t.logLevel)
}

func (t *Backend) render() {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		t.drawText(0, termHeight/2, termWidth, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	title := fmt.Sprintf(" %s  frame %d ", t.config.Title, t.frame.Number)
	if t.shown {
		title += fmt.Sprintf(" bands %d  interrupts %d ", len(t.frame.Bands), t.frame.Interrupts())
	}
	t.drawText(1, 0, termWidth-1, title, titleStyle)

	if t.shown {
		t.drawRasterMap(termHeight)
		t.drawBands(termWidth)
	}
	t.drawLogs(termWidth, termHeight)
}

// drawRasterMap draws the visible display as a column, each row colored by
// the slot whose registers cover the matching scanline.
func (t *Backend) drawRasterMap(termHeight int) {
	rows := termHeight - 2
	if rows > timing.ActiveLines {
		rows = timing.ActiveLines
	}

	for row := 0; row < rows; row++ {
		slot := t.slotAt(row * timing.ActiveLines / rows)
		style := tcell.StyleDefault.Foreground(slotColors[slot])
		for x := mapX; x < mapX+mapWidth; x++ {
			t.screen.SetContent(x, 1+row, '█', nil, style)
		}
	}
}

func (t *Backend) slotAt(line int) int {
	for _, b := range t.frame.Bands {
		if line >= b.Start && line < b.End {
			return b.Slot
		}
	}
	return 0
}

func (t *Backend) drawBands(termWidth int) {
	width := termWidth - tableX
	header := "lines     slot  scroll1    scroll2    scroll3"
	t.drawText(tableX, tableY, width, header, tcell.StyleDefault.Foreground(tcell.ColorYellow))

	for i, b := range t.frame.Bands {
		s := debug.Scrolls(&t.frame.Snapshots[b.Slot].Regs)
		line := fmt.Sprintf("%3d-%3d   %2d    %s  %s  %s", b.Start, b.End-1, b.Slot, s[0], s[1], s[2])
		t.drawText(tableX, tableY+1+i, width, line, tcell.StyleDefault.Foreground(slotColors[b.Slot]))
	}
}

func (t *Backend) drawLogs(termWidth, termHeight int) {
	available := termHeight - logsY - 1
	if available <= 0 {
		return
	}

	debugStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	infoStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	warnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)

	width := termWidth - tableX
	for i, entry := range t.logBuffer.Recent(available, t.logLevel) {
		style := infoStyle
		switch {
		case entry.Level >= slog.LevelError:
			style = errStyle
		case entry.Level >= slog.LevelWarn:
			style = warnStyle
		case entry.Level < slog.LevelInfo:
			style = debugStyle
		}

		text := FormatLogEntry(entry)
		if len(text) > width && width > 3 {
			text = text[:width-3] + "..."
		}
		t.drawText(tableX, logsY+i, width, text, style)
	}
}

func (t *Backend) drawText(x, y, width int, text string, style tcell.Style) {
	i := 0
	for _, ch := range text {
		if i >= width {
			break
		}
		t.screen.SetContent(x+i, y, ch, nil, style)
		i++
	}
}

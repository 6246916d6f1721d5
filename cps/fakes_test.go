package cps

import (
	"fmt"

	"github.com/valerio/go-cps/cps/cpu"
	"github.com/valerio/go-cps/cps/raster"
	"github.com/valerio/go-cps/cps/sound"
)

// recorder collects the calls made on the fakes of a test, in order.
type recorder struct {
	calls []string
}

func (r *recorder) add(format string, args ...any) {
	if r != nil {
		r.calls = append(r.calls, fmt.Sprintf(format, args...))
	}
}

// fakeCore is a scripted processor core. Runs execute the requested cycles
// plus an overrun drawn round-robin from overrun.
type fakeCore struct {
	rec     *recorder
	overrun []int
	next    int

	total      int
	ran        int
	open       bool
	lineCycles int
	irqs       []int

	// onRun is called after every run with the new frame total.
	onRun func(total int)
	// onIRQ is called for every asserted interrupt level.
	onIRQ  func(level int)
	exited bool
}

var _ cpu.Core = (*fakeCore)(nil)

func (c *fakeCore) Open(id int) {
	c.rec.add("core.open(%d)", id)
	c.open = true
}

func (c *fakeCore) Close() {
	c.rec.add("core.close")
	c.open = false
}

func (c *fakeCore) Reset() {
	c.rec.add("core.reset")
}

func (c *fakeCore) NewFrame() {
	c.total = 0
}

func (c *fakeCore) Run(cycles int) int {
	if cycles <= 0 {
		return 0
	}

	done := cycles
	if len(c.overrun) > 0 {
		done += c.overrun[c.next]
		c.next = (c.next + 1) % len(c.overrun)
	}
	c.total += done
	c.ran += done

	if c.onRun != nil {
		c.onRun(c.total)
	}
	return done
}

func (c *fakeCore) Idle(cycles int) {
	c.total += cycles
}

func (c *fakeCore) TotalCycles() int {
	return c.total
}

func (c *fakeCore) SetIRQLine(level int, status cpu.IRQStatus) {
	c.irqs = append(c.irqs, level)
	if c.onIRQ != nil {
		c.onIRQ(level)
	}
}

func (c *fakeCore) SetCyclesScanline(cycles int) {
	c.lineCycles = cycles
}

func (c *fakeCore) Exit() {
	c.rec.add("core.exit")
	c.exited = true
}

// fakeDevice stands in for the memory map, EEPROM and palette.
type fakeDevice struct {
	name    string
	rec     *recorder
	initErr error
	resets  int
}

func (d *fakeDevice) Init() error {
	d.rec.add("%s.init", d.name)
	return d.initErr
}

func (d *fakeDevice) Reset() {
	d.rec.add("%s.reset", d.name)
	d.resets++
}

func (d *fakeDevice) Exit() {
	d.rec.add("%s.exit", d.name)
}

type fakeObjects struct {
	fakeDevice
	captures int
	bank     int
}

func (o *fakeObjects) MapBanks(bank int) {
	o.rec.add("objects.banks(%d)", bank)
	o.bank = bank
}

func (o *fakeObjects) Capture() {
	o.captures++
}

type fakeSound struct {
	fakeDevice
	newFrames, endFrames int
	routes               []string
}

func (s *fakeSound) NewFrame() {
	s.newFrames++
}

func (s *fakeSound) EndFrame() {
	s.endFrames++
}

func (s *fakeSound) SetRoute(output int, gain float64, channel sound.Channel) {
	s.routes = append(s.routes, fmt.Sprintf("%d->%s@%.1f", output, channel, gain))
}

type fakeRenderer struct {
	draws int
	bands [][]raster.Band
}

func (r *fakeRenderer) Draw(store *raster.Store) {
	r.draws++
	r.bands = append(r.bands, store.Bands())
}

type fakeInput struct {
	polls int
}

func (i *fakeInput) Poll() {
	i.polls++
}

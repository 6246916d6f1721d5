package cpu

import "log/slog"

// interruptCycles is the cost of taking an auto-vectored interrupt.
const interruptCycles = 44

// noContext marks a stub with no selected context.
const noContext = -1

var defaultCosts = []int{4, 8, 12, 8, 16, 10, 20, 6, 34, 12}

// Stub is a cycle-accounting model of the main processor. It executes abstract
// instructions whose costs are drawn round-robin from a table and never stops
// in the middle of one, so a run overshoots its budget the way the real core
// does. Pending interrupts above the mask level are taken before the next
// instruction and handed to Handler, which stands in for the service routine.
type Stub struct {
	costs []int
	next  int

	total      int
	lineCycles int

	pending int
	mask    int
	acks    [8]int

	context int

	// Handler is called with the level of every interrupt the stub takes.
	Handler func(level int)
}

var _ Core = (*Stub)(nil)

// NewStub returns a stub core using the given instruction costs, or a
// default mix when none are given.
func NewStub(costs ...int) *Stub {
	if len(costs) == 0 {
		costs = defaultCosts
	}

	return &Stub{
		costs:   append([]int(nil), costs...),
		context: noContext,
	}
}

func (s *Stub) Open(id int) {
	if s.context != noContext {
		slog.Warn("Processor context already open", "open", s.context, "requested", id)
	}
	s.context = id
}

func (s *Stub) Close() {
	s.context = noContext
}

// IsOpen returns true while a context is selected.
func (s *Stub) IsOpen() bool {
	return s.context != noContext
}

func (s *Stub) Reset() {
	s.total = 0
	s.next = 0
	s.pending = 0
	s.mask = 0
	s.acks = [8]int{}
}

func (s *Stub) NewFrame() {
	s.total = 0
}

func (s *Stub) Run(cycles int) int {
	done := 0

	for done < cycles {
		if s.pending > s.mask {
			level := s.pending
			s.pending = 0
			s.acks[level]++
			done += interruptCycles
			s.total += interruptCycles

			if s.Handler != nil {
				s.Handler(level)
			}
			continue
		}

		cost := s.costs[s.next]
		s.next = (s.next + 1) % len(s.costs)
		done += cost
		s.total += cost
	}

	return done
}

func (s *Stub) Idle(cycles int) {
	s.total += cycles
}

func (s *Stub) TotalCycles() int {
	return s.total
}

func (s *Stub) SetIRQLine(level int, status IRQStatus) {
	if level <= 0 || level >= len(s.acks) {
		return
	}

	switch status {
	case IRQNone:
		if s.pending == level {
			s.pending = 0
		}
	case IRQAuto:
		if level > s.pending {
			s.pending = level
		}
	}
}

func (s *Stub) SetCyclesScanline(cycles int) {
	s.lineCycles = cycles
}

// CyclesScanline returns the scanline width last set by the frame executor.
func (s *Stub) CyclesScanline() int {
	return s.lineCycles
}

// SetMask sets the interrupt mask level; only levels above it are taken.
func (s *Stub) SetMask(level int) {
	s.mask = level
}

// Acknowledged returns how many interrupts of the given level were taken
// since the last reset.
func (s *Stub) Acknowledged(level int) int {
	if level <= 0 || level >= len(s.acks) {
		return 0
	}
	return s.acks[level]
}

// MaxOverrun returns the largest number of cycles a single Run call can
// exceed its request by.
func (s *Stub) MaxOverrun() int {
	most := interruptCycles
	for _, c := range s.costs {
		if c > most {
			most = c
		}
	}
	return most - 1
}

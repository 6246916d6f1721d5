package events

import "fmt"

// EventType represents the different things that happen during a frame.
type EventType int

const (
	FrameStart EventType = iota
	Dispatch
	Snapshot
	Discard
	ObjectCapture
	VBlank
	Draw
	FrameEnd
)

var typeNames = [...]string{
	FrameStart:    "frame-start",
	Dispatch:      "dispatch",
	Snapshot:      "snapshot",
	Discard:       "discard",
	ObjectCapture: "object-capture",
	VBlank:        "vblank",
	Draw:          "draw",
	FrameEnd:      "frame-end",
}

func (t EventType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("event(%d)", int(t))
	}
	return typeNames[t]
}

// FrameEvent is a single entry of the frame log.
type FrameEvent struct {
	Cycle int       // processor cycle total when the event happened
	Type  EventType // type of event
	Line  int       // scanline, where meaningful
	Slot  int       // raster slot, where meaningful
}

func (e FrameEvent) String() string {
	return fmt.Sprintf("%8d %-14s line=%d slot=%d", e.Cycle, e.Type, e.Line, e.Slot)
}

// Log records the events of the current frame. A nil *Log discards
// everything, so callers never need to check for one.
type Log struct {
	events []FrameEvent
}

// NewLog creates a log with room for size events before it grows.
func NewLog(size int) *Log {
	return &Log{events: make([]FrameEvent, 0, size)}
}

// Record appends an event.
func (l *Log) Record(cycle int, eventType EventType, line, slot int) {
	if l == nil {
		return
	}
	l.events = append(l.events, FrameEvent{Cycle: cycle, Type: eventType, Line: line, Slot: slot})
}

// Reset drops every recorded event, keeping the allocation.
func (l *Log) Reset() {
	if l == nil {
		return
	}
	l.events = l.events[:0]
}

// Events returns the recorded events in order.
func (l *Log) Events() []FrameEvent {
	if l == nil {
		return nil
	}
	return l.events
}

// Count returns the number of recorded events of the given type.
func (l *Log) Count(eventType EventType) int {
	n := 0
	for _, e := range l.Events() {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// Of returns the recorded events of the given type.
func (l *Log) Of(eventType EventType) []FrameEvent {
	var out []FrameEvent
	for _, e := range l.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

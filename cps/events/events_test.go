package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLog(t *testing.T) {
	t.Run("records in order", func(t *testing.T) {
		l := NewLog(4)
		l.Record(0, FrameStart, 0, 0)
		l.Record(100, Dispatch, 20, 1)
		l.Record(900, Snapshot, 20, 1)
		l.Record(5000, VBlank, 240, 0)
		l.Record(5001, Dispatch, 60, 2)

		assert.Len(t, l.Events(), 5)
		assert.Equal(t, FrameEvent{Cycle: 100, Type: Dispatch, Line: 20, Slot: 1}, l.Events()[1])
		assert.Equal(t, 2, l.Count(Dispatch))
		assert.Equal(t, []FrameEvent{{Cycle: 5000, Type: VBlank, Line: 240}}, l.Of(VBlank))
	})

	t.Run("reset keeps nothing", func(t *testing.T) {
		l := NewLog(1)
		l.Record(0, FrameStart, 0, 0)
		l.Reset()

		assert.Empty(t, l.Events())
		assert.Zero(t, l.Count(FrameStart))
	})

	t.Run("nil log is a no-op", func(t *testing.T) {
		var l *Log
		l.Record(0, Draw, 0, 0)
		l.Reset()

		assert.Nil(t, l.Events())
		assert.Zero(t, l.Count(Draw))
	})
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "dispatch", Dispatch.String())
	assert.Equal(t, "frame-end", FrameEnd.String())
	assert.Equal(t, "event(42)", EventType(42).String())
	assert.Contains(t, FrameEvent{Cycle: 12, Type: VBlank, Line: 240}.String(), "vblank")
}

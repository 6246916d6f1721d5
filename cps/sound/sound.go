// Package sound provides the audio subsystem driven by the frame executor.
package sound

// Channel is a stereo output channel.
type Channel int

const (
	Left Channel = iota
	Right
)

func (c Channel) String() string {
	if c == Right {
		return "right"
	}
	return "left"
}

// Outputs is the number of outputs of the sound chip.
const Outputs = 2

// Subsystem is the audio side of the board. The frame executor brackets every
// frame with NewFrame and EndFrame while audio is enabled.
type Subsystem interface {
	Init() error
	Reset()
	Exit()
	NewFrame()
	EndFrame()
	// SetRoute sends a chip output to a stereo channel with the given gain.
	SetRoute(output int, gain float64, channel Channel)
}

// Source renders the raw chip outputs. Both slices have the same length.
type Source interface {
	Render(out1, out2 []int16)
}

// Silence is a Source that renders nothing.
type Silence struct{}

func (Silence) Render(out1, out2 []int16) {
	clear(out1)
	clear(out2)
}

// Tone is a Source producing a square wave on output 1 and silence on
// output 2.
type Tone struct {
	SampleRate int
	Frequency  int
	Amplitude  int16

	phase int
}

func (t *Tone) Render(out1, out2 []int16) {
	clear(out2)
	if t.SampleRate <= 0 || t.Frequency <= 0 {
		clear(out1)
		return
	}

	half := t.SampleRate / (2 * t.Frequency)
	if half == 0 {
		half = 1
	}

	for i := range out1 {
		if (t.phase/half)%2 == 0 {
			out1[i] = t.Amplitude
		} else {
			out1[i] = -t.Amplitude
		}
		t.phase++
	}
}

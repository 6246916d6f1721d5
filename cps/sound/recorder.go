package sound

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const bitDepth = 16

type route struct {
	gain    float64
	channel Channel
}

// Recorder is a Subsystem that renders a Source into an interleaved stereo
// stream, paced by frames: every frame produces sampleRate/refresh samples,
// with the fractional part carried to the next frame. When a path is set
// the stream is written as a WAV file on Exit.
type Recorder struct {
	sampleRate  int
	refreshRate int
	source      Source
	path        string

	routes  [Outputs]route
	remain  int
	inFrame bool
	frames  int

	out1, out2 []int16
	samples    []int
}

var _ Subsystem = (*Recorder)(nil)

// NewRecorder creates a recorder. refreshRate is in hundredths of Hz. A nil
// source renders silence; an empty path keeps the stream in memory only.
func NewRecorder(sampleRate, refreshRate int, source Source, path string) *Recorder {
	if source == nil {
		source = Silence{}
	}

	return &Recorder{
		sampleRate:  sampleRate,
		refreshRate: refreshRate,
		source:      source,
		path:        path,
	}
}

func (r *Recorder) Init() error {
	if r.sampleRate <= 0 || r.refreshRate <= 0 {
		return fmt.Errorf("invalid audio rate %d Hz at refresh %d", r.sampleRate, r.refreshRate)
	}

	r.samples = r.samples[:0]
	r.frames = 0
	r.remain = 0
	return nil
}

func (r *Recorder) Reset() {
	r.remain = 0
	r.inFrame = false
}

func (r *Recorder) Exit() {
	if r.path == "" {
		return
	}

	f, err := os.Create(r.path)
	if err != nil {
		slog.Error("Failed to create audio file", "path", r.path, "error", err)
		return
	}
	defer f.Close()

	if err := r.Encode(f); err != nil {
		slog.Error("Failed to write audio file", "path", r.path, "error", err)
		return
	}

	slog.Info("Audio written", "path", r.path, "frames", r.frames, "samples", len(r.samples)/2)
}

func (r *Recorder) NewFrame() {
	r.inFrame = true
}

// EndFrame renders the samples of the frame that just finished.
func (r *Recorder) EndFrame() {
	if !r.inFrame {
		slog.Warn("Audio frame ended without a start", "frame", r.frames)
	}
	r.inFrame = false
	r.frames++

	total := r.sampleRate*100 + r.remain
	n := total / r.refreshRate
	r.remain = total % r.refreshRate

	if cap(r.out1) < n {
		r.out1 = make([]int16, n)
		r.out2 = make([]int16, n)
	}
	out1, out2 := r.out1[:n], r.out2[:n]
	r.source.Render(out1, out2)

	for i := 0; i < n; i++ {
		var left, right float64
		for o, v := range [Outputs]int16{out1[i], out2[i]} {
			rt := r.routes[o]
			s := float64(v) * rt.gain
			if rt.channel == Right {
				right += s
			} else {
				left += s
			}
		}
		r.samples = append(r.samples, clamp16(left), clamp16(right))
	}
}

func (r *Recorder) SetRoute(output int, gain float64, channel Channel) {
	if output < 0 || output >= Outputs {
		slog.Warn("Ignoring route for unknown output", "output", output)
		return
	}
	r.routes[output] = route{gain: gain, channel: channel}
}

// Frames returns the number of frames rendered since Init.
func (r *Recorder) Frames() int {
	return r.frames
}

// Samples returns the interleaved stereo stream.
func (r *Recorder) Samples() []int {
	return r.samples
}

// Encode writes the stream as a 16 bit stereo PCM WAV file.
func (r *Recorder) Encode(w io.WriteSeeker) error {
	enc := wav.NewEncoder(w, r.sampleRate, bitDepth, 2, 1)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: r.sampleRate},
		Data:           r.samples,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}

	return enc.Close()
}

func clamp16(v float64) int {
	return int(math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(v))))
}

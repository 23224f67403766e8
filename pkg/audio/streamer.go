// Package audio moves rendered synth output to files and sound devices.
package audio

import (
	"errors"
	"math"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/justyntemme/polysynth/pkg/dsp/dynamics"
	"github.com/justyntemme/polysynth/pkg/dsp/gain"
	"github.com/justyntemme/polysynth/pkg/dsp/utility"
	"github.com/justyntemme/polysynth/pkg/framework/debug"
)

// ErrNoSource is returned when output is requested without a source
var ErrNoSource = errors.New("audio: no source")

// Source renders the next len(out) mono samples. *process.Renderer
// implements it.
type Source interface {
	Render(out []float32)
}

// SourceFunc adapts a function to Source
type SourceFunc func(out []float32)

func (f SourceFunc) Render(out []float32) {
	f(out)
}

// DefaultClipThreshold is where WithSoftClip starts bending the signal
const DefaultClipThreshold = 0.95

type stageConfig struct {
	gain     float32
	dcCutoff float64
	limit    bool
	ceiling  float64
	softClip bool
	length   int64
	profiler *debug.Profiler
}

// StreamOption configures a Stage or a Streamer
type StreamOption func(*stageConfig)

// WithGain scales the output by the linear gain g
func WithGain(g float64) StreamOption {
	return func(c *stageConfig) { c.gain = float32(g) }
}

// WithDCBlocker removes DC below cutoffHz
func WithDCBlocker(cutoffHz float64) StreamOption {
	return func(c *stageConfig) { c.dcCutoff = cutoffHz }
}

// WithLimiter holds the output below ceilingDB
func WithLimiter(ceilingDB float64) StreamOption {
	return func(c *stageConfig) {
		c.limit = true
		c.ceiling = ceilingDB
	}
}

// WithSoftClip bends the output above DefaultClipThreshold
func WithSoftClip() StreamOption {
	return func(c *stageConfig) { c.softClip = true }
}

// WithLength ends a Streamer after n samples
func WithLength(n int64) StreamOption {
	return func(c *stageConfig) { c.length = n }
}

// WithStreamProfiler times each Streamer pull under "stream"
func WithStreamProfiler(p *debug.Profiler) StreamOption {
	return func(c *stageConfig) { c.profiler = p }
}

func newStageConfig(opts []StreamOption) stageConfig {
	cfg := stageConfig{gain: 1, length: -1}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Stage is the output processing applied after the synth: gain, DC
// blocking, limiting and soft clipping, in that order.
type Stage struct {
	src      Source
	gain     float32
	dc       *utility.DCBlocker
	limiter  *dynamics.Limiter
	softClip bool
}

// NewStage wraps src. Length and profiler options are ignored.
func NewStage(src Source, sampleRate int, opts ...StreamOption) *Stage {
	return newStage(src, sampleRate, newStageConfig(opts))
}

func newStage(src Source, sampleRate int, cfg stageConfig) *Stage {
	st := &Stage{
		src:      src,
		gain:     cfg.gain,
		softClip: cfg.softClip,
	}
	if cfg.dcCutoff > 0 {
		st.dc = utility.NewDCBlocker(cfg.dcCutoff, float64(sampleRate))
	}
	if cfg.limit {
		st.limiter = dynamics.NewLimiter(float64(sampleRate))
		st.limiter.SetCeiling(cfg.ceiling)
	}
	return st
}

// Render implements Source. A nil source renders silence.
func (st *Stage) Render(out []float32) {
	if st.src == nil {
		clear(out)
		return
	}
	st.src.Render(out)

	if st.gain != 1 {
		gain.ApplyBuffer(out, st.gain)
	}
	if st.dc != nil {
		st.dc.ProcessBuffer(out)
	}
	if st.limiter != nil {
		st.limiter.ProcessBuffer(out)
	}
	if st.softClip {
		gain.SoftClipBuffer(out, DefaultClipThreshold)
	}
}

// Streamer pulls mono blocks through a Stage and plays them on both
// channels. It implements beep.Streamer.
type Streamer struct {
	mu       sync.Mutex
	stage    *Stage
	buf      []float32
	left     int64 // negative means endless
	profiler *debug.Profiler
}

func NewStreamer(src Source, sampleRate int, opts ...StreamOption) *Streamer {
	cfg := newStageConfig(opts)
	return &Streamer{
		stage:    newStage(src, sampleRate, cfg),
		buf:      make([]float32, 512),
		left:     cfg.length,
		profiler: cfg.profiler,
	}
}

// SetSource swaps the source. A nil source plays silence.
func (s *Streamer) SetSource(src Source) {
	s.mu.Lock()
	s.stage.src = src
	s.mu.Unlock()
}

// Remaining returns the samples left, or -1 for an endless stream
func (s *Streamer) Remaining() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.left
}

func (s *Streamer) Stream(samples [][2]float64) (n int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.left == 0 {
		return 0, false
	}
	if s.profiler != nil {
		defer s.profiler.Start("stream")()
	}

	want := len(samples)
	if s.left > 0 && int64(want) > s.left {
		want = int(s.left)
	}

	if cap(s.buf) < want {
		s.buf = make([]float32, want)
	}
	buf := s.buf[:want]
	s.stage.Render(buf)

	for i, x := range buf {
		v := float64(x)
		samples[i][0] = v
		samples[i][1] = v
	}

	if s.left > 0 {
		s.left -= int64(want)
	}
	return want, true
}

func (s *Streamer) Err() error {
	return nil
}

// Volume is a live master volume for the beep speaker
type Volume struct {
	*effects.Volume
}

// NewVolume wraps s at the linear gain vol
func NewVolume(s beep.Streamer, vol float64) *Volume {
	v := &Volume{&effects.Volume{Streamer: s, Base: 2}}
	v.Set(vol)
	return v
}

// Set changes the gain while the speaker may be playing. Zero or less is
// silent.
func (v *Volume) Set(vol float64) {
	speaker.Lock()
	defer speaker.Unlock()
	if vol <= 0 {
		v.Volume.Volume = 0
		v.Silent = true
		return
	}
	v.Volume.Volume = math.Log2(vol)
	v.Silent = false
}

// Get returns the linear gain
func (v *Volume) Get() float64 {
	speaker.Lock()
	defer speaker.Unlock()
	if v.Silent {
		return 0
	}
	return math.Exp2(v.Volume.Volume)
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/justyntemme/polysynth/pkg/audio"
	"github.com/justyntemme/polysynth/pkg/dsp/dynamics"
	"github.com/justyntemme/polysynth/pkg/framework/debug"
	"github.com/justyntemme/polysynth/pkg/framework/process"
	"github.com/justyntemme/polysynth/pkg/patch"
	"github.com/justyntemme/polysynth/pkg/score"
	"github.com/justyntemme/polysynth/pkg/synth"
)

// dcCutoff is the corner of the optional output DC blocker
const dcCutoff = 5.0

// engine is a synth with its patch, score and renderer set up from a Config
type engine struct {
	cfg      *Config
	log      *debug.Logger
	synth    *synth.Synth
	patch    *patch.Patch
	score    *score.Score // nil without a score
	renderer *process.Renderer
	profiler *debug.Profiler // nil unless profiling
}

func newEngine(cfg *Config, log *debug.Logger, scorePath string) (*engine, error) {
	e := &engine{
		cfg:   cfg,
		log:   log,
		synth: synth.New(synth.WithSampleRate(cfg.SampleRate), synth.WithLogger(log.With("synth"))),
		patch: patch.New(),
	}

	if cfg.PatchFile != "" {
		if err := loadPatch(e.patch, cfg.PatchFile); err != nil {
			e.synth.Close()
			return nil, err
		}
		log.Debug("loaded patch %s", cfg.PatchFile)
	}

	if scorePath != "" {
		sc, err := score.LoadFile(scorePath, cfg.SampleRate)
		if err != nil {
			e.synth.Close()
			return nil, err
		}
		if err := sc.ApplyOverrides(e.patch); err != nil {
			e.synth.Close()
			return nil, fmt.Errorf("%s: %w", scorePath, err)
		}
		e.score = sc
		log.Debug("loaded score %s: %d events, %d overrides", scorePath, len(sc.Events), len(sc.Overrides))
	}

	e.patch.Apply(e.synth)

	e.renderer = process.NewRenderer(e.synth, cfg.BlockSize)
	e.renderer.Dispatcher().SetLogger(log.With("midi"))
	if e.score != nil {
		e.renderer.Schedule(e.score.Events...)
	}

	if cfg.Profile {
		e.profiler = debug.NewProfiler(1000)
		e.renderer.SetProfiler(e.profiler)
	}
	return e, nil
}

func loadPatch(p *patch.Patch, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open patch: %w", err)
	}
	defer f.Close()

	if err := p.Load(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// streamOptions returns the output stage configured by the flags
func (e *engine) streamOptions() []audio.StreamOption {
	opts := []audio.StreamOption{audio.WithGain(e.cfg.Volume)}
	if e.cfg.DCBlock {
		opts = append(opts, audio.WithDCBlocker(dcCutoff))
	}
	if e.cfg.Limit {
		opts = append(opts, audio.WithLimiter(dynamics.DefaultCeiling))
	}
	if e.cfg.SoftClip {
		opts = append(opts, audio.WithSoftClip())
	}
	if e.profiler != nil {
		opts = append(opts, audio.WithStreamProfiler(e.profiler))
	}
	return opts
}

// report prints the profiler timings and the render load
func (e *engine) report(w io.Writer) {
	if e.profiler == nil {
		return
	}
	fmt.Fprint(w, e.profiler.Report())
	load := e.profiler.Load("render", e.renderer.BlockSize(), float64(e.cfg.SampleRate))
	fmt.Fprintf(w, "render load: %.1f%% of real time\n", load*100)
}

func (e *engine) close() {
	e.synth.Close()
}

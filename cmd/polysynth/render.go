package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/justyntemme/polysynth/pkg/audio"
	"github.com/justyntemme/polysynth/pkg/dsp/analysis"
	"github.com/justyntemme/polysynth/pkg/dsp/gain"
	"github.com/justyntemme/polysynth/pkg/framework/debug"
	"github.com/justyntemme/polysynth/pkg/midi"
)

// samples kept for the pitch estimate of -analyze
const pitchWindow = 8192

func cmdRender(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var scorePath, outPath string
	var analyze bool

	cfg, err := parseFlags("render", args, stderr, func(fs *flag.FlagSet, cfg *Config) {
		fs.StringVar(&scorePath, "score", "", "Lua score to render (required)")
		fs.StringVar(&outPath, "o", "out.wav", "output WAV file")
		fs.BoolVar(&analyze, "analyze", false, "print level and pitch of the output")
	})
	if err != nil {
		return err
	}
	if scorePath == "" {
		return errors.New("-score is required")
	}

	log, err := cfg.Logger("render")
	if err != nil {
		return err
	}
	defer log.Close()

	e, err := newEngine(cfg, log, scorePath)
	if err != nil {
		return err
	}
	defer e.close()

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	mon := newMonitor(e.score.Length, progressWriter(stderr))
	src := audio.SourceFunc(func(out []float32) {
		if ctx.Err() != nil {
			clear(out)
			return
		}
		e.renderer.Render(out)
		mon.observe(out)
	})

	start := time.Now()
	stream := audio.NewStreamer(src, cfg.SampleRate, append(e.streamOptions(), audio.WithLength(e.score.Length))...)
	if err := audio.EncodeWAV(f, stream, cfg.SampleRate); err != nil {
		return err
	}
	mon.done()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("render interrupted: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	log.Info("wrote %s: %.2f s in %v", outPath, e.score.Duration(), time.Since(start).Round(time.Millisecond))
	for _, issue := range mon.analyzer.Issues("synth output") {
		log.Warn("%s", issue)
	}

	if analyze {
		mon.print(stdout, float64(cfg.SampleRate))
	}
	e.report(stdout)
	return nil
}

// progressWriter returns w when it is a terminal, nil otherwise
func progressWriter(w io.Writer) io.Writer {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return f
}

// monitor watches the synth output during a render
type monitor struct {
	analyzer *debug.AudioAnalyzer
	head     []float32
	total    int64
	seen     int64
	percent  int
	progress io.Writer
}

func newMonitor(total int64, progress io.Writer) *monitor {
	return &monitor{
		analyzer: debug.NewAudioAnalyzer(),
		head:     make([]float32, 0, pitchWindow),
		total:    total,
		percent:  -1,
		progress: progress,
	}
}

func (m *monitor) observe(out []float32) {
	m.analyzer.Write(out)
	if n := min(cap(m.head)-len(m.head), len(out)); n > 0 {
		m.head = append(m.head, out[:n]...)
	}

	m.seen += int64(len(out))
	if m.progress == nil || m.total <= 0 {
		return
	}
	if p := int(min(m.seen, m.total) * 100 / m.total); p != m.percent {
		m.percent = p
		fmt.Fprintf(m.progress, "\rrendering %3d%%", p)
	}
}

func (m *monitor) done() {
	if m.progress != nil && m.percent >= 0 {
		fmt.Fprintln(m.progress)
	}
}

func (m *monitor) print(w io.Writer, sampleRate float64) {
	r := m.analyzer.Result()
	fmt.Fprintf(w, "samples  %d\n", r.Samples)
	fmt.Fprintf(w, "peak     %.1f dB\n", gain.LinearToDb(float64(r.Peak)))
	fmt.Fprintf(w, "rms      %.1f dB\n", gain.LinearToDb(float64(r.RMS)))
	fmt.Fprintf(w, "dc       %.4f\n", r.DC)
	fmt.Fprintf(w, "clipped  %d\n", r.ClippedSamples)

	if r.Silent {
		fmt.Fprintln(w, "pitch    -")
		return
	}
	freq := analysis.DominantFrequency(m.head, sampleRate)
	if freq <= 0 {
		fmt.Fprintln(w, "pitch    -")
		return
	}
	note := int(math.Round(69 + 12*math.Log2(freq/440)))
	fmt.Fprintf(w, "pitch    %.1f Hz (%s)\n", freq, midi.NoteNumberToName(note))
}

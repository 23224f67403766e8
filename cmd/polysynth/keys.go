package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/justyntemme/polysynth/pkg/audio"
	"github.com/justyntemme/polysynth/pkg/dsp/analysis"
	"github.com/justyntemme/polysynth/pkg/dsp/gain"
	"github.com/justyntemme/polysynth/pkg/framework/process"
	"github.com/justyntemme/polysynth/pkg/midi"
)

// keyRow maps the home row to one and a half octaves starting at C, with
// the sharps on the row above
const keyRow = "awsedftgyhujkolp;'"

const (
	defaultOctave = 4
	minOctave     = -1
	maxOctave     = 9
	meterFloorDB  = -60.0
	volumeStep    = 0.1
)

// keyNote returns the MIDI note played by r in octave
func keyNote(r rune, octave int) (int, bool) {
	i := strings.IndexRune(keyRow, unicode.ToLower(r))
	if i < 0 {
		return 0, false
	}
	note := (octave+1)*12 + i
	if note < 0 || note > 127 {
		return 0, false
	}
	return note, true
}

func cmdKeys(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var gate time.Duration
	var velocity int

	cfg, err := parseFlags("keys", args, stderr, func(fs *flag.FlagSet, cfg *Config) {
		fs.DurationVar(&gate, "gate", 400*time.Millisecond, "how long a key press holds its note")
		fs.IntVar(&velocity, "velocity", 100, "note velocity, 1-127")
		cfg.RegisterDeviceFlags(fs)
	})
	if err != nil {
		return err
	}
	if velocity < 1 || velocity > 127 {
		return fmt.Errorf("invalid velocity %d", velocity)
	}

	log, err := cfg.Logger("keys")
	if err != nil {
		return err
	}
	defer log.Close()

	e, err := newEngine(cfg, log, "")
	if err != nil {
		return err
	}
	defer e.close()

	live := newLiveSynth(e.renderer, cfg.BlockSize, gate)
	stage := audio.NewStage(live, cfg.SampleRate, e.streamOptions()...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var setVolume func(float64)
	var getVolume func() float64
	switch cfg.Backend {
	case "beep":
		vol := audio.NewVolume(audio.NewStreamer(stage, cfg.SampleRate), 1)
		setVolume, getVolume = vol.Set, vol.Get
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := audio.PlaySpeaker(ctx, vol, cfg.SampleRate, cfg.Latency); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("speaker: %v", err)
			}
		}()
		defer func() {
			cancel()
			<-done
		}()
	default:
		player, err := audio.NewPlayer(cfg.SampleRate, cfg.Latency)
		if err != nil {
			return err
		}
		defer player.Close()
		player.SetProfiler(e.profiler)
		player.SetSource(stage)
		player.Start()
		setVolume, getVolume = player.SetVolume, player.Volume
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}

	ui := &keysUI{
		screen:    screen,
		live:      live,
		octave:    defaultOctave,
		velocity:  uint8(velocity),
		setVolume: setVolume,
		getVolume: getVolume,
	}
	ui.run(ctx)
	screen.Fini()

	e.report(stdout)
	return nil
}

// liveSynth renders the renderer one channel per voice for the meters and
// takes notes from another goroutine. Render runs on the audio thread; the
// meter state is published through atomics.
type liveSynth struct {
	renderer *process.Renderer
	ctx      *process.Context
	meters   []*analysis.PeakMeter
	gate     int64

	input   chan midi.Event
	release map[uint8]int64 // note to release position
	sustain atomic.Bool

	notes  []atomic.Int32  // -1 when the slot is free
	levels []atomic.Uint32 // float32 bits of the meter peak
}

func newLiveSynth(r *process.Renderer, blockSize int, gate time.Duration) *liveSynth {
	s := r.Synth()
	sr := float64(s.SampleRate())
	n := s.NumberVoices()

	l := &liveSynth{
		renderer: r,
		ctx:      process.NewContext(blockSize, n, sr),
		meters:   make([]*analysis.PeakMeter, n),
		gate:     max(1, int64(gate.Seconds()*sr)),
		input:    make(chan midi.Event, 64),
		release:  make(map[uint8]int64),
		notes:    make([]atomic.Int32, n),
		levels:   make([]atomic.Uint32, n),
	}
	for i := range l.meters {
		l.meters[i] = analysis.NewPeakMeter(sr)
		l.notes[i].Store(-1)
	}
	return l
}

// Play sends a gated note. It never blocks; notes are dropped when the
// audio thread falls behind.
func (l *liveSynth) Play(note, velocity uint8) bool {
	return l.send(midi.NoteOnEvent{NoteNumber: note, Velocity: velocity})
}

// ToggleSustain flips the sustain pedal and returns its new state
func (l *liveSynth) ToggleSustain() bool {
	on := !l.sustain.Load()
	value := uint8(0)
	if on {
		value = 127
	}
	if l.send(midi.ControlChangeEvent{Controller: midi.CCSustain, Value: value}) {
		l.sustain.Store(on)
	}
	return l.sustain.Load()
}

// Panic releases everything
func (l *liveSynth) Panic() {
	l.send(midi.ControlChangeEvent{Controller: midi.CCAllNotesOff})
	if l.sustain.Load() && l.send(midi.ControlChangeEvent{Controller: midi.CCSustain}) {
		l.sustain.Store(false)
	}
}

func (l *liveSynth) send(e midi.Event) bool {
	select {
	case l.input <- e:
		return true
	default:
		return false
	}
}

func (l *liveSynth) Render(out []float32) {
	pos := l.renderer.Position()
	l.drain(pos)

	end := pos + int64(len(out))
	for note, at := range l.release {
		if at < end {
			l.renderer.Schedule(midi.NoteOffEvent{BaseEvent: midi.BaseEvent{Offset: max(at, pos)}, NoteNumber: note})
			delete(l.release, note)
		}
	}

	block := l.ctx.MaxBlockSize()
	for off := 0; off < len(out); off += block {
		n := min(block, len(out)-off)
		l.ctx.SetNumSamples(n)
		l.renderer.RenderContext(l.ctx)
		l.ctx.ProcessChannels(func(ch int, buf []float32) {
			l.meters[ch].Process(buf)
		})
		l.ctx.MixDown(out[off : off+n])
	}

	l.publish()
}

func (l *liveSynth) drain(pos int64) {
	for {
		select {
		case e := <-l.input:
			l.renderer.Schedule(midi.WithOffset(e, pos))
			switch ev := e.(type) {
			case midi.NoteOnEvent:
				l.release[ev.NoteNumber] = pos + l.gate
			case midi.ControlChangeEvent:
				if ev.Controller == midi.CCAllNotesOff {
					clear(l.release)
				}
			}
		default:
			return
		}
	}
}

func (l *liveSynth) publish() {
	s := l.renderer.Synth()
	for i := range l.notes {
		v := s.Voice(i)
		note := int32(-1)
		if v != nil && (v.Active() || v.Cued()) {
			note = int32(v.Note())
		}
		l.notes[i].Store(note)
		l.levels[i].Store(math.Float32bits(float32(l.meters[i].Hold())))
	}
}

// Voices returns the note and meter level of every slot
func (l *liveSynth) Voices() (notes []int, levels []float64) {
	notes = make([]int, len(l.notes))
	levels = make([]float64, len(l.levels))
	for i := range l.notes {
		notes[i] = int(l.notes[i].Load())
		levels[i] = float64(math.Float32frombits(l.levels[i].Load()))
	}
	return notes, levels
}

type keysUI struct {
	screen    tcell.Screen
	live      *liveSynth
	octave    int
	velocity  uint8
	setVolume func(float64)
	getVolume func() float64
}

func (u *keysUI) run(ctx context.Context) {
	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	u.draw()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if !u.handle(ev) {
				return
			}
		case <-ticker.C:
			u.draw()
		}
	}
}

func (u *keysUI) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyEnter:
			u.live.Panic()
			return true
		case tcell.KeyRune:
		default:
			return true
		}

		switch r := ev.Rune(); r {
		case ' ':
			u.live.ToggleSustain()
		case 'z':
			u.octave = max(u.octave-1, minOctave)
		case 'x':
			u.octave = min(u.octave+1, maxOctave)
		case '-':
			u.setVolume(max(u.getVolume()-volumeStep, 0))
		case '=', '+':
			u.setVolume(min(u.getVolume()+volumeStep, 1))
		default:
			if note, ok := keyNote(r, u.octave); ok {
				u.live.Play(uint8(note), u.velocity)
			}
		}

	case *tcell.EventResize:
		u.screen.Sync()
	}
	return true
}

func (u *keysUI) draw() {
	u.screen.Clear()
	width, height := u.screen.Size()

	sustain := "off"
	if u.live.sustain.Load() {
		sustain = "on"
	}
	header := tcell.StyleDefault.Bold(true)
	help := tcell.StyleDefault.Foreground(tcell.ColorGray)

	u.text(0, 0, header, fmt.Sprintf("polysynth  octave %d  volume %3.0f%%  sustain %s",
		u.octave, u.getVolume()*100, sustain))
	u.text(0, 1, help, "a w s e d f t g y h u j k o l p ; '  notes   z/x octave   -/= volume")
	u.text(0, 2, help, "space sustain   enter all notes off   esc quit")

	notes, levels := u.live.Voices()
	barWidth := max(width-12, 1)
	for i := range notes {
		y := 4 + i
		if y >= height {
			break
		}

		name := "-"
		style := tcell.StyleDefault.Foreground(tcell.ColorGray)
		if notes[i] >= 0 {
			name = midi.NoteNumberToName(notes[i])
			style = tcell.StyleDefault.Foreground(tcell.ColorGreen)
		}
		u.text(0, y, style, fmt.Sprintf("%3d %-5s", i, name))

		fill := meterWidth(levels[i], barWidth)
		for x := 0; x < fill; x++ {
			u.screen.SetContent(10+x, y, '█', nil, meterStyle(x, barWidth))
		}
	}

	u.screen.Show()
}

func (u *keysUI) text(x, y int, style tcell.Style, s string) {
	for _, r := range s {
		u.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// meterWidth maps a linear level to cells, -60 dB to 0 dB
func meterWidth(level float64, width int) int {
	db := gain.LinearToDb(level)
	if db <= meterFloorDB {
		return 0
	}
	frac := min((db-meterFloorDB)/-meterFloorDB, 1)
	return int(math.Round(frac * float64(width)))
}

func meterStyle(x, width int) tcell.Style {
	switch {
	case x >= width*9/10:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	case x >= width*3/4:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	}
}

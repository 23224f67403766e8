// Package synth implements a polyphonic voice engine with voice stealing,
// unison and sample accurate note onsets.
//
// A Synth owns a fixed pool of voices. NoteOn cues a voice to start at a
// sample offset inside the next Process call; Process promotes cued voices,
// renders oscillator, filter and envelopes, and mixes into the output.
// The engine does no locking. NoteOn, NoteOff, Process, ProcessMulti and
// SetNumberVoices must be called from one goroutine at a time.
package synth

import (
	"time"

	"github.com/justyntemme/polysynth/pkg/dsp/filter"
	"github.com/justyntemme/polysynth/pkg/dsp/tuning"
	"github.com/justyntemme/polysynth/pkg/dsp/utility"
	"github.com/justyntemme/polysynth/pkg/dsp/waveform"
	"github.com/justyntemme/polysynth/pkg/framework/debug"
)

// Engine defaults
const (
	DefaultNumberVoices = 16
	DefaultSampleRate   = 44100
	DefaultPolicy       = PolicyOldest
)

// adsr holds the four envelope settings
type adsr struct {
	attack, decay, sustain, release float64
}

// Synth is a polyphonic voice engine
type Synth struct {
	voices     []Voice
	generation uint64
	serial     uint64

	policy     Policy
	sampleRate int
	volume     float64

	unisonVoices   int
	unisonNoteStep int
	unisonDetune   float64
	combinedUnison bool

	env adsr

	pulseWidth float64
	waveform   waveform.Type

	filterType        filter.Type
	filterOrder       int
	filterFreq        float64
	filterReso        float64
	filterKeyFollow   float64
	filterEnvAmount   float64
	filterEnvKeyFollow float64
	fenv              adsr

	noteFreq *tuning.NoteFreq
	random   *utility.NoiseGenerator
	logger   *debug.Logger

	voiceStarted func(*Voice)
	voiceEnded   func(*Voice)
}

// Option configures a Synth in New
type Option func(*Synth)

// WithVoices sets the size of the voice pool
func WithVoices(n int) Option {
	return func(s *Synth) { s.SetNumberVoices(n) }
}

// WithSampleRate sets the sample rate in Hz
func WithSampleRate(sr int) Option {
	return func(s *Synth) { s.SetSampleRate(sr) }
}

// WithPolicy sets the voice stealing policy
func WithPolicy(p Policy) Option {
	return func(s *Synth) { s.policy = p }
}

// WithLogger sets the logger for allocation and configuration messages
func WithLogger(l *debug.Logger) Option {
	return func(s *Synth) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSeed seeds the unison detune random source
func WithSeed(seed int64) Option {
	return func(s *Synth) { s.random.SetSeed(seed) }
}

// New creates a Synth with the default settings
func New(opts ...Option) *Synth {
	s := &Synth{
		policy:       DefaultPolicy,
		sampleRate:   DefaultSampleRate,
		volume:       1,
		unisonVoices: 1,
		env:          adsr{attack: 0.05, decay: 1},
		pulseWidth:   0.5,
		waveform:     waveform.Sine,
		filterType:   filter.Bypass,
		filterOrder:  1,
		filterFreq:   1000,
		fenv:         adsr{attack: 0.05, decay: 1},
		noteFreq:     tuning.NewDefault(),
		random:       utility.NewNoiseGenerator(time.Now().UnixNano()),
		logger:       debug.Default(),
	}
	s.buildPool(DefaultNumberVoices)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synth) buildPool(n int) {
	s.generation++
	s.voices = make([]Voice, n)
	for i := range s.voices {
		v := &s.voices[i]
		v.synth = s
		v.generation = s.generation
		v.index = i
		v.nextUnison = -1
		v.setPartials(1)
	}
}

// Close ends every active voice and releases the pool. Only
// SetNumberVoices makes the Synth usable again.
func (s *Synth) Close() {
	s.endActiveVoices()
	s.voices = nil
	s.generation++
}

func (s *Synth) endActiveVoices() {
	for i := range s.voices {
		v := &s.voices[i]
		if v.active {
			v.active = false
			s.fireEnded(v)
		}
	}
}

// Voice returns the voice in slot i, or nil when out of range
func (s *Synth) Voice(i int) *Voice {
	if i < 0 || i >= len(s.voices) {
		return nil
	}
	return &s.voices[i]
}

// ActiveVoices returns the number of voices currently rendering
func (s *Synth) ActiveVoices() int {
	n := 0
	for i := range s.voices {
		if s.voices[i].active {
			n++
		}
	}
	return n
}

// SetVoiceStartedCallback sets the function called when a cued voice
// becomes active
func (s *Synth) SetVoiceStartedCallback(fn func(*Voice)) { s.voiceStarted = fn }

// SetVoiceEndedCallback sets the function called when a voice stops
func (s *Synth) SetVoiceEndedCallback(fn func(*Voice)) { s.voiceEnded = fn }

func (s *Synth) fireStarted(v *Voice) {
	if s.voiceStarted != nil {
		s.voiceStarted(v)
	}
}

func (s *Synth) fireEnded(v *Voice) {
	if s.voiceEnded != nil {
		s.voiceEnded(v)
	}
}

// SetRandomSeed reseeds the unison detune random source
func (s *Synth) SetRandomSeed(seed int64) { s.random.SetSeed(seed) }

// NumberVoices returns the size of the voice pool
func (s *Synth) NumberVoices() int { return len(s.voices) }

// SetNumberVoices rebuilds the voice pool with n voices. Active voices are
// ended and all voice pointers handed out before become stale.
func (s *Synth) SetNumberVoices(n int) {
	if n < 1 {
		s.logger.Debug("number of voices %d clamped to 1", n)
		n = 1
	}
	if s.voices != nil && n == len(s.voices) {
		return
	}
	s.endActiveVoices()
	s.buildPool(n)
}

// Policy returns the voice stealing policy
func (s *Synth) Policy() Policy { return s.policy }

// SetPolicy sets the voice stealing policy
func (s *Synth) SetPolicy(p Policy) { s.policy = p }

// SampleRate returns the sample rate in Hz
func (s *Synth) SampleRate() int { return s.sampleRate }

// SetSampleRate sets the sample rate in Hz
func (s *Synth) SetSampleRate(sr int) {
	if sr < 1 {
		s.logger.Debug("sample rate %d clamped to 1", sr)
		sr = 1
	}
	s.sampleRate = sr
}

// Volume returns the master volume
func (s *Synth) Volume() float64 { return s.volume }

// SetVolume sets the master volume
func (s *Synth) SetVolume(v float64) { s.volume = v }

// UnisonVoices returns the number of oscillators per note
func (s *Synth) UnisonVoices() int { return s.unisonVoices }

// SetUnisonVoices sets the number of oscillators per note
func (s *Synth) SetUnisonVoices(n int) {
	if n < 1 {
		s.logger.Debug("unison voices %d clamped to 1", n)
		n = 1
	}
	s.unisonVoices = n
}

// UnisonNoteStep returns the note offset between unison oscillators
func (s *Synth) UnisonNoteStep() int { return s.unisonNoteStep }

// SetUnisonNoteStep sets the note offset between unison oscillators
func (s *Synth) SetUnisonNoteStep(step int) { s.unisonNoteStep = step }

// UnisonDetune returns the random unison detune in cents
func (s *Synth) UnisonDetune() float64 { return s.unisonDetune }

// SetUnisonDetune sets the random unison detune in cents
func (s *Synth) SetUnisonDetune(cents float64) { s.unisonDetune = cents }

// CombinedUnison reports whether unison oscillators share one voice
func (s *Synth) CombinedUnison() bool { return s.combinedUnison }

// SetCombinedUnison selects whether unison oscillators share one voice
func (s *Synth) SetCombinedUnison(combined bool) { s.combinedUnison = combined }

// Attack returns the amplitude attack time in seconds
func (s *Synth) Attack() float64 { return s.env.attack }

// SetAttack sets the amplitude attack time in seconds
func (s *Synth) SetAttack(t float64) { s.env.attack = t }

// Decay returns the amplitude decay time in seconds
func (s *Synth) Decay() float64 { return s.env.decay }

// SetDecay sets the amplitude decay time in seconds
func (s *Synth) SetDecay(t float64) { s.env.decay = t }

// Sustain returns the amplitude sustain level
func (s *Synth) Sustain() float64 { return s.env.sustain }

// SetSustain sets the amplitude sustain level
func (s *Synth) SetSustain(level float64) { s.env.sustain = level }

// Release returns the amplitude release time in seconds
func (s *Synth) Release() float64 { return s.env.release }

// SetRelease sets the amplitude release time in seconds
func (s *Synth) SetRelease(t float64) { s.env.release = t }

// PulseWidth returns the oscillator pulse width
func (s *Synth) PulseWidth() float64 { return s.pulseWidth }

// SetPulseWidth sets the oscillator pulse width
func (s *Synth) SetPulseWidth(pw float64) {
	clamped := waveform.ClampPulseWidth(pw)
	if clamped != pw {
		s.logger.Debug("pulse width %g clamped to %g", pw, clamped)
	}
	s.pulseWidth = clamped
}

// Waveform returns the oscillator waveform
func (s *Synth) Waveform() waveform.Type { return s.waveform }

// SetWaveform sets the oscillator waveform
func (s *Synth) SetWaveform(t waveform.Type) { s.waveform = t }

// FilterType returns the voice filter type
func (s *Synth) FilterType() filter.Type { return s.filterType }

// SetFilterType sets the voice filter type
func (s *Synth) SetFilterType(t filter.Type) { s.filterType = t }

// FilterOrder returns the number of stages of the nth order filters
func (s *Synth) FilterOrder() int { return s.filterOrder }

// SetFilterOrder sets the number of stages of the nth order filters
func (s *Synth) SetFilterOrder(order int) {
	if order < 1 {
		s.logger.Debug("filter order %d clamped to 1", order)
		order = 1
	}
	s.filterOrder = order
}

// FilterFrequency returns the base filter cutoff in Hz
func (s *Synth) FilterFrequency() float64 { return s.filterFreq }

// SetFilterFrequency sets the base filter cutoff in Hz
func (s *Synth) SetFilterFrequency(f float64) { s.filterFreq = f }

// FilterResonance returns the filter resonance
func (s *Synth) FilterResonance() float64 { return s.filterReso }

// SetFilterResonance sets the filter resonance
func (s *Synth) SetFilterResonance(r float64) { s.filterReso = r }

// FilterKeyFollower returns how much of the note frequency is added to the cutoff
func (s *Synth) FilterKeyFollower() float64 { return s.filterKeyFollow }

// SetFilterKeyFollower sets how much of the note frequency is added to the cutoff
func (s *Synth) SetFilterKeyFollower(amt float64) { s.filterKeyFollow = amt }

// FilterEnvelopeAmount returns the filter envelope depth in Hz
func (s *Synth) FilterEnvelopeAmount() float64 { return s.filterEnvAmount }

// SetFilterEnvelopeAmount sets the filter envelope depth in Hz
func (s *Synth) SetFilterEnvelopeAmount(hz float64) { s.filterEnvAmount = hz }

// FilterEnvelopeKeyFollower returns how much of the note frequency is added
// to the filter envelope depth
func (s *Synth) FilterEnvelopeKeyFollower() float64 { return s.filterEnvKeyFollow }

// SetFilterEnvelopeKeyFollower sets how much of the note frequency is added
// to the filter envelope depth
func (s *Synth) SetFilterEnvelopeKeyFollower(amt float64) { s.filterEnvKeyFollow = amt }

// FilterAttack returns the filter envelope attack time in seconds
func (s *Synth) FilterAttack() float64 { return s.fenv.attack }

// SetFilterAttack sets the filter envelope attack time in seconds
func (s *Synth) SetFilterAttack(t float64) { s.fenv.attack = t }

// FilterDecay returns the filter envelope decay time in seconds
func (s *Synth) FilterDecay() float64 { return s.fenv.decay }

// SetFilterDecay sets the filter envelope decay time in seconds
func (s *Synth) SetFilterDecay(t float64) { s.fenv.decay = t }

// FilterSustain returns the filter envelope sustain level
func (s *Synth) FilterSustain() float64 { return s.fenv.sustain }

// SetFilterSustain sets the filter envelope sustain level
func (s *Synth) SetFilterSustain(level float64) { s.fenv.sustain = level }

// FilterRelease returns the filter envelope release time in seconds
func (s *Synth) FilterRelease() float64 { return s.fenv.release }

// SetFilterRelease sets the filter envelope release time in seconds
func (s *Synth) SetFilterRelease(t float64) { s.fenv.release = t }

// NoteFreq returns the note to frequency table
func (s *Synth) NoteFreq() *tuning.NoteFreq { return s.noteFreq }

// NotesPerOctave returns the number of notes per frequency doubling
func (s *Synth) NotesPerOctave() float64 { return s.noteFreq.NotesPerOctave() }

// SetNotesPerOctave sets the number of notes per frequency doubling
func (s *Synth) SetNotesPerOctave(n float64) { s.noteFreq.SetNotesPerOctave(n) }

// BaseFrequency returns the frequency of note 0 in Hz
func (s *Synth) BaseFrequency() float64 { return s.noteFreq.BaseFrequency() }

// SetBaseFrequency sets the frequency of note 0 in Hz
func (s *Synth) SetBaseFrequency(f float64) { s.noteFreq.SetBaseFrequency(f) }

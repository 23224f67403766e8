package synth

import (
	"math"

	"github.com/justyntemme/polysynth/pkg/dsp/envelope"
	"github.com/justyntemme/polysynth/pkg/dsp/filter"
	"github.com/justyntemme/polysynth/pkg/dsp/waveform"
)

// Voice is one slot of the voice pool. Voices are owned by their Synth and
// are only handed out as pointers into the pool.
type Voice struct {
	synth      *Synth
	generation uint64
	index      int

	active bool
	cued   bool
	claim  uint64

	note        int
	startSample int
	freq        float64
	freqC       []float64
	phase       []float64
	pw          float64
	velo        float64
	fenvAmt     float64
	filterFreq  float64
	lifetime    int

	env      envelope.ADSR
	fenv     envelope.ADSR
	waveform waveform.Type
	filter   filter.Multi

	nextUnison int
	userData   any
}

// Index returns the stable slot number of the voice
func (v *Voice) Index() int { return v.index }

// Active returns true while the voice is rendering
func (v *Voice) Active() bool { return v.active }

// Cued returns true while the voice waits for its start sample
func (v *Voice) Cued() bool { return v.cued }

// Note returns the note the voice was started with
func (v *Voice) Note() int { return v.note }

// StartSample returns the offset into the next Process call at which the
// voice becomes active
func (v *Voice) StartSample() int { return v.startSample }

// Freq returns the base frequency in Hz
func (v *Voice) Freq() float64 { return v.freq }

// FreqCoefficients returns a copy of the per-partial phase increments
func (v *Voice) FreqCoefficients() []float64 {
	return append([]float64(nil), v.freqC...)
}

// Phases returns a copy of the per-partial phases
func (v *Voice) Phases() []float64 {
	return append([]float64(nil), v.phase...)
}

// PulseWidth returns the pulse width snapshot
func (v *Voice) PulseWidth() float64 { return v.pw }

// Velocity returns the note velocity [0,1]
func (v *Voice) Velocity() float64 { return v.velo }

// FilterEnvelopeAmount returns the filter envelope depth in Hz
func (v *Voice) FilterEnvelopeAmount() float64 { return v.fenvAmt }

// FilterFrequency returns the key-followed filter cutoff in Hz
func (v *Voice) FilterFrequency() float64 { return v.filterFreq }

// Lifetime returns the number of samples rendered since the voice started
func (v *Voice) Lifetime() int { return v.lifetime }

// Envelope returns the amplitude envelope
func (v *Voice) Envelope() *envelope.ADSR { return &v.env }

// FilterEnvelope returns the filter cutoff envelope
func (v *Voice) FilterEnvelope() *envelope.ADSR { return &v.fenv }

// Waveform returns the oscillator waveform
func (v *Voice) Waveform() waveform.Type { return v.waveform }

// Filter returns the voice filter
func (v *Voice) Filter() *filter.Multi { return &v.filter }

// UserData returns the value passed to NoteOn
func (v *Voice) UserData() any { return v.userData }

// SetUserData replaces the caller value
func (v *Voice) SetUserData(data any) { v.userData = data }

// NextUnison returns the next voice of a non-combined unison note, or nil.
// Links do not survive a rebuild of the voice pool.
func (v *Voice) NextUnison() *Voice {
	s := v.synth
	if s == nil || v.generation != s.generation {
		return nil
	}
	if v.nextUnison < 0 || v.nextUnison >= len(s.voices) {
		return nil
	}
	return &s.voices[v.nextUnison]
}

// setPartials resizes the oscillator state to n zero-phased partials
func (v *Voice) setPartials(n int) {
	if cap(v.freqC) < n {
		v.freqC = make([]float64, n)
		v.phase = make([]float64, n)
	}
	v.freqC = v.freqC[:n]
	v.phase = v.phase[:n]
	clear(v.freqC)
	clear(v.phase)
}

// oscillate sums one sample of all partials and advances their phases
func (v *Voice) oscillate() float64 {
	sum := 0.0
	for k := range v.phase {
		sum += waveform.Sample(v.phase[k], v.waveform, v.pw)
		p := v.phase[k] + v.freqC[k]
		v.phase[k] = p - math.Floor(p)
	}
	return sum
}

// updateFilterEnvelope moves the cutoff along the filter envelope
func (v *Voice) updateFilterEnvelope() {
	if v.fenvAmt == 0 {
		return
	}
	v.filter.SetFrequency(v.filterFreq + v.fenvAmt*v.fenv.Next())
	v.filter.UpdateCoefficients()
}

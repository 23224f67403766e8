package synth

import (
	"io"
	"math"
	"testing"

	"github.com/justyntemme/polysynth/pkg/dsp/filter"
	"github.com/justyntemme/polysynth/pkg/dsp/waveform"
	"github.com/justyntemme/polysynth/pkg/framework/debug"
)

func newTestSynth(voices int, policy Policy) *Synth {
	return New(
		WithVoices(voices),
		WithPolicy(policy),
		WithSeed(1),
		WithLogger(debug.New(io.Discard, "test", 0)),
	)
}

// startNotes cues one note per voice at sample 0 and renders a block so
// that all of them are active
func startNotes(t *testing.T, s *Synth, notes ...int) {
	t.Helper()
	for _, n := range notes {
		if v := s.NoteOn(n, 1, 0, nil); v == nil {
			t.Fatalf("NoteOn(%d) returned nil", n)
		}
	}
	s.Process(make([]float32, 16))
}

func countCued(s *Synth) int {
	n := 0
	for i := 0; i < s.NumberVoices(); i++ {
		if s.Voice(i).Cued() {
			n++
		}
	}
	return n
}

func TestDefaults(t *testing.T) {
	s := New()
	if s.NumberVoices() != DefaultNumberVoices {
		t.Errorf("Expected %d voices, got %d", DefaultNumberVoices, s.NumberVoices())
	}
	if s.Policy() != PolicyOldest {
		t.Errorf("Expected policy oldest, got %v", s.Policy())
	}
	if s.SampleRate() != 44100 {
		t.Errorf("Expected sample rate 44100, got %d", s.SampleRate())
	}
	if s.Attack() != 0.05 || s.Decay() != 1 || s.Sustain() != 0 || s.Release() != 0 {
		t.Errorf("Unexpected envelope defaults %f %f %f %f", s.Attack(), s.Decay(), s.Sustain(), s.Release())
	}
	if s.Waveform() != waveform.Sine || s.FilterType() != filter.Bypass {
		t.Errorf("Unexpected waveform/filter defaults %v %v", s.Waveform(), s.FilterType())
	}
	if math.Abs(s.BaseFrequency()-16.3516) > 1e-9 || s.NotesPerOctave() != 12 {
		t.Errorf("Unexpected tuning defaults %f %f", s.BaseFrequency(), s.NotesPerOctave())
	}
}

func TestForgetPolicyRejects(t *testing.T) {
	s := newTestSynth(4, PolicyForget)
	s.SetSustain(0.5)
	startNotes(t, s, 40, 41, 42, 43)

	if v := s.NoteOn(50, 1, 0, nil); v != nil {
		t.Fatalf("Expected nil voice with all voices in use, got voice %d", v.Index())
	}

	for i := 0; i < 4; i++ {
		v := s.Voice(i)
		if !v.Active() || v.Cued() || v.Note() != 40+i {
			t.Errorf("Voice %d changed: active=%v cued=%v note=%d", i, v.Active(), v.Cued(), v.Note())
		}
	}
}

func TestStealingPolicies(t *testing.T) {
	tests := []struct {
		name      string
		policy    Policy
		lifetimes []int
		freqs     []float64
		want      int
	}{
		{"oldest", PolicyOldest, []int{5, 10, 3, 10}, nil, 1},
		{"lowest", PolicyLowest, nil, []float64{440, 220, 220, 880}, 1},
		{"highest", PolicyHighest, nil, []float64{440, 220, 220, 880}, 3},
		{"highest ties", PolicyHighest, nil, []float64{880, 220, 880, 880}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSynth(4, tt.policy)
			s.SetSustain(0.5)
			startNotes(t, s, 40, 41, 42, 43)

			for i := 0; i < 4; i++ {
				if tt.lifetimes != nil {
					s.voices[i].lifetime = tt.lifetimes[i]
				}
				if tt.freqs != nil {
					s.voices[i].freq = tt.freqs[i]
				}
			}

			var ended []int
			s.SetVoiceEndedCallback(func(v *Voice) { ended = append(ended, v.Index()) })

			v := s.NoteOn(60, 1, 0, nil)
			if v == nil {
				t.Fatal("Expected a stolen voice, got nil")
			}
			if v.Index() != tt.want {
				t.Errorf("Expected voice %d to be stolen, got %d", tt.want, v.Index())
			}
			if !v.Cued() || v.Active() || v.Note() != 60 || v.Lifetime() != 0 {
				t.Errorf("Stolen voice not re-initialized: cued=%v active=%v note=%d lifetime=%d",
					v.Cued(), v.Active(), v.Note(), v.Lifetime())
			}
			if len(ended) != 1 || ended[0] != tt.want {
				t.Errorf("Expected one end callback for voice %d, got %v", tt.want, ended)
			}
		})
	}
}

func TestSingleVoiceAlwaysStolen(t *testing.T) {
	for _, p := range []Policy{PolicyLowest, PolicyHighest, PolicyOldest} {
		t.Run(p.String(), func(t *testing.T) {
			s := newTestSynth(1, p)
			startNotes(t, s, 40)
			v := s.NoteOn(70, 1, 0, nil)
			if v == nil || v.Index() != 0 || v.Note() != 70 {
				t.Fatalf("Expected voice 0 to be stolen for note 70, got %+v", v)
			}
		})
	}
}

func TestCombinedUnison(t *testing.T) {
	s := newTestSynth(8, PolicyOldest)
	s.SetUnisonVoices(3)
	s.SetCombinedUnison(true)
	s.SetUnisonNoteStep(12)
	s.SetUnisonDetune(50)

	v := s.NoteOn(48, 1, 0, nil)
	if v == nil {
		t.Fatal("NoteOn returned nil")
	}

	freqC := v.FreqCoefficients()
	phases := v.Phases()
	if len(freqC) != 3 || len(phases) != 3 {
		t.Fatalf("Expected 3 partials, got %d coefficients and %d phases", len(freqC), len(phases))
	}
	if countCued(s) != 1 {
		t.Errorf("Combined unison should use one voice, %d are cued", countCued(s))
	}
	if v.NextUnison() != nil {
		t.Error("Combined unison should not link further voices")
	}

	sr := float64(s.SampleRate())
	nf := s.NoteFreq()
	if math.Abs(freqC[0]-nf.Frequency(48)/sr) > 1e-12 {
		t.Errorf("First partial should not be detuned, got %g", freqC[0])
	}
	for k := 1; k < 3; k++ {
		n := 48 + 12*k
		center := nf.Frequency(n) / sr
		bound := 50.0 / 200 * (nf.Frequency(n+1) - nf.Frequency(n)) / sr
		if math.Abs(freqC[k]-center) > bound+1e-15 {
			t.Errorf("Partial %d coefficient %g outside %g +- %g", k, freqC[k], center, bound)
		}
	}
}

func TestNonCombinedUnison(t *testing.T) {
	s := newTestSynth(8, PolicyOldest)
	s.SetUnisonVoices(3)
	s.SetUnisonDetune(50)

	head := s.NoteOn(48, 1, 0, nil)
	if head == nil {
		t.Fatal("NoteOn returned nil")
	}

	second := head.NextUnison()
	if second == nil {
		t.Fatal("Expected a second unison voice")
	}
	third := second.NextUnison()
	if third == nil {
		t.Fatal("Expected a third unison voice")
	}
	if third.NextUnison() != nil {
		t.Error("Unison chain should have exactly two further voices")
	}
	if countCued(s) != 3 {
		t.Errorf("Expected 3 cued voices, got %d", countCued(s))
	}

	nf := s.NoteFreq()
	base := nf.Frequency(48)
	bound := 50.0 / 200 * (nf.Frequency(49) - base)
	if head.Freq() != base {
		t.Errorf("Head voice should not be detuned: %f != %f", head.Freq(), base)
	}
	for _, v := range []*Voice{second, third} {
		if math.Abs(v.Freq()-base) > bound {
			t.Errorf("Voice %d detune %f exceeds %f", v.Index(), v.Freq()-base, bound)
		}
		if fc := v.FreqCoefficients()[0]; math.Abs(fc-v.Freq()/float64(s.SampleRate())) > 1e-15 {
			t.Errorf("Voice %d coefficient %g does not match frequency", v.Index(), fc)
		}
	}
	if second.Freq() == third.Freq() {
		t.Error("Unison voices should have distinct detunes")
	}
}

func TestUnisonChainShortensWhenFull(t *testing.T) {
	s := newTestSynth(2, PolicyForget)
	s.SetUnisonVoices(3)

	head := s.NoteOn(48, 1, 0, nil)
	if head == nil {
		t.Fatal("Expected the head voice")
	}
	second := head.NextUnison()
	if second == nil || second.NextUnison() != nil {
		t.Fatal("Expected a chain of exactly one further voice")
	}
}

func TestUnisonNeverStealsOwnChain(t *testing.T) {
	s := newTestSynth(2, PolicyOldest)
	s.SetUnisonVoices(3)

	head := s.NoteOn(48, 1, 0, nil)
	second := head.NextUnison()
	if second == nil {
		t.Fatal("Expected a second unison voice")
	}
	if second.NextUnison() != nil || second.Index() == head.Index() {
		t.Error("Unison chain must not steal its own voices")
	}
	if head.Note() != 48 {
		t.Errorf("Head voice was stolen, now plays %d", head.Note())
	}
}

func TestCuedStartInsideBlock(t *testing.T) {
	s := newTestSynth(4, PolicyOldest)
	s.SetWaveform(waveform.Square)
	s.SetAttack(0.001)
	s.SetSustain(1)

	started := 0
	s.SetVoiceStartedCallback(func(*Voice) { started++ })

	const start = 10
	v := s.NoteOn(57, 1, start, nil)
	out := make([]float32, 64)
	s.Process(out)

	for i := 0; i <= start; i++ {
		if out[i] != 0 {
			t.Errorf("Expected silence at sample %d, got %f", i, out[i])
		}
	}
	for i := start + 1; i <= start+10; i++ {
		if out[i] == 0 {
			t.Errorf("Expected sound at sample %d", i)
		}
	}
	if started != 1 {
		t.Errorf("Expected one start callback, got %d", started)
	}
	if !v.Active() || v.Cued() {
		t.Errorf("Voice should be active, got active=%v cued=%v", v.Active(), v.Cued())
	}
	if v.Lifetime() != 64-start {
		t.Errorf("Expected lifetime %d, got %d", 64-start, v.Lifetime())
	}
}

func TestCuedStartOutsideBlock(t *testing.T) {
	s := newTestSynth(4, PolicyOldest)

	started := 0
	s.SetVoiceStartedCallback(func(*Voice) { started++ })

	v := s.NoteOn(57, 1, 100, nil)
	out := make([]float32, 64)
	s.Process(out)

	if started != 0 {
		t.Errorf("Expected no start callback, got %d", started)
	}
	if v.Cued() || v.Active() {
		t.Errorf("Voice should be dropped, got cued=%v active=%v", v.Cued(), v.Active())
	}
	for i, x := range out {
		if x != 0 {
			t.Fatalf("Expected silence, got %f at %d", x, i)
		}
	}
}

func TestNoteOffWithRelease(t *testing.T) {
	s := newTestSynth(4, PolicyOldest)
	s.SetWaveform(waveform.Square)
	s.SetAttack(0.001)
	s.SetSustain(1)
	s.SetRelease(0.1)

	ended := 0
	s.SetVoiceEndedCallback(func(*Voice) { ended++ })

	v := s.NoteOn(0, 1, 0, nil)
	s.Process(make([]float32, 256))
	s.NoteOff(0)

	out := make([]float32, 64)
	s.Process(out)

	if !v.Active() {
		t.Fatal("Voice should keep rendering during release")
	}
	for i := 1; i < len(out); i++ {
		if out[i] <= 0 || out[i] >= out[i-1] {
			t.Fatalf("Expected decaying output at %d: %f after %f", i, out[i], out[i-1])
		}
	}
	if ended != 0 {
		t.Errorf("Expected no end callback yet, got %d", ended)
	}
}

func TestNoteOffWithoutRelease(t *testing.T) {
	s := newTestSynth(4, PolicyOldest)
	s.SetSustain(1)
	s.SetRelease(0)

	ended := 0
	s.SetVoiceEndedCallback(func(*Voice) { ended++ })

	v := s.NoteOn(57, 1, 0, nil)
	s.Process(make([]float32, 256))
	s.NoteOff(57)

	if v.Active() {
		t.Error("Voice should stop at once without release")
	}

	out := make([]float32, 8)
	s.Process(out)
	if out[0] != 0 {
		t.Errorf("Expected silence after note off, got %f", out[0])
	}
	if ended != 0 {
		t.Errorf("Note off without release should not fire VoiceEnded, got %d", ended)
	}
}

func TestNoteOffIgnoresCuedVoices(t *testing.T) {
	s := newTestSynth(4, PolicyOldest)
	v := s.NoteOn(57, 1, 10, nil)
	s.NoteOff(57)
	if !v.Cued() {
		t.Error("Note off should not affect cued voices")
	}
}

func TestNaturalEnd(t *testing.T) {
	s := newTestSynth(4, PolicyOldest)
	s.SetAttack(0)
	s.SetDecay(0.001)
	s.SetSustain(0)

	ended := 0
	s.SetVoiceEndedCallback(func(*Voice) { ended++ })

	v := s.NoteOn(57, 1, 0, nil)
	out := make([]float32, 512)
	s.Process(out)

	if v.Active() {
		t.Fatal("Voice should have ended")
	}
	if ended != 1 {
		t.Errorf("Expected one end callback, got %d", ended)
	}
	for i := 400; i < len(out); i++ {
		if out[i] != 0 {
			t.Fatalf("Expected silence after the end, got %f at %d", out[i], i)
		}
	}

	s.Process(out)
	if ended != 1 {
		t.Errorf("End callback fired again, count %d", ended)
	}
}

func TestAllNotesOffAndReset(t *testing.T) {
	s := newTestSynth(4, PolicyOldest)
	s.SetSustain(1)
	startNotes(t, s, 40, 41, 42)

	s.AllNotesOff()
	if s.ActiveVoices() != 0 {
		t.Errorf("Expected no active voices after AllNotesOff, got %d", s.ActiveVoices())
	}

	ended := 0
	s.SetVoiceEndedCallback(func(*Voice) { ended++ })
	s.SetRelease(0.5)
	startNotes(t, s, 40, 41)
	s.NoteOn(50, 1, 100, nil)

	s.Reset()
	if s.ActiveVoices() != 0 || countCued(s) != 0 {
		t.Errorf("Reset should free all voices, active=%d cued=%d", s.ActiveVoices(), countCued(s))
	}
	if ended != 0 {
		t.Errorf("Reset should not fire callbacks, got %d", ended)
	}
}

func TestProcessMulti(t *testing.T) {
	s := newTestSynth(4, PolicyOldest)
	s.SetWaveform(waveform.Square)
	s.SetAttack(0.001)
	s.SetSustain(1)

	started := 0
	s.SetVoiceStartedCallback(func(*Voice) { started++ })

	s.NoteOn(0, 1, 0, nil)
	s.NoteOn(0, 1, 5, nil)
	s.NoteOn(0, 1, 100, nil)

	const length = 32
	channels := make([][]float32, 4)
	for i := range channels {
		channels[i] = make([]float32, length)
		for j := range channels[i] {
			channels[i][j] = 7
		}
	}
	s.ProcessMulti(channels, length)

	if started != 2 {
		t.Errorf("Expected two start callbacks, got %d", started)
	}
	if channels[0][0] != 0 || channels[0][1] <= 0 {
		t.Errorf("Voice 0 should start at 0, got %f %f", channels[0][0], channels[0][1])
	}
	for i := 0; i <= 5; i++ {
		if channels[1][i] != 0 {
			t.Errorf("Voice 1 should be silent before its onset, got %f at %d", channels[1][i], i)
		}
	}
	if channels[1][6] <= 0 {
		t.Errorf("Voice 1 should sound after its onset, got %f", channels[1][6])
	}
	for _, ch := range channels[2:] {
		for i, x := range ch {
			if x != 0 {
				t.Fatalf("Expected silent buffer, got %f at %d", x, i)
			}
		}
	}
	if s.Voice(2).Cued() {
		t.Error("Voice cued beyond the block should be dropped")
	}
	if s.Voice(0).Lifetime() != length || s.Voice(1).Lifetime() != length-5 {
		t.Errorf("Unexpected lifetimes %d %d", s.Voice(0).Lifetime(), s.Voice(1).Lifetime())
	}
}

// renderBoth plays one note through Process and through ProcessMulti on two
// identically configured synths
func renderBoth(configure func(*Synth), length int) (mono, multi []float32) {
	a := newTestSynth(1, PolicyOldest)
	b := newTestSynth(1, PolicyOldest)
	for _, s := range []*Synth{a, b} {
		s.SetWaveform(waveform.Square)
		s.SetAttack(0.002)
		s.SetDecay(0.002)
		s.SetSustain(0.3)
		configure(s)
		s.NoteOn(57, 1, 0, nil)
	}

	mono = make([]float32, length)
	a.Process(mono)
	multi = make([]float32, length)
	b.ProcessMulti([][]float32{multi}, length)
	return mono, multi
}

func maxDiff(a, b []float32) float64 {
	d := 0.0
	for i := range a {
		d = max(d, math.Abs(float64(a[i]-b[i])))
	}
	return d
}

func TestProcessMultiEnvelopeBeforeFilter(t *testing.T) {
	mono, multi := renderBoth(func(s *Synth) {
		s.SetFilterType(filter.Bypass)
	}, 512)
	if d := maxDiff(mono, multi); d > 1e-5 {
		t.Errorf("Expected equal output without a filter, max difference %f", d)
	}

	mono, multi = renderBoth(func(s *Synth) {
		s.SetFilterType(filter.FirstOrderLow)
		s.SetFilterFrequency(300)
		s.SetFilterResonance(0.9)
	}, 512)
	if d := maxDiff(mono, multi); d < 1e-3 {
		t.Errorf("Expected filtered mono and multichannel output to differ, max difference %f", d)
	}
}

func TestProcessMultiVisitsVoicesAfterFreeSlot(t *testing.T) {
	s := newTestSynth(3, PolicyOldest)
	s.SetWaveform(waveform.Square)
	s.SetAttack(0.001)
	s.SetSustain(1)
	startNotes(t, s, 0, 1, 2)

	// free slot 0 while slot 2 keeps playing
	s.NoteOff(0)

	channels := [][]float32{make([]float32, 16), make([]float32, 16), make([]float32, 16)}
	s.ProcessMulti(channels, 16)

	if channels[0][0] != 0 {
		t.Errorf("Free voice buffer should be zero, got %f", channels[0][0])
	}
	if channels[2][0] == 0 {
		t.Error("Voice after a free slot should still be rendered")
	}
}

func TestProcessMultiFewerChannels(t *testing.T) {
	s := newTestSynth(4, PolicyOldest)
	startNotes(t, s, 10, 20, 30, 40)

	channels := [][]float32{make([]float32, 8)}
	s.ProcessMulti(channels, 8)
	if s.Voice(3).Lifetime() != 16 {
		t.Errorf("Voice without buffer should not be rendered, lifetime %d", s.Voice(3).Lifetime())
	}
}

func TestProcessMultiNaturalEnd(t *testing.T) {
	s := newTestSynth(2, PolicyOldest)
	s.SetAttack(0)
	s.SetDecay(0.001)
	s.SetSustain(0)

	ended := 0
	s.SetVoiceEndedCallback(func(*Voice) { ended++ })
	s.NoteOn(57, 1, 0, nil)

	channels := [][]float32{make([]float32, 512), make([]float32, 512)}
	s.ProcessMulti(channels, 512)

	if ended != 1 {
		t.Errorf("Expected one end callback, got %d", ended)
	}
	if channels[0][511] != 0 {
		t.Errorf("Expected the remainder to be zeroed, got %f", channels[0][511])
	}
	if s.Voice(0).Lifetime() != 512 {
		t.Errorf("Lifetime should count the whole block, got %d", s.Voice(0).Lifetime())
	}
}

func TestFilterEnvelopeMovesCutoff(t *testing.T) {
	s := newTestSynth(2, PolicyOldest)
	s.SetFilterType(filter.FirstOrderLow)
	s.SetFilterFrequency(500)
	s.SetFilterKeyFollower(1)
	s.SetFilterEnvelopeAmount(2000)
	s.SetFilterAttack(0.01)
	s.SetFilterSustain(1)

	v := s.NoteOn(57, 1, 0, nil)
	if want := 500 + v.Freq(); math.Abs(v.FilterFrequency()-want) > 1e-9 {
		t.Errorf("Expected key-followed cutoff %f, got %f", want, v.FilterFrequency())
	}

	s.Process(make([]float32, 128))
	if v.Filter().Frequency() <= v.FilterFrequency() {
		t.Errorf("Filter envelope should raise the cutoff above %f, got %f",
			v.FilterFrequency(), v.Filter().Frequency())
	}
	if !v.FilterEnvelope().Active() {
		t.Error("Filter envelope should be running")
	}
}

func TestSetNumberVoices(t *testing.T) {
	s := newTestSynth(4, PolicyOldest)
	s.SetSustain(1)
	s.SetUnisonVoices(2)
	startNotes(t, s, 40)

	head := s.Voice(0)
	if head.NextUnison() == nil {
		t.Fatal("Expected a unison link before the rebuild")
	}

	ended := 0
	s.SetVoiceEndedCallback(func(*Voice) { ended++ })

	s.SetNumberVoices(4)
	if ended != 0 {
		t.Errorf("Same size should not rebuild, got %d end callbacks", ended)
	}

	s.SetNumberVoices(8)
	if ended != 2 {
		t.Errorf("Expected end callbacks for both active voices, got %d", ended)
	}
	if s.NumberVoices() != 8 || s.ActiveVoices() != 0 {
		t.Errorf("Expected 8 free voices, got %d with %d active", s.NumberVoices(), s.ActiveVoices())
	}
	if head.NextUnison() != nil {
		t.Error("Links must not survive a rebuild of the pool")
	}
}

func TestClose(t *testing.T) {
	s := newTestSynth(4, PolicyOldest)
	s.SetSustain(1)
	startNotes(t, s, 40, 41)

	ended := 0
	s.SetVoiceEndedCallback(func(*Voice) { ended++ })
	s.Close()

	if ended != 2 {
		t.Errorf("Expected two end callbacks, got %d", ended)
	}
	if s.NumberVoices() != 0 || s.Voice(0) != nil {
		t.Error("Closed synth should have no voices")
	}
	if v := s.NoteOn(40, 1, 0, nil); v != nil {
		t.Error("Closed synth should not allocate")
	}
	s.Process(make([]float32, 8))

	s.SetNumberVoices(2)
	if v := s.NoteOn(40, 1, 0, nil); v == nil {
		t.Error("SetNumberVoices should make the synth usable again")
	}
}

func TestVoiceUserData(t *testing.T) {
	s := newTestSynth(2, PolicyOldest)
	v := s.NoteOn(40, 0.5, 0, "lead")
	if v.UserData() != "lead" {
		t.Errorf("Expected user data, got %v", v.UserData())
	}
	v.SetUserData(3)
	if v.UserData() != 3 {
		t.Errorf("SetUserData did not stick, got %v", v.UserData())
	}
	if v.Velocity() != 0.5 {
		t.Errorf("Expected velocity 0.5, got %f", v.Velocity())
	}
	if s.Voice(-1) != nil || s.Voice(2) != nil {
		t.Error("Out of range Voice should return nil")
	}
}

func TestParameterRoundTrip(t *testing.T) {
	s := newTestSynth(2, PolicyOldest)

	floats := []struct {
		name string
		set  func(float64)
		get  func() float64
		val  float64
	}{
		{"volume", s.SetVolume, s.Volume, 0.7},
		{"unison detune", s.SetUnisonDetune, s.UnisonDetune, 12},
		{"attack", s.SetAttack, s.Attack, 0.2},
		{"decay", s.SetDecay, s.Decay, 0.3},
		{"sustain", s.SetSustain, s.Sustain, 0.4},
		{"release", s.SetRelease, s.Release, 0.5},
		{"pulse width", s.SetPulseWidth, s.PulseWidth, 0.25},
		{"filter frequency", s.SetFilterFrequency, s.FilterFrequency, 1234},
		{"filter resonance", s.SetFilterResonance, s.FilterResonance, 0.6},
		{"filter key follow", s.SetFilterKeyFollower, s.FilterKeyFollower, 0.5},
		{"filter env amount", s.SetFilterEnvelopeAmount, s.FilterEnvelopeAmount, 800},
		{"filter env key follow", s.SetFilterEnvelopeKeyFollower, s.FilterEnvelopeKeyFollower, 0.1},
		{"filter attack", s.SetFilterAttack, s.FilterAttack, 0.01},
		{"filter decay", s.SetFilterDecay, s.FilterDecay, 0.02},
		{"filter sustain", s.SetFilterSustain, s.FilterSustain, 0.03},
		{"filter release", s.SetFilterRelease, s.FilterRelease, 0.04},
		{"notes per octave", s.SetNotesPerOctave, s.NotesPerOctave, 19},
		{"base frequency", s.SetBaseFrequency, s.BaseFrequency, 440},
	}
	for _, tt := range floats {
		t.Run(tt.name, func(t *testing.T) {
			tt.set(tt.val)
			if got := tt.get(); got != tt.val {
				t.Errorf("Expected %f, got %f", tt.val, got)
			}
		})
	}

	ints := []struct {
		name string
		set  func(int)
		get  func() int
		val  int
	}{
		{"number voices", s.SetNumberVoices, s.NumberVoices, 12},
		{"sample rate", s.SetSampleRate, s.SampleRate, 48000},
		{"unison voices", s.SetUnisonVoices, s.UnisonVoices, 5},
		{"unison note step", s.SetUnisonNoteStep, s.UnisonNoteStep, -7},
		{"filter order", s.SetFilterOrder, s.FilterOrder, 4},
	}
	for _, tt := range ints {
		t.Run(tt.name, func(t *testing.T) {
			tt.set(tt.val)
			if got := tt.get(); got != tt.val {
				t.Errorf("Expected %d, got %d", tt.val, got)
			}
		})
	}

	s.SetPolicy(PolicyLowest)
	s.SetCombinedUnison(true)
	s.SetWaveform(waveform.SawDecay)
	s.SetFilterType(filter.BiquadBand)
	if s.Policy() != PolicyLowest || !s.CombinedUnison() ||
		s.Waveform() != waveform.SawDecay || s.FilterType() != filter.BiquadBand {
		t.Error("Enumerated parameters did not round-trip")
	}
}

func TestParameterClamps(t *testing.T) {
	s := newTestSynth(2, PolicyOldest)

	s.SetNumberVoices(0)
	s.SetUnisonVoices(-3)
	s.SetFilterOrder(0)
	s.SetSampleRate(0)
	s.SetPulseWidth(2)

	if s.NumberVoices() != 1 || s.UnisonVoices() != 1 || s.FilterOrder() != 1 || s.SampleRate() != 1 {
		t.Errorf("Expected clamps to 1, got %d %d %d %d",
			s.NumberVoices(), s.UnisonVoices(), s.FilterOrder(), s.SampleRate())
	}
	if s.PulseWidth() != waveform.MaxPulseWidth {
		t.Errorf("Expected pulse width %f, got %f", waveform.MaxPulseWidth, s.PulseWidth())
	}
}

func TestParsePolicy(t *testing.T) {
	for _, p := range Policies() {
		got, err := ParsePolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePolicy(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParsePolicy("random"); err == nil {
		t.Error("Expected error for unknown policy")
	}
}

func TestGate(t *testing.T) {
	var g Gate
	inputs := []float64{0, 0.5, 0.7, 0, -1, 0.3}
	want := []float64{0, 0.5, 0, 0, 0, 0.3}
	for i, in := range inputs {
		if got := g.Input(in); got != want[i] {
			t.Errorf("Input(%f) at %d = %f, want %f", in, i, got, want[i])
		}
	}
}

// Package patch stores every synth setting as a named parameter, so sounds
// can be loaded from JSON, edited by id and applied to a Synth.
package patch

import (
	"fmt"
	"io"

	"github.com/justyntemme/polysynth/pkg/dsp/filter"
	"github.com/justyntemme/polysynth/pkg/dsp/tuning"
	"github.com/justyntemme/polysynth/pkg/dsp/waveform"
	"github.com/justyntemme/polysynth/pkg/framework/param"
	"github.com/justyntemme/polysynth/pkg/framework/state"
	"github.com/justyntemme/polysynth/pkg/synth"
)

// ErrUnknownParameter is returned for ids that are not part of a patch
var ErrUnknownParameter = state.ErrUnknownParameter

// Parameter ids
const (
	NumVoices        = "num_voices"
	VoicePolicy      = "voice_policy"
	Volume           = "volume"
	NumUnison        = "num_unison"
	CombinedUnison   = "comb_unison"
	UnisonNoteStep   = "unison_notestep"
	UnisonDetune     = "unison_detune"
	BaseFrequency    = "base_freq"
	NotesPerOctave   = "notes_oct"
	Attack           = "attack"
	Decay            = "decay"
	Sustain          = "sustain"
	Release          = "release"
	Waveform         = "waveform"
	PulseWidth       = "pulsewidth"
	FilterType       = "filtertype"
	FilterOrder      = "filterorder"
	FilterFrequency  = "filterfreq"
	FilterResonance  = "filterreso"
	FilterKeyFollow  = "filterkeyf"
	FilterEnvelope   = "filterenv"
	FilterEnvKeyFoll = "filterenvkeyf"
	FilterAttack     = "fattack"
	FilterDecay      = "fdecay"
	FilterSustain    = "fsustain"
	FilterRelease    = "frelease"
)

// maximum envelope stage time in seconds
const maxStageTime = 10000.0

// Patch is a complete set of synth settings
type Patch struct {
	registry *param.Registry
	state    *state.Manager
}

// New returns a patch holding the synth defaults
func New() *Patch {
	r := param.NewRegistry()
	err := r.Add(
		param.IntParameter(NumVoices, "number voices", 1, 512, synth.DefaultNumberVoices).Build(),
		policyParameter(),
		param.New(Volume, "volume").Range(0, 100000).Default(1).Build(),
		param.IntParameter(NumUnison, "number unison voices", 1, 512, 1).Build(),
		param.New(CombinedUnison, "combined unison voices").Toggle().Build(),
		param.IntParameter(UnisonNoteStep, "unison note step", -128, 128, 0).Build(),
		param.New(UnisonDetune, "unison detune").Range(0, 10000).Unit("ct").Build(),
		param.FrequencyParameter(BaseFrequency, "base frequency", 0.00001, 100000, tuning.DefaultBaseFrequency).Build(),
		param.New(NotesPerOctave, "notes per octave").Range(0.00001, 256).Default(tuning.DefaultNotesPerOctave).Build(),
		param.TimeParameter(Attack, "attack", maxStageTime, 0.05).Build(),
		param.TimeParameter(Decay, "decay", maxStageTime, 1).Build(),
		param.LevelParameter(Sustain, "sustain", 0).Build(),
		param.TimeParameter(Release, "release", maxStageTime, 0).Build(),
		waveformParameter(),
		param.New(PulseWidth, "pulse width").Range(waveform.MinPulseWidth, waveform.MaxPulseWidth).Default(0.5).Build(),
		filterTypeParameter(),
		param.IntParameter(FilterOrder, "filter order", filter.MinOrder, filter.MaxOrder, 1).Build(),
		param.FrequencyParameter(FilterFrequency, "filter frequency", 0.00001, 100000, 1000).Build(),
		param.LevelParameter(FilterResonance, "filter resonance", 0).Build(),
		param.New(FilterKeyFollow, "filter key follow").Range(-1000, 1000).Build(),
		param.FrequencyParameter(FilterEnvelope, "filter envelope", -100000, 100000, 0).Build(),
		param.New(FilterEnvKeyFoll, "filter envelope key follow").Range(-1000, 1000).Build(),
		param.TimeParameter(FilterAttack, "filter attack", maxStageTime, 0.05).Build(),
		param.TimeParameter(FilterDecay, "filter decay", maxStageTime, 1).Build(),
		param.LevelParameter(FilterSustain, "filter sustain", 0).Build(),
		param.TimeParameter(FilterRelease, "filter release", maxStageTime, 0).Build(),
	)
	if err != nil {
		panic(err)
	}

	m := state.NewManager(r)
	m.SetStrict(true)
	return &Patch{
		registry: r,
		state:    m,
	}
}

func policyParameter() *param.Parameter {
	var ids, names []string
	for _, p := range synth.Policies() {
		ids = append(ids, p.String())
		names = append(names, p.Name())
	}
	return param.Choice(VoicePolicy, "voice reuse policy", ids, names, int(synth.DefaultPolicy)).Build()
}

func waveformParameter() *param.Parameter {
	var ids, names []string
	for _, t := range waveform.Types() {
		ids = append(ids, t.String())
		names = append(names, t.Name())
	}
	return param.Choice(Waveform, "oscillator type", ids, names, int(waveform.Sine)).Build()
}

func filterTypeParameter() *param.Parameter {
	var ids, names []string
	for _, t := range filter.Types() {
		ids = append(ids, t.String())
		names = append(names, t.Name())
	}
	return param.Choice(FilterType, "filter type", ids, names, int(filter.Bypass)).Build()
}

// Registry exposes the underlying parameters
func (p *Patch) Registry() *param.Registry {
	return p.registry
}

// IDs returns every parameter id in display order
func (p *Patch) IDs() []string {
	return p.registry.IDs()
}

func (p *Patch) lookup(id string) (*param.Parameter, error) {
	prm := p.registry.Get(id)
	if prm == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, id)
	}
	return prm, nil
}

// Set stores a plain value. List parameters take the option index.
func (p *Patch) Set(id string, plain float64) error {
	prm, err := p.lookup(id)
	if err != nil {
		return err
	}
	prm.SetPlainValue(plain)
	return nil
}

// Get returns the plain value of id
func (p *Patch) Get(id string) (float64, error) {
	prm, err := p.lookup(id)
	if err != nil {
		return 0, err
	}
	return prm.GetPlainValue(), nil
}

// SetString parses text for id: option ids or names for list parameters,
// numbers with optional units otherwise
func (p *Patch) SetString(id, text string) error {
	prm, err := p.lookup(id)
	if err != nil {
		return err
	}
	return prm.SetString(text)
}

// Format returns the value of id as display text
func (p *Patch) Format(id string) (string, error) {
	prm, err := p.lookup(id)
	if err != nil {
		return "", err
	}
	return prm.Format(), nil
}

// Reset restores every default
func (p *Patch) Reset() {
	p.registry.ResetAll()
}

// Clone returns an independent copy
func (p *Patch) Clone() *Patch {
	c := New()
	for _, prm := range p.registry.All() {
		c.registry.Get(prm.ID).SetPlainValue(prm.GetPlainValue())
	}
	return c
}

// Load reads a JSON object of id to value. Unknown ids are an error.
func (p *Patch) Load(r io.Reader) error {
	if err := p.state.Load(r); err != nil {
		return fmt.Errorf("load patch: %w", err)
	}
	return nil
}

// Save writes the patch as JSON
func (p *Patch) Save(w io.Writer) error {
	if err := p.state.Save(w); err != nil {
		return fmt.Errorf("save patch: %w", err)
	}
	return nil
}

func (p *Patch) value(id string) float64 {
	return p.registry.Get(id).GetPlainValue()
}

func (p *Patch) intValue(id string) int {
	return int(p.value(id))
}

// Apply copies the settings into s. The voice pool and the tuning table
// are only rebuilt when their values changed.
func (p *Patch) Apply(s *synth.Synth) {
	if n := p.intValue(NumVoices); n != s.NumberVoices() {
		s.SetNumberVoices(n)
	}
	if n := p.value(NotesPerOctave); n != s.NotesPerOctave() {
		s.SetNotesPerOctave(n)
	}
	if f := p.value(BaseFrequency); f != s.BaseFrequency() {
		s.SetBaseFrequency(f)
	}

	s.SetPolicy(synth.Policy(p.intValue(VoicePolicy)))
	s.SetVolume(p.value(Volume))
	s.SetCombinedUnison(p.value(CombinedUnison) > 0.5)
	s.SetUnisonVoices(p.intValue(NumUnison))
	s.SetUnisonNoteStep(p.intValue(UnisonNoteStep))
	s.SetUnisonDetune(p.value(UnisonDetune))
	s.SetAttack(p.value(Attack))
	s.SetDecay(p.value(Decay))
	s.SetSustain(p.value(Sustain))
	s.SetRelease(p.value(Release))
	s.SetPulseWidth(p.value(PulseWidth))
	s.SetWaveform(waveform.Type(p.intValue(Waveform)))
	s.SetFilterType(filter.Type(p.intValue(FilterType)))
	s.SetFilterOrder(p.intValue(FilterOrder))
	s.SetFilterFrequency(p.value(FilterFrequency))
	s.SetFilterResonance(p.value(FilterResonance))
	s.SetFilterKeyFollower(p.value(FilterKeyFollow))
	s.SetFilterEnvelopeAmount(p.value(FilterEnvelope))
	s.SetFilterEnvelopeKeyFollower(p.value(FilterEnvKeyFoll))
	s.SetFilterAttack(p.value(FilterAttack))
	s.SetFilterDecay(p.value(FilterDecay))
	s.SetFilterSustain(p.value(FilterSustain))
	s.SetFilterRelease(p.value(FilterRelease))
}

// Capture reads the current settings of s
func (p *Patch) Capture(s *synth.Synth) {
	combined := 0.0
	if s.CombinedUnison() {
		combined = 1
	}

	values := map[string]float64{
		NumVoices:        float64(s.NumberVoices()),
		VoicePolicy:      float64(s.Policy()),
		Volume:           s.Volume(),
		NumUnison:        float64(s.UnisonVoices()),
		CombinedUnison:   combined,
		UnisonNoteStep:   float64(s.UnisonNoteStep()),
		UnisonDetune:     s.UnisonDetune(),
		BaseFrequency:    s.BaseFrequency(),
		NotesPerOctave:   s.NotesPerOctave(),
		Attack:           s.Attack(),
		Decay:            s.Decay(),
		Sustain:          s.Sustain(),
		Release:          s.Release(),
		Waveform:         float64(s.Waveform()),
		PulseWidth:       s.PulseWidth(),
		FilterType:       float64(s.FilterType()),
		FilterOrder:      float64(s.FilterOrder()),
		FilterFrequency:  s.FilterFrequency(),
		FilterResonance:  s.FilterResonance(),
		FilterKeyFollow:  s.FilterKeyFollower(),
		FilterEnvelope:   s.FilterEnvelopeAmount(),
		FilterEnvKeyFoll: s.FilterEnvelopeKeyFollower(),
		FilterAttack:     s.FilterAttack(),
		FilterDecay:      s.FilterDecay(),
		FilterSustain:    s.FilterSustain(),
		FilterRelease:    s.FilterRelease(),
	}

	for id, v := range values {
		p.registry.Get(id).SetPlainValue(v)
	}
}

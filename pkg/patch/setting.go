package patch

import "github.com/justyntemme/polysynth/pkg/synth"

// VoiceData is attached to every voice a Setting starts
type VoiceData struct {
	Started float64 // seconds
	Note    int
}

// Setting drives a synth from a gate signal. Each rising edge applies the
// patch and starts the current note with the gate value as velocity.
type Setting struct {
	patch     *Patch
	synth     *synth.Synth
	gate      synth.Gate
	voiceData []VoiceData
}

func NewSetting(s *synth.Synth, p *Patch) *Setting {
	st := &Setting{
		patch: p,
		synth: s,
	}
	st.resize()
	return st
}

func (st *Setting) Patch() *Patch {
	return st.patch
}

func (st *Setting) Synth() *synth.Synth {
	return st.synth
}

// VoiceData returns the data of voice slot i, or nil
func (st *Setting) VoiceData(i int) *VoiceData {
	if i < 0 || i >= len(st.voiceData) {
		return nil
	}
	return &st.voiceData[i]
}

func (st *Setting) resize() {
	if n := st.synth.NumberVoices(); n != len(st.voiceData) {
		st.voiceData = make([]VoiceData, n)
	}
}

// Feed scans one block of gate values. notes[i] is the note for sample i;
// a shorter notes slice repeats its last entry. startSeconds is the time of
// the first sample. Returns the number of notes started.
func (st *Setting) Feed(gate []float64, notes []int, startSeconds float64) int {
	if len(notes) == 0 {
		return 0
	}

	sr := float64(st.synth.SampleRate())
	started := 0

	for i, g := range gate {
		velocity := st.gate.Input(g)
		if velocity <= 0 {
			continue
		}

		st.patch.Apply(st.synth)
		st.resize()

		note := notes[min(i, len(notes)-1)]
		v := st.synth.NoteOn(note, velocity, i, nil)
		if v != nil {
			started++
		}
		for ; v != nil; v = v.NextUnison() {
			data := &st.voiceData[v.Index()]
			data.Started = startSeconds + float64(i)/sr
			data.Note = v.Note()
			v.SetUserData(data)
		}
	}
	return started
}

// Reset forgets the gate state
func (st *Setting) Reset() {
	st.gate.Reset()
}

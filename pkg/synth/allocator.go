package synth

import "github.com/justyntemme/polysynth/pkg/dsp/envelope"

// NoteOn cues a voice to start note at startSample of the next Process
// call. velocity is in [0,1] and userData is stored on the voice.
//
// With unison enabled the returned voice is the head of the note. In
// combined mode it carries all oscillators itself, otherwise further voices
// are linked through NextUnison. NoteOn returns nil when no voice could be
// allocated under PolicyForget.
func (s *Synth) NoteOn(note int, velocity float64, startSample int, userData any) *Voice {
	if startSample < 0 {
		s.logger.Debug("start sample %d clamped to 0", startSample)
		startSample = 0
	}

	s.serial++

	partials := 1
	if s.unisonVoices > 1 && s.combinedUnison {
		partials = s.unisonVoices
	}

	head := s.allocate(note, velocity, startSample, userData, partials)
	if head == nil || s.unisonVoices < 2 {
		return head
	}

	sr := float64(s.sampleRate)

	if s.combinedUnison {
		for k := 1; k < s.unisonVoices; k++ {
			n := note + k*s.unisonNoteStep
			f := s.noteFreq.Frequency(n)
			bound := s.detuneBound(n) / sr
			head.freqC[k] = f/sr + s.random.Spread(bound)
		}
		return head
	}

	prev := head
	for k := 1; k < s.unisonVoices; k++ {
		n := note + k*s.unisonNoteStep
		v := s.allocate(n, velocity, startSample, userData, 1)
		if v == nil {
			s.logger.Debug("unison chain of note %d ends after %d voices", note, k)
			break
		}
		v.freq += s.random.Spread(s.detuneBound(n))
		v.freqC[0] = v.freq / sr
		prev.nextUnison = v.index
		prev = v
	}
	return head
}

// detuneBound returns the maximum random detune in Hz for note n
func (s *Synth) detuneBound(n int) float64 {
	return s.unisonDetune / 200 * (s.noteFreq.Frequency(n+1) - s.noteFreq.Frequency(n))
}

// allocate picks a free or stolen voice and initializes it for note
func (s *Synth) allocate(note int, velocity float64, startSample int, userData any, partials int) *Voice {
	v := s.findFreeVoice()
	if v == nil {
		if s.policy == PolicyForget {
			s.logger.Debug("note %d dropped, all %d voices in use", note, len(s.voices))
			return nil
		}
		v = s.stealVoice()
		if v == nil {
			return nil
		}
		s.logger.Debug("%s: voice %d (note %d) stolen for note %d", s.policy, v.index, v.note, note)
		if v.active {
			v.active = false
			s.fireEnded(v)
		}
	}

	s.initVoice(v, note, velocity, startSample, userData, partials)
	return v
}

// findFreeVoice returns the first voice that is neither active nor cued
func (s *Synth) findFreeVoice() *Voice {
	for i := range s.voices {
		v := &s.voices[i]
		if !v.active && !v.cued {
			return v
		}
	}
	return nil
}

// stealVoice selects a victim by policy. Ties resolve to the lowest index.
// Voices already claimed by the current NoteOn are never stolen.
func (s *Synth) stealVoice() *Voice {
	var best *Voice
	for i := range s.voices {
		v := &s.voices[i]
		if v.claim == s.serial {
			continue
		}
		if best == nil {
			best = v
			continue
		}

		switch s.policy {
		case PolicyLowest:
			if v.freq < best.freq {
				best = v
			}
		case PolicyHighest:
			if v.freq > best.freq {
				best = v
			}
		case PolicyOldest:
			if v.lifetime > best.lifetime {
				best = v
			}
		}
	}
	return best
}

// initVoice resets v and snapshots the current settings
func (s *Synth) initVoice(v *Voice, note int, velocity float64, startSample int, userData any, partials int) {
	// drop links of older unison chains into this slot
	for i := range s.voices {
		if s.voices[i].nextUnison == v.index {
			s.voices[i].nextUnison = -1
		}
	}

	sr := float64(s.sampleRate)

	v.claim = s.serial
	v.lifetime = 0
	v.active = false
	v.cued = true
	v.note = note
	v.freq = s.noteFreq.Frequency(note)
	v.pw = s.pulseWidth
	v.velo = velocity
	v.startSample = startSample
	v.waveform = s.waveform
	v.userData = userData
	v.nextUnison = -1

	v.env.SetSampleRate(sr)
	v.env.SetADSR(s.env.attack, s.env.decay, s.env.sustain, s.env.release)
	v.env.Stop()
	v.fenv.SetSampleRate(sr)
	v.fenv.SetADSR(s.fenv.attack, s.fenv.decay, s.fenv.sustain, s.fenv.release)
	v.fenv.Stop()

	v.filterFreq = s.filterFreq + s.filterKeyFollow*v.freq
	v.fenvAmt = s.filterEnvAmount + s.filterEnvKeyFollow*v.freq
	v.filter.SetType(s.filterType)
	v.filter.SetOrder(s.filterOrder)
	v.filter.SetSampleRate(sr)
	v.filter.SetFrequency(v.filterFreq)
	v.filter.SetResonance(s.filterReso)
	v.filter.Reset()
	v.filter.UpdateCoefficients()

	v.setPartials(partials)
	v.freqC[0] = v.freq / sr
}

// NoteOff releases every active voice playing note. Voices with a zero
// release time stop at once without a VoiceEnded callback.
func (s *Synth) NoteOff(note int) {
	for i := range s.voices {
		v := &s.voices[i]
		if v.active && v.note == note {
			s.releaseVoice(v)
		}
	}
}

// AllNotesOff releases every active voice
func (s *Synth) AllNotesOff() {
	for i := range s.voices {
		v := &s.voices[i]
		if v.active {
			s.releaseVoice(v)
		}
	}
}

func (s *Synth) releaseVoice(v *Voice) {
	if v.env.Release() > 0 {
		v.env.SetStage(envelope.StageRelease)
		v.fenv.SetStage(envelope.StageRelease)
		return
	}
	v.env.Stop()
	v.active = false
}

// Reset silences and frees every voice without callbacks
func (s *Synth) Reset() {
	for i := range s.voices {
		v := &s.voices[i]
		v.active = false
		v.cued = false
		v.nextUnison = -1
		v.env.Stop()
		v.fenv.Stop()
		v.filter.Reset()
	}
}

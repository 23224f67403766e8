package synth

// Process renders all voices into out, overwriting its contents.
// Cued voices start at their start sample; voices cued beyond the end of
// out are dropped.
func (s *Synth) Process(out []float32) {
	clear(out)
	length := len(out)

	for i := 0; i < length; i++ {
		for vi := range s.voices {
			v := &s.voices[vi]
			if v.cued && v.startSample == i {
				s.startVoice(v)
			}
			if !v.active {
				continue
			}

			v.lifetime++

			sample := v.filter.ProcessSample(float32(v.oscillate()))
			out[i] += sample * float32(s.volume*v.velo*v.env.Value())

			v.env.Next()
			if !v.env.Active() {
				v.active = false
				s.fireEnded(v)
				continue
			}

			v.updateFilterEnvelope()
		}
	}

	s.dropLateCues(length)
}

// ProcessMulti renders each voice into its own buffer, channels[i] receiving
// the voice in slot i. Unlike Process, the envelope is applied before the
// filter. Slots without a buffer are not rendered.
func (s *Synth) ProcessMulti(channels [][]float32, length int) {
	n := min(len(channels), len(s.voices))

	for vi := 0; vi < n; vi++ {
		v := &s.voices[vi]
		buf := channels[vi]
		end := min(length, len(buf))

		start := 0
		switch {
		case v.cued && v.startSample >= length:
			v.cued = false
			clear(buf[:max(end, 0)])
			continue

		case v.cued:
			start = v.startSample
			clear(buf[:min(start, max(end, 0))])
			s.startVoice(v)

		case !v.active:
			clear(buf[:max(end, 0)])
			continue
		}

		v.lifetime += length - start

		for i := start; i < end; i++ {
			sample := v.oscillate() * v.env.Value()
			buf[i] = v.filter.ProcessSample(float32(sample)) * float32(s.volume*v.velo)

			v.env.Next()
			if !v.env.Active() {
				clear(buf[i+1 : end])
				v.active = false
				s.fireEnded(v)
				break
			}

			v.updateFilterEnvelope()
		}
	}
}

func (s *Synth) startVoice(v *Voice) {
	v.cued = false
	v.active = true
	v.env.Trigger()
	if v.fenvAmt != 0 {
		v.fenv.Trigger()
	}
	s.fireStarted(v)
}

func (s *Synth) dropLateCues(length int) {
	for i := range s.voices {
		v := &s.voices[i]
		if v.cued && v.startSample >= length {
			v.cued = false
		}
	}
}

// Package filter provides digital signal processing filters
package filter

import "math"

// SVF implements a state variable filter
// Provides simultaneous lowpass, highpass, bandpass, and notch outputs
// Zero-delay feedback topology for better analog modeling
type SVF struct {
	g float32 // frequency coefficient
	k float32 // damping coefficient (1/Q)

	ic1eq float32 // integrator 1 state
	ic2eq float32 // integrator 2 state
}

// SVFOutputs holds all filter outputs
type SVFOutputs struct {
	Lowpass  float32
	Highpass float32
	Bandpass float32
	Notch    float32
}

// Reset clears the filter state
func (s *SVF) Reset() {
	s.ic1eq = 0
	s.ic2eq = 0
}

// SetFrequencyAndQ sets the cutoff frequency and the resonance (Q factor)
func (s *SVF) SetFrequencyAndQ(sampleRate, frequency, q float64) {
	// Pre-warp the frequency for the bilinear transform
	s.g = float32(math.Tan(math.Pi * frequency / sampleRate))
	s.k = float32(1.0 / q)
}

// ProcessSample processes a single sample and returns all outputs
func (s *SVF) ProcessSample(input float32) SVFOutputs {
	g := s.g
	k := s.k
	a1 := 1.0 / (1.0 + g*(g+k))
	a2 := g * a1
	a3 := g * a2

	v3 := input - s.ic2eq
	v1 := a1*s.ic1eq + a2*v3
	v2 := s.ic2eq + a2*s.ic1eq + a3*v3

	s.ic1eq = 2.0*v1 - s.ic1eq
	s.ic2eq = 2.0*v2 - s.ic2eq

	return SVFOutputs{
		Lowpass:  v2,
		Bandpass: v1,
		Highpass: input - k*v1 - v2,
		Notch:    input - k*v1,
	}
}

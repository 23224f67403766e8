// Package waveform provides stateless periodic waveform functions for synthesis
package waveform

import (
	"fmt"
	"math"
)

// Type selects the oscillator waveform
type Type int

const (
	// Sine is a sine oscillator [-1,1]
	Sine Type = iota
	// Cosine is a cosine oscillator [-1,1]
	Cosine
	// Ramp is a positive ramp [0,1]
	Ramp
	// SawRise is a sawtooth with rising edge [-1,1]
	SawRise
	// SawDecay is a sawtooth with decaying edge [-1,1]
	SawDecay
	// Triangle is a triangle whose peak sits at the pulse width [-1,1]
	Triangle
	// Square is +1 below the pulse width and -1 above [-1,1]
	Square
	// RampSmooth is a ramp with a rounded reset
	RampSmooth
	// SawRiseSmooth is a rising sawtooth with a rounded reset
	SawRiseSmooth
	// SawDecaySmooth is a decaying sawtooth with a rounded reset
	SawDecaySmooth
	// TriangleSmooth is a triangle with rounded corners
	TriangleSmooth
	// SquareSmooth is a square with rounded edges
	SquareSmooth

	numTypes
)

// Pulse width limits
const (
	MinPulseWidth = 0.01
	MaxPulseWidth = 0.99

	// smoothing width of the *Smooth variants, as a fraction of the period
	smoothWidth = 0.05
)

var typeIDs = [numTypes]string{
	"sin", "cos",
	"ramp", "saw", "sawd", "tri", "sqr",
	"rampsm", "sawsm", "sawdsm", "trism", "sqrsm",
}

var typeNames = [numTypes]string{
	"Sine", "Cosine",
	"Ramp", "Sawtooth up", "Sawtooth down", "Triangle", "Square",
	"Ramp (smooth)", "Sawtooth up (smooth)", "Sawtooth down (smooth)",
	"Triangle (smooth)", "Square (smooth)",
}

// Types returns all waveform types in catalogue order
func Types() []Type {
	types := make([]Type, numTypes)
	for i := range types {
		types[i] = Type(i)
	}
	return types
}

// String returns the short id of the waveform
func (t Type) String() string {
	if t < 0 || t >= numTypes {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeIDs[t]
}

// Name returns the human readable name
func (t Type) Name() string {
	if t < 0 || t >= numTypes {
		return "Unknown"
	}
	return typeNames[t]
}

// ParseType looks up a waveform by its short id
func ParseType(id string) (Type, error) {
	for i, s := range typeIDs {
		if s == id {
			return Type(i), nil
		}
	}
	return Sine, fmt.Errorf("unknown waveform %q", id)
}

// SupportsPulseWidth reports whether the pulse width changes the shape
func SupportsPulseWidth(t Type) bool {
	switch t {
	case Triangle, Square, TriangleSmooth, SquareSmooth:
		return true
	}
	return false
}

// ClampPulseWidth limits pw to the usable range
func ClampPulseWidth(pw float64) float64 {
	return math.Max(MinPulseWidth, math.Min(MaxPulseWidth, pw))
}

// Sample evaluates waveform t at phase (one period per unit)
func Sample(phase float64, t Type, pw float64) float64 {
	p := phase - math.Floor(phase)

	switch t {
	case Sine:
		return math.Sin(2.0 * math.Pi * p)

	case Cosine:
		return math.Cos(2.0 * math.Pi * p)

	case Ramp:
		return p

	case SawRise:
		return 2.0*p - 1.0

	case SawDecay:
		return 1.0 - 2.0*p

	case Triangle:
		return triangle(p, ClampPulseWidth(pw))

	case Square:
		if p >= pw {
			return -1.0
		}
		return 1.0

	case RampSmooth:
		return p - smoothstep(1.0-smoothWidth, 1.0, p)

	case SawRiseSmooth:
		return -1.0 + 2.0*(p-smoothstep(1.0-smoothWidth, 1.0, p))

	case SawDecaySmooth:
		return 1.0 - 2.0*(p-smoothstep(1.0-smoothWidth, 1.0, p))

	case TriangleSmooth:
		v := triangle(p, ClampPulseWidth(pw))
		// soften the corners with a cubic shaper
		return v * (1.5 - 0.5*v*v)

	case SquareSmooth:
		w := ClampPulseWidth(pw)
		if p > w {
			return -1.0 + 2.0*smoothstep(1.0-smoothWidth*(1.0-w), 1.0, p)
		}
		return 1.0 - 2.0*smoothstep(w-smoothWidth*w, w, p)
	}

	return 0.0
}

func triangle(p, pw float64) float64 {
	if p < pw {
		return p*2.0/pw - 1.0
	}
	return (1.0-p)*2.0/(1.0-pw) - 1.0
}

func smoothstep(edge0, edge1, x float64) float64 {
	if edge1 <= edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := (x - edge0) / (edge1 - edge0)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t * t * (3.0 - 2.0*t)
}

// Process fills buffer with waveform t starting at phase, advancing by inc per
// sample, and returns the phase after the last sample - no allocations
func Process(buffer []float32, t Type, pw, phase, inc float64) float64 {
	for i := range buffer {
		buffer[i] = float32(Sample(phase, t, pw))
		phase += inc
		if phase >= 1.0 {
			phase -= math.Floor(phase)
		}
	}
	return phase
}

package filter

import "math"

// Biquad implements a second-order IIR filter (biquad)
// Direct Form I implementation
type Biquad struct {
	// Coefficients, a0 is normalized to 1
	a1, a2     float32
	b0, b1, b2 float32

	// Delay lines
	x1, x2 float32
	y1, y2 float32
}

// Reset clears the filter state
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// SetCoefficients sets the filter coefficients directly
func (b *Biquad) SetCoefficients(b0, b1, b2, a0, a1, a2 float64) {
	invA0 := 1.0 / a0
	b.b0 = float32(b0 * invA0)
	b.b1 = float32(b1 * invA0)
	b.b2 = float32(b2 * invA0)
	b.a1 = float32(a1 * invA0)
	b.a2 = float32(a2 * invA0)
}

// ProcessSample filters a single sample
func (b *Biquad) ProcessSample(x0 float32) float32 {
	y0 := b.b0*x0 + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2

	b.x2 = b.x1
	b.x1 = x0
	b.y2 = b.y1
	b.y1 = y0

	return y0
}

// rbj returns the shared terms of the RBJ cookbook designs
func rbj(sampleRate, frequency, q float64) (cosOmega, alpha float64) {
	omega := 2.0 * math.Pi * frequency / sampleRate
	return math.Cos(omega), math.Sin(omega) / (2.0 * q)
}

// SetLowpass configures as a lowpass filter
func (b *Biquad) SetLowpass(sampleRate, frequency, q float64) {
	cosOmega, alpha := rbj(sampleRate, frequency, q)
	b.SetCoefficients(
		(1.0-cosOmega)/2.0, 1.0-cosOmega, (1.0-cosOmega)/2.0,
		1.0+alpha, -2.0*cosOmega, 1.0-alpha)
}

// SetHighpass configures as a highpass filter
func (b *Biquad) SetHighpass(sampleRate, frequency, q float64) {
	cosOmega, alpha := rbj(sampleRate, frequency, q)
	b.SetCoefficients(
		(1.0+cosOmega)/2.0, -(1.0 + cosOmega), (1.0+cosOmega)/2.0,
		1.0+alpha, -2.0*cosOmega, 1.0-alpha)
}

// SetBandpass configures as a bandpass filter (constant skirt gain)
func (b *Biquad) SetBandpass(sampleRate, frequency, q float64) {
	cosOmega, alpha := rbj(sampleRate, frequency, q)
	b.SetCoefficients(
		alpha, 0.0, -alpha,
		1.0+alpha, -2.0*cosOmega, 1.0-alpha)
}

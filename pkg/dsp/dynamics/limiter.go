// Package dynamics holds the brick-wall limiter of the output stage.
package dynamics

import (
	"math"

	"github.com/justyntemme/polysynth/pkg/dsp/gain"
)

// Limiter defaults
const (
	DefaultCeiling = -0.3  // dB
	DefaultRelease = 0.050 // seconds
	minRelease     = 0.001
)

// Limiter keeps every sample at or below the ceiling. Gain drops instantly
// on a peak and recovers exponentially over the release time.
type Limiter struct {
	sampleRate float64

	ceilingDB float64
	ceiling   float32 // linear
	release   float64
	coef      float32 // per-sample release coefficient

	gain float32 // current gain, at most 1
}

func NewLimiter(sampleRate float64) *Limiter {
	l := &Limiter{
		sampleRate: sampleRate,
		gain:       1,
	}
	l.SetCeiling(DefaultCeiling)
	l.SetRelease(DefaultRelease)
	return l
}

// SetCeiling sets the limit in dB. Positive values are treated as 0 dB.
func (l *Limiter) SetCeiling(dB float64) {
	l.ceilingDB = min(dB, 0)
	l.ceiling = float32(gain.DbToLinear(l.ceilingDB))
}

func (l *Limiter) Ceiling() float64 {
	return l.ceilingDB
}

// SetRelease sets the recovery time constant in seconds
func (l *Limiter) SetRelease(seconds float64) {
	l.release = max(seconds, minRelease)
	l.coef = float32(math.Exp(-1 / (l.release * l.sampleRate)))
}

func (l *Limiter) Release() float64 {
	return l.release
}

// GainReduction returns the current reduction in dB, 0 when idle
func (l *Limiter) GainReduction() float64 {
	if l.gain >= 1 {
		return 0
	}
	return -gain.LinearToDb(float64(l.gain))
}

func (l *Limiter) Process(input float32) float32 {
	target := float32(1)
	if peak := float32(math.Abs(float64(input))); peak > l.ceiling {
		target = l.ceiling / peak
	}

	if target < l.gain {
		l.gain = target
	} else {
		l.gain = target + (l.gain-target)*l.coef
	}
	return input * l.gain
}

// ProcessBuffer limits buffer in place
func (l *Limiter) ProcessBuffer(buffer []float32) {
	for i, s := range buffer {
		buffer[i] = l.Process(s)
	}
}

func (l *Limiter) Reset() {
	l.gain = 1
}

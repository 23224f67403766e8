// Package envelope provides envelope generators for audio synthesis
package envelope

import "math"

// Stage represents the current envelope stage
type Stage int

const (
	// StageAttack rises towards 1
	StageAttack Stage = iota
	// StageDecay falls towards the sustain level
	StageDecay
	// StageSustain holds the sustain level until released
	StageSustain
	// StageRelease falls towards 0
	StageRelease
)

// String returns the stage name
func (s Stage) String() string {
	switch s {
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Stage end thresholds
const (
	attackDone  = 0.999
	decayDone   = 0.001
	releaseDone = 0.0001

	// minimum number of samples a stage spans
	minStageSamples = 8.0
)

// ADSR implements an Attack-Decay-Sustain-Release envelope generator.
// Each stage moves a fixed fraction of the remaining distance per sample,
// the fraction being 8 / (stage time in samples).
// The zero value is an inactive envelope with all times at zero.
type ADSR struct {
	sampleRate float64

	// Parameters (in seconds for A,D,R and 0-1 for S)
	attack  float64
	decay   float64
	sustain float64
	release float64

	// Coefficients
	attackCoef  float64
	decayCoef   float64
	releaseCoef float64

	// State
	stage  Stage
	value  float64
	active bool
}

// New creates a new ADSR envelope with the default times
func New(sampleRate float64) *ADSR {
	env := &ADSR{
		sampleRate: sampleRate,
		attack:     0.05,
		decay:      1.0,
		sustain:    0.0,
		release:    1.0,
	}
	env.updateCoefficients()
	return env
}

// SampleRate returns the sample rate in Hz
func (e *ADSR) SampleRate() float64 { return e.sampleRate }

// Attack returns the attack time in seconds
func (e *ADSR) Attack() float64 { return e.attack }

// Decay returns the decay time in seconds
func (e *ADSR) Decay() float64 { return e.decay }

// Sustain returns the sustain level
func (e *ADSR) Sustain() float64 { return e.sustain }

// Release returns the release time in seconds
func (e *ADSR) Release() float64 { return e.release }

// Value returns the current envelope value
func (e *ADSR) Value() float64 { return e.value }

// Active returns true while the envelope is generating output
func (e *ADSR) Active() bool { return e.active }

// Stage returns the current envelope stage
func (e *ADSR) Stage() Stage { return e.stage }

// SetSampleRate sets the sample rate and recalculates the coefficients
func (e *ADSR) SetSampleRate(sampleRate float64) {
	e.sampleRate = sampleRate
	e.updateCoefficients()
}

// SetAttack sets the attack time in seconds
func (e *ADSR) SetAttack(seconds float64) {
	e.attack = seconds
	e.attackCoef = calcCoef(seconds, e.sampleRate)
}

// SetDecay sets the decay time in seconds
func (e *ADSR) SetDecay(seconds float64) {
	e.decay = seconds
	e.decayCoef = calcCoef(seconds, e.sampleRate)
}

// SetSustain sets the sustain level
func (e *ADSR) SetSustain(level float64) {
	e.sustain = level
}

// SetRelease sets the release time in seconds
func (e *ADSR) SetRelease(seconds float64) {
	e.release = seconds
	e.releaseCoef = calcCoef(seconds, e.sampleRate)
}

// SetADSR sets all parameters at once
func (e *ADSR) SetADSR(attack, decay, sustain, release float64) {
	e.attack = attack
	e.decay = decay
	e.sustain = sustain
	e.release = release
	e.updateCoefficients()
}

// SetStage forces the envelope into a stage without touching its value
func (e *ADSR) SetStage(s Stage) {
	e.stage = s
}

// updateCoefficients recalculates the per-sample coefficients
func (e *ADSR) updateCoefficients() {
	e.attackCoef = calcCoef(e.attack, e.sampleRate)
	e.decayCoef = calcCoef(e.decay, e.sampleRate)
	e.releaseCoef = calcCoef(e.release, e.sampleRate)
}

// calcCoef calculates the coefficient for a given stage time
func calcCoef(timeSeconds, sampleRate float64) float64 {
	return minStageSamples / math.Max(minStageSamples, timeSeconds*sampleRate)
}

// Trigger starts the envelope from zero (note on)
func (e *ADSR) Trigger() {
	e.active = true
	e.stage = StageAttack
	e.value = 0.0
}

// Stop immediately silences the envelope
func (e *ADSR) Stop() {
	e.active = false
	e.value = 0.0
}

// Next forwards the envelope by one sample and returns the new value
func (e *ADSR) Next() float64 {
	if !e.active {
		return 0.0
	}

	switch e.stage {
	case StageAttack:
		e.value += e.attackCoef * (1.0 - e.value)
		if e.value >= attackDone {
			e.stage = StageDecay
		}

	case StageDecay:
		e.value += e.decayCoef * (e.sustain - e.value)
		if math.Abs(e.value-e.sustain) < decayDone {
			if e.sustain > 0 {
				e.stage = StageSustain
			} else {
				e.Stop()
			}
		}

	case StageRelease:
		e.value -= e.releaseCoef * e.value
		if e.value <= releaseDone {
			e.Stop()
		}

	case StageSustain:
	}

	return e.value
}

// Process fills buffer with envelope values - no allocations
func (e *ADSR) Process(buffer []float32) {
	for i := range buffer {
		buffer[i] = float32(e.Next())
	}
}

// ProcessMultiply multiplies buffer by envelope - no allocations
func (e *ADSR) ProcessMultiply(buffer []float32) {
	for i := range buffer {
		buffer[i] *= float32(e.Next())
	}
}

package analysis

import (
	"math"
	"sync"

	"github.com/justyntemme/polysynth/pkg/dsp/gain"
)

// PeakMeter follows the block peak with a falling display value and a
// held maximum. Process is called from the audio thread, the getters from
// the display.
type PeakMeter struct {
	peak       float64
	hold       float64
	holdTime   float64
	decayRate  float64 // dB per second
	sampleRate float64
	holdCount  int
	mu         sync.Mutex
}

func NewPeakMeter(sampleRate float64) *PeakMeter {
	return &PeakMeter{
		sampleRate: sampleRate,
		holdTime:   1.5,
		decayRate:  24.0,
	}
}

// SetHoldTime sets the peak hold time in seconds
func (pm *PeakMeter) SetHoldTime(seconds float64) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.holdTime = seconds
}

// SetDecayRate sets the fall rate in dB per second
func (pm *PeakMeter) SetDecayRate(dbPerSecond float64) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.decayRate = dbPerSecond
}

func (pm *PeakMeter) Process(samples []float32) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	blockPeak := 0.0
	for _, s := range samples {
		blockPeak = max(blockPeak, math.Abs(float64(s)))
	}

	decayPerSample := pm.decayRate / pm.sampleRate / 20.0 * math.Ln10
	pm.peak *= math.Exp(-decayPerSample * float64(len(samples)))
	pm.peak = max(pm.peak, blockPeak)

	if blockPeak > pm.hold {
		pm.hold = blockPeak
		pm.holdCount = int(pm.holdTime * pm.sampleRate)
		return
	}
	pm.holdCount -= len(samples)
	if pm.holdCount <= 0 {
		pm.hold = pm.peak
		pm.holdCount = 0
	}
}

func (pm *PeakMeter) Peak() float64 {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.peak
}

func (pm *PeakMeter) PeakDB() float64 {
	return gain.LinearToDb(pm.Peak())
}

func (pm *PeakMeter) Hold() float64 {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.hold
}

func (pm *PeakMeter) HoldDB() float64 {
	return gain.LinearToDb(pm.Hold())
}

func (pm *PeakMeter) Reset() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.peak = 0
	pm.hold = 0
	pm.holdCount = 0
}

// RMSMeter is the RMS over a sliding window
type RMSMeter struct {
	buffer   []float64
	writePos int
	sum      float64
	count    int
	mu       sync.Mutex
}

func NewRMSMeter(windowSizeSamples int) *RMSMeter {
	return &RMSMeter{
		buffer: make([]float64, max(1, windowSizeSamples)),
	}
}

func (rm *RMSMeter) Process(samples []float32) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for _, s := range samples {
		sq := float64(s) * float64(s)
		rm.sum += sq - rm.buffer[rm.writePos]
		rm.buffer[rm.writePos] = sq

		rm.writePos = (rm.writePos + 1) % len(rm.buffer)
		if rm.count < len(rm.buffer) {
			rm.count++
		}
	}
}

func (rm *RMSMeter) RMS() float64 {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.count == 0 {
		return 0
	}
	// the running sum can drift slightly below zero
	return math.Sqrt(max(rm.sum, 0) / float64(rm.count))
}

func (rm *RMSMeter) RMSDB() float64 {
	return gain.LinearToDb(rm.RMS())
}

func (rm *RMSMeter) Reset() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	clear(rm.buffer)
	rm.sum = 0
	rm.count = 0
	rm.writePos = 0
}

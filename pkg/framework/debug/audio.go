package debug

import (
	"fmt"
	"math"
)

// AnalysisResult describes the audio written to an AudioAnalyzer.
type AnalysisResult struct {
	Samples        int
	Peak           float32
	RMS            float32
	DC             float32
	ClippedSamples int
	NaNCount       int
	ZeroCrossings  int
	Silent         bool
}

func (r AnalysisResult) Clipping() bool { return r.ClippedSamples > 0 }
func (r AnalysisResult) HasNaN() bool   { return r.NaNCount > 0 }

// AudioAnalyzer accumulates statistics over any number of blocks.
type AudioAnalyzer struct {
	ClipThreshold    float32
	DCThreshold      float32
	SilenceThreshold float32

	samples    int
	peak       float32
	clipped    int
	nans       int
	crossings  int
	sum        float64
	sumSquares float64
	last       float32
}

func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{
		ClipThreshold:    0.99,
		DCThreshold:      0.01,
		SilenceThreshold: 0.0001,
	}
}

// Write adds a block. NaN samples are counted and otherwise skipped.
func (a *AudioAnalyzer) Write(buffer []float32) {
	for _, sample := range buffer {
		if math.IsNaN(float64(sample)) {
			a.nans++
			continue
		}

		abs := float32(math.Abs(float64(sample)))
		a.peak = max(a.peak, abs)
		if abs >= a.ClipThreshold {
			a.clipped++
		}

		if a.samples > 0 && (a.last < 0) != (sample < 0) {
			a.crossings++
		}
		a.last = sample

		a.sum += float64(sample)
		a.sumSquares += float64(sample) * float64(sample)
		a.samples++
	}
}

// Result returns the statistics of everything written since the last Reset.
func (a *AudioAnalyzer) Result() AnalysisResult {
	r := AnalysisResult{
		Samples:        a.samples,
		Peak:           a.peak,
		ClippedSamples: a.clipped,
		NaNCount:       a.nans,
		ZeroCrossings:  a.crossings,
	}
	if a.samples > 0 {
		r.RMS = float32(math.Sqrt(a.sumSquares / float64(a.samples)))
		r.DC = float32(a.sum / float64(a.samples))
	}
	r.Silent = r.RMS < a.SilenceThreshold
	return r
}

func (a *AudioAnalyzer) Reset() {
	a.samples, a.clipped, a.nans, a.crossings = 0, 0, 0, 0
	a.peak, a.last = 0, 0
	a.sum, a.sumSquares = 0, 0
}

// Analyze returns the statistics of one buffer on its own.
func (a *AudioAnalyzer) Analyze(buffer []float32) AnalysisResult {
	a.Reset()
	a.Write(buffer)
	return a.Result()
}

// Issues lists the problems found so far, each prefixed with name.
func (a *AudioAnalyzer) Issues(name string) []string {
	var issues []string
	r := a.Result()

	if r.HasNaN() {
		issues = append(issues, fmt.Sprintf("%s: contains %d NaN values", name, r.NaNCount))
	}
	if r.Clipping() {
		issues = append(issues, fmt.Sprintf("%s: clipping detected (%d samples)", name, r.ClippedSamples))
	}
	if math.Abs(float64(r.DC)) > float64(a.DCThreshold) {
		issues = append(issues, fmt.Sprintf("%s: DC offset detected (%.3f)", name, r.DC))
	}
	if r.Peak > 1.0 {
		issues = append(issues, fmt.Sprintf("%s: peak exceeds 1.0 (%.3f)", name, r.Peak))
	}
	return issues
}

// CheckBuffer runs the default checks on one buffer.
func CheckBuffer(buffer []float32, name string) []string {
	a := NewAudioAnalyzer()
	a.Write(buffer)
	return a.Issues(name)
}

// CompareBuffers reports samples of a and b further apart than tolerance.
// It returns "" when the buffers match.
func CompareBuffers(a, b []float32, tolerance float32) string {
	if len(a) != len(b) {
		return fmt.Sprintf("buffer length mismatch: %d vs %d", len(a), len(b))
	}

	var maxDiff float32
	var maxDiffIndex, diffCount int

	for i := range a {
		diff := float32(math.Abs(float64(a[i] - b[i])))
		if diff <= tolerance {
			continue
		}
		diffCount++
		if diff > maxDiff {
			maxDiff = diff
			maxDiffIndex = i
		}
	}

	if diffCount == 0 {
		return ""
	}
	return fmt.Sprintf("%d / %d samples differ, max %.6f at sample %d",
		diffCount, len(a), maxDiff, maxDiffIndex)
}

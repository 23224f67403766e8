// Package utility provides common DSP utility functions and processors.
package utility

import (
	"math/rand"
)

// NoiseGenerator produces uniform white noise from a seedable source.
// The synth uses it for the random detune of unison partials.
type NoiseGenerator struct {
	rand *rand.Rand
}

// NewNoiseGenerator creates a new noise generator.
func NewNoiseGenerator(seed int64) *NoiseGenerator {
	return &NoiseGenerator{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// SetSeed sets the random seed for reproducible noise.
func (n *NoiseGenerator) SetSeed(seed int64) {
	n.rand = rand.New(rand.NewSource(seed))
}

// Next returns a white noise sample in range [-1, 1].
func (n *NoiseGenerator) Next() float64 {
	return n.rand.Float64()*2.0 - 1.0
}

// Spread returns a uniform value in range [-bound, bound].
func (n *NoiseGenerator) Spread(bound float64) float64 {
	return n.Next() * bound
}

// Generate fills a buffer with noise.
func (n *NoiseGenerator) Generate(buffer []float32) {
	for i := range buffer {
		buffer[i] = float32(n.Next())
	}
}

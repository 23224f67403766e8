// Package gain holds level conversions and the output stage applied to
// rendered audio: scaling, fades, normalizing and clipping.
package gain

import "math"

// MinDB stands for silence
const MinDB = -200.0

// LinearToDb returns MinDB for values <= 0
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return MinDB
	}
	return max(20.0*math.Log10(linear), MinDB)
}

// DbToLinear returns 0 at or below MinDB
func DbToLinear(db float64) float64 {
	if db <= MinDB {
		return 0
	}
	return math.Pow(10.0, db/20.0)
}

func ApplyBuffer(buffer []float32, gain float32) {
	for i := range buffer {
		buffer[i] *= gain
	}
}

// Fade ramps the gain linearly from startGain on the first sample to
// endGain on the last.
func Fade(buffer []float32, startGain, endGain float32) {
	switch len(buffer) {
	case 0:
		return
	case 1:
		buffer[0] *= startGain
		return
	}

	step := (endGain - startGain) / float32(len(buffer)-1)
	for i := range buffer {
		buffer[i] *= startGain + step*float32(i)
	}
}

// Peak returns the largest absolute sample
func Peak(buffer []float32) float32 {
	var peak float32
	for _, s := range buffer {
		peak = max(peak, s, -s)
	}
	return peak
}

// Normalize scales buffer so its peak is target and returns the applied
// gain. Silent buffers are left alone and return 1.
func Normalize(buffer []float32, target float32) float32 {
	peak := Peak(buffer)
	if peak == 0 {
		return 1
	}
	g := target / peak
	ApplyBuffer(buffer, g)
	return g
}

// SoftClip passes samples up to threshold and bends larger ones towards it.
func SoftClip(input, threshold float32) float32 {
	if input <= threshold && input >= -threshold {
		return input
	}
	return threshold * fastTanh32(input/threshold)
}

func SoftClipBuffer(buffer []float32, threshold float32) {
	for i, s := range buffer {
		buffer[i] = SoftClip(s, threshold)
	}
}

func HardClip(input, threshold float32) float32 {
	return min(max(input, -threshold), threshold)
}

func HardClipBuffer(buffer []float32, threshold float32) {
	for i, s := range buffer {
		buffer[i] = HardClip(s, threshold)
	}
}

// fastTanh32 is a rational tanh approximation, exact at +-3
func fastTanh32(x float32) float32 {
	if x < -3 {
		return -1
	}
	if x > 3 {
		return 1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

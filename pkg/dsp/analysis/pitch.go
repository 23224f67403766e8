package analysis

import "math"

// DominantFrequency returns the frequency of the strongest bin above
// minFreq, refined by parabolic interpolation over its neighbours. The
// second result is the magnitude of that bin. Returns 0, 0 for silence.
func (f *FFT) DominantFrequency(samples []float32, sampleRate, minFreq float64) (float64, float64) {
	mag := f.Magnitude(samples)

	first := max(1, int(math.Ceil(minFreq*float64(f.size)/sampleRate)))
	best := -1
	for i := first; i < len(mag); i++ {
		if best < 0 || mag[i] > mag[best] {
			best = i
		}
	}
	if best < 0 || mag[best] == 0 {
		return 0, 0
	}

	bin := float64(best)
	if best > 0 && best < len(mag)-1 {
		a, b, c := mag[best-1], mag[best], mag[best+1]
		if d := a - 2*b + c; d != 0 {
			bin += 0.5 * (a - c) / d
		}
	}
	return bin * sampleRate / float64(f.size), mag[best]
}

// DominantFrequency analyses the first 8192 samples with a Hann window
func DominantFrequency(samples []float32, sampleRate float64) float64 {
	n := min(len(samples), 8192)
	if n < 2 {
		return 0
	}
	freq, _ := NewFFT(n, HannWindow).DominantFrequency(samples[:n], sampleRate, 1)
	return freq
}

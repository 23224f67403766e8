// Package analysis measures rendered audio: pitch by FFT and level meters.
package analysis

import (
	"math"
)

// WindowFunc selects the window applied before a transform
type WindowFunc int

const (
	RectangularWindow WindowFunc = iota
	HannWindow
	BlackmanHarrisWindow
)

// FFT is a radix-2 transform of a fixed size. It is not safe for
// concurrent use.
type FFT struct {
	size       int
	windowData []float64
	real       []float64
	imag       []float64
	magnitude  []float64
}

// NewFFT rounds size up to a power of two
func NewFFT(size int, window WindowFunc) *FFT {
	n := 1
	for n < size {
		n <<= 1
	}

	f := &FFT{
		size:       n,
		windowData: make([]float64, n),
		real:       make([]float64, n),
		imag:       make([]float64, n),
		magnitude:  make([]float64, n/2+1),
	}
	f.calculateWindow(window)
	return f
}

func (f *FFT) Size() int {
	return f.size
}

func (f *FFT) calculateWindow(window WindowFunc) {
	n := float64(f.size)
	if f.size == 1 {
		f.windowData[0] = 1
		return
	}

	for i := range f.windowData {
		x := 2.0 * math.Pi * float64(i) / (n - 1.0)
		switch window {
		case HannWindow:
			f.windowData[i] = 0.5 * (1.0 - math.Cos(x))
		case BlackmanHarrisWindow:
			f.windowData[i] = 0.35875 - 0.48829*math.Cos(x) +
				0.14128*math.Cos(2*x) - 0.01168*math.Cos(3*x)
		default:
			f.windowData[i] = 1.0
		}
	}
}

// Magnitude windows input, zero padded to the transform size, and returns
// the magnitude of bins 0..size/2. The result is reused by the next call.
func (f *FFT) Magnitude(input []float32) []float64 {
	for i := range f.real {
		f.real[i] = 0
		f.imag[i] = 0
		if i < len(input) {
			f.real[i] = float64(input[i]) * f.windowData[i]
		}
	}

	f.transform()

	for i := range f.magnitude {
		f.magnitude[i] = math.Hypot(f.real[i], f.imag[i])
	}
	return f.magnitude
}

// BinFrequency returns the centre frequency of bin
func (f *FFT) BinFrequency(bin int, sampleRate float64) float64 {
	return float64(bin) * sampleRate / float64(f.size)
}

// transform is an in-place iterative Cooley-Tukey FFT
func (f *FFT) transform() {
	n := f.size
	re, im := f.real, f.imag

	j := 0
	for i := 0; i < n; i++ {
		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
		m := n >> 1
		for m >= 1 && j >= m {
			j -= m
			m >>= 1
		}
		j += m
	}

	for stage := 2; stage <= n; stage <<= 1 {
		theta := -2.0 * math.Pi / float64(stage)
		wr, wi := math.Cos(theta), math.Sin(theta)
		half := stage / 2

		for k := 0; k < n; k += stage {
			tr, ti := 1.0, 0.0
			for j := 0; j < half; j++ {
				i1 := k + j
				i2 := i1 + half

				xr := tr*re[i2] - ti*im[i2]
				xi := tr*im[i2] + ti*re[i2]

				re[i2] = re[i1] - xr
				im[i2] = im[i1] - xi
				re[i1] += xr
				im[i1] += xi

				tr, ti = tr*wr-ti*wi, tr*wi+ti*wr
			}
		}
	}
}

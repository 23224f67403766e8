package debug

import (
	"math"
	"strings"
	"testing"
)

func TestAudioAnalyzer(t *testing.T) {
	t.Run("BasicAnalysis", func(t *testing.T) {
		analyzer := NewAudioAnalyzer()

		buffer := make([]float32, 1000)
		for i := range buffer {
			buffer[i] = 0.5 * float32(math.Sin(2*math.Pi*440*float64(i)/48000))
		}

		result := analyzer.Analyze(buffer)

		if result.Peak < 0.49 || result.Peak > 0.51 {
			t.Errorf("Peak incorrect: %f", result.Peak)
		}
		expectedRMS := 0.5 / math.Sqrt(2)
		if math.Abs(float64(result.RMS)-expectedRMS) > 0.01 {
			t.Errorf("RMS incorrect: %f, expected ~%f", result.RMS, expectedRMS)
		}
		if result.ZeroCrossings == 0 {
			t.Error("No zero crossings detected")
		}
		if result.Silent {
			t.Error("Should not be silent")
		}
	})

	t.Run("Clipping", func(t *testing.T) {
		analyzer := NewAudioAnalyzer()

		result := analyzer.Analyze([]float32{0.5, 0.99, 1.0, -0.99, -1.0, 0.5})

		if !result.Clipping() {
			t.Error("Should detect clipping")
		}
		if result.ClippedSamples != 4 {
			t.Errorf("Wrong clipped sample count: %d", result.ClippedSamples)
		}
	})

	t.Run("DCOffset", func(t *testing.T) {
		analyzer := NewAudioAnalyzer()

		buffer := make([]float32, 100)
		for i := range buffer {
			buffer[i] = 0.3
		}

		result := analyzer.Analyze(buffer)
		if math.Abs(float64(result.DC)-0.3) > 0.001 {
			t.Errorf("DC offset incorrect: %f", result.DC)
		}
	})

	t.Run("Silence", func(t *testing.T) {
		result := NewAudioAnalyzer().Analyze(make([]float32, 100))

		if !result.Silent {
			t.Error("Should detect silence")
		}
		if result.Peak != 0 {
			t.Error("Peak should be 0")
		}
	})

	t.Run("NaN", func(t *testing.T) {
		buffer := []float32{1.0, float32(math.NaN()), 0.5, float32(math.NaN())}
		result := NewAudioAnalyzer().Analyze(buffer)

		if !result.HasNaN() || result.NaNCount != 2 {
			t.Errorf("Expected 2 NaN values, got %d", result.NaNCount)
		}
		if result.Samples != 2 {
			t.Errorf("Expected 2 counted samples, got %d", result.Samples)
		}
	})

	t.Run("Blocks", func(t *testing.T) {
		analyzer := NewAudioAnalyzer()
		analyzer.Write([]float32{0.5, 0.5})
		analyzer.Write([]float32{-0.5, -0.5})

		result := analyzer.Result()
		if result.Samples != 4 || result.DC != 0 || result.RMS != 0.5 {
			t.Errorf("Expected 4 samples DC 0 RMS 0.5, got %+v", result)
		}
		// crossing between the blocks
		if result.ZeroCrossings != 1 {
			t.Errorf("Expected 1 zero crossing, got %d", result.ZeroCrossings)
		}

		analyzer.Reset()
		if analyzer.Result().Samples != 0 {
			t.Error("Reset did not clear the analyzer")
		}
	})
}

func TestCompareBuffers(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want string
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, ""},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, "length mismatch"},
		{"differences", []float32{1, 2, 3}, []float32{1, 2.5, 3}, "1 / 3 samples differ, max 0.500000 at sample 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareBuffers(tt.a, tt.b, 0.05)
			if tt.want == "" && got != "" {
				t.Errorf("Expected match, got %q", got)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Expected %q in %q", tt.want, got)
			}
		})
	}
}

func TestCheckBuffer(t *testing.T) {
	t.Run("NoIssues", func(t *testing.T) {
		issues := CheckBuffer([]float32{0.1, 0.2, -0.1, -0.2}, "test")
		if len(issues) != 0 {
			t.Errorf("Should have no issues, got: %v", issues)
		}
	})

	t.Run("MultipleIssues", func(t *testing.T) {
		buffer := []float32{
			float32(math.NaN()),
			1.5,
			0.3, 0.3, 0.3,
		}

		issues := strings.Join(CheckBuffer(buffer, "test"), "\n")
		for _, want := range []string{"NaN", "peak exceeds", "DC offset", "clipping"} {
			if !strings.Contains(issues, want) {
				t.Errorf("Missing %q in issues:\n%s", want, issues)
			}
		}
	})
}

func BenchmarkAnalyzer(b *testing.B) {
	analyzer := NewAudioAnalyzer()
	buffer := make([]float32, 512)
	for i := range buffer {
		buffer[i] = float32(math.Sin(2 * math.Pi * float64(i) / 100))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		analyzer.Write(buffer)
	}
}

package audio

import (
	"fmt"
	"io"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// WAVFormat is 16 bit stereo at sampleRate
func WAVFormat(sampleRate int) beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 2,
		Precision:   2,
	}
}

// WriteWAV renders samples samples of src into w
func WriteWAV(w io.WriteSeeker, src Source, sampleRate int, samples int64, opts ...StreamOption) error {
	if src == nil {
		return ErrNoSource
	}
	if sampleRate <= 0 {
		return fmt.Errorf("write wav: invalid sample rate %d", sampleRate)
	}
	if samples < 0 {
		samples = 0
	}

	opts = append(opts, WithLength(samples))
	return EncodeWAV(w, NewStreamer(src, sampleRate, opts...), sampleRate)
}

// EncodeWAV writes s until it ends
func EncodeWAV(w io.WriteSeeker, s beep.Streamer, sampleRate int) error {
	if err := wav.Encode(w, s, WAVFormat(sampleRate)); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return nil
}

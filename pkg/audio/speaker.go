package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// PlaySpeaker plays s on the default device through beep's speaker and
// blocks until s ends or ctx is done
func PlaySpeaker(ctx context.Context, s beep.Streamer, sampleRate int, bufferSize time.Duration) error {
	if s == nil {
		return ErrNoSource
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(bufferSize)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	defer speaker.Close()

	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		// let the last buffer reach the device
		time.Sleep(bufferSize)
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

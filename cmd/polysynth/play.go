package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/justyntemme/polysynth/pkg/audio"
)

func cmdPlay(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var scorePath string

	cfg, err := parseFlags("play", args, stderr, func(fs *flag.FlagSet, cfg *Config) {
		fs.StringVar(&scorePath, "score", "", "Lua score to play (required)")
		cfg.RegisterDeviceFlags(fs)
	})
	if err != nil {
		return err
	}
	if scorePath == "" {
		return errors.New("-score is required")
	}

	log, err := cfg.Logger("play")
	if err != nil {
		return err
	}
	defer log.Close()

	e, err := newEngine(cfg, log, scorePath)
	if err != nil {
		return err
	}
	defer e.close()

	log.Info("playing %s (%.1f s) with %s", scorePath, e.score.Duration(), cfg.Backend)

	switch cfg.Backend {
	case "beep":
		err = playSpeaker(ctx, e)
	default:
		err = playDevice(ctx, e)
	}
	if errors.Is(err, context.Canceled) {
		log.Info("stopped")
		err = nil
	}
	if err != nil {
		return err
	}

	e.report(stdout)
	return nil
}

func playSpeaker(ctx context.Context, e *engine) error {
	opts := append(e.streamOptions(), audio.WithLength(e.score.Length))
	stream := audio.NewStreamer(e.renderer, e.cfg.SampleRate, opts...)
	return audio.PlaySpeaker(ctx, stream, e.cfg.SampleRate, e.cfg.Latency)
}

// playDevice renders ahead of the oto device on its own goroutine
func playDevice(ctx context.Context, e *engine) error {
	sr := e.cfg.SampleRate

	player, err := audio.NewPlayer(sr, e.cfg.Latency)
	if err != nil {
		return err
	}
	defer player.Close()
	player.SetProfiler(e.profiler)

	ahead := audio.NewAheadBuffer(sr, 4*e.cfg.Latency)
	stage := audio.NewStage(e.renderer, sr, e.streamOptions()...)

	fillCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	fillDone := make(chan struct{})
	go func() {
		defer close(fillDone)
		ahead.Fill(fillCtx, stage, e.cfg.BlockSize)
	}()

	// prime the buffer before the device starts pulling
	for ahead.Buffered() < ahead.Capacity()/2 && ctx.Err() == nil {
		time.Sleep(time.Millisecond)
	}

	player.SetSource(ahead)
	player.Start()

	length := time.Duration(float64(e.score.Length) / float64(sr) * float64(time.Second))
	timer := time.NewTimer(length + e.cfg.Latency)
	defer timer.Stop()

	select {
	case <-timer.C:
		err = nil
	case <-ctx.Done():
		err = ctx.Err()
	}

	player.Stop()
	cancel()
	<-fillDone

	st := ahead.Stats(sr)
	if st.Underruns > 0 {
		e.log.Warn("%d buffer underruns", st.Underruns)
	}
	e.log.Debug("buffer stats: %s", formatStats(st))
	return err
}

func formatStats(st audio.BufferStats) string {
	return fmt.Sprintf("underruns %d, overruns %d, buffered %d (%v)", st.Underruns, st.Overruns, st.Buffered, st.Latency)
}

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/justyntemme/polysynth/pkg/framework/debug"
	"github.com/justyntemme/polysynth/pkg/framework/process"
)

// Config holds the settings shared by every subcommand
type Config struct {
	SampleRate int
	BlockSize  int
	Volume     float64 // linear output gain
	Backend    string  // oto or beep
	Latency    time.Duration
	PatchFile  string
	LogLevel   string
	LogFile    string
	Profile    bool
	SoftClip   bool
	DCBlock    bool
	Limit      bool
}

func DefaultConfig() *Config {
	return &Config{
		SampleRate: 44100,
		BlockSize:  process.DefaultBlockSize,
		Volume:     1.0,
		Backend:    "oto",
		Latency:    50 * time.Millisecond,
		LogLevel:   "info",
		SoftClip:   true,
	}
}

// LoadConfig reads POLYSYNTH_* variables on top of the defaults
func LoadConfig() *Config {
	return loadConfig(os.Getenv)
}

func loadConfig(getenv func(string) string) *Config {
	cfg := DefaultConfig()

	if v := getenv("POLYSYNTH_SAMPLE_RATE"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.SampleRate = val
		}
	}

	if v := getenv("POLYSYNTH_BLOCK_SIZE"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.BlockSize = val
		}
	}

	// 0-100 converted to 0.0-1.0
	if v := getenv("POLYSYNTH_VOLUME"); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			cfg.Volume = min(max(float64(val)/100.0, 0), 1)
		}
	}

	if v := getenv("POLYSYNTH_BACKEND"); v != "" {
		cfg.Backend = v
	}

	if v := getenv("POLYSYNTH_LATENCY_MS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.Latency = time.Duration(val) * time.Millisecond
		}
	}

	if v := getenv("POLYSYNTH_PATCH"); v != "" {
		cfg.PatchFile = v
	}

	if v := getenv("POLYSYNTH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := getenv("POLYSYNTH_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	if v := getenv("POLYSYNTH_PROFILE"); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			cfg.Profile = val
		}
	}

	if v := getenv("POLYSYNTH_LIMIT"); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			cfg.Limit = val
		}
	}

	return cfg
}

// RegisterFlags binds the flags of every subcommand, defaulting to the
// current values
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.SampleRate, "rate", c.SampleRate, "sample rate in Hz")
	fs.IntVar(&c.BlockSize, "block", c.BlockSize, "samples per synth call")
	fs.Float64Var(&c.Volume, "volume", c.Volume, "output gain, 1 is unity")
	fs.StringVar(&c.PatchFile, "patch", c.PatchFile, "patch JSON file")
	fs.StringVar(&c.LogLevel, "log", c.LogLevel, "log level: debug, info, warn, error, off")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "append log lines to this file instead of stderr")
	fs.BoolVar(&c.Profile, "profile", c.Profile, "print render timings")
	fs.BoolVar(&c.SoftClip, "clip", c.SoftClip, "soft clip the output")
	fs.BoolVar(&c.DCBlock, "dc", c.DCBlock, "remove DC from the output")
	fs.BoolVar(&c.Limit, "limit", c.Limit, "brick-wall limit the output")
}

// RegisterDeviceFlags binds the flags of commands that open a device
func (c *Config) RegisterDeviceFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Backend, "backend", c.Backend, "audio backend: oto or beep")
	fs.DurationVar(&c.Latency, "latency", c.Latency, "device buffer length")
}

func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.SampleRate)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("invalid block size %d", c.BlockSize)
	}
	if c.Volume < 0 {
		return fmt.Errorf("invalid volume %g", c.Volume)
	}
	if c.Backend != "oto" && c.Backend != "beep" {
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, err := debug.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Logger builds the logger described by the config
func (c *Config) Logger(prefix string) (*debug.Logger, error) {
	level, err := debug.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	var l *debug.Logger
	if c.LogFile != "" {
		l, err = debug.NewFileLogger(c.LogFile, prefix, debug.DefaultFlags)
		if err != nil {
			return nil, err
		}
	} else {
		l = debug.New(os.Stderr, prefix, debug.FlagLevel|debug.FlagPrefix)
	}
	l.SetLevel(level)
	return l, nil
}

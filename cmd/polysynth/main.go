// Command polysynth renders and plays the polyphonic synth.
//
//	polysynth render -score song.lua -patch pad.json -o song.wav
//	polysynth play -score song.lua -backend beep
//	polysynth keys -patch pad.json
//	polysynth params -patch pad.json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
)

const usage = `usage: polysynth <command> [flags]

commands:
  render   render a score to a WAV file
  play     play a score on the sound device
  keys     play the synth from the computer keyboard
  params   list patch parameters

Run 'polysynth <command> -h' for the flags of a command.
`

type command func(ctx context.Context, args []string, stdout, stderr io.Writer) error

var commands = map[string]command{
	"render": cmdRender,
	"play":   cmdPlay,
	"keys":   cmdKeys,
	"params": cmdParams,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		fmt.Fprint(stdout, usage)
		return 0
	}

	cmd, ok := commands[name]
	if !ok {
		names := make([]string, 0, len(commands))
		for n := range commands {
			names = append(names, n)
		}
		sort.Strings(names)
		fmt.Fprintf(stderr, "polysynth: unknown command %q (want one of %v)\n", name, names)
		return 2
	}

	if err := cmd(ctx, args[1:], stdout, stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "polysynth %s: %v\n", name, err)
		return 1
	}
	return 0
}

// parseFlags loads the config and parses args over it. extra binds the
// flags of a single command.
func parseFlags(name string, args []string, stderr io.Writer, extra func(fs *flag.FlagSet, cfg *Config)) (*Config, error) {
	cfg := LoadConfig()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg.RegisterFlags(fs)
	if extra != nil {
		extra(fs, cfg)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments %v", fs.Args())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

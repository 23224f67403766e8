package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gopxl/beep/wav"

	"github.com/justyntemme/polysynth/pkg/framework/process"
	"github.com/justyntemme/polysynth/pkg/patch"
	"github.com/justyntemme/polysynth/pkg/synth"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no command", nil, 2},
		{"unknown command", []string{"dance"}, 2},
		{"help", []string{"help"}, 0},
		{"command help", []string{"render", "-h"}, 0},
		{"bad flag", []string{"render", "-nope"}, 1},
		{"missing score", []string{"render", "-log", "off"}, 1},
		{"stray argument", []string{"params", "extra"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCmd(t, tt.args...)
			if code != tt.code {
				t.Errorf("Expected exit code %d, got %d", tt.code, code)
			}
		})
	}
}

func TestRender(t *testing.T) {
	scorePath := writeFile(t, "a4.lua", `
set("waveform", "sin")
set("sustain", 1)
note(0, 69, 127, 0.2)
length(0.25)
`)
	outPath := filepath.Join(t.TempDir(), "a4.wav")

	code, stdout, stderr := runCmd(t, "render",
		"-score", scorePath, "-o", outPath,
		"-rate", "8000", "-log", "off", "-analyze")
	if code != 0 {
		t.Fatalf("Expected success, got %d: %s", code, stderr)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	s, format, err := wav.Decode(f)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	defer s.Close()

	if int(format.SampleRate) != 8000 {
		t.Errorf("Expected 8000 Hz, got %d", format.SampleRate)
	}
	if s.Len() != 2000 {
		t.Errorf("Expected 2000 samples, got %d", s.Len())
	}

	if !strings.Contains(stdout, "(A4)") {
		t.Errorf("Expected A4 in analysis, got:\n%s", stdout)
	}
}

func TestRenderScriptError(t *testing.T) {
	scorePath := writeFile(t, "bad.lua", `note(0, 200)`)

	code, _, stderr := runCmd(t, "render", "-score", scorePath,
		"-o", filepath.Join(t.TempDir(), "x.wav"), "-log", "off")
	if code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr, "polysynth render:") {
		t.Errorf("Expected error message, got %q", stderr)
	}
}

func TestParams(t *testing.T) {
	code, stdout, stderr := runCmd(t, "params", "-log", "off")
	if code != 0 {
		t.Fatalf("Expected success, got %d: %s", code, stderr)
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != len(patch.New().IDs()) {
		t.Errorf("Expected one line per parameter, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], patch.NumVoices) {
		t.Errorf("Expected %s first, got %q", patch.NumVoices, lines[0])
	}
}

func TestParamsSetAndSave(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "saved.json")

	code, stdout, stderr := runCmd(t, "params", "-log", "off", "-json",
		"-set", "waveform=sqr", "-set", "num_voices=4", "-o", outPath)
	if code != 0 {
		t.Fatalf("Expected success, got %d: %s", code, stderr)
	}

	var doc struct {
		Params map[string]json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("Expected JSON, got %v", err)
	}
	if string(doc.Params[patch.Waveform]) != `"sqr"` {
		t.Errorf("Expected sqr, got %s", doc.Params[patch.Waveform])
	}

	// the saved file loads back as a patch
	code, stdout, stderr = runCmd(t, "params", "-log", "off", "-patch", outPath)
	if code != 0 {
		t.Fatalf("Expected success, got %d: %s", code, stderr)
	}
	found := false
	for _, line := range strings.Split(stdout, "\n") {
		if strings.HasPrefix(line, patch.Waveform+" ") {
			found = strings.Contains(line, "Square")
		}
	}
	if !found {
		t.Errorf("Expected saved waveform in listing:\n%s", stdout)
	}

	if code, _, _ := runCmd(t, "params", "-log", "off", "-set", "nope=1"); code != 1 {
		t.Errorf("Expected unknown parameter to fail, got %d", code)
	}
}

func TestKeyNote(t *testing.T) {
	tests := []struct {
		r      rune
		octave int
		note   int
		ok     bool
	}{
		{'a', 4, 60, true},
		{'w', 4, 61, true},
		{'k', 4, 72, true},
		{'A', 4, 60, true},
		{'\'', 4, 77, true},
		{'a', -1, 0, true},
		{'j', 9, 131, false},
		{'q', 4, 0, false},
	}

	for _, tt := range tests {
		note, ok := keyNote(tt.r, tt.octave)
		if ok != tt.ok || (ok && note != tt.note) {
			t.Errorf("keyNote(%q, %d) = %d, %v; expected %d, %v", tt.r, tt.octave, note, ok, tt.note, tt.ok)
		}
	}
}

func TestMeterWidth(t *testing.T) {
	tests := []struct {
		level float64
		want  int
	}{
		{0, 0},
		{0.0001, 0},
		{1, 60},
		{2, 60},
		{math.Sqrt(0.001), 30},
	}

	for _, tt := range tests {
		if got := meterWidth(tt.level, 60); got != tt.want {
			t.Errorf("meterWidth(%f) = %d, expected %d", tt.level, got, tt.want)
		}
	}
}

func TestLiveSynth(t *testing.T) {
	s := synth.New(synth.WithVoices(4), synth.WithSampleRate(1000), synth.WithSeed(1))
	s.SetAttack(0)
	s.SetDecay(0)
	s.SetSustain(1)
	s.SetRelease(0)

	r := process.NewRenderer(s, 32)
	live := newLiveSynth(r, 32, 100*time.Millisecond)

	if !live.Play(60, 127) {
		t.Fatal("Expected note to be queued")
	}

	out := make([]float32, 50)
	live.Render(out)

	notes, levels := live.Voices()
	if notes[0] != 60 {
		t.Errorf("Expected note 60 in slot 0, got %v", notes)
	}
	if levels[0] <= 0 {
		t.Errorf("Expected meter level in slot 0, got %v", levels)
	}
	if notes[1] != -1 {
		t.Errorf("Expected slot 1 free, got %d", notes[1])
	}

	// the gate of 100 samples closes during the next block
	live.Render(out)
	live.Render(out)
	notes, _ = live.Voices()
	if notes[0] != -1 {
		t.Errorf("Expected note released after the gate, got %v", notes)
	}

	if !live.ToggleSustain() {
		t.Error("Expected sustain on")
	}
	live.Play(64, 127)
	live.Render(make([]float32, 200))
	notes, _ = live.Voices()
	if notes[0] != 64 && notes[1] != 64 {
		t.Errorf("Expected sustained note 64, got %v", notes)
	}

	live.Panic()
	live.Render(out)
	notes, _ = live.Voices()
	for i, n := range notes {
		if n != -1 {
			t.Errorf("Expected slot %d free after panic, got %d", i, n)
		}
	}
}

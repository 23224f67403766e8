// Package score builds timed note events from Lua scripts.
//
// A script calls a small set of globals:
//
//	tempo(bpm)                          beats per minute, default 120
//	beat(n)                             seconds of n beats at the current tempo
//	note(time, note [, vel [, dur]])    note on and off, dur defaults to one beat
//	on(time, note [, vel])              note on
//	off(time, note)                     note off
//	cc(time, controller, value)         control change
//	set(id, value)                      patch override
//	length(seconds)                     total render length
//
// Times are in seconds, velocities are MIDI values 1-127.
package score

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	lua "github.com/yuin/gopher-lua"

	"github.com/justyntemme/polysynth/pkg/midi"
)

// ErrScript wraps every error raised while running a script
var ErrScript = errors.New("score script")

// Defaults of a script
const (
	DefaultTempo    = 120.0
	DefaultVelocity = 100
	// added after the last event when the script does not set a length
	DefaultTail = 1.0
)

// Override is a patch setting requested by set()
type Override struct {
	ID    string
	Value string
}

// Score is the result of a script
type Score struct {
	Events     []midi.Event // sorted by absolute sample offset
	Overrides  []Override   // in call order
	Length     int64        // samples
	SampleRate int
}

// Patcher receives overrides. *patch.Patch implements it.
type Patcher interface {
	SetString(id, text string) error
}

// ApplyOverrides sets every override on p in call order
func (s *Score) ApplyOverrides(p Patcher) error {
	for _, o := range s.Overrides {
		if err := p.SetString(o.ID, o.Value); err != nil {
			return fmt.Errorf("set(%q, %q): %w", o.ID, o.Value, err)
		}
	}
	return nil
}

// Duration returns the length in seconds
func (s *Score) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(s.Length) / float64(s.SampleRate)
}

// Load runs src and collects its events
func Load(src string, sampleRate int) (*Score, error) {
	return LoadContext(context.Background(), src, sampleRate)
}

// LoadFile runs the script at path
func LoadFile(path string, sampleRate int) (*Score, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read score: %w", err)
	}
	return Load(string(src), sampleRate)
}

// LoadContext runs src until it finishes or ctx is done
func LoadContext(ctx context.Context, src string, sampleRate int) (*Score, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid sample rate %d", ErrScript, sampleRate)
	}

	b := &builder{
		sampleRate: float64(sampleRate),
		tempo:      DefaultTempo,
		length:     -1,
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	if err := openLibs(L); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScript, err)
	}
	L.SetContext(ctx)
	b.register(L)

	if err := L.DoString(src); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScript, err)
	}

	return b.score(sampleRate), nil
}

// openLibs loads the side effect free standard libraries
func openLibs(L *lua.LState) error {
	for _, pair := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(pair.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(pair.name))
		if err != nil {
			return err
		}
	}
	return nil
}

type builder struct {
	sampleRate float64
	tempo      float64
	length     float64

	events    []midi.Event
	overrides []Override
}

func (b *builder) register(L *lua.LState) {
	for name, fn := range map[string]lua.LGFunction{
		"tempo":  b.luaTempo,
		"beat":   b.luaBeat,
		"note":   b.luaNote,
		"on":     b.luaOn,
		"off":    b.luaOff,
		"cc":     b.luaCC,
		"set":    b.luaSet,
		"length": b.luaLength,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}
}

func (b *builder) offset(seconds float64) int64 {
	return int64(math.Round(seconds * b.sampleRate))
}

func (b *builder) score(sampleRate int) *Score {
	sort.SliceStable(b.events, func(i, j int) bool {
		return b.events[i].SampleOffset() < b.events[j].SampleOffset()
	})

	var length int64
	if b.length >= 0 {
		length = b.offset(b.length)
	} else if n := len(b.events); n > 0 {
		length = b.events[n-1].SampleOffset() + b.offset(DefaultTail)
	}

	return &Score{
		Events:     b.events,
		Overrides:  b.overrides,
		Length:     length,
		SampleRate: sampleRate,
	}
}

func checkTime(L *lua.LState, n int) float64 {
	t := float64(L.CheckNumber(n))
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		L.ArgError(n, "time must be a finite number >= 0")
	}
	return t
}

func checkMIDI(L *lua.LState, n int, lo int, what string) uint8 {
	v := L.CheckInt(n)
	if v < lo || v > 127 {
		L.ArgError(n, fmt.Sprintf("%s must be in %d..127", what, lo))
	}
	return uint8(v)
}

func (b *builder) luaTempo(L *lua.LState) int {
	bpm := float64(L.CheckNumber(1))
	if bpm <= 0 {
		L.ArgError(1, "tempo must be > 0")
	}
	b.tempo = bpm
	return 0
}

func (b *builder) luaBeat(L *lua.LState) int {
	n := float64(L.CheckNumber(1))
	L.Push(lua.LNumber(n * 60 / b.tempo))
	return 1
}

func (b *builder) noteOn(at float64, note, velocity uint8) {
	b.events = append(b.events, midi.NoteOnEvent{
		BaseEvent:  midi.BaseEvent{Offset: b.offset(at)},
		NoteNumber: note,
		Velocity:   velocity,
	})
}

func (b *builder) noteOff(at float64, note uint8) {
	b.events = append(b.events, midi.NoteOffEvent{
		BaseEvent:  midi.BaseEvent{Offset: b.offset(at)},
		NoteNumber: note,
	})
}

func (b *builder) luaNote(L *lua.LState) int {
	at := checkTime(L, 1)
	note := checkMIDI(L, 2, 0, "note")
	velocity := uint8(DefaultVelocity)
	if L.GetTop() >= 3 {
		velocity = checkMIDI(L, 3, 1, "velocity")
	}
	dur := float64(L.OptNumber(4, lua.LNumber(60/b.tempo)))
	if !(dur > 0) || math.IsInf(dur, 0) {
		L.ArgError(4, "duration must be a finite number > 0")
	}

	b.noteOn(at, note, velocity)
	b.noteOff(at+dur, note)
	return 0
}

func (b *builder) luaOn(L *lua.LState) int {
	at := checkTime(L, 1)
	note := checkMIDI(L, 2, 0, "note")
	velocity := uint8(DefaultVelocity)
	if L.GetTop() >= 3 {
		velocity = checkMIDI(L, 3, 1, "velocity")
	}
	b.noteOn(at, note, velocity)
	return 0
}

func (b *builder) luaOff(L *lua.LState) int {
	at := checkTime(L, 1)
	note := checkMIDI(L, 2, 0, "note")
	b.noteOff(at, note)
	return 0
}

func (b *builder) luaCC(L *lua.LState) int {
	at := checkTime(L, 1)
	controller := checkMIDI(L, 2, 0, "controller")
	value := checkMIDI(L, 3, 0, "value")
	b.events = append(b.events, midi.ControlChangeEvent{
		BaseEvent:  midi.BaseEvent{Offset: b.offset(at)},
		Controller: controller,
		Value:      value,
	})
	return 0
}

func (b *builder) luaSet(L *lua.LState) int {
	id := L.CheckString(1)
	var value string
	switch v := L.Get(2).(type) {
	case lua.LNumber:
		value = strconv.FormatFloat(float64(v), 'g', -1, 64)
	case lua.LString:
		value = string(v)
	case lua.LBool:
		value = strconv.FormatBool(bool(v))
	default:
		L.ArgError(2, "value must be a number, string or boolean")
	}
	b.overrides = append(b.overrides, Override{ID: id, Value: value})
	return 0
}

func (b *builder) luaLength(L *lua.LState) int {
	b.length = checkTime(L, 1)
	return 0
}

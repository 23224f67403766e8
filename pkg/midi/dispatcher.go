package midi

import (
	"github.com/justyntemme/polysynth/pkg/framework/debug"
	"github.com/justyntemme/polysynth/pkg/synth"
)

// OmniChannel makes a Dispatcher accept events on every channel
const OmniChannel = -1

// Target receives the notes of a Dispatcher. *synth.Synth implements it.
type Target interface {
	NoteOn(note int, velocity float64, startSample int, userData any) *synth.Voice
	NoteOff(note int)
	AllNotesOff()
	Reset()
}

// Dispatcher turns MIDI events into synth calls. Note on with velocity 0
// is a note off, the sustain pedal holds note offs until it is released,
// all-notes-off releases every voice and all-sound-off silences them.
type Dispatcher struct {
	target  Target
	channel int
	sustain bool
	held    [256]bool
	logger  *debug.Logger
}

func NewDispatcher(target Target) *Dispatcher {
	return &Dispatcher{
		target:  target,
		channel: OmniChannel,
		logger:  debug.Default(),
	}
}

// SetChannel restricts the dispatcher to one channel, or OmniChannel
func (d *Dispatcher) SetChannel(ch int) {
	d.channel = ch
}

func (d *Dispatcher) Channel() int {
	return d.channel
}

func (d *Dispatcher) SetLogger(l *debug.Logger) {
	if l != nil {
		d.logger = l
	}
}

// Sustain reports whether the sustain pedal is down
func (d *Dispatcher) Sustain() bool {
	return d.sustain
}

// ProcessEvent dispatches e using its offset as the start sample
func (d *Dispatcher) ProcessEvent(e Event) {
	d.Dispatch(e, int(e.SampleOffset()))
}

// Dispatch applies e to the target. Note ons start at startSample of the
// target's next block; the started voice is returned.
func (d *Dispatcher) Dispatch(e Event, startSample int) *synth.Voice {
	if d.channel != OmniChannel && int(e.Channel()) != d.channel {
		return nil
	}

	switch ev := e.(type) {
	case NoteOnEvent:
		if ev.Velocity == 0 {
			d.noteOff(ev.NoteNumber)
			return nil
		}
		d.held[ev.NoteNumber] = false
		v := d.target.NoteOn(int(ev.NoteNumber), float64(ev.Velocity)/127.0, startSample, nil)
		if v == nil {
			d.logger.Debug("no voice for %s", ev)
		}
		return v

	case NoteOffEvent:
		d.noteOff(ev.NoteNumber)

	case ControlChangeEvent:
		d.controlChange(ev)

	default:
		d.logger.Debug("ignoring %s", e)
	}
	return nil
}

func (d *Dispatcher) noteOff(note uint8) {
	if d.sustain {
		d.held[note] = true
		return
	}
	d.target.NoteOff(int(note))
}

func (d *Dispatcher) controlChange(ev ControlChangeEvent) {
	switch ev.Controller {
	case CCSustain:
		d.setSustain(ev.Value >= 64)

	case CCResetAll:
		d.setSustain(false)

	case CCAllNotesOff:
		d.clearHeld()
		d.target.AllNotesOff()

	case CCAllSoundOff:
		d.clearHeld()
		d.target.Reset()

	default:
		d.logger.Debug("ignoring %s", ev)
	}
}

func (d *Dispatcher) setSustain(on bool) {
	if d.sustain == on {
		return
	}
	d.sustain = on
	if on {
		return
	}
	for note, held := range d.held {
		if held {
			d.held[note] = false
			d.target.NoteOff(note)
		}
	}
}

func (d *Dispatcher) clearHeld() {
	clear(d.held[:])
}

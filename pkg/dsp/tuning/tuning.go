// Package tuning maps note numbers to frequencies
package tuning

import "math"

// Defaults of a NoteFreq
const (
	// DefaultBaseFrequency is the frequency of note 0 (C0)
	DefaultBaseFrequency = 16.3516
	// DefaultNotesPerOctave is equal temperament with 12 steps
	DefaultNotesPerOctave = 12.0

	tableSize = 256
)

// NoteFreq converts note numbers to frequencies in an equal tempered scale
// of NotesPerOctave steps starting at BaseFrequency.
type NoteFreq struct {
	base           float64
	notesPerOctave float64
	table          [tableSize]float64
}

// New creates a NoteFreq with the given base frequency and octave division
func New(baseFrequency, notesPerOctave float64) *NoteFreq {
	n := &NoteFreq{}
	n.Set(baseFrequency, notesPerOctave)
	return n
}

// NewDefault creates a 12 note scale starting at C0
func NewDefault() *NoteFreq {
	return New(DefaultBaseFrequency, DefaultNotesPerOctave)
}

// BaseFrequency returns the frequency of note 0
func (n *NoteFreq) BaseFrequency() float64 { return n.base }

// NotesPerOctave returns the number of notes per frequency doubling
func (n *NoteFreq) NotesPerOctave() float64 { return n.notesPerOctave }

// SetBaseFrequency sets the frequency of note 0
func (n *NoteFreq) SetBaseFrequency(f float64) {
	n.Set(f, n.notesPerOctave)
}

// SetNotesPerOctave sets the number of notes per frequency doubling
func (n *NoteFreq) SetNotesPerOctave(notes float64) {
	n.Set(n.base, notes)
}

// Set changes both settings and recomputes the note table
func (n *NoteFreq) Set(baseFrequency, notesPerOctave float64) {
	n.base = baseFrequency
	n.notesPerOctave = notesPerOctave
	for i := range n.table {
		n.table[i] = n.compute(float64(i))
	}
}

func (n *NoteFreq) compute(note float64) float64 {
	if n.notesPerOctave == 0 {
		return n.base
	}
	return n.base * math.Pow(2, note/n.notesPerOctave)
}

// Frequency returns the frequency of note in Hz
func (n *NoteFreq) Frequency(note int) float64 {
	if note >= 0 && note < tableSize {
		return n.table[note]
	}
	return n.compute(float64(note))
}

// FrequencyFloat returns the frequency of a fractional note in Hz
func (n *NoteFreq) FrequencyFloat(note float64) float64 {
	return n.compute(note)
}

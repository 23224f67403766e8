// Package param describes named, ranged values that can be set from text,
// scripts or stored patches.
package param

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
)

// Parameter represents a ranged setting identified by a stable string id
type Parameter struct {
	ID           string
	Name         string
	Unit         string
	Min          float64
	Max          float64
	DefaultValue float64 // plain
	StepCount    int32
	Flags        uint32

	// Options holds the ids of a list parameter, indexed by plain value
	Options []string

	// Atomic value for lock-free access from the audio thread
	value atomic.Uint64

	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// Flags for parameters
const (
	IsReadOnly uint32 = 1 << 1
	IsList     uint32 = 1 << 3
	IsHidden   uint32 = 1 << 4
)

// IsList reports whether the parameter selects one of Options
func (p *Parameter) IsList() bool {
	return p.Flags&IsList != 0
}

// GetValue returns the current normalized value (0-1)
func (p *Parameter) GetValue() float64 {
	return p.Normalize(p.GetPlainValue())
}

// SetValue sets the normalized value (0-1)
func (p *Parameter) SetValue(normalized float64) {
	p.SetPlainValue(p.Denormalize(normalized))
}

// GetPlainValue returns the value in the parameter's own range
func (p *Parameter) GetPlainValue() float64 {
	return math.Float64frombits(p.value.Load())
}

// SetPlainValue stores plain clamped to the range, rounded to a step for
// discrete parameters
func (p *Parameter) SetPlainValue(plain float64) {
	if math.IsNaN(plain) {
		return
	}
	if p.Max > p.Min {
		plain = math.Max(p.Min, math.Min(p.Max, plain))
	}
	if p.StepCount > 0 {
		plain = math.Round(plain)
	}
	p.value.Store(math.Float64bits(plain))
}

// Reset restores the default value
func (p *Parameter) Reset() {
	p.SetPlainValue(p.DefaultValue)
}

// SetFormatter sets custom value formatting
func (p *Parameter) SetFormatter(format func(float64) string, parse func(string) (float64, error)) {
	p.formatFunc = format
	p.parseFunc = parse
}

// Format returns the current value as text
func (p *Parameter) Format() string {
	return p.FormatPlain(p.GetPlainValue())
}

// FormatPlain formats a plain value
func (p *Parameter) FormatPlain(plain float64) string {
	if p.formatFunc != nil {
		return p.formatFunc(plain)
	}

	if p.StepCount > 0 {
		// For discrete parameters, show integer
		return fmt.Sprintf("%.0f", plain)
	}
	return strconv.FormatFloat(plain, 'g', 6, 64)
}

// ParsePlain parses text into a plain value
func (p *Parameter) ParsePlain(str string) (float64, error) {
	if p.parseFunc != nil {
		return p.parseFunc(str)
	}
	return strconv.ParseFloat(str, 64)
}

// SetString parses str and stores the result
func (p *Parameter) SetString(str string) error {
	plain, err := p.ParsePlain(str)
	if err != nil {
		return fmt.Errorf("%s: %w", p.ID, err)
	}
	p.SetPlainValue(plain)
	return nil
}

// Option returns the selected option id of a list parameter
func (p *Parameter) Option() string {
	i := int(p.GetPlainValue())
	if i < 0 || i >= len(p.Options) {
		return ""
	}
	return p.Options[i]
}

// Normalize converts plain value to normalized (0-1)
func (p *Parameter) Normalize(plain float64) float64 {
	if p.Max <= p.Min {
		return 0
	}
	normalized := (plain - p.Min) / (p.Max - p.Min)
	return math.Max(0, math.Min(1, normalized))
}

// Denormalize converts normalized (0-1) to plain value
func (p *Parameter) Denormalize(normalized float64) float64 {
	return p.Min + normalized*(p.Max-p.Min)
}

package filter

import (
	"fmt"
	"math"
)

// Type selects the response of a Multi filter
type Type int

const (
	// Bypass passes the input unchanged
	Bypass Type = iota
	// FirstOrderLow is a 6dB/oct one-pole low-pass
	FirstOrderLow
	// FirstOrderHigh is a 6dB/oct one-pole high-pass
	FirstOrderHigh
	// FirstOrderBand is a one-pole low-pass of a one-pole high-pass
	FirstOrderBand
	// NthOrderLow cascades Order one-pole low-pass stages
	NthOrderLow
	// NthOrderHigh cascades Order one-pole high-pass stages
	NthOrderHigh
	// NthOrderBand cascades Order one-pole band-pass stages
	NthOrderBand
	// StateVariableLow is the low-pass output of a state variable filter
	StateVariableLow
	// StateVariableHigh is the high-pass output of a state variable filter
	StateVariableHigh
	// StateVariableBand is the band-pass output of a state variable filter
	StateVariableBand
	// BiquadLow is an RBJ low-pass biquad
	BiquadLow
	// BiquadHigh is an RBJ high-pass biquad
	BiquadHigh
	// BiquadBand is an RBJ band-pass biquad
	BiquadBand

	numTypes
)

// Limits of the Multi filter settings
const (
	MinOrder = 1
	MaxOrder = 10

	// maximum cutoff as a fraction of the sample rate
	maxCutoffRatio = 0.49
	// lowest cutoff of the two-pole designs
	minTwoPoleCutoff = 10.0
	// upper bound of the one-pole feedback amount
	maxFeedback = 0.99999

	minQ = 0.7071
	maxQ = 20.0
)

var typeIDs = [numTypes]string{
	"bypass", "low", "high", "band",
	"nlow", "nhigh", "nband",
	"svflow", "svfhigh", "svfband",
	"bqlow", "bqhigh", "bqband",
}

var typeNames = [numTypes]string{
	"off",
	"1st order low-pass", "1st order high-pass", "1st order band-pass",
	"nth order low-pass", "nth order high-pass", "nth order band-pass",
	"state variable low-pass", "state variable high-pass", "state variable band-pass",
	"biquad low-pass", "biquad high-pass", "biquad band-pass",
}

// Types returns all filter types in catalogue order
func Types() []Type {
	types := make([]Type, numTypes)
	for i := range types {
		types[i] = Type(i)
	}
	return types
}

// String returns the short id of the filter type
func (t Type) String() string {
	if t < 0 || t >= numTypes {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeIDs[t]
}

// Name returns the human readable name
func (t Type) Name() string {
	if t < 0 || t >= numTypes {
		return "unknown"
	}
	return typeNames[t]
}

// ParseType looks up a filter type by its short id
func ParseType(id string) (Type, error) {
	for i, s := range typeIDs {
		if s == id {
			return Type(i), nil
		}
	}
	return Bypass, fmt.Errorf("unknown filter type %q", id)
}

// SupportsOrder reports whether the order setting changes the filter
func SupportsOrder(t Type) bool {
	return t == NthOrderLow || t == NthOrderHigh || t == NthOrderBand
}

// SupportsResonance reports whether the resonance setting changes the filter
func SupportsResonance(t Type) bool {
	return t != Bypass && t >= 0 && t < numTypes
}

// Multi is a single channel filter that can switch between all filter types.
// Settings take effect on the next call to UpdateCoefficients.
type Multi struct {
	typ        Type
	sampleRate float64
	frequency  float64
	resonance  float64
	order      int

	// one-pole coefficients and output compensation
	q1, q2, amp float32

	// one-pole state
	s1, s2, p0, p1 float32

	// cascade state, one entry per stage
	so1, so2, po0, po1 []float32

	svf    SVF
	biquad Biquad
}

// NewMulti creates a first order low-pass at 1000 Hz
func NewMulti(sampleRate float64) *Multi {
	m := &Multi{
		typ:        FirstOrderLow,
		sampleRate: sampleRate,
		frequency:  1000,
		order:      1,
	}
	m.UpdateCoefficients()
	return m
}

// Type returns the filter type
func (m *Multi) Type() Type { return m.typ }

// Order returns the number of cascaded stages of the nth order types
func (m *Multi) Order() int { return m.order }

// SampleRate returns the sample rate in Hz
func (m *Multi) SampleRate() float64 { return m.sampleRate }

// Frequency returns the cutoff frequency in Hz
func (m *Multi) Frequency() float64 { return m.frequency }

// Resonance returns the resonance [0,1]
func (m *Multi) Resonance() float64 { return m.resonance }

// SetType sets the filter type
func (m *Multi) SetType(t Type) { m.typ = t }

// SetOrder sets the number of stages, clamped to [MinOrder, MaxOrder]
func (m *Multi) SetOrder(order int) {
	m.order = max(MinOrder, min(MaxOrder, order))
}

// SetSampleRate sets the sample rate in Hz
func (m *Multi) SetSampleRate(sampleRate float64) { m.sampleRate = sampleRate }

// SetFrequency sets the cutoff frequency in Hz
func (m *Multi) SetFrequency(frequency float64) { m.frequency = frequency }

// SetResonance sets the resonance [0,1]
func (m *Multi) SetResonance(resonance float64) { m.resonance = resonance }

// Reset clears the filter state
func (m *Multi) Reset() {
	m.s1, m.s2, m.p0, m.p1 = 0, 0, 0, 0
	clear(m.so1)
	clear(m.so2)
	clear(m.po0)
	clear(m.po1)
	m.svf.Reset()
	m.biquad.Reset()
}

// UpdateCoefficients recalculates the coefficients from the current settings
func (m *Multi) UpdateCoefficients() {
	sr := m.sampleRate
	if sr <= 0 {
		sr = 1
	}
	order := max(MinOrder, m.order)
	reso := math.Max(0, math.Min(1, m.resonance))

	switch m.typ {
	case NthOrderLow, NthOrderHigh, NthOrderBand:
		m.so1 = resizeStages(m.so1, order)
		m.so2 = resizeStages(m.so2, order)
		m.po0 = resizeStages(m.po0, order)
		m.po1 = resizeStages(m.po1, order)
		fallthrough

	case FirstOrderLow, FirstOrderHigh, FirstOrderBand:
		freq := math.Max(0, math.Min(sr*maxCutoffRatio, m.frequency))
		m.q1 = float32(1.0 - math.Exp(-2.0*math.Pi*freq/sr))
		m.q2 = float32(math.Min(maxFeedback, reso))

	case StateVariableLow, StateVariableHigh, StateVariableBand:
		m.svf.SetFrequencyAndQ(sr, m.twoPoleCutoff(sr), resonanceToQ(reso))

	case BiquadLow:
		m.biquad.SetLowpass(sr, m.twoPoleCutoff(sr), resonanceToQ(reso))
	case BiquadHigh:
		m.biquad.SetHighpass(sr, m.twoPoleCutoff(sr), resonanceToQ(reso))
	case BiquadBand:
		m.biquad.SetBandpass(sr, m.twoPoleCutoff(sr), resonanceToQ(reso))
	}

	m.amp = m.compensation()
}

func (m *Multi) twoPoleCutoff(sr float64) float64 {
	hi := sr * maxCutoffRatio
	return math.Max(math.Min(minTwoPoleCutoff, hi), math.Min(hi, m.frequency))
}

// resonanceToQ maps resonance [0,1] onto a Q from Butterworth to a sharp peak
func resonanceToQ(reso float64) float64 {
	return minQ + reso*(maxQ-minQ)
}

// compensation returns the output gain that keeps the resonant one-pole
// types at roughly unity level
func (m *Multi) compensation() float32 {
	q1 := float64(m.q1)
	q2 := float64(m.q2)

	switch m.typ {
	case FirstOrderBand, NthOrderBand:
		amp := 1.0 + q2*(1.0/5.0-1.0)
		amp += smoothstep(0.94, 1.0, q2) * (1.0/70.0 - amp)
		return float32(amp)

	case FirstOrderLow, NthOrderLow:
		fac := math.Sqrt(smoothstep(0, 0.4, q1)*0.2 + 0.8*q2)
		amp := 1.0 + fac*(1.0/8.0-1.0)
		amp += smoothstep(0.94, 1.0, q2) * (1.0/250.0 - amp)
		return float32(amp)
	}
	return 1
}

func resizeStages(s []float32, n int) []float32 {
	if len(s) == n {
		return s
	}
	if cap(s) >= n {
		s = s[:n]
	} else {
		s = make([]float32, n)
	}
	clear(s)
	return s
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := math.Max(0, math.Min(1, (x-edge0)/(edge1-edge0)))
	return t * t * (3.0 - 2.0*t)
}

// Process filters in into out, which may be the same slice - no allocations
func (m *Multi) Process(in, out []float32) {
	n := min(len(in), len(out))
	for i := 0; i < n; i++ {
		out[i] = m.ProcessSample(in[i])
	}
}

// ProcessSample filters a single sample
func (m *Multi) ProcessSample(in float32) float32 {
	switch m.typ {
	case FirstOrderLow:
		if m.q2 == 0 {
			m.s1 += m.q1 * (in - m.s1)
			return m.s1
		}
		m.p0 = m.p1
		m.p1 = m.s1
		m.s1 += m.q1*(in-m.s1) + m.q2*(m.s1-m.p0)
		return m.s1 * m.amp

	case FirstOrderHigh:
		if m.q2 == 0 {
			m.s1 += m.q1 * (in - m.s1)
			return in - m.s1
		}
		m.p0 = m.p1
		m.p1 = m.s1
		m.s1 += m.q1*(in-m.s1) + m.q2*(m.s1-m.p0)
		return (in - m.s1) * m.amp

	case FirstOrderBand:
		m.s1 += m.q1 * (in - m.s1)
		if m.q2 == 0 {
			m.s2 += m.q1 * ((in - m.s1) - m.s2)
			return m.s2
		}
		m.p0 = m.p1
		m.p1 = m.s2
		m.s2 += m.q1*((in-m.s1)-m.s2) + m.q2*(m.s2-m.p0)
		return m.s2 * m.amp

	case NthOrderLow:
		return m.nthLow(in)
	case NthOrderHigh:
		return m.nthHigh(in)
	case NthOrderBand:
		return m.nthBand(in)

	case StateVariableLow:
		return m.svf.ProcessSample(in).Lowpass
	case StateVariableHigh:
		return m.svf.ProcessSample(in).Highpass
	case StateVariableBand:
		return m.svf.ProcessSample(in).Bandpass

	case BiquadLow, BiquadHigh, BiquadBand:
		return m.biquad.ProcessSample(in)
	}

	return in
}

func (m *Multi) nthLow(in float32) float32 {
	so1, po0, po1 := m.so1, m.po0, m.po1
	if len(so1) == 0 {
		return in
	}
	if m.q2 == 0 {
		so1[0] += m.q1 * (in - so1[0])
		for j := 1; j < len(so1); j++ {
			so1[j] += m.q1 * (so1[j-1] - so1[j])
		}
		return so1[len(so1)-1]
	}

	po0[0] = po1[0]
	po1[0] = so1[0]
	so1[0] += m.q1*(in-so1[0]) + m.q2*(so1[0]-po0[0])
	for j := 1; j < len(so1); j++ {
		po0[j] = po1[j]
		po1[j] = so1[j]
		so1[j] += (m.q1*(so1[j-1]-so1[j]) + m.q2*(so1[j]-po0[j])) * m.amp
	}
	return so1[len(so1)-1] * m.amp
}

func (m *Multi) nthHigh(in float32) float32 {
	so1, po0, po1 := m.so1, m.po0, m.po1
	if len(so1) == 0 {
		return in
	}
	if m.q2 == 0 {
		so1[0] += m.q1 * (in - so1[0])
		tmp := in - so1[0]
		for j := 1; j < len(so1); j++ {
			so1[j] += m.q1 * (tmp - so1[j])
			tmp -= so1[j]
		}
		return tmp
	}

	po0[0] = po1[0]
	po1[0] = so1[0]
	so1[0] += m.q1*(in-so1[0]) + m.q2*(so1[0]-po0[0])
	tmp := in - so1[0]
	for j := 1; j < len(so1); j++ {
		po0[j] = po1[j]
		po1[j] = so1[j]
		so1[j] += m.q1*(tmp-so1[j]) + m.q2*(so1[j]-po0[j])
		tmp = (tmp - so1[j]) * m.amp
	}
	return tmp * m.amp
}

func (m *Multi) nthBand(in float32) float32 {
	so1, so2, po0, po1 := m.so1, m.so2, m.po0, m.po1
	if len(so1) == 0 {
		return in
	}
	so1[0] += m.q1 * (in - so1[0])
	if m.q2 == 0 {
		so2[0] += m.q1 * ((in - so1[0]) - so2[0])
		for j := 1; j < len(so1); j++ {
			so1[j] += m.q1 * (so2[j-1] - so1[j])
			so2[j] += m.q1 * ((so2[j-1] - so1[j]) - so2[j])
		}
		return so2[len(so2)-1]
	}

	po0[0] = po1[0]
	po1[0] = so2[0]
	so2[0] += m.q1*((in-so1[0])-so2[0]) + m.q2*(so2[0]-po0[0])
	for j := 1; j < len(so1); j++ {
		so1[j] += m.q1 * (so2[j-1] - so1[j])
		po0[j] = po1[j]
		po1[j] = so2[j]
		so2[j] += (m.q1*((so2[j-1]-so1[j])-so2[j]) + m.q2*(so2[j]-po0[j])) * m.amp
	}
	return so2[len(so2)-1] * m.amp
}

// Package process renders a synth over absolute time, feeding it timed MIDI
// events from a queue.
package process

// Context holds one output buffer per voice slot and the scratch space used
// while rendering them. All buffers are allocated up front.
type Context struct {
	Output     [][]float32
	SampleRate float64

	numSamples int

	// Pre-allocated work buffers
	workBuffer []float32
	views      [][]float32
}

// NewContext creates a context for numChannels channels of up to
// maxBlockSize samples
func NewContext(maxBlockSize, numChannels int, sampleRate float64) *Context {
	c := &Context{
		Output:     make([][]float32, numChannels),
		SampleRate: sampleRate,
		numSamples: maxBlockSize,
		workBuffer: make([]float32, maxBlockSize),
		views:      make([][]float32, numChannels),
	}
	for ch := range c.Output {
		c.Output[ch] = make([]float32, maxBlockSize)
	}
	return c
}

// SetNumSamples sets the block length, bounded by the allocated size
func (c *Context) SetNumSamples(n int) {
	c.numSamples = max(0, min(n, len(c.workBuffer)))
}

// NumSamples returns the number of samples to process
func (c *Context) NumSamples() int {
	return c.numSamples
}

// MaxBlockSize returns the allocated block length
func (c *Context) MaxBlockSize() int {
	return len(c.workBuffer)
}

// NumOutputChannels returns the number of output channels
func (c *Context) NumOutputChannels() int {
	return len(c.Output)
}

// WorkBuffer returns a slice of the pre-allocated work buffer
// sized to the current block size - no allocation!
func (c *Context) WorkBuffer() []float32 {
	return c.workBuffer[:c.numSamples]
}

// Slice returns views of every output channel over [from, to). The returned
// slice is reused by the next call.
func (c *Context) Slice(from, to int) [][]float32 {
	for ch, buf := range c.Output {
		c.views[ch] = buf[from:to]
	}
	return c.views
}

// Clear zeros the output buffers
func (c *Context) Clear() {
	for ch := range c.Output {
		clear(c.Output[ch])
	}
}

// ProcessChannels calls fn with the current block of every output channel
func (c *Context) ProcessChannels(fn func(ch int, buf []float32)) {
	for ch, buf := range c.Output {
		fn(ch, buf[:c.numSamples])
	}
}

// MixDown sums the current block of all channels into out
func (c *Context) MixDown(out []float32) {
	n := min(len(out), c.numSamples)
	clear(out[:n])
	for _, buf := range c.Output {
		for i := 0; i < n; i++ {
			out[i] += buf[i]
		}
	}
}

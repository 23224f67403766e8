package audio

import (
	"context"
	"sync/atomic"
	"time"
)

// AheadBuffer keeps up to a fixed latency of rendered samples between a
// producer goroutine and the device callback, so a slow render or a GC
// pause does not reach the device. One goroutine writes, one reads.
type AheadBuffer struct {
	data     []float32
	mask     uint64
	capacity uint64 // latency in samples
	readPos  atomic.Uint64
	writePos atomic.Uint64
	wake     chan struct{}

	underruns atomic.Uint64
	overruns  atomic.Uint64
}

// BufferStats reports the health of an AheadBuffer
type BufferStats struct {
	Underruns uint64
	Overruns  uint64
	Buffered  int
	Latency   time.Duration
}

// NewAheadBuffer holds latency worth of samples at sampleRate
func NewAheadBuffer(sampleRate int, latency time.Duration) *AheadBuffer {
	capacity := uint64(max(1, int(latency.Seconds()*float64(sampleRate))))
	size := nextPowerOf2(capacity)

	return &AheadBuffer{
		data:     make([]float32, size),
		mask:     size - 1,
		capacity: capacity,
		wake:     make(chan struct{}, 1),
	}
}

// Capacity is the latency in samples
func (b *AheadBuffer) Capacity() int {
	return int(b.capacity)
}

// Buffered is the number of samples ready for Render
func (b *AheadBuffer) Buffered() int {
	return int(b.writePos.Load() - b.readPos.Load())
}

// Space is the number of samples Write accepts
func (b *AheadBuffer) Space() int {
	return int(b.capacity) - b.Buffered()
}

// Write copies as many samples as fit and returns that count. A short
// write counts as an overrun.
func (b *AheadBuffer) Write(samples []float32) int {
	n := min(len(samples), b.Space())
	if n < len(samples) {
		b.overruns.Add(1)
	}

	w := b.writePos.Load()
	for i := 0; i < n; {
		idx := (w + uint64(i)) & b.mask
		i += copy(b.data[idx:], samples[i:n])
	}
	b.writePos.Store(w + uint64(n))
	return n
}

// Render implements Source. Missing samples are silence and count as an
// underrun.
func (b *AheadBuffer) Render(out []float32) {
	r := b.readPos.Load()
	n := min(len(out), int(b.writePos.Load()-r))
	if n < len(out) {
		b.underruns.Add(1)
		clear(out[n:])
	}

	for i := 0; i < n; {
		idx := (r + uint64(i)) & b.mask
		i += copy(out[i:n], b.data[idx:])
	}
	b.readPos.Store(r + uint64(n))

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Fill renders src in blocks of block samples whenever there is room, until
// ctx is done. It is the producer side and returns ctx.Err().
func (b *AheadBuffer) Fill(ctx context.Context, src Source, block int) error {
	block = min(max(block, 1), int(b.capacity))
	tmp := make([]float32, block)

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		for b.Space() >= block {
			src.Render(tmp)
			b.Write(tmp)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.wake:
		case <-ticker.C:
		}
	}
}

func (b *AheadBuffer) Stats(sampleRate int) BufferStats {
	buffered := b.Buffered()
	s := BufferStats{
		Underruns: b.underruns.Load(),
		Overruns:  b.overruns.Load(),
		Buffered:  buffered,
	}
	if sampleRate > 0 {
		s.Latency = time.Duration(float64(buffered) / float64(sampleRate) * float64(time.Second))
	}
	return s
}

// Reset drops buffered samples and counters. Call it with both sides idle.
func (b *AheadBuffer) Reset() {
	b.readPos.Store(0)
	b.writePos.Store(0)
	b.underruns.Store(0)
	b.overruns.Store(0)
}

func nextPowerOf2(n uint64) uint64 {
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/justyntemme/polysynth/pkg/framework/debug"
)

// DefaultBufferSize is the device buffer used when none is given
const DefaultBufferSize = 50 * time.Millisecond

type sourceBox struct {
	src Source
}

// Player streams a Source to the default device as mono float32.
// Only one Player can exist per process.
type Player struct {
	ctx       *oto.Context
	player    *oto.Player
	src       atomic.Pointer[sourceBox] // read without locking on the audio thread
	sampleBuf []float32
	profiler  *debug.Profiler
	started   bool
	mutex     sync.Mutex // setup and control only
}

// NewPlayer opens the device and waits until it is ready
func NewPlayer(sampleRate int, bufferSize time.Duration) (*Player, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	p := &Player{
		ctx:       ctx,
		sampleBuf: make([]float32, 4096),
	}
	p.player = ctx.NewPlayer(p)
	return p, nil
}

// SetSource swaps the source. A nil source plays silence.
func (p *Player) SetSource(src Source) {
	if src == nil {
		p.src.Store(nil)
		return
	}
	p.src.Store(&sourceBox{src: src})
}

// SetProfiler times every device read under "device"
func (p *Player) SetProfiler(prof *debug.Profiler) {
	p.mutex.Lock()
	p.profiler = prof
	p.mutex.Unlock()
}

// Read is called by the device. It renders len(p)/4 samples.
func (p *Player) Read(buf []byte) (n int, err error) {
	box := p.src.Load()
	if box == nil {
		clear(buf)
		return len(buf), nil
	}

	if p.profiler != nil {
		defer p.profiler.Start("device")()
	}

	numSamples := len(buf) / 4
	if len(p.sampleBuf) < numSamples {
		p.sampleBuf = make([]float32, numSamples)
	}
	samples := p.sampleBuf[:numSamples]
	box.src.Render(samples)

	encodeFloat32LE(buf, samples)
	return numSamples * 4, nil
}

func encodeFloat32LE(dst []byte, samples []float32) {
	for i, s := range samples {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(s))
	}
}

func (p *Player) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.started && p.player != nil {
		p.player.Play()
		p.started = true
	}
}

func (p *Player) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.started && p.player != nil {
		p.player.Pause()
		p.started = false
	}
}

// SetVolume sets the device gain, 0 to 1
func (p *Player) SetVolume(vol float64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.player != nil {
		p.player.SetVolume(min(max(vol, 0), 1))
	}
}

// Volume returns the device gain
func (p *Player) Volume() float64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.player == nil {
		return 0
	}
	return p.player.Volume()
}

func (p *Player) IsStarted() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.started
}

func (p *Player) Close() error {
	p.Stop()
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	return err
}

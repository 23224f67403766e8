package process

import (
	"math"
	"slices"

	"github.com/justyntemme/polysynth/pkg/framework/debug"
	"github.com/justyntemme/polysynth/pkg/midi"
	"github.com/justyntemme/polysynth/pkg/synth"
)

// DefaultBlockSize is the number of samples rendered per synth call
const DefaultBlockSize = 512

// timedNote is a note on waiting for its sub-block
type timedNote struct {
	event midi.Event
	at    int
}

// Renderer plays queued events on a synth. Event offsets are absolute sample
// positions. Note offs and controller changes split a block so they act on
// their exact sample; note ons are cued inside the sub-block that contains
// them.
type Renderer struct {
	synth      *synth.Synth
	queue      *midi.EventQueue
	dispatcher *midi.Dispatcher
	blockSize  int
	position   int64

	pending  []timedNote
	profiler *debug.Profiler
}

func NewRenderer(s *synth.Synth, blockSize int) *Renderer {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Renderer{
		synth:      s,
		queue:      midi.NewEventQueue(),
		dispatcher: midi.NewDispatcher(s),
		blockSize:  blockSize,
		pending:    make([]timedNote, 0, 32),
	}
}

func (r *Renderer) Synth() *synth.Synth {
	return r.synth
}

func (r *Renderer) Queue() *midi.EventQueue {
	return r.queue
}

func (r *Renderer) Dispatcher() *midi.Dispatcher {
	return r.dispatcher
}

func (r *Renderer) BlockSize() int {
	return r.blockSize
}

// Position returns the absolute sample position of the next render
func (r *Renderer) Position() int64 {
	return r.position
}

// SetProfiler times every block under "render"
func (r *Renderer) SetProfiler(p *debug.Profiler) {
	r.profiler = p
}

// Schedule queues events at absolute sample positions
func (r *Renderer) Schedule(events ...midi.Event) {
	r.queue.AddMultiple(events)
}

// ScheduleNow queues e at the current position
func (r *Renderer) ScheduleNow(e midi.Event) {
	r.queue.Add(midi.WithOffset(e, r.position))
}

// Render fills out with the next len(out) samples
func (r *Renderer) Render(out []float32) {
	for off := 0; off < len(out); off += r.blockSize {
		block := out[off:min(off+r.blockSize, len(out))]
		r.renderBlock(len(block), func(from, to int) {
			r.synth.Process(block[from:to])
		})
	}
}

// RenderContext renders ctx.NumSamples() samples with one output channel per
// voice slot
func (r *Renderer) RenderContext(ctx *Context) {
	n := ctx.NumSamples()
	for off := 0; off < n; off += r.blockSize {
		end := min(off+r.blockSize, n)
		r.renderBlock(end-off, func(from, to int) {
			r.synth.ProcessMulti(ctx.Slice(off+from, off+to), to-from)
		})
	}
}

// SetPosition moves the position without rendering. Queued events before
// the new position fire at the start of the next block.
func (r *Renderer) SetPosition(position int64) {
	r.position = position
}

// Reset clears the queue, silences the synth and rewinds to zero
func (r *Renderer) Reset() {
	r.queue.Clear()
	r.pending = r.pending[:0]
	r.synth.Reset()
	r.position = 0
}

func (r *Renderer) renderBlock(length int, process func(from, to int)) {
	if r.profiler != nil {
		defer r.profiler.Start("render")()
	}

	start := r.position
	end := start + int64(length)
	events := r.queue.GetEventsInRange(math.MinInt64, end)

	pos := 0
	for _, e := range events {
		at := int(max(e.SampleOffset()-start, 0))

		if isNoteOn(e) {
			r.pending = append(r.pending, timedNote{event: e, at: at})
			continue
		}

		// a cued voice ignores note offs, so one on the onset sample of its
		// own note acts a sample later, or cancels the note at the block end
		if i := r.pendingOnset(e, at); i >= 0 {
			at = max(at, pos) + 1
			if at > length {
				r.pending = slices.Delete(r.pending, i, i+1)
				at = length
			}
		}

		if at > pos {
			r.cuePending(pos, at)
			process(pos, at)
			pos = at
		}
		r.cuePending(pos, at+1)
		r.dispatcher.Dispatch(e, 0)
	}

	r.cuePending(pos, length)
	if pos < length {
		process(pos, length)
	}

	if len(events) > 0 {
		r.queue.RemoveProcessedEvents(end - 1)
	}
	r.position = end
}

// cuePending starts the waiting note ons before sample limit relative to
// the sub-block beginning at pos
func (r *Renderer) cuePending(pos, limit int) {
	kept := r.pending[:0]
	for _, n := range r.pending {
		if n.at < limit {
			r.dispatcher.Dispatch(n.event, max(n.at-pos, 0))
			continue
		}
		kept = append(kept, n)
	}
	clear(r.pending[len(kept):])
	r.pending = kept
}

// pendingOnset returns the index of the waiting note on that note off e
// meets at sample at, or -1
func (r *Renderer) pendingOnset(e midi.Event, at int) int {
	note, ok := noteOffNumber(e)
	if !ok {
		return -1
	}
	for i, n := range r.pending {
		on := n.event.(midi.NoteOnEvent)
		if n.at == at && on.NoteNumber == note && on.Channel() == e.Channel() {
			return i
		}
	}
	return -1
}

func noteOffNumber(e midi.Event) (uint8, bool) {
	switch ev := e.(type) {
	case midi.NoteOffEvent:
		return ev.NoteNumber, true
	case midi.NoteOnEvent:
		return ev.NoteNumber, ev.Velocity == 0
	}
	return 0, false
}

func isNoteOn(e midi.Event) bool {
	on, ok := e.(midi.NoteOnEvent)
	return ok && on.Velocity > 0
}

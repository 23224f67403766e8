package midi

import (
	"sort"
	"sync"
)

// EventQueue keeps events ordered by sample offset. Events with the same
// offset keep the order they were added in.
type EventQueue struct {
	events []Event
	mu     sync.Mutex
	sorted bool
}

func NewEventQueue() *EventQueue {
	return &EventQueue{
		events: make([]Event, 0, 128),
		sorted: true,
	}
}

func (q *EventQueue) Add(event Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = append(q.events, event)
	q.sorted = false
}

func (q *EventQueue) AddMultiple(events []Event) {
	if len(events) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = append(q.events, events...)
	q.sorted = false
}

// GetEventsInRange returns a copy of the events in [startSample, endSample)
func (q *EventQueue) GetEventsInRange(startSample, endSample int64) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.sortEvents()

	startIdx := sort.Search(len(q.events), func(i int) bool {
		return q.events[i].SampleOffset() >= startSample
	})

	endIdx := startIdx
	for endIdx < len(q.events) && q.events[endIdx].SampleOffset() < endSample {
		endIdx++
	}

	if startIdx == endIdx {
		return nil
	}

	result := make([]Event, endIdx-startIdx)
	copy(result, q.events[startIdx:endIdx])
	return result
}

func (q *EventQueue) GetAllEvents() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.sortEvents()

	result := make([]Event, len(q.events))
	copy(result, q.events)
	return result
}

func (q *EventQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = q.events[:0]
	q.sorted = true
}

// RemoveProcessedEvents drops every event at or before upToSample
func (q *EventQueue) RemoveProcessedEvents(upToSample int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.sortEvents()

	keepIdx := sort.Search(len(q.events), func(i int) bool {
		return q.events[i].SampleOffset() > upToSample
	})

	if keepIdx > 0 {
		copy(q.events, q.events[keepIdx:])
		q.events = q.events[:len(q.events)-keepIdx]
	}
}

// RemoveFirst drops the n earliest events
func (q *EventQueue) RemoveFirst(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.sortEvents()

	n = min(n, len(q.events))
	if n <= 0 {
		return
	}
	copy(q.events, q.events[n:])
	q.events = q.events[:len(q.events)-n]
}

func (q *EventQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

func (q *EventQueue) IsEmpty() bool {
	return q.Size() == 0
}

func (q *EventQueue) sortEvents() {
	if q.sorted {
		return
	}
	sort.SliceStable(q.events, func(i, j int) bool {
		return q.events[i].SampleOffset() < q.events[j].SampleOffset()
	})
	q.sorted = true
}

// OffsetEvents moves every event by offset samples
func (q *EventQueue) OffsetEvents(offset int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.events {
		q.events[i] = WithOffset(e, e.SampleOffset()+offset)
	}
}

type EventProcessor interface {
	ProcessEvent(event Event)
}

func (q *EventQueue) ProcessEvents(processor EventProcessor, startSample, endSample int64) {
	events := q.GetEventsInRange(startSample, endSample)
	for _, event := range events {
		processor.ProcessEvent(event)
	}
}

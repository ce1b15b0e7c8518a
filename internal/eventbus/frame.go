package eventbus

import (
	"sync"

	"github.com/fastygo/taskboard/domain"
)

type frameKey struct{}

type queued struct {
	event domain.Event
	depth int
}

// frame is the dispatch state of one outermost Publish call.
type frame struct {
	bus *Bus

	mu       sync.Mutex
	queue    []queued
	depth    int
	accepted int
	closed   bool
}

func (f *frame) enqueue(events []domain.Event, depth int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.push(events, depth)
}

// enqueueNested queues events one level below the event being dispatched. It
// reports false once the frame has been drained, in which case the caller
// starts a new dispatch.
func (f *frame) enqueueNested(events []domain.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.push(events, f.depth+1)
	return true
}

func (f *frame) push(events []domain.Event, depth int) {
	for _, e := range events {
		if e == nil {
			continue
		}
		switch {
		case depth > f.bus.maxDepth:
			f.bus.dropped(e, depth, "max depth exceeded")
		case f.accepted >= f.bus.maxEvents:
			f.bus.dropped(e, depth, "event budget exhausted")
		default:
			f.accepted++
			f.queue = append(f.queue, queued{event: e, depth: depth})
		}
	}
}

func (f *frame) next() (queued, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return queued{}, false
	}
	item := f.queue[0]
	f.queue[0] = queued{}
	f.queue = f.queue[1:]
	return item, true
}

func (f *frame) setDepth(depth int) {
	f.mu.Lock()
	f.depth = depth
	f.mu.Unlock()
}

func (f *frame) close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

// Package eventbus delivers domain events to subscribed handlers in process.
//
// Delivery is synchronous and never fails from the publisher's point of view.
// Events published from inside a handler are not delivered re-entrantly: they
// join the queue of the outermost Publish call, which drains it in FIFO order
// before returning. Each queued event carries the depth of the cascade that
// produced it, and both the depth and the total number of events per outermost
// call are bounded. Once started, draining ignores cancellation of the
// publisher's context so that every queued event is delivered.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
)

const (
	DefaultMaxDepth  = 8
	DefaultMaxEvents = 1024
)

// ErrUnknownKind is returned when subscribing to a kind outside domain.EventKinds.
var ErrUnknownKind = errors.New("eventbus: unknown event kind")

// Handler reacts to a single event. Returned errors are logged, never propagated.
type Handler func(ctx context.Context, event domain.Event) error

type subscription struct {
	name   string
	handle Handler
}

type Option func(*Bus)

// WithMaxDepth bounds how many cascade levels below a top-level event are delivered.
func WithMaxDepth(depth int) Option {
	return func(b *Bus) {
		if depth > 0 {
			b.maxDepth = depth
		}
	}
}

// WithMaxEvents bounds how many events a single outermost Publish delivers.
func WithMaxEvents(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.maxEvents = n
		}
	}
}

type Bus struct {
	mu        sync.RWMutex
	routes    map[domain.EventKind][]subscription
	maxDepth  int
	maxEvents int
	logger    *zap.Logger
}

func New(logger *zap.Logger, opts ...Option) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bus{
		routes:    make(map[domain.EventKind][]subscription, len(domain.EventKinds())),
		maxDepth:  DefaultMaxDepth,
		maxEvents: DefaultMaxEvents,
		logger:    logger.With(zap.String("component", "eventbus")),
	}
	for _, kind := range domain.EventKinds() {
		b.routes[kind] = nil
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe appends handler to the kind's handler list. Handlers run in
// registration order.
func (b *Bus) Subscribe(kind domain.EventKind, name string, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("eventbus: nil handler %q", name)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.routes[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	b.routes[kind] = append(subs, subscription{name: name, handle: handler})
	b.logger.Debug("handler subscribed", zap.String("kind", string(kind)), zap.String("handler", name))
	return nil
}

// On subscribes a handler typed on a concrete event variant.
func On[E domain.Event](b *Bus, name string, fn func(ctx context.Context, event E) error) error {
	var zero E
	if any(zero) == nil {
		return fmt.Errorf("eventbus: %q must subscribe to a concrete event type", name)
	}
	return b.Subscribe(zero.Kind(), name, func(ctx context.Context, event domain.Event) error {
		typed, ok := event.(E)
		if !ok {
			return fmt.Errorf("eventbus: %q got %T", name, event)
		}
		return fn(ctx, typed)
	})
}

// Subscribers lists handler names registered for kind, in delivery order.
func (b *Bus) Subscribers(kind domain.EventKind) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := b.routes[kind]
	names := make([]string, 0, len(subs))
	for _, s := range subs {
		names = append(names, s.name)
	}
	return names
}

// Publish delivers events to their subscribers. Called from within a handler
// it only enqueues; the outermost call returns once the queue is empty.
func (b *Bus) Publish(ctx context.Context, events ...domain.Event) {
	if ctx == nil {
		ctx = context.Background()
	}
	if f, ok := ctx.Value(frameKey{}).(*frame); ok && f.bus == b {
		if f.enqueueNested(events) {
			return
		}
	}

	f := &frame{bus: b}
	f.enqueue(events, 0)
	b.drain(context.WithValue(context.WithoutCancel(ctx), frameKey{}, f), f)
}

func (b *Bus) drain(ctx context.Context, f *frame) {
	defer f.close()
	for {
		item, ok := f.next()
		if !ok {
			return
		}
		b.dispatch(ctx, item)
	}
}

func (b *Bus) dispatch(ctx context.Context, item queued) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.routes[item.event.Kind()]...)
	b.mu.RUnlock()

	b.logger.Debug("publishing event",
		zap.String("kind", string(item.event.Kind())),
		zap.String("event_id", item.event.EventID().String()),
		zap.Int("depth", item.depth),
		zap.Int("handlers", len(subs)))

	for _, sub := range subs {
		b.invoke(ctx, sub, item)
	}
}

func (b *Bus) invoke(ctx context.Context, sub subscription, item queued) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("handler", sub.name),
				zap.String("kind", string(item.event.Kind())),
				zap.String("event_id", item.event.EventID().String()),
				zap.Any("panic", r),
				zap.StackSkip("stack", 2))
		}
	}()

	f := ctx.Value(frameKey{}).(*frame)
	f.setDepth(item.depth)
	if err := sub.handle(ctx, item.event); err != nil {
		b.logger.Error("event handler failed",
			zap.String("handler", sub.name),
			zap.String("kind", string(item.event.Kind())),
			zap.String("event_id", item.event.EventID().String()),
			zap.Error(err))
	}
}

func (b *Bus) dropped(e domain.Event, depth int, reason string) {
	b.logger.Error("event dropped",
		zap.String("reason", reason),
		zap.String("kind", string(e.Kind())),
		zap.String("event_id", e.EventID().String()),
		zap.Int("depth", depth))
}

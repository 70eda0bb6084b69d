package events

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Publisher emits events without blocking the caller.
type Publisher interface {
	Publish(evt Event)
}

// Subscriber consumes events on the bus dispatcher goroutine.
type Subscriber interface {
	Handle(evt Event)
}

// Bus fans events out to subscribers from a single dispatcher goroutine.
// Publish never blocks: when the buffer is full the event is dropped and
// counted, since a slow consumer must not stall a state transition.
type Bus struct {
	logger   *slog.Logger
	queue    chan Event
	subs     []Subscriber
	dropped  atomic.Int64
	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

// NewBus creates a bus with the given buffer size and subscribers.
func NewBus(buffer int, subs []Subscriber, logger *slog.Logger) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{
		logger: logger,
		queue:  make(chan Event, buffer),
		subs:   subs,
		stop:   make(chan struct{}),
	}
}

// Start launches the dispatcher goroutine.
func (b *Bus) Start() {
	b.wg.Add(1)
	go b.dispatch()
}

// Publish enqueues evt, dropping it when the buffer is full.
func (b *Bus) Publish(evt Event) {
	select {
	case b.queue <- evt:
	default:
		b.dropped.Add(1)
		b.logger.Warn("event dropped", slog.String("event", evt.Name()))
	}
}

// Stop delivers already queued events and stops the dispatcher.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
	b.wg.Wait()
}

// Dropped returns how many events were discarded because the buffer was full.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

func (b *Bus) dispatch() {
	defer b.wg.Done()
	for {
		select {
		case evt := <-b.queue:
			b.deliver(evt)
		case <-b.stop:
			for {
				select {
				case evt := <-b.queue:
					b.deliver(evt)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) deliver(evt Event) {
	for _, sub := range b.subs {
		sub.Handle(evt)
	}
}

package event

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrBusFull is returned by Subscribe once every subscriber slot is taken.
var ErrBusFull = errors.New("event bus: subscriber limit reached")

// subscriber pairs a channel with the bitmask of types delivered to it.
type subscriber struct {
	mask uint32
	ch   chan<- Event
}

// Bus is a small publish/subscribe dispatcher. Components publish without
// knowing the listeners; each listener subscribes with its own channel and
// the set of types it cares about.
//
// Bus holds up to 8 subscribers. It is safe for concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs [8]subscriber
	n    int
	log  *slog.Logger
}

// NewBus creates a ready-to-use Bus. A nil logger uses slog.Default().
func NewBus(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{log: log.With("component", "event")}
}

// Subscribe registers ch for the given types, or for every type when none
// is given. The caller owns ch and must drain it.
func (b *Bus) Subscribe(ch chan<- Event, types ...Type) error {
	if len(types) == 0 {
		types = AllTypes()
	}

	var mask uint32
	for _, t := range types {
		mask |= 1 << t
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.n >= len(b.subs) {
		return ErrBusFull
	}
	b.subs[b.n] = subscriber{mask: mask, ch: ch}
	b.n++
	return nil
}

// Publish delivers e to every matching subscriber without blocking. When a
// subscriber's channel is full the event is dropped for that subscriber.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i := 0; i < b.n; i++ {
		if b.subs[i].mask&(1<<e.Type) == 0 {
			continue
		}
		select {
		case b.subs[i].ch <- e:
		default:
			b.log.Warn("event dropped", "type", e.Type, "subscriber", i)
		}
	}
}

package prefetch

import "sync"

// ImageEvent announces that an illustration finished resolving for the
// item with the given serving id. Subscribers that hold the item (the
// buffer itself, or whatever is currently displaying it) patch the image
// on by id.
type ImageEvent struct {
	ItemID string
	Prompt string
	Image  []byte
}

// Bus is a small in-process pub/sub registry for illustration events.
// Publishing never blocks: a subscriber that has fallen behind misses
// events rather than stalling the resolver.
type Bus struct {
	mu   sync.Mutex
	subs []chan ImageEvent
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a new subscriber and returns its event channel.
func (b *Bus) Subscribe() <-chan ImageEvent {
	ch := make(chan ImageEvent, 8)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Publish delivers the event to every subscriber that has buffer room.
func (b *Bus) Publish(ev ImageEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

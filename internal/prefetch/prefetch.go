// Package prefetch keeps a small queue of ready quiz items warm ahead of
// the player, dispatching bounded concurrent selection calls and
// resolving illustrations off the critical path.
package prefetch

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"quizforge/internal/corpus"
	"quizforge/internal/item"
	"quizforge/internal/picker"
)

// Selector produces one item per call. It never returns nil.
type Selector interface {
	Select(ctx context.Context, req picker.Request) *item.Item
}

// Illustrator resolves an illustration prompt to image bytes. A nil
// image with a nil error means the backend has no image support.
type Illustrator interface {
	SynthesizeIllustration(ctx context.Context, prompt string) ([]byte, error)
}

// ImageCache is the slice of the corpus image sub-store the manager uses.
type ImageCache interface {
	Illustration(ctx context.Context, prompt string) (*corpus.Illustration, error)
	PutIllustration(ctx context.Context, prompt string, image []byte) error
}

// Config sizes the buffer.
type Config struct {
	// TargetSize is the queue depth the manager tops up to, counting
	// in-flight dispatches.
	TargetSize int

	// MaxConcurrent caps simultaneous selection calls across sessions.
	MaxConcurrent int64
}

// DefaultConfig returns the standard buffer sizing.
func DefaultConfig() Config {
	return Config{TargetSize: 5, MaxConcurrent: 3}
}

// recentTextCap bounds how many served question texts are kept for
// repeat avoidance.
const recentTextCap = 10

// Manager owns the prefetch queue for the active session. All queue
// mutations happen under one mutex; selection and illustration calls run
// outside it. A generation token stamps every dispatch so that results
// arriving after a session reset are discarded instead of polluting the
// new session's queue.
type Manager struct {
	cfg      Config
	selector Selector
	images   Illustrator
	cache    ImageCache
	bus      *Bus
	log      *zap.Logger
	sem      *semaphore.Weighted

	mu         sync.Mutex
	gen        uint64
	queue      []*item.Item
	inflight   int
	current    *item.Item
	category   item.Category
	difficulty int
	ctx        context.Context
	cancel     context.CancelFunc

	// recent holds the texts of the last few served items so dispatches
	// can tell the backend what to avoid repeating.
	recent []string

	// placementOpen counts dispatches that were allowed to return a
	// placement item and have not settled yet. While any are open,
	// further dispatches are marked placement-queued so two placement
	// items can never coexist in one buffer.
	placementOpen int
}

// New creates a Manager. images and cache may be nil; items then simply
// carry no illustrations.
func New(cfg Config, selector Selector, images Illustrator, cache ImageCache, bus *Bus, log *zap.Logger) *Manager {
	if cfg.TargetSize <= 0 {
		cfg.TargetSize = DefaultConfig().TargetSize
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if bus == nil {
		bus = NewBus()
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:      cfg,
		selector: selector,
		images:   images,
		cache:    cache,
		bus:      bus,
		log:      log,
		sem:      semaphore.NewWeighted(cfg.MaxConcurrent),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Bus returns the illustration event bus so the presentation layer can
// subscribe alongside the manager's own patching.
func (m *Manager) Bus() *Bus { return m.bus }

// Reset abandons the current session: the queue is cleared, the observed
// in-flight count drops to zero, and the generation token advances so
// late arrivals from the old session are discarded. The old session
// context is cancelled, so outstanding calls that honor cancellation
// stop early instead of running to waste.
func (m *Manager) Reset(category item.Category, difficulty int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.queue = nil
	m.inflight = 0
	m.placementOpen = 0
	m.current = nil
	m.recent = nil
	m.category = category
	m.difficulty = item.ClampDifficulty(difficulty)
	m.cancel()
	m.ctx, m.cancel = context.WithCancel(context.Background())
}

// SetDifficulty changes the difficulty used by subsequent dispatches.
// Already-queued items keep their level.
func (m *Manager) SetDifficulty(d int) {
	m.mu.Lock()
	m.difficulty = item.ClampDifficulty(d)
	m.mu.Unlock()
}

// QueueLen reports the number of ready items (not counting in-flight).
func (m *Manager) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// EnsureFilled tops the buffer up to the target, counting in-flight
// dispatches, and is idempotent: a second call with no mutation in
// between dispatches nothing.
func (m *Manager) EnsureFilled() {
	m.mu.Lock()
	needed := m.cfg.TargetSize - (len(m.queue) + m.inflight)
	if needed <= 0 {
		m.mu.Unlock()
		return
	}
	req := m.requestLocked()
	gen := m.gen
	ctx := m.ctx
	m.inflight += needed

	// At most one dispatch per batch may produce a placement item; the
	// rest are told one is already on the way.
	eligible := !req.PlacementQueued && req.PreviousKind != item.KindPlacement
	if eligible {
		m.placementOpen++
	}
	m.mu.Unlock()

	rest := req
	rest.PlacementQueued = true
	for i := 0; i < needed; i++ {
		if i == 0 {
			go m.fetch(ctx, gen, req, eligible)
		} else {
			go m.fetch(ctx, gen, rest, false)
		}
	}
}

// requestLocked builds the selection request from the buffer's view:
// previous kind comes from the tail of the queue, or from the displayed
// item when the queue is empty. Prior texts cover everything queued
// plus the last served few, so synthesis avoids repeats.
func (m *Manager) requestLocked() picker.Request {
	req := picker.Request{Category: m.category, Difficulty: m.difficulty}
	req.PriorTexts = append(req.PriorTexts, m.recent...)
	for _, it := range m.queue {
		if it.Text != "" {
			req.PriorTexts = append(req.PriorTexts, it.Text)
		}
	}
	if n := len(m.queue); n > 0 {
		req.PreviousKind = m.queue[n-1].Kind
	} else if m.current != nil {
		req.PreviousKind = m.current.Kind
	}
	if m.placementOpen > 0 {
		req.PlacementQueued = true
	}
	for _, it := range m.queue {
		if it.Kind == item.KindPlacement {
			req.PlacementQueued = true
			break
		}
	}
	return req
}

func (m *Manager) fetch(ctx context.Context, gen uint64, req picker.Request, placementEligible bool) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		m.settle(gen, nil, placementEligible)
		return
	}
	it := m.selector.Select(ctx, req)
	m.sem.Release(1)
	m.settle(gen, it, placementEligible)

	if it != nil {
		m.resolveIllustration(ctx, gen, it)
	}
}

// settle decrements the in-flight counter and appends the arrival, in
// arrival order. Results stamped with a stale generation are dropped:
// the session they belong to no longer exists.
func (m *Manager) settle(gen uint64, it *item.Item, placementEligible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	m.inflight--
	if placementEligible && m.placementOpen > 0 {
		m.placementOpen--
	}
	if it != nil {
		m.queue = append(m.queue, it)
	}
}

// TakeNext pops the head of the queue, or performs an emergency fetch
// when the queue is empty so the caller always gets an item, then tops
// the buffer back up.
func (m *Manager) TakeNext(ctx context.Context) *item.Item {
	m.mu.Lock()
	var it *item.Item
	if len(m.queue) > 0 {
		it = m.queue[0]
		m.queue = m.queue[1:]
		m.current = it
		m.rememberLocked(it)
		m.mu.Unlock()
	} else {
		req := m.requestLocked()
		gen := m.gen
		sctx := m.ctx
		m.mu.Unlock()

		it = m.selector.Select(ctx, req)
		m.mu.Lock()
		if gen == m.gen {
			m.current = it
			m.rememberLocked(it)
		}
		m.mu.Unlock()
		m.resolveIllustration(sctx, gen, it)
	}

	m.EnsureFilled()
	return it
}

// rememberLocked records a served item's text, keeping only the most
// recent few. Callers hold m.mu.
func (m *Manager) rememberLocked(it *item.Item) {
	if it == nil || it.Text == "" {
		return
	}
	m.recent = append(m.recent, it.Text)
	if len(m.recent) > recentTextCap {
		m.recent = m.recent[len(m.recent)-recentTextCap:]
	}
}

// Current returns the most recently dequeued item.
func (m *Manager) Current() *item.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// resolveIllustration resolves an item's illustration prompt in the
// background: cache first, then the backend. Failures mean no image,
// never a blocked item. Resolved images are patched onto the item
// wherever it lives (queue or displayed) and announced on the bus.
func (m *Manager) resolveIllustration(ctx context.Context, gen uint64, it *item.Item) {
	if m.images == nil || it == nil || it.IllustrationPrompt == "" {
		return
	}
	prompt := it.IllustrationPrompt
	id := it.ID

	go func() {
		if m.cache != nil {
			cached, err := m.cache.Illustration(ctx, prompt)
			if err != nil {
				m.log.Warn("illustration cache read failed", zap.Error(err))
			} else if cached != nil {
				if cached.Blocked {
					return
				}
				if len(cached.Image) > 0 {
					m.patchImage(gen, id, prompt, cached.Image)
					return
				}
			}
		}

		img, err := m.images.SynthesizeIllustration(ctx, prompt)
		if err != nil {
			m.log.Warn("illustration synthesis failed", zap.String("prompt", prompt), zap.Error(err))
			return
		}
		if len(img) == 0 {
			return
		}
		if m.cache != nil {
			if err := m.cache.PutIllustration(context.WithoutCancel(ctx), prompt, img); err != nil {
				m.log.Warn("illustration cache write failed", zap.Error(err))
			}
		}
		m.patchImage(gen, id, prompt, img)
	}()
}

func (m *Manager) patchImage(gen uint64, id, prompt string, img []byte) {
	m.mu.Lock()
	if gen == m.gen {
		for _, queued := range m.queue {
			if queued.ID == id {
				queued.Image = img
				break
			}
		}
		if m.current != nil && m.current.ID == id {
			m.current.Image = img
		}
	}
	m.mu.Unlock()

	m.bus.Publish(ImageEvent{ItemID: id, Prompt: prompt, Image: img})
}

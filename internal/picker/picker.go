// Package picker implements the source selection policy: given a
// category and the size of its corpus, decide whether to synthesize a
// fresh item or replay a stored one, with a layered fallback chain that
// always produces something.
package picker

import (
	"context"
	"math/rand/v2"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"quizforge/internal/item"
	"quizforge/internal/synth"
)

// ItemSynthesizer is the slice of the generative backend the policy needs.
type ItemSynthesizer interface {
	SynthesizeItem(ctx context.Context, input synth.Input) (*item.Item, error)
}

// CorpusSource is the slice of the corpus store the policy needs.
type CorpusSource interface {
	Put(ctx context.Context, it *item.Item) error
	CountByCategory(ctx context.Context, cat item.Category) (int, error)
	RandomByCategory(ctx context.Context, cat item.Category) (*item.Item, error)
}

// Request carries the per-call selection context. PreviousKind and
// PlacementQueued are throttle inputs owned by the caller (the prefetch
// buffer knows what is queued; the policy itself holds no session state).
type Request struct {
	Category   item.Category
	Difficulty int

	// PreviousKind is the kind of the most recently queued or displayed
	// item. A placement item is never produced twice in a row.
	PreviousKind item.Kind

	// PlacementQueued reports whether a placement item is already waiting
	// in the caller's buffer. A second one is never queued alongside it.
	PlacementQueued bool

	// BannedTopics is passed through to the backend.
	BannedTopics []string

	// PriorTexts holds the question texts already queued or recently
	// shown, passed to the backend so synthesis avoids repeats.
	PriorTexts []string
}

// Policy decides synthesize-vs-reuse per request. Construct with New;
// to change configuration build a new instance via Reconfigure instead
// of mutating a shared one.
type Policy struct {
	cfg    Config
	synth  ItemSynthesizer
	corpus CorpusSource
	log    *zap.Logger

	// rng returns a uniform draw in [0,1). Replaceable in tests.
	rng func() float64
}

// New creates a Policy.
func New(cfg Config, synthesizer ItemSynthesizer, corpus CorpusSource, log *zap.Logger) *Policy {
	if log == nil {
		log = zap.NewNop()
	}
	return &Policy{
		cfg:    cfg,
		synth:  synthesizer,
		corpus: corpus,
		log:    log,
		rng:    rand.Float64,
	}
}

// Reconfigure returns a new Policy with the given configuration and the
// same collaborators.
func (p *Policy) Reconfigure(cfg Config) *Policy {
	return &Policy{
		cfg:    cfg,
		synth:  p.synth,
		corpus: p.corpus,
		log:    p.log,
		rng:    p.rng,
	}
}

// Select picks one item for the request. It never returns nil: when both
// the backend and the corpus fail, a static built-in item is served.
func (p *Policy) Select(ctx context.Context, req Request) *item.Item {
	// Placement pre-check: for the one category/difficulty combination
	// that supports it, a fixed low probability short-circuits both the
	// corpus and the backend — but never twice in a row, and never while
	// one is already queued.
	if p.placementEligible(req) && p.rng() < p.cfg.PlacementProb {
		return newPlacementItem(req.Difficulty, p.rng)
	}

	size, err := p.corpus.CountByCategory(ctx, req.Category)
	if err != nil {
		p.log.Warn("corpus count failed, assuming empty", zap.Error(err))
		size = 0
	}

	if p.rng() < p.cfg.synthesisProbability(size) {
		if it := p.synthesize(ctx, req); it != nil {
			return it
		}
		// Synthesis failed: fall back to reuse regardless of the tier
		// decision, then to the static set.
		if it := p.reuse(ctx, req.Category); it != nil {
			return it
		}
		return builtinItem(req.Category, p.rng)
	}

	if it := p.reuse(ctx, req.Category); it != nil {
		return it
	}

	// Reuse was chosen but the corpus is empty: fall through to synthesis.
	if it := p.synthesize(ctx, req); it != nil {
		return it
	}
	return builtinItem(req.Category, p.rng)
}

func (p *Policy) placementEligible(req Request) bool {
	return req.Category == p.cfg.PlacementCategory &&
		req.Difficulty == p.cfg.PlacementDifficulty &&
		req.PreviousKind != item.KindPlacement &&
		!req.PlacementQueued
}

func (p *Policy) synthesize(ctx context.Context, req Request) *item.Item {
	it, err := p.synth.SynthesizeItem(ctx, synth.Input{
		Category:     req.Category,
		Difficulty:   req.Difficulty,
		PreviousKind: req.PreviousKind,
		BannedTopics: req.BannedTopics,
		PriorTexts:   req.PriorTexts,
	})
	if err != nil {
		p.log.Warn("item synthesis failed",
			zap.String("category", string(req.Category)),
			zap.Error(err))
		return nil
	}

	// Mint the corpus key before cloning so the served item and the
	// persisted row agree: too-hard reports escalate by RecordID, and a
	// freshly synthesized item must be reachable that way too.
	if it.RecordID == "" {
		it.RecordID = ulid.Make().String()
	}

	// Persist off the critical path: the item is usable immediately and
	// a failed corpus write is logged, not retried.
	saved := it.Clone()
	go func() {
		if err := p.corpus.Put(context.WithoutCancel(ctx), saved); err != nil {
			p.log.Warn("corpus write failed", zap.String("id", saved.ID), zap.Error(err))
		}
	}()

	return it
}

func (p *Policy) reuse(ctx context.Context, cat item.Category) *item.Item {
	it, err := p.corpus.RandomByCategory(ctx, cat)
	if err != nil {
		p.log.Warn("corpus read failed", zap.String("category", string(cat)), zap.Error(err))
		return nil
	}
	return it
}

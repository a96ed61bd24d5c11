package interpret

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/MarcoLSC/echo-emergent/internal/classifier"
	"github.com/MarcoLSC/echo-emergent/internal/store"
	"github.com/MarcoLSC/echo-emergent/internal/types"
	"github.com/oklog/ulid/v2"
)

// MaxConfidence is the hard cap applied to every interpretation result.
const MaxConfidence = 0.95

// fallbackConfidence is attached to the degraded placeholder result
// delivered when interpretation fails and no error handler is registered.
const fallbackConfidence = 0.1

// ErrInterpretation is returned by the pattern backend's simulated
// transient failure.
var ErrInterpretation = errors.New("simulated interpretation failure")

// Backend produces an interpretation for a piece of text.
type Backend interface {
	Interpret(ctx context.Context, text string) (types.InterpretationResult, error)
	Name() string
}

// Compile-time interface check
var _ Backend = (*PatternBackend)(nil)

// PatternBackend classifies text with the heuristic pattern families,
// re-weighted by the user's preference record. It models a remote service:
// a small transient failure probability and a random latency interval
// before a computed result resolves.
type PatternBackend struct {
	prefs store.Store

	failureRate float64
	latencyMin  time.Duration
	latencyMax  time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// PatternOption configures a PatternBackend.
type PatternOption func(*PatternBackend)

// WithFailureRate overrides the simulated transient-failure probability.
func WithFailureRate(rate float64) PatternOption {
	return func(b *PatternBackend) { b.failureRate = rate }
}

// WithLatency overrides the simulated latency interval.
func WithLatency(min, max time.Duration) PatternOption {
	return func(b *PatternBackend) { b.latencyMin, b.latencyMax = min, max }
}

// WithRand overrides the random source, for deterministic tests.
func WithRand(rng *rand.Rand) PatternOption {
	return func(b *PatternBackend) { b.rng = rng }
}

// NewPatternBackend creates the default interpretation backend over the
// given preference store.
func NewPatternBackend(prefs store.Store, opts ...PatternOption) *PatternBackend {
	b := &PatternBackend{
		prefs:       prefs,
		failureRate: 0.05,
		latencyMin:  50 * time.Millisecond,
		latencyMax:  300 * time.Millisecond,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name identifies the backend.
func (b *PatternBackend) Name() string {
	return "patterns"
}

// Interpret classifies text. The failure gate fires before any
// computation; empty text resolves immediately to unknown at zero
// confidence without pattern evaluation or latency.
func (b *PatternBackend) Interpret(ctx context.Context, text string) (types.InterpretationResult, error) {
	if b.chance(b.failureRate) {
		return types.InterpretationResult{}, ErrInterpretation
	}

	normalized := classifier.Normalize(text)
	if normalized == "" {
		return types.InterpretationResult{
			ID:         ulid.Make().String(),
			Category:   types.CategoryUnknown,
			Confidence: 0,
			Timestamp:  time.Now().UTC(),
		}, nil
	}

	raw := classifier.Classify(normalized)
	adjusted := store.Adjust(raw, b.prefs.History(ctx))
	category, confidence := topCategory(adjusted)

	result := types.InterpretationResult{
		ID:         ulid.Make().String(),
		Category:   category,
		Confidence: confidence,
		Details:    classifier.Details(normalized, category),
		Timestamp:  time.Now().UTC(),
	}

	if delay := b.latency(); delay > 0 {
		select {
		case <-ctx.Done():
			return types.InterpretationResult{}, ctx.Err()
		case <-time.After(delay):
		}
	}

	return result, nil
}

// topCategory selects the highest-scoring category, breaking ties by the
// fixed enumeration order, and caps the confidence at MaxConfidence.
func topCategory(scores types.Scores) (types.Category, float64) {
	top := types.CategoryUnknown
	topConfidence := 0.0

	for _, category := range types.Categories {
		if scores[category] > topConfidence {
			top = category
			topConfidence = scores[category]
		}
	}

	if topConfidence > MaxConfidence {
		topConfidence = MaxConfidence
	}

	return top, topConfidence
}

// chance returns true with probability rate.
func (b *PatternBackend) chance(rate float64) bool {
	if rate <= 0 {
		return false
	}
	if rate >= 1 {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rng.Float64() < rate
}

// latency picks a random delay in [latencyMin, latencyMax].
func (b *PatternBackend) latency() time.Duration {
	if b.latencyMax <= b.latencyMin {
		return b.latencyMin
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latencyMin + time.Duration(b.rng.Int63n(int64(b.latencyMax-b.latencyMin)))
}

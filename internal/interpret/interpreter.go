// Package interpret coalesces rapid text changes into single
// classification requests and serves instant feedback from a bounded
// result cache.
package interpret

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MarcoLSC/echo-emergent/internal/classifier"
	"github.com/MarcoLSC/echo-emergent/internal/types"
	"github.com/oklog/ulid/v2"
)

const (
	// DefaultDebounce is the quiet interval before a request fires.
	DefaultDebounce = 500 * time.Millisecond

	// DefaultMinGrowth skips re-interpretation when the text merely
	// extends the last processed text by fewer than this many characters.
	DefaultMinGrowth = 3
)

// ResultFunc receives interpretation outcomes. A single request may
// deliver twice: a cached result first, then the fresh one superseding it.
type ResultFunc func(types.InterpretationResult)

// ErrorFunc receives a human-readable failure message.
type ErrorFunc func(message string)

// Interpreter owns one debounce timer slot and one result cache. A new
// request cancels any pending not-yet-fired request; only the most recent
// request within the debounce window executes. Construct one per
// application session and pass it by reference.
type Interpreter struct {
	backend  Backend
	debounce time.Duration

	// minGrowth is the re-trigger heuristic boundary; zero disables it.
	minGrowth int

	mu            sync.Mutex
	cache         *Cache
	timer         *time.Timer
	lastProcessed string
	closed        bool
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithDebounce overrides the default debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(i *Interpreter) { i.debounce = d }
}

// WithMinGrowth overrides the re-trigger growth threshold.
func WithMinGrowth(n int) Option {
	return func(i *Interpreter) { i.minGrowth = n }
}

// WithCacheSize overrides the result cache capacity.
func WithCacheSize(n int) Option {
	return func(i *Interpreter) { i.cache = NewCache(n) }
}

// New creates an Interpreter over the given backend.
func New(backend Backend, opts ...Option) *Interpreter {
	i := &Interpreter{
		backend:   backend,
		debounce:  DefaultDebounce,
		minGrowth: DefaultMinGrowth,
		cache:     NewCache(DefaultCacheSize),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Backend returns the backend the interpreter classifies with.
func (i *Interpreter) Backend() Backend {
	return i.backend
}

// Request schedules an interpretation of text after the configured
// debounce interval, superseding any pending request. Fire-and-forget:
// outcomes arrive through the callbacks, possibly twice on the cache-hit
// path. onError may be nil, in which case failures degrade to a
// low-confidence unknown result delivered to onResult.
func (i *Interpreter) Request(text string, onResult ResultFunc, onError ErrorFunc) {
	i.RequestWithDelay(text, onResult, onError, i.debounce)
}

// RequestWithDelay is Request with an explicit debounce interval.
func (i *Interpreter) RequestWithDelay(text string, onResult ResultFunc, onError ErrorFunc, delay time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return
	}

	if i.skipAsMinorGrowth(text) {
		return
	}

	if i.timer != nil {
		i.timer.Stop()
	}

	i.timer = time.AfterFunc(delay, func() {
		i.fire(text, onResult, onError)
	})
}

// skipAsMinorGrowth reports whether text is a too-small extension of the
// last processed text to be worth re-interpreting. Callers hold i.mu.
func (i *Interpreter) skipAsMinorGrowth(text string) bool {
	if i.minGrowth <= 0 || i.lastProcessed == "" {
		return false
	}
	return strings.HasPrefix(text, i.lastProcessed) &&
		len(text) < len(i.lastProcessed)+i.minGrowth
}

// fire executes one interpretation cycle. It runs on the timer goroutine
// after the debounce interval elapsed without a superseding request.
func (i *Interpreter) fire(text string, onResult ResultFunc, onError ErrorFunc) {
	ctx := context.Background()

	// Only a request that actually fires arms the growth gate; a request
	// superseded within the debounce window never counts as processed.
	i.mu.Lock()
	i.lastProcessed = text
	cached, hit := i.cache.Get(text)
	i.mu.Unlock()

	if hit {
		// Fast path: deliver the cached result immediately, refreshed.
		cached.Timestamp = time.Now().UTC()
		onResult(cached)

		// Refresh the cache in the background. The caller already has a
		// usable answer, so a failure here stays invisible.
		fresh, err := i.backend.Interpret(ctx, text)
		if err != nil {
			slog.Debug("background refresh failed, cached result stands", "error", err)
			return
		}
		i.storeResult(text, fresh)
		onResult(fresh)
		return
	}

	result, err := i.backend.Interpret(ctx, text)
	if err != nil {
		slog.Warn("interpretation failed", "error", err)
		if onError != nil {
			onError(err.Error())
			return
		}
		onResult(types.InterpretationResult{
			ID:         ulid.Make().String(),
			Category:   types.CategoryUnknown,
			Confidence: fallbackConfidence,
			Details:    "Error processing text",
			Timestamp:  time.Now().UTC(),
		})
		return
	}

	i.storeResult(text, result)
	onResult(result)
}

// storeResult caches a computed result. Empty text is never cached; its
// result is fixed and the empty key would only displace a real entry.
func (i *Interpreter) storeResult(text string, result types.InterpretationResult) {
	if classifier.Normalize(text) == "" {
		return
	}
	i.mu.Lock()
	i.cache.Put(text, result)
	i.mu.Unlock()
}

// CacheLen returns the number of cached results.
func (i *Interpreter) CacheLen() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cache.Len()
}

// Close cancels any pending request. Further requests are ignored. An
// already-fired computation may still complete and invoke its callbacks.
func (i *Interpreter) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	if i.timer != nil {
		i.timer.Stop()
		i.timer = nil
	}
}

// Package coordinator runs analyses off the caller's path and delivers only
// the most recent result of each analysis kind.
//
// Every Submit takes the next sequence number for its kind. When a task
// finishes its result is delivered to OnComplete callbacks and Latest only if
// no newer request of that kind has been issued in the meantime; otherwise it
// is discarded and Wait reports ErrSuperseded. Derived values are memoised in
// a Cache shared by all requests.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/quakelens/internal/logger"
	"github.com/rewired-gh/quakelens/internal/seismo"
)

// Kind names an analysis. Staleness is tracked per kind.
type Kind string

const (
	KindGutenbergRichter Kind = "gutenberg_richter"
	KindCompleteness     Kind = "completeness"
	KindTemporal         Kind = "temporal"
	KindDecluster        Kind = "decluster"
	KindMoment           Kind = "moment"
	KindComparison       Kind = "mfd_comparison"
)

var (
	// ErrSuperseded means a newer request of the same kind was issued before
	// this one finished.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrCancelled means the request was cancelled before it finished.
	ErrCancelled = errors.New("analysis cancelled")
)

// Task computes one analysis. It should return promptly once ctx is done.
type Task func(ctx context.Context) (any, error)

// Coordinator dispatches tasks and enforces last-request-wins per kind.
type Coordinator struct {
	mu     sync.Mutex
	seq    map[Kind]uint64
	latest map[Kind]Outcome

	// deliver serialises the staleness check with callback delivery so a
	// stale result can never be applied after a newer one.
	deliver sync.Mutex

	cache   *Cache
	metrics *Metrics
	opts    Options
}

// Options configures analysis defaults and sampling.
type Options struct {
	SampleBudget      int
	SampleTopFraction float64
}

// New creates a coordinator. A nil cache disables memoisation; a nil
// metrics value uses unregistered collectors.
func New(cache *Cache, metrics *Metrics, opts Options) *Coordinator {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Coordinator{
		seq:     make(map[Kind]uint64),
		latest:  make(map[Kind]Outcome),
		cache:   cache,
		metrics: metrics,
		opts:    opts,
	}
}

// Submit issues a new request of the given kind and runs task on its own
// goroutine. The returned handle supersedes every earlier request of the
// kind. A non-empty key memoises the value in the cache.
func (c *Coordinator) Submit(ctx context.Context, kind Kind, key string, task Task) *Handle {
	c.mu.Lock()
	c.seq[kind]++
	seq := c.seq[kind]
	c.mu.Unlock()

	taskCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		ID:     uuid.NewString(),
		Kind:   kind,
		Seq:    seq,
		ctx:    taskCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.metrics.requests.WithLabelValues(string(kind)).Inc()
	logger.Debug("Submitted %s request %d (%s)", kind, seq, h.ID)

	go c.run(h, key, task)
	return h
}

func (c *Coordinator) run(h *Handle, key string, task Task) {
	start := time.Now()
	var value any
	var err error
	cached := false

	if c.cache != nil && key != "" {
		value, cached, err = c.cache.Do(h.ctx, h.Kind, key, task)
	} else {
		value, err = task(h.ctx)
	}

	elapsed := time.Since(start)
	c.metrics.compute.WithLabelValues(string(h.Kind)).Observe(elapsed.Seconds())
	c.finish(h, Outcome{
		Kind:    h.Kind,
		Seq:     h.Seq,
		Value:   value,
		Err:     err,
		Elapsed: elapsed,
		Cached:  cached,
	})
}

func (c *Coordinator) finish(h *Handle, out Outcome) {
	c.deliver.Lock()
	defer c.deliver.Unlock()

	c.mu.Lock()
	current := c.seq[h.Kind] == h.Seq
	c.mu.Unlock()

	switch {
	case h.ctx.Err() != nil:
		c.record(h.Kind, OutcomeCancelled)
		logger.Debug("Discarded cancelled %s request %d", h.Kind, h.Seq)
		h.complete(Outcome{Kind: h.Kind, Seq: h.Seq, Err: ErrCancelled, Elapsed: out.Elapsed}, false)
		return
	case !current:
		c.record(h.Kind, OutcomeStale)
		logger.Debug("Discarded stale %s request %d", h.Kind, h.Seq)
		h.complete(Outcome{Kind: h.Kind, Seq: h.Seq, Err: ErrSuperseded, Elapsed: out.Elapsed}, false)
		return
	}

	switch {
	case out.Err == nil:
		c.record(h.Kind, OutcomeAccepted)
	case seismo.Unavailable(out.Err):
		c.record(h.Kind, OutcomeUnavailable)
		logger.Debug("%s unavailable: %v", h.Kind, out.Err)
	default:
		c.record(h.Kind, OutcomeFailed)
		logger.Warn("%s analysis failed: %v", h.Kind, out.Err)
	}

	c.mu.Lock()
	c.latest[h.Kind] = out
	c.mu.Unlock()
	h.complete(out, true)
}

func (c *Coordinator) record(kind Kind, outcome string) {
	c.metrics.results.WithLabelValues(string(kind), outcome).Inc()
}

// Latest returns the most recently delivered outcome of a kind.
func (c *Coordinator) Latest(kind Kind) (Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out, ok := c.latest[kind]
	return out, ok
}

// Sequence returns the last sequence number issued for a kind.
func (c *Coordinator) Sequence(kind Kind) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq[kind]
}

// Result waits for h and asserts its value to T.
func Result[T any](ctx context.Context, h *Handle) (T, error) {
	var zero T
	v, err := h.Wait(ctx)
	if err != nil {
		return zero, err
	}
	res, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected %s result type: got %T", h.Kind, v)
	}
	return res, nil
}

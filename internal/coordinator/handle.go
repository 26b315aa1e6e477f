package coordinator

import (
	"context"
	"sync"
	"time"
)

// Outcome is the delivered result of one request.
type Outcome struct {
	Kind    Kind
	Seq     uint64
	Value   any
	Err     error
	Elapsed time.Duration
	Cached  bool
}

// Handle tracks one submitted request.
type Handle struct {
	ID   string
	Kind Kind
	Seq  uint64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	outcome   Outcome
	completed bool
	accepted  bool
	callbacks []func(Outcome)
}

// Cancel cancels the request's context. A cancelled request is never delivered.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed once the request has finished, whatever its fate.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// OnComplete registers fn to receive the outcome if this request is still
// the latest of its kind when it finishes. Registering after an accepted
// completion calls fn immediately. Stale and cancelled requests never call fn.
func (h *Handle) OnComplete(fn func(Outcome)) {
	h.mu.Lock()
	if !h.completed {
		h.callbacks = append(h.callbacks, fn)
		h.mu.Unlock()
		return
	}
	accepted, out := h.accepted, h.outcome
	h.mu.Unlock()

	if accepted {
		fn(out)
	}
}

// Wait blocks until the request finishes or ctx ends. It returns the value
// and error of an accepted request, ErrSuperseded when a newer request of the
// same kind was issued first, and ErrCancelled after Cancel.
func (h *Handle) Wait(ctx context.Context) (any, error) {
	select {
	case <-h.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outcome.Value, h.outcome.Err
}

// Outcome returns the final outcome and whether the request has finished.
func (h *Handle) Outcome() (Outcome, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outcome, h.completed
}

// complete records the outcome, runs callbacks when accepted and closes done.
func (h *Handle) complete(out Outcome, accepted bool) {
	h.mu.Lock()
	h.outcome = out
	h.completed = true
	h.accepted = accepted
	callbacks := h.callbacks
	h.callbacks = nil
	h.mu.Unlock()

	if accepted {
		for _, fn := range callbacks {
			fn(out)
		}
	}
	close(h.done)
	h.cancel()
}

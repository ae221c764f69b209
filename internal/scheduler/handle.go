package scheduler

import (
	"context"
	"sync"

	"photo-catalog/internal/asset"
)

// Handle is the shared completion of one request. Every coalesced caller
// receives the same Handle and therefore the same result.
type Handle struct {
	Key        asset.Key
	Generation asset.Generation

	once sync.Once
	done chan struct{}
	data []byte
	err  error
}

func newHandle(key asset.Key, gen asset.Generation) *Handle {
	return &Handle{Key: key, Generation: gen, done: make(chan struct{})}
}

// Resolved returns a handle that is already complete, used for cache hits.
func Resolved(key asset.Key, gen asset.Generation, data []byte, err error) *Handle {
	h := newHandle(key, gen)
	h.resolve(data, err)
	return h
}

func (h *Handle) resolve(data []byte, err error) {
	h.once.Do(func() {
		h.data = data
		h.err = err
		close(h.done)
	})
}

// Done is closed once the request has a result.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Result returns the outcome. It is only meaningful after Done is closed.
func (h *Handle) Result() ([]byte, error) {
	select {
	case <-h.done:
		return h.data, h.err
	default:
		return nil, nil
	}
}

// Wait blocks until the request completes or ctx ends.
func (h *Handle) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-h.done:
		return h.data, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Package lazy holds values whose construction is deferred until first use.
//
// A Future runs its loader at most once, in the background, and every
// caller waits on the same result. It is used to keep expensive setup
// (collation tables, the operation catalog) off the daemon's startup path.
package lazy

import (
	"context"
	"sync"
)

// Future is a load-once memoized value
type Future[T any] struct {
	load  func() (T, error)
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// NewFuture returns a future that builds its value with load on first use
func NewFuture[T any](load func() (T, error)) *Future[T] {
	return &Future[T]{
		load: load,
		done: make(chan struct{}),
	}
}

// Start begins loading in the background. Safe to call many times.
func (f *Future[T]) Start() {
	f.once.Do(func() {
		go func() {
			defer close(f.done)
			f.value, f.err = f.load()
		}()
	})
}

// Get starts the load if needed and waits for it, or for ctx to be done
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	f.Start()
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Ready reports whether the value has finished loading
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Value is a synchronous load-once holder for cheap, infallible values
type Value[T any] struct {
	get func() T
}

// NewValue wraps build so it runs once, on the first Get
func NewValue[T any](build func() T) *Value[T] {
	return &Value[T]{get: sync.OnceValue(build)}
}

// Get returns the memoized value
func (v *Value[T]) Get() T { return v.get() }

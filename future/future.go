package future

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNilFuture is returned when a nil *Future is awaited or aggregated.
var ErrNilFuture = errors.New("nil future")

// ErrUnsettled is reported by a Resolver that was dropped by a channel source
// closing before it delivered a result.
var ErrUnsettled = errors.New("result channel closed before settling")

// Result represents the settled outcome of a Future.
type Result[T any] struct {
	Value T
	Err   error
}

// ResultFrom packs a (value, error) pair into a Result.
func ResultFrom[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Err: err}
}

// Future is a value that settles exactly once, either resolved or rejected.
//
// A Future is safe for concurrent use. Any number of goroutines may wait on it.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	res  Result[T]
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// settle stores r and wakes waiters. Only the first call has any effect.
func (f *Future[T]) settle(r Result[T]) bool {
	settled := false
	f.once.Do(func() {
		f.res = r
		close(f.done)
		settled = true
	})
	return settled
}

// Resolver settles the Future it was created with.
type Resolver[T any] struct {
	f *Future[T]
}

// Resolve fulfils the future with v. It reports whether this call settled it.
func (r Resolver[T]) Resolve(v T) bool {
	return r.f.settle(Result[T]{Value: v})
}

// Reject fails the future with err. It reports whether this call settled it.
func (r Resolver[T]) Reject(err error) bool {
	return r.f.settle(Result[T]{Err: err})
}

// Settle applies a (value, error) pair.
func (r Resolver[T]) Settle(v T, err error) bool {
	return r.f.settle(ResultFrom(v, err))
}

// New returns a pending Future together with the Resolver that settles it.
//
// Usage:
//
//	f, r := future.New[int]()
//	go func() { r.Resolve(42) }()
//	v, err := f.Await(ctx)
func New[T any]() (*Future[T], Resolver[T]) {
	f := newFuture[T]()
	return f, Resolver[T]{f: f}
}

// Resolved returns a Future that is already fulfilled with v.
func Resolved[T any](v T) *Future[T] {
	f := newFuture[T]()
	f.settle(Result[T]{Value: v})
	return f
}

// Rejected returns a Future that has already failed with err.
func Rejected[T any](err error) *Future[T] {
	f := newFuture[T]()
	f.settle(Result[T]{Err: err})
	return f
}

// Go runs fn on its own goroutine and settles the returned Future with its
// outcome. A panic inside fn rejects the future instead of crashing the process.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f, r := New[T]()
	go func() {
		defer func() {
			if p := recover(); p != nil {
				r.Reject(fmt.Errorf("panic in async task: %v", p))
			}
		}()
		r.Settle(fn(ctx))
	}()
	return f
}

// FromChannel adapts a result channel into a Future. The first value received
// settles it; a channel closed without a value rejects it with ErrUnsettled.
func FromChannel[T any](ch <-chan Result[T]) *Future[T] {
	f, r := New[T]()
	go func() {
		res, ok := <-ch
		if !ok {
			r.Reject(ErrUnsettled)
			return
		}
		r.Settle(res.Value, res.Err)
	}()
	return f
}

// Done returns a channel that is closed once the future has settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has settled without blocking.
func (f *Future[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Peek returns the outcome if the future has settled.
func (f *Future[T]) Peek() (Result[T], bool) {
	if !f.Settled() {
		return Result[T]{}, false
	}
	return f.res, true
}

// Await blocks until the future settles or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	if f == nil {
		var zero T
		return zero, ErrNilFuture
	}
	select {
	case <-f.done:
		return f.res.Value, f.res.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Chan delivers the outcome on a buffered channel, which is closed afterwards.
func (f *Future[T]) Chan() <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		<-f.done
		ch <- f.res
		close(ch)
	}()
	return ch
}

// Then maps a fulfilled value through fn. Rejections pass through untouched.
// When f has already settled, fn runs synchronously and the returned future
// is settled on return.
func Then[T, R any](f *Future[T], fn func(T) (R, error)) *Future[R] {
	if f == nil {
		return Rejected[R](ErrNilFuture)
	}
	out, r := New[R]()
	apply := func() {
		if f.res.Err != nil {
			r.Reject(f.res.Err)
			return
		}
		r.Settle(fn(f.res.Value))
	}
	if f.Settled() {
		apply()
		return out
	}
	go func() {
		<-f.done
		apply()
	}()
	return out
}

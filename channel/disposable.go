package channel

import (
	"context"
	"sync/atomic"

	"github.com/on-the-ground/channel_ive_go/future"
)

// subscription is one logical subscription of a channel.
//
// key is what the channel's set is keyed by: the effect itself for On, a
// private self-disposing adapter for Once. effect is always the caller's.
type subscription[T, U any] struct {
	ch       *Channel[T, U]
	key      *Effect[T, U]
	effect   *Effect[T, U]
	once     bool
	fired    atomic.Bool
	disposed atomic.Bool
}

// dispatch invokes the subscription for one emission. It reports false when
// a once subscription already fired on a racing emission.
func (s *subscription[T, U]) dispatch(ctx context.Context, args T) (*future.Future[U], bool) {
	if s.once && !s.fired.CompareAndSwap(false, true) {
		return nil, false
	}
	return s.ch.invoke(ctx, s.key, args), true
}

func (s *subscription[T, U]) dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}
	s.ch.remove(s)
}

// Disposable is the handle returned by On and Once.
type Disposable[T, U any] struct {
	sub *subscription[T, U]
}

// Effect returns the effect the caller subscribed.
func (d *Disposable[T, U]) Effect() *Effect[T, U] {
	return d.sub.effect
}

// Dispose removes the subscription from its channel. Emissions already
// dispatching are unaffected. Calling it again is a no-op.
func (d *Disposable[T, U]) Dispose() {
	d.sub.dispose()
}

// Disposed reports whether the subscription has been removed.
func (d *Disposable[T, U]) Disposed() bool {
	return d.sub.disposed.Load()
}

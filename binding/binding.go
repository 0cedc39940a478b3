package binding

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/on-the-ground/channel_ive_go/channel"
)

// Binding ties one replaceable effect to a channel for the lifetime of an
// owner (a component, a connection, a request scope...).
//
//   - The channel is either created lazily by the binding (New) or adopted
//     as-is from the caller (Adopt).
//   - Mount subscribes a single forwarding effect; Unmount disposes it.
//   - Replace swaps the function behind the forwarder without touching the
//     subscription, so the binding keeps its slot in delivery order.
type Binding[T, U any] struct {
	mu      sync.Mutex
	rt      *channel.Runtime
	name    string
	ch      *channel.Channel[T, U]
	adopted bool
	sub     *channel.Disposable[T, U]

	current atomic.Pointer[channel.EffectFunc[T, U]]
}

// New returns a binding that creates its own channel on first use.
func New[T, U any](rt *channel.Runtime, name string, fn channel.EffectFunc[T, U]) *Binding[T, U] {
	b := &Binding[T, U]{rt: rt, name: name}
	b.Replace(fn)
	return b
}

// Adopt returns a binding over an existing channel. A nil channel is allowed;
// such a binding never subscribes anything.
func Adopt[T, U any](ch *channel.Channel[T, U], fn channel.EffectFunc[T, U]) *Binding[T, U] {
	b := &Binding[T, U]{ch: ch, adopted: true}
	if ch != nil {
		b.name = ch.Name()
	}
	b.Replace(fn)
	return b
}

// Channel returns the bound channel, creating it if the binding owns it.
func (b *Binding[T, U]) Channel() *channel.Channel[T, U] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.channelLocked()
}

func (b *Binding[T, U]) channelLocked() *channel.Channel[T, U] {
	if b.ch == nil && !b.adopted {
		b.ch = channel.NewIn[T, U](b.rt, b.name)
	}
	return b.ch
}

// Owned reports whether the binding created its channel itself.
func (b *Binding[T, U]) Owned() bool {
	return !b.adopted
}

// Replace swaps the bound function. A nil fn is replaced by a no-op that
// returns the zero U.
func (b *Binding[T, U]) Replace(fn channel.EffectFunc[T, U]) {
	if fn == nil {
		fn = func(context.Context, T) (U, error) {
			var zero U
			return zero, nil
		}
	}
	b.current.Store(&fn)
}

// Mount subscribes the forwarding effect. It is a no-op when already mounted
// and reports false when there is no channel to subscribe to.
func (b *Binding[T, U]) Mount() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := b.channelLocked()
	if ch == nil {
		return false
	}
	if b.sub != nil && !b.sub.Disposed() {
		return true
	}
	b.sub = ch.OnFunc(b.forward)
	return true
}

// Unmount disposes the forwarding effect. Calling it again is a no-op.
func (b *Binding[T, U]) Unmount() {
	b.mu.Lock()
	sub := b.sub
	b.sub = nil
	b.mu.Unlock()

	if sub != nil {
		sub.Dispose()
	}
}

// Mounted reports whether the forwarding effect is currently subscribed.
func (b *Binding[T, U]) Mounted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sub != nil && !b.sub.Disposed()
}

func (b *Binding[T, U]) forward(ctx context.Context, args T) (U, error) {
	return (*b.current.Load())(ctx, args)
}

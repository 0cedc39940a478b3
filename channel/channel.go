package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/on-the-ground/channel_ive_go/future"
	"github.com/on-the-ground/channel_ive_go/shared/helper"
	"github.com/on-the-ground/channel_ive_go/shared/orderedset"
	"go.uber.org/zap"
)

var (
	// ErrEffectPanic wraps the value recovered from a panicking effect.
	ErrEffectPanic = errors.New("effect panicked")

	// ErrHookContract is returned when an EmitWrapper breaks its contract.
	ErrHookContract = errors.New("emit wrapper broke its contract")
)

// Emitter is anything that can be called to emit an event.
type Emitter[T, U any] interface {
	Emit(ctx context.Context, args T) *future.Future[[]U]
}

var _ Emitter[Void, any] = (*Channel[Void, any])(nil)

// Channel couples one call site to any number of effects.
//
// Calling Emit runs every subscribed effect with the same arguments, in
// subscription order, and returns a future of their results in that order.
// Effects may subscribe or dispose at any time, including from inside an
// emission; an emission only ever dispatches to the effects subscribed when
// it started.
//
// T is the argument shape (Void, a single value, a struct standing in for a
// tuple, or a slice for variadic use). U is the result of one effect.
type Channel[T, U any] struct {
	name   string
	logger *zap.Logger

	mu   sync.Mutex
	subs *orderedset.OrderedSet[*Effect[T, U], *subscription[T, U]]

	emit func(ctx context.Context, args T) *future.Future[[]U]
}

// New creates a channel on the default Runtime. The name is a diagnostic
// label and may be empty. Initial effects are subscribed in order, as if by On.
func New[T, U any](name string, effects ...*Effect[T, U]) *Channel[T, U] {
	return NewIn(Default(), name, effects...)
}

// NewIn creates a channel on an explicit Runtime.
func NewIn[T, U any](rt *Runtime, name string, effects ...*Effect[T, U]) *Channel[T, U] {
	if rt == nil {
		rt = Default()
	}
	c := &Channel[T, U]{
		name:   name,
		logger: rt.logger.With(zap.String("channel", name)),
		subs:   orderedset.New[*Effect[T, U], *subscription[T, U]](),
	}
	c.emit = c.dispatch
	if rt.emitWrapper != nil {
		c.emit = restoreEmit[T, U](rt.emitWrapper(name, eraseEmit(c.dispatch)))
	}
	for _, e := range effects {
		if e != nil {
			c.On(e)
		}
	}
	return c
}

// Name returns the label given at construction.
func (c *Channel[T, U]) Name() string {
	return c.name
}

// Emit runs every effect subscribed at the time of the call and returns a
// future of their results in subscription order.
//
// Effects run synchronously on the calling goroutine. The future rejects with
// the first failure (a returned error, a recovered panic or a rejected
// future) but only after every snapshotted effect has been invoked.
// With no subscribers the future is already resolved to an empty slice.
func (c *Channel[T, U]) Emit(ctx context.Context, args T) *future.Future[[]U] {
	return c.emit(ctx, args)
}

// EmitSettled dispatches like Emit but resolves to every effect's outcome
// once all have settled, and never rejects. It bypasses the emit wrapper.
func (c *Channel[T, U]) EmitSettled(ctx context.Context, args T) *future.Future[[]future.Result[U]] {
	return future.AllSettled(c.run(ctx, args))
}

// On subscribes effect until the returned handle is disposed.
// Subscribing an effect that is already active returns a handle to the
// existing subscription.
func (c *Channel[T, U]) On(effect *Effect[T, U]) *Disposable[T, U] {
	if effect == nil {
		panic("channel: nil effect")
	}
	sub := &subscription[T, U]{ch: c, key: effect, effect: effect}
	return &Disposable[T, U]{sub: c.add(sub)}
}

// OnFunc subscribes a new effect built from fn.
func (c *Channel[T, U]) OnFunc(fn EffectFunc[T, U]) *Disposable[T, U] {
	return c.On(NewEffect(fn))
}

// OnAsync subscribes a new effect built from an async fn.
func (c *Channel[T, U]) OnAsync(fn AsyncEffectFunc[T, U]) *Disposable[T, U] {
	return c.On(NewAsyncEffect(fn))
}

// Once subscribes effect for the next emission only.
//
// The subscription disposes itself right before the effect runs, so the
// effect is invoked at most once over the channel's lifetime, even when
// emissions race on several goroutines. The handle's Effect is the one
// passed in here.
func (c *Channel[T, U]) Once(effect *Effect[T, U]) *Disposable[T, U] {
	if effect == nil {
		panic("channel: nil effect")
	}
	sub := &subscription[T, U]{ch: c, effect: effect, once: true}
	sub.key = newEffect(func(ctx context.Context, args T) *future.Future[U] {
		sub.dispose()
		return c.invoke(ctx, effect, args)
	})
	return &Disposable[T, U]{sub: c.add(sub)}
}

// OnceFunc subscribes fn for the next emission only.
func (c *Channel[T, U]) OnceFunc(fn EffectFunc[T, U]) *Disposable[T, U] {
	return c.Once(NewEffect(fn))
}

// OnceAsync subscribes an async fn for the next emission only.
func (c *Channel[T, U]) OnceAsync(fn AsyncEffectFunc[T, U]) *Disposable[T, U] {
	return c.Once(NewAsyncEffect(fn))
}

// Effects returns the subscribed effects in delivery order. Once
// subscriptions are reported with the effect their caller passed in.
func (c *Channel[T, U]) Effects() []*Effect[T, U] {
	c.mu.Lock()
	snapshot := c.subs.Snapshot()
	c.mu.Unlock()

	effects := make([]*Effect[T, U], len(snapshot))
	for i, sub := range snapshot {
		effects[i] = sub.effect
	}
	return effects
}

// Len returns the number of active subscriptions.
func (c *Channel[T, U]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs.Len()
}

func (c *Channel[T, U]) add(sub *subscription[T, U]) *subscription[T, U] {
	c.mu.Lock()
	if existing, ok := c.subs.Get(sub.key); ok {
		if !existing.disposed.Load() {
			c.mu.Unlock()
			return existing
		}
		// disposed concurrently but not yet removed
		c.subs.Delete(sub.key)
	}
	c.subs.Add(sub.key, sub)
	c.mu.Unlock()

	c.logger.Debug("effect subscribed",
		zap.String("effectId", sub.effect.ID()),
		zap.Bool("once", sub.once),
	)
	return sub
}

func (c *Channel[T, U]) remove(sub *subscription[T, U]) {
	c.mu.Lock()
	removed := c.subs.DeleteFunc(sub.key, func(stored *subscription[T, U]) bool {
		return stored == sub
	})
	c.mu.Unlock()

	if removed {
		c.logger.Debug("effect disposed", zap.String("effectId", sub.effect.ID()))
	}
}

// dispatch is the raw emission that the emit wrapper sees.
func (c *Channel[T, U]) dispatch(ctx context.Context, args T) *future.Future[[]U] {
	return future.All(c.run(ctx, args))
}

// run snapshots the subscriptions and invokes them in order. The lock is
// released before any effect runs so effects may subscribe or dispose.
func (c *Channel[T, U]) run(ctx context.Context, args T) []*future.Future[U] {
	c.mu.Lock()
	snapshot := c.subs.Snapshot()
	c.mu.Unlock()

	results := make([]*future.Future[U], 0, len(snapshot))
	for _, sub := range snapshot {
		if f, ok := sub.dispatch(ctx, args); ok {
			results = append(results, f)
		}
	}
	return results
}

// invoke calls one effect, turning panics and nil futures into rejections.
func (c *Channel[T, U]) invoke(ctx context.Context, effect *Effect[T, U], args T) (f *future.Future[U]) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic in effect",
				zap.String("effectId", effect.ID()),
				zap.Any("error", r),
			)
			f = future.Rejected[U](fmt.Errorf("%w: %v", ErrEffectPanic, r))
		}
	}()

	f = effect.call(ctx, args)
	if f == nil {
		f = future.Rejected[U](future.ErrNilFuture)
	}
	return f
}

func eraseEmit[T, U any](emit func(context.Context, T) *future.Future[[]U]) RawEmit {
	return func(ctx context.Context, args any) *future.Future[[]any] {
		typed, err := helper.GetTypedValueOf[T](func() (any, error) { return args, nil })
		if err != nil {
			return future.Rejected[[]any](fmt.Errorf("%w: %w", ErrHookContract, err))
		}
		return future.Then(emit(ctx, typed), func(vs []U) ([]any, error) {
			return helper.EraseSlice(vs), nil
		})
	}
}

func restoreEmit[T, U any](raw RawEmit) func(context.Context, T) *future.Future[[]U] {
	return func(ctx context.Context, args T) *future.Future[[]U] {
		out := raw(ctx, args)
		if out == nil {
			return future.Rejected[[]U](fmt.Errorf("%w: %w", ErrHookContract, future.ErrNilFuture))
		}
		return future.Then(out, func(vs []any) ([]U, error) {
			typed, err := helper.CastSlice[U](vs)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrHookContract, err)
			}
			return typed, nil
		})
	}
}

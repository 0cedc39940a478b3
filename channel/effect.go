package channel

import (
	"context"

	"github.com/google/uuid"
	"github.com/on-the-ground/channel_ive_go/future"
)

// Void is the argument shape of a channel emitted without arguments.
type Void = struct{}

// EffectFunc is a synchronous effect. A non-nil error fails the emission.
type EffectFunc[T, U any] func(ctx context.Context, args T) (U, error)

// AsyncEffectFunc is an effect whose result settles later.
type AsyncEffectFunc[T, U any] func(ctx context.Context, args T) *future.Future[U]

// Effect is a subscriber function with pointer identity.
//
// Go functions are not comparable, so a channel de-duplicates subscriptions
// by *Effect: subscribing the same *Effect twice yields one delivery per
// emission, while two Effects built from the same function are distinct.
type Effect[T, U any] struct {
	id   string
	call AsyncEffectFunc[T, U]
}

// NewEffect wraps a synchronous function.
func NewEffect[T, U any](fn EffectFunc[T, U]) *Effect[T, U] {
	if fn == nil {
		panic("channel: nil effect func")
	}
	return newEffect(func(ctx context.Context, args T) *future.Future[U] {
		v, err := fn(ctx, args)
		if err != nil {
			return future.Rejected[U](err)
		}
		return future.Resolved(v)
	})
}

// NewAsyncEffect wraps a function returning a Future.
func NewAsyncEffect[T, U any](fn AsyncEffectFunc[T, U]) *Effect[T, U] {
	if fn == nil {
		panic("channel: nil effect func")
	}
	return newEffect(fn)
}

func newEffect[T, U any](call AsyncEffectFunc[T, U]) *Effect[T, U] {
	return &Effect[T, U]{
		id:   uuid.New().String(),
		call: call,
	}
}

// ID is a unique identifier used in logs.
func (e *Effect[T, U]) ID() string {
	return e.id
}

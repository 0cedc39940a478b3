// Package instrument provides emit wrappers for channel runtimes.
//
// Wrappers are installed with channel.WithEmitWrapper and see every emission
// of every channel created on that runtime:
//
//	rec := instrument.NewRecorder()
//	rt := channel.NewRuntime(channel.WithEmitWrapper(instrument.Chain(
//	    instrument.Logging(logger),
//	    rec.Wrap(),
//	)))
package instrument

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/on-the-ground/channel_ive_go/channel"
	"github.com/on-the-ground/channel_ive_go/future"
	"go.uber.org/zap"
)

// Chain composes wrappers. The first wrapper is the outermost one.
func Chain(wrappers ...channel.EmitWrapper) channel.EmitWrapper {
	return func(name string, next channel.RawEmit) channel.RawEmit {
		for i := len(wrappers) - 1; i >= 0; i-- {
			if wrappers[i] != nil {
				next = wrappers[i](name, next)
			}
		}
		return next
	}
}

// Logging logs every emission: dispatch at debug, settlement at info,
// rejection at error. Each emission carries a fresh emissionId.
func Logging(logger *zap.Logger) channel.EmitWrapper {
	return func(name string, next channel.RawEmit) channel.RawEmit {
		chLogger := logger.With(zap.String("channel", name))
		return func(ctx context.Context, args any) *future.Future[[]any] {
			l := chLogger.With(zap.String("emissionId", uuid.New().String()))
			start := time.Now()
			l.Debug("emission dispatched", zap.Any("args", args))

			out := next(ctx, args)
			observe(out, func(res future.Result[[]any]) {
				elapsed := time.Since(start)
				if res.Err != nil {
					l.Error("emission failed", zap.Duration("elapsed", elapsed), zap.Error(res.Err))
					return
				}
				l.Info("emission settled", zap.Duration("elapsed", elapsed), zap.Int("results", len(res.Value)))
			})
			return out
		}
	}
}

// observe calls fn with f's outcome, synchronously if f has already settled.
func observe[T any](f *future.Future[T], fn func(future.Result[T])) {
	if f == nil {
		return
	}
	if res, ok := f.Peek(); ok {
		fn(res)
		return
	}
	go func() {
		<-f.Done()
		res, _ := f.Peek()
		fn(res)
	}()
}

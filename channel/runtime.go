package channel

import (
	"context"
	"sync/atomic"

	"github.com/on-the-ground/channel_ive_go/future"
	"go.uber.org/zap"
)

// RawEmit is the emission function of one channel with its argument and
// result types erased. It is what an EmitWrapper receives and returns.
type RawEmit func(ctx context.Context, args any) *future.Future[[]any]

// EmitWrapper intercepts the emission function of every channel built by a
// Runtime. It is applied once per channel, at construction, and receives the
// channel name for labelling.
//
// A wrapper must call next (or an equivalent) and return a future holding
// exactly the values next produced, in order. Results of the wrong type make
// the emission fail with ErrHookContract.
type EmitWrapper func(name string, next RawEmit) RawEmit

// Runtime carries the process-wide extension points of channels: the emit
// wrapper and the logger. Channels capture their runtime at construction.
type Runtime struct {
	logger      *zap.Logger
	emitWrapper EmitWrapper
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used for subscription and failure diagnostics.
// Default is zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithEmitWrapper installs a hook applied to the emission function of every
// channel created afterwards. A nil wrapper means identity.
func WithEmitWrapper(wrapper EmitWrapper) Option {
	return func(rt *Runtime) {
		rt.emitWrapper = wrapper
	}
}

// NewRuntime creates a Runtime with the given options.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *zap.Logger {
	return rt.logger
}

var defaultRuntime atomic.Pointer[Runtime]

// Default returns the process-wide Runtime used by New.
func Default() *Runtime {
	if rt := defaultRuntime.Load(); rt != nil {
		return rt
	}
	defaultRuntime.CompareAndSwap(nil, NewRuntime())
	return defaultRuntime.Load()
}

// Configure replaces the process-wide Runtime. Channels already created keep
// the runtime they were built with. The returned function restores the
// previous runtime, which keeps tests from leaking hooks into each other.
//
// Usage:
//
//	restore := channel.Configure(channel.WithEmitWrapper(instrument.Logging(logger)))
//	defer restore()
func Configure(opts ...Option) (restore func()) {
	prev := defaultRuntime.Swap(NewRuntime(opts...))
	return func() {
		defaultRuntime.Store(prev)
	}
}

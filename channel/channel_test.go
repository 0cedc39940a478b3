package channel_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/on-the-ground/channel_ive_go/channel"
	"github.com/on-the-ground/channel_ive_go/future"
	"github.com/on-the-ground/channel_ive_go/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func await[T any](t *testing.T, f *future.Future[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := f.Await(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("timed out waiting for emission")
	}
	return v, err
}

func constant(v int) channel.EffectFunc[channel.Void, int] {
	return func(context.Context, channel.Void) (int, error) {
		return v, nil
	}
}

// recorder counts calls and keeps the arguments each call received.
type recorder[T any] struct {
	mu    sync.Mutex
	calls []T
}

func (r *recorder[T]) effect() *channel.Effect[T, int] {
	return channel.NewEffect(func(_ context.Context, args T) (int, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, args)
		return len(r.calls), nil
	})
}

func (r *recorder[T]) snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.calls...)
}

func TestChannel_Name(t *testing.T) {
	assert.Equal(t, "x", channel.New[channel.Void, int]("x").Name())
	assert.Equal(t, "", channel.New[channel.Void, int]("").Name())
}

func TestChannel_InitialEffects(t *testing.T) {
	ch := channel.New("seeded",
		channel.NewEffect(constant(1)),
		channel.NewEffect(constant(2)),
	)
	require.Equal(t, 2, ch.Len())

	got, err := await(t, ch.Emit(context.Background(), channel.Void{}))
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, got)
}

type pair struct{ A, B int }

func TestChannel_PassesArgumentsToEveryEffect(t *testing.T) {
	ctx := context.Background()
	ch := channel.New[pair, int]("pairs")
	r1, r2 := &recorder[pair]{}, &recorder[pair]{}
	ch.On(r1.effect())
	ch.On(r2.effect())

	ch.Emit(ctx, pair{1, 2})
	ch.Emit(ctx, pair{3, 4})

	want := []pair{{1, 2}, {3, 4}}
	require.Equal(t, want, r1.snapshot())
	require.Equal(t, want, r2.snapshot())
}

func TestChannel_VariadicAndVoidShapes(t *testing.T) {
	ctx := context.Background()

	sum := channel.New[[]int, int]("sum")
	sum.OnFunc(func(_ context.Context, xs []int) (int, error) {
		total := 0
		for _, x := range xs {
			total += x
		}
		return total, nil
	})
	got, err := await(t, sum.Emit(ctx, []int{1, 2, 3}))
	require.NoError(t, err)
	require.Equal(t, []int{6}, got)

	ticks := channel.New[channel.Void, int]("ticks")
	r := &recorder[channel.Void]{}
	ticks.On(r.effect())
	ticks.Emit(ctx, channel.Void{})
	ticks.Emit(ctx, channel.Void{})
	require.Len(t, r.snapshot(), 2)
}

func TestChannel_EmptyResolvesImmediately(t *testing.T) {
	ch := channel.New[channel.Void, int]("empty")
	f := ch.Emit(context.Background(), channel.Void{})

	res, ok := f.Peek()
	require.True(t, ok, "emission without effects must be settled on return")
	require.NoError(t, res.Err)
	require.NotNil(t, res.Value)
	require.Empty(t, res.Value)
}

func TestChannel_ResultsFollowSubscriptionOrder(t *testing.T) {
	ch := channel.New[channel.Void, int]("ordered")
	for i := 1; i <= 5; i++ {
		ch.OnFunc(constant(i))
	}

	got, err := await(t, ch.Emit(context.Background(), channel.Void{}))
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestChannel_AsyncResultsAreAggregated(t *testing.T) {
	ch := channel.New[channel.Void, int]("async")
	var resolvers []future.Resolver[int]
	pending := func(context.Context, channel.Void) *future.Future[int] {
		f, r := future.New[int]()
		resolvers = append(resolvers, r)
		return f
	}
	ch.OnAsync(pending)
	ch.OnAsync(pending)

	result := ch.Emit(context.Background(), channel.Void{})
	time.Sleep(10 * time.Millisecond)
	require.False(t, result.Settled())

	// settle in reverse to prove positions, not completion order, decide
	resolvers[1].Resolve(2)
	time.Sleep(10 * time.Millisecond)
	require.False(t, result.Settled())
	resolvers[0].Resolve(1)

	got, err := await(t, result)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, got)
}

func TestChannel_MixedSyncAndAsyncOrder(t *testing.T) {
	ch := channel.New[int, int]("mixed")
	ch.OnAsync(func(ctx context.Context, n int) *future.Future[int] {
		return future.Go(ctx, func(context.Context) (int, error) {
			time.Sleep(20 * time.Millisecond)
			return n * 10, nil
		})
	})
	ch.OnFunc(func(_ context.Context, n int) (int, error) { return n, nil })

	got, err := await(t, ch.Emit(context.Background(), 3))
	require.NoError(t, err)
	require.Equal(t, []int{30, 3}, got)
}

func TestChannel_SameEffectIsSubscribedOnce(t *testing.T) {
	ch := channel.New[channel.Void, int]("dedup")
	r := &recorder[channel.Void]{}
	e := r.effect()

	h1 := ch.On(e)
	h2 := ch.On(e)
	require.Equal(t, 1, ch.Len())

	ch.Emit(context.Background(), channel.Void{})
	require.Len(t, r.snapshot(), 1)

	h2.Dispose()
	require.True(t, h1.Disposed(), "both handles refer to one logical subscription")
	require.Equal(t, 0, ch.Len())
}

func TestChannel_DisposeIsIdempotent(t *testing.T) {
	ch := channel.New[channel.Void, int]("idempotent")
	keep := ch.OnFunc(constant(1))
	sub := ch.OnFunc(constant(2))

	sub.Dispose()
	sub.Dispose()

	require.True(t, sub.Disposed())
	require.False(t, keep.Disposed())
	got, err := await(t, ch.Emit(context.Background(), channel.Void{}))
	require.NoError(t, err)
	require.Equal(t, []int{1}, got)
}

func TestChannel_StaleHandleDoesNotRemoveResubscription(t *testing.T) {
	ch := channel.New[channel.Void, int]("resubscribe")
	e := channel.NewEffect(constant(1))

	old := ch.On(e)
	old.Dispose()
	fresh := ch.On(e)
	old.Dispose()

	require.False(t, fresh.Disposed())
	require.Equal(t, []*channel.Effect[channel.Void, int]{e}, ch.Effects())
}

func TestChannel_SelfRemovalDuringEmit(t *testing.T) {
	ctx := context.Background()
	ch := channel.New[channel.Void, int]("self-removal")

	var sub *channel.Disposable[channel.Void, int]
	selfCalls := 0
	sub = ch.OnFunc(func(context.Context, channel.Void) (int, error) {
		selfCalls++
		sub.Dispose()
		return 0, nil
	})
	r := &recorder[channel.Void]{}
	ch.On(r.effect())

	got, err := await(t, ch.Emit(ctx, channel.Void{}))
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, got)

	got, err = await(t, ch.Emit(ctx, channel.Void{}))
	require.NoError(t, err)
	require.Equal(t, []int{2}, got)
	require.Equal(t, 1, selfCalls)
	require.Len(t, r.snapshot(), 2)
}

func TestChannel_DisposingAnotherEffectMidEmitOnlyAffectsLaterEmits(t *testing.T) {
	ctx := context.Background()
	ch := channel.New[channel.Void, int]("dispose-other")

	var second *channel.Disposable[channel.Void, int]
	ch.OnFunc(func(context.Context, channel.Void) (int, error) {
		if second != nil {
			second.Dispose()
		}
		return 1, nil
	})
	second = ch.OnFunc(constant(2))

	got, err := await(t, ch.Emit(ctx, channel.Void{}))
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, got, "snapshot taken before the removal")

	got, err = await(t, ch.Emit(ctx, channel.Void{}))
	require.NoError(t, err)
	require.Equal(t, []int{1}, got)
}

func TestChannel_SubscribingMidEmitOnlyAffectsLaterEmits(t *testing.T) {
	ctx := context.Background()
	ch := channel.New[channel.Void, int]("subscribe-mid-emit")
	added := false
	ch.OnFunc(func(context.Context, channel.Void) (int, error) {
		if !added {
			added = true
			ch.OnFunc(constant(2))
		}
		return 1, nil
	})

	got, err := await(t, ch.Emit(ctx, channel.Void{}))
	require.NoError(t, err)
	require.Equal(t, []int{1}, got)

	got, err = await(t, ch.Emit(ctx, channel.Void{}))
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, got)
}

func TestChannel_Once(t *testing.T) {
	ctx := context.Background()
	ch := channel.New[channel.Void, int]("once")
	r := &recorder[channel.Void]{}
	e := r.effect()

	sub := ch.Once(e)
	require.Same(t, e, sub.Effect())
	require.Equal(t, []*channel.Effect[channel.Void, int]{e}, ch.Effects())

	got, err := await(t, ch.Emit(ctx, channel.Void{}))
	require.NoError(t, err)
	require.Equal(t, []int{1}, got)

	got, err = await(t, ch.Emit(ctx, channel.Void{}))
	require.NoError(t, err)
	require.Empty(t, got)

	require.Len(t, r.snapshot(), 1)
	require.True(t, sub.Disposed())
	require.Equal(t, 0, ch.Len())
}

func TestChannel_OnceRecordsPendingResult(t *testing.T) {
	ch := channel.New[channel.Void, string]("once-async")
	f, r := future.New[string]()
	ch.OnceAsync(func(context.Context, channel.Void) *future.Future[string] {
		return f
	})

	result := ch.Emit(context.Background(), channel.Void{})
	require.False(t, result.Settled())
	r.Resolve("done")

	got, err := await(t, result)
	require.NoError(t, err)
	require.Equal(t, []string{"done"}, got)
}

func TestChannel_OnceDisposedBeforeEmitNeverFires(t *testing.T) {
	ch := channel.New[channel.Void, int]("once-disposed")
	r := &recorder[channel.Void]{}
	sub := ch.Once(r.effect())
	sub.Dispose()
	sub.Dispose()

	ch.Emit(context.Background(), channel.Void{})
	require.Empty(t, r.snapshot())
}

func TestChannel_OnceFiresOnceUnderConcurrentEmits(t *testing.T) {
	ch := channel.New[channel.Void, int]("once-concurrent")
	var calls atomic.Int32
	ch.OnceFunc(func(context.Context, channel.Void) (int, error) {
		calls.Add(1)
		return 0, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch.Emit(context.Background(), channel.Void{})
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
}

func TestChannel_ReplacingAnEffectBetweenEmits(t *testing.T) {
	ctx := context.Background()
	ch := channel.New[channel.Void, string]("replace")
	ch.OnFunc(func(context.Context, channel.Void) (string, error) { return "head", nil })
	old := ch.OnFunc(func(context.Context, channel.Void) (string, error) { return "old", nil })

	got, err := await(t, ch.Emit(ctx, channel.Void{}))
	require.NoError(t, err)
	require.Equal(t, []string{"head", "old"}, got)

	old.Dispose()
	ch.OnFunc(func(context.Context, channel.Void) (string, error) { return "new", nil })

	got, err = await(t, ch.Emit(ctx, channel.Void{}))
	require.NoError(t, err)
	require.Equal(t, []string{"head", "new"}, got)
}

func TestChannel_FailureAfterAllEffectsRan(t *testing.T) {
	ch := channel.New[channel.Void, int]("failing")
	boom := errors.New("boom")
	ch.OnFunc(func(context.Context, channel.Void) (int, error) { return 0, boom })
	later := &recorder[channel.Void]{}
	ch.On(later.effect())

	_, err := await(t, ch.Emit(context.Background(), channel.Void{}))
	require.ErrorIs(t, err, boom)
	require.Len(t, later.snapshot(), 1, "effects after a failure are still invoked")
}

func TestChannel_FirstFailureWins(t *testing.T) {
	ch := channel.New[channel.Void, int]("first-failure")
	first, second := errors.New("first"), errors.New("second")
	ch.OnFunc(constant(1))
	ch.OnFunc(func(context.Context, channel.Void) (int, error) { return 0, first })
	ch.OnFunc(func(context.Context, channel.Void) (int, error) { return 0, second })

	_, err := await(t, ch.Emit(context.Background(), channel.Void{}))
	require.ErrorIs(t, err, first)
}

func TestChannel_PanickingEffectRejects(t *testing.T) {
	rt := channel.NewRuntime(channel.WithLogger(log.NewTest()))
	ch := channel.NewIn[channel.Void, int](rt, "panicking")
	ch.OnFunc(func(context.Context, channel.Void) (int, error) { panic("kaboom") })
	after := &recorder[channel.Void]{}
	ch.On(after.effect())

	_, err := await(t, ch.Emit(context.Background(), channel.Void{}))
	require.ErrorIs(t, err, channel.ErrEffectPanic)
	require.Contains(t, err.Error(), "kaboom")
	require.Len(t, after.snapshot(), 1)
}

func TestChannel_AsyncRejection(t *testing.T) {
	ch := channel.New[channel.Void, int]("async-reject")
	boom := errors.New("boom")
	ch.OnFunc(constant(1))
	pending, r := future.New[int]()
	ch.OnAsync(func(context.Context, channel.Void) *future.Future[int] { return pending })
	ch.OnAsync(func(context.Context, channel.Void) *future.Future[int] { return nil })

	result := ch.Emit(context.Background(), channel.Void{})
	r.Reject(boom)
	_, err := await(t, result)
	require.Error(t, err)
	// the nil future is already settled when dispatch ends, so it wins
	require.ErrorIs(t, err, future.ErrNilFuture)

	late := channel.New[channel.Void, int]("async-reject-late")
	late.OnFunc(constant(1))
	late.OnAsync(func(ctx context.Context, _ channel.Void) *future.Future[int] {
		return future.Go(ctx, func(context.Context) (int, error) {
			time.Sleep(10 * time.Millisecond)
			return 0, boom
		})
	})
	_, err = await(t, late.Emit(context.Background(), channel.Void{}))
	require.ErrorIs(t, err, boom)
}

func TestChannel_EmitSettled(t *testing.T) {
	ch := channel.New[channel.Void, int]("settled")
	boom := errors.New("boom")
	ch.OnFunc(constant(1))
	ch.OnFunc(func(context.Context, channel.Void) (int, error) { return 0, boom })

	results, err := await(t, ch.EmitSettled(context.Background(), channel.Void{}))
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, 1, results[0].Value)
	require.ErrorIs(t, future.Errors(results), boom)
}

func TestChannel_EmitIsCallable(t *testing.T) {
	ch := channel.New[int, int]("callable")
	ch.OnFunc(func(_ context.Context, n int) (int, error) { return n + 1, nil })

	var emit func(context.Context, int) *future.Future[[]int] = ch.Emit
	var emitter channel.Emitter[int, int] = ch

	a, err := await(t, emit(context.Background(), 1))
	require.NoError(t, err)
	b, err := await(t, emitter.Emit(context.Background(), 1))
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestChannel_NilEffectPanics(t *testing.T) {
	ch := channel.New[channel.Void, int]("nil")
	require.Panics(t, func() { ch.On(nil) })
	require.Panics(t, func() { ch.Once(nil) })
	require.Panics(t, func() { channel.NewEffect[channel.Void, int](nil) })
}

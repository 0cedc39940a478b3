// Package channel provides a callable publish/subscribe primitive.
//
// A Channel decouples one call site from any number of effects. Emitting
// runs every subscribed effect with the same arguments and aggregates their
// results, synchronous or not, into a single future.
//
// # Subscriptions
//
// On subscribes until the returned handle is disposed; Once subscribes for
// the next emission only. Handles are idempotent: disposing twice is the same
// as disposing once. Subscribing the same *Effect twice is one subscription.
//
// # Emission
//
// Emit snapshots the subscriptions, invokes them in order on the calling
// goroutine and returns a future of their results in that order. Effects may
// subscribe or dispose while an emission is running; changes only apply to
// later emissions. A failing effect fails the whole emission, after the
// remaining effects have still been invoked.
//
// # Instrumentation
//
// Every channel passes its emission function through its Runtime's
// EmitWrapper once, at construction. Configure swaps the process-wide runtime
// used by New; NewIn takes one explicitly.
//
// Example:
//
//	saved := channel.New[string, int]("saved")
//	sub := saved.OnFunc(func(ctx context.Context, path string) (int, error) {
//	    return len(path), nil
//	})
//	defer sub.Dispose()
//
//	lens, err := saved.Emit(ctx, "/tmp/a").Await(ctx) // [6]
package channel

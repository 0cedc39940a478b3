// Package binding attaches a replaceable effect to a channel for the
// lifetime of an owner.
//
// It is the glue a host framework needs to wire a user-supplied callback
// into a channel: create the channel once and reuse it, or adopt one passed
// in; subscribe on mount; swap the callback on every re-render without
// losing its position among the other subscribers; dispose on unmount.
//
// Example:
//
//	b := binding.New(rt, "clicks", onClick)
//	b.Mount()
//	defer b.Unmount()
//
//	b.Replace(onClickV2) // same slot, new behaviour
//	b.Channel().Emit(ctx, click)
package binding

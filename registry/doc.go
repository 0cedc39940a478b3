// Package registry keeps named channels so that unrelated call sites can
// meet on the same channel by name.
//
// Usage:
//
//	reg := registry.New[Order, error](rt, registry.NewConfig(8))
//	created, _ := reg.GetOrCreate("order.created")
//	created.OnFunc(sendReceipt)
package registry

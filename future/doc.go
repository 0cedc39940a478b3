// Package future provides single-assignment deferred results.
//
// A Future is the Go stand-in for "a value that may not be ready yet". It is
// settled exactly once, either with a value or with an error, and can be
// awaited by any number of goroutines, inspected without blocking, mapped
// with Then, or aggregated with All and AllSettled.
//
// Example:
//
//	a, ra := future.New[int]()
//	b, rb := future.New[int]()
//	all := future.All([]*future.Future[int]{a, b})
//
//	ra.Resolve(1)
//	rb.Resolve(2)
//	vals, _ := all.Await(ctx) // [1 2]
package future

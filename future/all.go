package future

import (
	"go.uber.org/multierr"
)

// All aggregates futures into one that resolves to their values in positional
// order once every future has fulfilled.
//
// It rejects with the first failure: failures already settled when All is
// called win in positional order, otherwise the first one to settle wins.
// An empty input resolves immediately to an empty, non-nil slice.
func All[T any](futures []*Future[T]) *Future[[]T] {
	values := make([]T, len(futures))
	if len(futures) == 0 {
		return Resolved(values)
	}

	var waiting []int
	for i, f := range futures {
		if f == nil {
			return Rejected[[]T](ErrNilFuture)
		}
		res, ok := f.Peek()
		if !ok {
			waiting = append(waiting, i)
			continue
		}
		if res.Err != nil {
			return Rejected[[]T](res.Err)
		}
		values[i] = res.Value
	}
	if len(waiting) == 0 {
		return Resolved(values)
	}

	// every index left pending by the scan gets a watcher, even if it has
	// settled since
	out, r := New[[]T]()
	settledIdx := make(chan int, len(waiting))
	for _, i := range waiting {
		go func(i int) {
			<-futures[i].done
			settledIdx <- i
		}(i)
	}
	go func() {
		for range waiting {
			i := <-settledIdx
			res := futures[i].res
			if res.Err != nil {
				r.Reject(res.Err)
				return
			}
			values[i] = res.Value
		}
		r.Resolve(values)
	}()
	return out
}

// AllSettled waits for every future and resolves to their outcomes in
// positional order. It never rejects.
func AllSettled[T any](futures []*Future[T]) *Future[[]Result[T]] {
	results := make([]Result[T], len(futures))
	waiting := make([]int, 0, len(futures))
	for i, f := range futures {
		if f == nil {
			results[i] = Result[T]{Err: ErrNilFuture}
			continue
		}
		if res, ok := f.Peek(); ok {
			results[i] = res
			continue
		}
		waiting = append(waiting, i)
	}
	if len(waiting) == 0 {
		return Resolved(results)
	}

	out, r := New[[]Result[T]]()
	go func() {
		for _, i := range waiting {
			<-futures[i].done
			results[i] = futures[i].res
		}
		r.Resolve(results)
	}()
	return out
}

// Errors combines every failure in results into a single error, or nil.
func Errors[T any](results []Result[T]) error {
	var err error
	for _, res := range results {
		err = multierr.Append(err, res.Err)
	}
	return err
}

package helper

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrUnexpectedType is wrapped by every failed type assertion in this package.
var ErrUnexpectedType = errors.New("unexpected type")

// GetTypedValueOf safely asserts the result of a getter function to the expected type T.
// Returns an error if type assertion fails.
func GetTypedValueOf[T any](getFn func() (any, error)) (T, error) {
	var zero T

	res, err := getFn()
	if err != nil {
		return zero, fmt.Errorf("failed to get value: %w", err)
	}

	// a nil interface is the erased form of a nil pointer, slice or map;
	// for any other T it is a type mismatch
	if res == nil {
		if nillable[T]() {
			return zero, nil
		}
		return zero, fmt.Errorf("%w: <nil> for %s", ErrUnexpectedType, reflect.TypeFor[T]())
	}

	val, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T", ErrUnexpectedType, res)
	}

	return val, nil
}

func nillable[T any]() bool {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan,
		reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

// CastSlice asserts every element of raw to T, keeping positions.
func CastSlice[T any](raw []any) ([]T, error) {
	out := make([]T, len(raw))
	for i, v := range raw {
		typed, err := GetTypedValueOf[T](func() (any, error) { return v, nil })
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = typed
	}
	return out, nil
}

// EraseSlice is the inverse of CastSlice.
func EraseSlice[T any](typed []T) []any {
	out := make([]any, len(typed))
	for i, v := range typed {
		out[i] = v
	}
	return out
}

// Package foundation provides generic utilities for type-safe operations.
package foundation

// Result carries either a value or the error that prevented producing it.
//
// Resolution code uses it at call sites where a failure is tolerated: the
// caller decides with Recover what value replaces a failed attempt and how
// the failure is reported.
type Result[T any] struct {
	value T
	err   error
}

// Ok creates a successful Result with the given value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err creates a failed Result. A nil error is replaced by ErrNilFailure so
// that Err never yields a Result that reports success.
func Err[T any](err error) Result[T] {
	if err == nil {
		err = ErrNilFailure
	}
	return Result[T]{err: err}
}

// Attempt runs fn and captures its (value, error) pair as a Result.
func Attempt[T any](fn func() (T, error)) Result[T] {
	value, err := fn()
	if err != nil {
		return Err[T](err)
	}
	return Ok(value)
}

// Err returns the failure, or nil for a successful Result.
func (r Result[T]) Err() error {
	return r.err
}

// Recover returns the value if Ok. Otherwise it hands the failure to record
// (when non-nil) and returns fallback.
func (r Result[T]) Recover(fallback T, record func(error)) T {
	if r.err == nil {
		return r.value
	}
	if record != nil {
		record(r.err)
	}
	return fallback
}

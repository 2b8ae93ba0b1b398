package protocol

import "fmt"

// BroadcastLengthError reports a per-trial parameter list whose length does
// not match the trial count.
type BroadcastLengthError struct {
	Param string
	Len   int
	Want  int
}

func (e *BroadcastLengthError) Error() string {
	return fmt.Sprintf("parameter %s has %d values, want %d trials", e.Param, e.Len, e.Want)
}

// Param is a per-trial parameter: either one scalar broadcast to every
// trial, or an explicit value per trial.
type Param[T any] struct {
	scalar   T
	list     []T
	perTrial bool
}

// Scalar broadcasts a single value to every trial.
func Scalar[T any](v T) Param[T] {
	return Param[T]{scalar: v}
}

// PerTrial supplies one value per trial; the length must match the trial
// count when the plan is resolved.
func PerTrial[T any](vs []T) Param[T] {
	return Param[T]{list: vs, perTrial: true}
}

// IsPerTrial reports whether the parameter carries an explicit list.
func (p Param[T]) IsPerTrial() bool { return p.perTrial }

// Len returns the explicit list length, or 0 for a scalar.
func (p Param[T]) Len() int {
	if !p.perTrial {
		return 0
	}
	return len(p.list)
}

// resolve expands the parameter to n values, or fails with a
// *BroadcastLengthError.
func (p Param[T]) resolve(name string, n int) ([]T, error) {
	if p.perTrial {
		if len(p.list) != n {
			return nil, &BroadcastLengthError{Param: name, Len: len(p.list), Want: n}
		}
		return p.list, nil
	}
	out := make([]T, n)
	for i := range out {
		out[i] = p.scalar
	}
	return out, nil
}

package fetcher

// Status is the outcome of a single pipeline phase.
type Status int

const (
	// StatusOK means the phase produced data.
	StatusOK Status = iota
	// StatusEmpty means the phase ran cleanly but found nothing usable.
	StatusEmpty
	// StatusFailed means a transport or parse error cut the phase short.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result carries a phase's value together with how it was obtained.
// Value is always usable: failed phases return empty (non-nil) collections.
type Result[T any] struct {
	Value  T
	Status Status
	Err    error
}

// OK wraps a successful value.
func OK[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusOK}
}

// Empty wraps a value from a phase that found nothing.
func Empty[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusEmpty}
}

// Failed wraps a fallback value and the error that caused it.
func Failed[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Status: StatusFailed, Err: err}
}

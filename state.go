package reactive

// AsyncStatus identifies the phase of an AsyncState machine.
type AsyncStatus string

const (
	// StatusInitial is the state before any load has been attempted.
	StatusInitial AsyncStatus = "initial"
	// StatusLoading is the state while an init or reload is in flight.
	StatusLoading AsyncStatus = "loading"
	// StatusSuccess is the only state that carries data.
	StatusSuccess AsyncStatus = "success"
	// StatusError carries the failure and its captured stack.
	StatusError AsyncStatus = "error"
	// StatusEmpty is the external reset state, set on disposal.
	StatusEmpty AsyncStatus = "empty"
)

// AsyncState is the immutable payload of an AsyncController. States are
// replaced wholesale, never mutated in place.
type AsyncState[T any] struct {
	status AsyncStatus
	data   T
	err    error
	stack  []byte
}

// Initial returns the state before any load has been attempted.
func Initial[T any]() AsyncState[T] {
	return AsyncState[T]{status: StatusInitial}
}

// Loading returns the in-flight state.
func Loading[T any]() AsyncState[T] {
	return AsyncState[T]{status: StatusLoading}
}

// Success returns a state carrying data.
func Success[T any](data T) AsyncState[T] {
	return AsyncState[T]{status: StatusSuccess, data: data}
}

// Failure returns an error state carrying err and an optional captured
// stack trace.
func Failure[T any](err error, stack []byte) AsyncState[T] {
	return AsyncState[T]{status: StatusError, err: err, stack: stack}
}

// Empty returns the reset sentinel state.
func Empty[T any]() AsyncState[T] {
	return AsyncState[T]{status: StatusEmpty}
}

// Status returns the current phase.
func (s AsyncState[T]) Status() AsyncStatus { return s.status }

func (s AsyncState[T]) IsInitial() bool { return s.status == StatusInitial }
func (s AsyncState[T]) IsLoading() bool { return s.status == StatusLoading }
func (s AsyncState[T]) IsSuccess() bool { return s.status == StatusSuccess }
func (s AsyncState[T]) IsError() bool   { return s.status == StatusError }
func (s AsyncState[T]) IsEmpty() bool   { return s.status == StatusEmpty }

// Data returns the payload when the state is Success. In Error state it
// returns the stored error itself, so call sites using get-or-fail code see
// the original failure. Any other state yields a NoDataError.
func (s AsyncState[T]) Data() (T, error) {
	switch s.status {
	case StatusSuccess:
		return s.data, nil
	case StatusError:
		var zero T
		return zero, s.err
	default:
		var zero T
		return zero, &NoDataError{Status: s.status}
	}
}

// DataOrZero returns the payload when present, the zero value otherwise.
func (s AsyncState[T]) DataOrZero() T {
	return s.data
}

// Err returns the captured error in Error state, nil otherwise.
func (s AsyncState[T]) Err() error {
	if s.status != StatusError {
		return nil
	}
	return s.err
}

// Stack returns the stack trace captured alongside the error, if any.
func (s AsyncState[T]) Stack() []byte {
	return s.stack
}

// Package execerror propagates contract violations of the execution engine as
// panics and turns them back into errors at fragment boundaries.
package execerror

import (
	"runtime"

	"github.com/cockroachdb/errors"
)

// internalError marks panics raised by InternalError so CatchInternalError
// can tell them apart from unrelated panics.
type internalError struct {
	cause error
}

func (e *internalError) Error() string { return e.cause.Error() }
func (e *internalError) Unwrap() error { return e.cause }

// InternalError panics with err. Errors that are not already assertion
// failures are promoted to one.
func InternalError(err error) {
	if !errors.HasAssertionFailure(err) {
		err = errors.WithAssertionFailure(err)
	}
	panic(&internalError{cause: err})
}

// CatchInternalError runs operation and returns the error of any panic
// raised through InternalError. Runtime errors (nil dereference, index out
// of range) are returned as assertion failures. Any other panic is
// propagated.
func CatchInternalError(operation func()) (retErr error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err, ok := r.(error)
		if !ok {
			panic(r)
		}
		var ie *internalError
		if errors.As(err, &ie) {
			retErr = ie.cause
			return
		}
		if errors.HasInterface(err, (*runtime.Error)(nil)) {
			retErr = errors.HandleAsAssertionFailure(err)
			return
		}
		panic(r)
	}()
	operation()
	return nil
}

package types

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

type ValidationError struct {
	Problems []ErrWithCtx
}

type ErrWithCtx struct {
	Error   string
	Context string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0].Error
	}
	return fmt.Sprintf("validation failed with %d problems", len(e.Problems))
}

func (e *ValidationError) Add(err string, context string) {
	e.Problems = append(e.Problems, ErrWithCtx{
		Error:   err,
		Context: context,
	})
}

func (e *ValidationError) Extend(other error) {
	var otherErr *ValidationError
	if errors.As(other, &otherErr) {
		e.Problems = append(e.Problems, otherErr.Problems...)
		return
	}
	e.Add(other.Error(), "")
}

func (e *ValidationError) HasProblems() bool {
	return len(e.Problems) > 0
}

// OrNil lets callers return the accumulated problems without a typed-nil error.
func (e *ValidationError) OrNil() error {
	if !e.HasProblems() {
		return nil
	}
	return e
}

func NewVErr(err string, context string) error {
	return &ValidationError{
		Problems: []ErrWithCtx{
			{
				Error:   err,
				Context: context,
			},
		},
	}
}

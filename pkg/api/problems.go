package api

import (
	"github.com/cockroachdb/errors"

	"vexec/pkg/engine/types"
)

// ToProblems flattens validation errors into one problem each; any other
// error becomes a single problem.
func ToProblems(err error) MultipleProblemsError {
	if err == nil {
		return MultipleProblemsError{Problems: []MultipleProblemsErrorProblemsInner{}}
	}
	var ve *types.ValidationError
	if errors.As(err, &ve) {
		problems := make([]MultipleProblemsErrorProblemsInner, 0, len(ve.Problems))
		for _, p := range ve.Problems {
			problems = append(problems, MultipleProblemsErrorProblemsInner{Error: p.Error, Context: p.Context})
		}
		return MultipleProblemsError{Problems: problems}
	}
	return NewProblem(err.Error())
}

package lead

import (
	"errors"
	"sort"
	"strings"
)

// ErrInvalidSubmission is matched by every ValidationError.
var ErrInvalidSubmission = errors.New("invalid submission")

// ValidationError maps a form field to its problems.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) add(field, problem string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], problem)
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+strings.Join(e.Fields[name], ", "))
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrInvalidSubmission) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidSubmission
}

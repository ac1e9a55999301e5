package booking

import (
	"errors"
	"sort"
	"strings"
)

// ErrInvalidBooking is matched by every ValidationError.
var ErrInvalidBooking = errors.New("invalid booking")

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
	for n := range e.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString("invalid booking:")
	for _, n := range names {
		b.WriteString(" " + n + " " + strings.Join(e.Fields[n], ", ") + ";")
	}
	return strings.TrimSuffix(b.String(), ";")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidBooking }

package ml

import "fmt"

// ValidationError marks input that falls outside the trained vocabulary.
// It is the caller's signal to answer with a client error instead of a
// prediction.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("value %q in column %s is incorrect", e.Value, e.Field)
}

package dispatcher

import "fmt"

// ValidationError represents a fatal job validation error. Jobs that
// fail validation never retry and skip the DLQ.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

package router

import "fmt"

// FailoverExhaustedError is returned when every candidate region was tried
// or skipped without a successful response. It is the only error callers of
// Execute need to handle.
type FailoverExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *FailoverExhaustedError) Error() string {
	if e.LastErr == nil {
		return fmt.Sprintf("failover exhausted after %d attempts", e.Attempts)
	}
	return fmt.Sprintf("failover exhausted after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *FailoverExhaustedError) Unwrap() error {
	return e.LastErr
}

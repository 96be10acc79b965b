package ai

import "fmt"

// StatusError is a non-2xx answer from a vendor. Body carries the vendor's
// error text.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http %d: %s", e.Provider, e.StatusCode, e.Body)
}

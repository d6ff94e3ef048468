package service

import "fmt"

// FetchError reports a failed dogs or rescues read
// Err carries the underlying cause; no partial result accompanies it
type FetchError struct {
	Resource string // "dogs" or "rescues"
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

package planner

import "fmt"

// SearchError reports a failed search-provider call (transport, auth or
// quota). The round that triggered it is rolled back; no retry happens
// inside the planner.
type SearchError struct {
	Op  string
	Err error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %s: %v", e.Op, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// GenerationError reports a text-generator call that failed or returned
// unusable output.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

package model

import (
	"errors"
	"fmt"
)

// Error kinds shared by extractors, parsers and providers. Callers match
// them with errors.Is; concrete errors wrap one of these.
var (
	// ErrInvalidResponse means a fetch returned a non-success result.
	ErrInvalidResponse = errors.New("received an invalid response")
	// ErrInvalidData means a payload could not be read as the expected format.
	ErrInvalidData = errors.New("received invalid calendar data")
	// ErrParsingFailed means text was available but yielded too few month starts.
	ErrParsingFailed = errors.New("could not parse calendar data")
)

// ResponseError records a non-success HTTP status.
type ResponseError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrInvalidResponse, e.Status, e.URL)
}

// Unwrap lets errors.Is match ErrInvalidResponse.
func (e *ResponseError) Unwrap() error {
	return ErrInvalidResponse
}

package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTourNotFound is returned when no package matches the requested id.
var ErrTourNotFound = errors.New("tour package not found")

// ErrDetailsNotFound is returned when the payment return page can rebuild
// the outcome neither from redirect query parameters nor from transient
// storage. Terminal for that navigation; the user is directed to support.
var ErrDetailsNotFound = errors.New("booking details not found")

// ValidationError reports required booking fields that were missing or
// empty after trimming. Recoverable: the user corrects and resubmits.
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.MissingFields, ", "))
}

// BookingRejectedError means the booking backend declined the submission.
// The server-supplied message is surfaced verbatim when available.
type BookingRejectedError struct {
	Message string
}

func (e *BookingRejectedError) Error() string {
	if e.Message == "" {
		return "booking was rejected"
	}
	return e.Message
}

// BackendUnreachableError means no response was received from the booking
// backend. Recoverable: the user is advised to check connectivity and retry.
type BackendUnreachableError struct {
	Err error
}

func (e *BackendUnreachableError) Error() string {
	return fmt.Sprintf("booking backend unreachable: %v", e.Err)
}

func (e *BackendUnreachableError) Unwrap() error {
	return e.Err
}

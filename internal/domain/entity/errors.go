package entity

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies capability failures
type ErrorKind string

const (
	ErrMissingIdentifier    ErrorKind = "MissingIdentifier"
	ErrInvalidDate          ErrorKind = "InvalidDate"
	ErrNotFound             ErrorKind = "NotFound"
	ErrAlreadyInTargetState ErrorKind = "AlreadyInTargetState"
	ErrUpstreamUnavailable  ErrorKind = "UpstreamUnavailable"
	ErrMalformedGeneration  ErrorKind = "MalformedGeneration"
)

// Field names used by MissingIdentifier errors
const (
	FieldPNR           = "pnr"
	FieldCustomerName  = "customer_name"
	FieldFromCity      = "from_city"
	FieldToCity        = "to_city"
	FieldTravelDate    = "travel_date"
	FieldFlightID      = "flight_id"
	FieldFlightOrRoute = "flight_or_route"
	FieldQuestion      = "question"
)

// CapabilityError is the single error type returned across a capability boundary
type CapabilityError struct {
	Kind    ErrorKind
	Field   string
	Message string
	Err     error
}

func (e *CapabilityError) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Field != "" && e.Message == "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// Is matches another CapabilityError of the same kind
func (e *CapabilityError) Is(target error) bool {
	var t *CapabilityError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Field == "" || t.Field == e.Field)
}

func NewMissingIdentifier(field string) *CapabilityError {
	return &CapabilityError{Kind: ErrMissingIdentifier, Field: field}
}

func NewInvalidDate(msg string) *CapabilityError {
	return &CapabilityError{Kind: ErrInvalidDate, Field: FieldTravelDate, Message: msg}
}

func NewNotFound(msg string) *CapabilityError {
	return &CapabilityError{Kind: ErrNotFound, Message: msg}
}

func NewAlreadyInTargetState(msg string) *CapabilityError {
	return &CapabilityError{Kind: ErrAlreadyInTargetState, Message: msg}
}

func NewUpstreamUnavailable(op string, err error) *CapabilityError {
	return &CapabilityError{Kind: ErrUpstreamUnavailable, Message: op, Err: err}
}

func NewMalformedGeneration(msg string) *CapabilityError {
	return &CapabilityError{Kind: ErrMalformedGeneration, Message: msg}
}

// AsCapabilityError unwraps err into a CapabilityError when it carries one
func AsCapabilityError(err error) (*CapabilityError, bool) {
	var ce *CapabilityError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Classify converts any error into a CapabilityError. Foreign errors, timeouts and
// cancellations all become UpstreamUnavailable.
func Classify(op string, err error) *CapabilityError {
	if err == nil {
		return nil
	}
	if ce, ok := AsCapabilityError(err); ok {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewUpstreamUnavailable(op+" timed out", err)
	}
	return NewUpstreamUnavailable(op, err)
}

// KindOf returns the error kind of err, or an empty kind for nil
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return Classify("", err).Kind
}

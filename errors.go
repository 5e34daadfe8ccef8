package ics

import (
	"errors"
)

var (
	ErrStartAndEndDateNotDefined = errors.New("start time and end time not defined")
	// ErrorPropertyNotFound is the error returned if the requested valid
	// property is not set.
	ErrorPropertyNotFound = errors.New("property not found")

	// ErrInvalidMoment is returned when a DATE/DATE-TIME value does not match
	// the RFC 5545 section 3.3.4/3.3.5 grammar.
	ErrInvalidMoment = errors.New("invalid moment")
	// ErrInvalidDuration is returned when a DURATION value does not match the
	// RFC 5545 section 3.3.6 grammar.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidRRule is returned when an RRULE value fails to parse or
	// violates one of the combination rules in section 3.3.10.
	ErrInvalidRRule = errors.New("invalid rrule")
	// ErrConfiguration is returned by NewConfig when an option holds a value
	// the engine cannot act on.
	ErrConfiguration = errors.New("invalid configuration")
)

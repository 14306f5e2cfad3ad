package sensor

import "errors"

// Domain-specific errors for the sensor controller.
var (
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("sensor: controller already started")

	// ErrMalformedMessage indicates an inbound payload that could not be
	// decoded. It is logged and discarded, never propagated further.
	ErrMalformedMessage = errors.New("sensor: malformed message")
)

// Package sensor provides the ADC and accelerometer capabilities consumed by
// the sample tick handler.
//
// Both capabilities are fire-and-forget from the caller's point of view:
// Trigger and Step return immediately, and conversions complete in the
// background. Latest always returns the most recent completed value.
package sensor

// ADC is an analog channel with an asynchronous conversion.
type ADC interface {
	// Trigger requests a new conversion. Never blocks.
	Trigger()

	// Latest returns the most recently completed conversion.
	Latest() uint16
}

// Accelerometer is a three-axis accelerometer read through a non-blocking
// state machine.
type Accelerometer interface {
	// Step advances the read state machine by one step. Never blocks.
	Step()

	// Latest returns the most recently completed X, Y, Z reading.
	Latest() (x, y, z int16)
}

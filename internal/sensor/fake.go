package sensor

import "sync/atomic"

// FakeADC is a test double with a settable value and a trigger counter.
type FakeADC struct {
	Value    atomic.Uint32
	Triggers atomic.Int64
}

// Trigger counts the request.
func (f *FakeADC) Trigger() {
	f.Triggers.Add(1)
}

// Latest returns Value.
func (f *FakeADC) Latest() uint16 {
	return uint16(f.Value.Load())
}

// FakeAccelerometer is a test double with settable axes and a step counter.
type FakeAccelerometer struct {
	X, Y, Z atomic.Int32
	Steps   atomic.Int64
}

// Step counts the call.
func (f *FakeAccelerometer) Step() {
	f.Steps.Add(1)
}

// Latest returns the configured axes.
func (f *FakeAccelerometer) Latest() (x, y, z int16) {
	return int16(f.X.Load()), int16(f.Y.Load()), int16(f.Z.Load())
}

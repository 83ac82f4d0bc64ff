package sensor

import (
	"context"
	"sync/atomic"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/adxl345"
)

// accelState is the position of the ADXL345 read state machine.
type accelState uint32

const (
	accelIdle    accelState = iota // no read in flight
	accelPending                   // read requested, worker busy
)

// ADXL345 reads an ADXL345 accelerometer over I2C. The bus transaction runs
// on a worker goroutine; Step only moves requests and results across.
type ADXL345 struct {
	dev     adxl345.Device
	state   atomic.Uint32
	done    atomic.Bool
	request chan struct{}

	x, y, z    atomic.Int32 // published values
	rx, ry, rz int16        // worker-owned result of the last read
}

// NewADXL345 configures an ADXL345 at its default address on bus.
func NewADXL345(bus drivers.I2C) *ADXL345 {
	a := &ADXL345{
		dev:     adxl345.New(bus),
		request: make(chan struct{}, 1),
	}
	a.dev.Configure()
	a.dev.SetRate(adxl345.RATE_100HZ)
	a.dev.SetRange(adxl345.RANGE_2G)
	return a
}

// Step advances the state machine: an idle machine issues a read, a pending
// machine publishes the result once the worker has finished.
func (a *ADXL345) Step() {
	switch accelState(a.state.Load()) {
	case accelIdle:
		select {
		case a.request <- struct{}{}:
			a.state.Store(uint32(accelPending))
		default:
		}
	case accelPending:
		if !a.done.Load() {
			return
		}
		a.done.Store(false)
		a.x.Store(int32(a.rx))
		a.y.Store(int32(a.ry))
		a.z.Store(int32(a.rz))
		a.state.Store(uint32(accelIdle))
	}
}

// Latest returns the last published reading.
func (a *ADXL345) Latest() (x, y, z int16) {
	return int16(a.x.Load()), int16(a.y.Load()), int16(a.z.Load())
}

// Run performs requested reads until ctx is cancelled.
func (a *ADXL345) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.request:
			a.rx, a.ry, a.rz = a.dev.ReadRawAcceleration()
			a.done.Store(true)
		}
	}
}

package sensor

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
)

// DefaultIIOPath is the raw value file of the first channel of the first
// Industrial I/O device.
const DefaultIIOPath = "/sys/bus/iio/devices/iio:device0/in_voltage0_raw"

// IIOADC reads an analog channel through the Linux IIO sysfs interface.
// Conversions run on a worker goroutine started by Run.
type IIOADC struct {
	path    string
	trigger chan struct{}
	latest  atomic.Uint32
	errors  atomic.Uint64
}

// NewIIOADC creates an ADC reading the given sysfs raw value file.
func NewIIOADC(path string) *IIOADC {
	return &IIOADC{
		path:    path,
		trigger: make(chan struct{}, 1),
	}
}

// Trigger requests a conversion. If one is already pending the request is
// coalesced.
func (a *IIOADC) Trigger() {
	select {
	case a.trigger <- struct{}{}:
	default:
	}
}

// Latest returns the last successful conversion.
func (a *IIOADC) Latest() uint16 {
	return uint16(a.latest.Load())
}

// Errors returns the number of failed conversions.
func (a *IIOADC) Errors() uint64 {
	return a.errors.Load()
}

// Run services conversion requests until ctx is cancelled.
func (a *IIOADC) Run(ctx context.Context) {
	var lastErr string
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.trigger:
			v, err := a.convert()
			if err != nil {
				a.errors.Add(1)
				if msg := err.Error(); msg != lastErr {
					log.Printf("adc: %v", err)
					lastErr = msg
				}
				continue
			}
			lastErr = ""
			a.latest.Store(uint32(v))
		}
	}
}

func (a *IIOADC) convert() (uint16, error) {
	raw, err := os.ReadFile(a.path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", a.path, err)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", a.path, err)
	}
	return uint16(v), nil
}

package logger

import (
	"errors"

	"github.com/sweeney/ev-logger/internal/metrics"
	"github.com/sweeney/ev-logger/internal/ringbuf"
	"github.com/sweeney/ev-logger/internal/sample"
	"github.com/sweeney/ev-logger/internal/sensor"
)

// DefaultAccelDivider is the number of ticks per accelerometer step.
const DefaultAccelDivider = 100

// Producer captures one sample per tick into the ring buffer.
// Tick must only be called from one goroutine at a time.
type Producer struct {
	session *Session
	ring    *ringbuf.Ring
	adc     sensor.ADC
	accel   sensor.Accelerometer
	metrics *metrics.Metrics

	accelDiv int
	ticks    int
	buf      [sample.Size]byte
}

// NewProducer creates a Producer. accelDiv <= 0 uses DefaultAccelDivider.
// m may be nil.
func NewProducer(s *Session, ring *ringbuf.Ring, adc sensor.ADC, accel sensor.Accelerometer, accelDiv int, m *metrics.Metrics) *Producer {
	if accelDiv <= 0 {
		accelDiv = DefaultAccelDivider
	}
	return &Producer{
		session:  s,
		ring:     ring,
		adc:      adc,
		accel:    accel,
		metrics:  m,
		accelDiv: accelDiv,
	}
}

// Tick records the latest sensor values while a file is open, then kicks off
// the next ADC conversion and, every accelDiv ticks, one accelerometer step.
// It never blocks.
func (p *Producer) Tick() {
	if p.session.FileOpen() {
		x, y, z := p.accel.Latest()
		s := sample.Sample{ADC: p.adc.Latest(), AccelX: x, AccelY: y, AccelZ: z}
		s.Encode(p.buf[:])

		err := p.ring.Write(p.buf[:])
		if p.metrics != nil {
			switch {
			case err == nil:
				p.metrics.SamplesTotal.Inc()
			case errors.Is(err, ringbuf.ErrOverflow):
				p.metrics.SamplesDropped.Inc()
			}
		}
	}

	p.adc.Trigger()

	p.ticks++
	if p.ticks >= p.accelDiv {
		p.ticks = 0
		p.accel.Step()
	}
}

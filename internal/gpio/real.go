//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealButtons reads button presses from actual hardware using the Linux GPIO
// character device. Buttons pull the line low when pressed.
type RealButtons struct {
	chip      string
	pinToggle int
	pinStop   int
	lines     *gpiocdev.Lines
}

// NewRealButtons describes the two button lines. Nothing is requested until
// Watch.
func NewRealButtons(pinToggle, pinStop int) *RealButtons {
	return &RealButtons{chip: "gpiochip0", pinToggle: pinToggle, pinStop: pinStop}
}

// Watch requests both lines with falling-edge detection. gpiocdev delivers
// events for one request on a single goroutine, so handler calls never overlap.
func (b *RealButtons) Watch(handler func(Button)) error {
	lines, err := gpiocdev.RequestLines(b.chip, []int{b.pinToggle, b.pinStop},
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			switch evt.Offset {
			case b.pinToggle:
				handler(ButtonToggle)
			case b.pinStop:
				handler(ButtonStop)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("request button pins %d,%d: %w", b.pinToggle, b.pinStop, err)
	}
	b.lines = lines
	return nil
}

// Close releases the lines, returning them to inputs with pull-down to match
// Pi boot defaults.
func (b *RealButtons) Close() error {
	if b.lines == nil {
		return nil
	}
	var errs []error
	if err := b.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure button pins: %w", err))
	}
	if err := b.lines.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close button pins: %w", err))
	}
	b.lines = nil
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealLED drives an LED on an output line.
type RealLED struct {
	line *gpiocdev.Line
}

// NewRealLED requests pin as an output, initially off.
func NewRealLED(pin int) (*RealLED, error) {
	line, err := gpiocdev.RequestLine("gpiochip0", pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request LED pin %d: %w", pin, err)
	}
	return &RealLED{line: line}, nil
}

// Set drives the LED.
func (l *RealLED) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	return l.line.SetValue(v)
}

// Close turns the LED off and releases the line.
func (l *RealLED) Close() error {
	var errs []error
	if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure LED pin: %w", err))
	}
	if err := l.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close LED pin: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

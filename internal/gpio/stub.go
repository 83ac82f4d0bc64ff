//go:build !linux

package gpio

import "errors"

// RealButtons is not available on non-Linux platforms.
type RealButtons struct{}

// NewRealButtons returns buttons that cannot be watched.
func NewRealButtons(pinToggle, pinStop int) *RealButtons {
	return &RealButtons{}
}

// Watch is not implemented on non-Linux platforms.
func (b *RealButtons) Watch(handler func(Button)) error {
	return errors.New("gpio: not supported on this platform (requires Linux)")
}

// Close is not implemented on non-Linux platforms.
func (b *RealButtons) Close() error {
	return nil
}

// RealLED is not available on non-Linux platforms.
type RealLED struct{}

// NewRealLED returns an error on non-Linux platforms.
func NewRealLED(pin int) (*RealLED, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Set is not implemented on non-Linux platforms.
func (l *RealLED) Set(on bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (l *RealLED) Close() error {
	return nil
}

// Package gpio provides button edge events and the activity LED with hardware
// abstraction. The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Button identifies one of the two logging buttons.
type Button int

const (
	ButtonToggle Button = iota // S1: start/stop
	ButtonStop                 // S2: second start/stop input
)

func (b Button) String() string {
	switch b {
	case ButtonToggle:
		return "S1"
	case ButtonStop:
		return "S2"
	}
	return "unknown"
}

// Buttons delivers debounce-free press edges.
type Buttons interface {
	// Watch starts delivering presses to handler. The handler runs on a
	// single event goroutine and must not block.
	Watch(handler func(Button)) error

	// Close releases GPIO resources.
	Close() error
}

// LED is a single output line.
type LED interface {
	Set(on bool) error
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinToggle = 17
	DefaultPinStop   = 27
	DefaultPinLED    = 22
)

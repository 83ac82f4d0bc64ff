package gpio

import (
	"errors"
	"sync"
)

// FakeButtons is a test double whose presses are injected with Press.
type FakeButtons struct {
	mu      sync.Mutex
	handler func(Button)

	// WatchError, if set, will be returned by Watch()
	WatchError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeButtons creates FakeButtons.
func NewFakeButtons() *FakeButtons {
	return &FakeButtons{}
}

// Watch records the handler.
func (f *FakeButtons) Watch(handler func(Button)) error {
	if f.WatchError != nil {
		return f.WatchError
	}
	f.mu.Lock()
	f.handler = handler
	f.mu.Unlock()
	return nil
}

// Press delivers a press synchronously, like a single event goroutine would.
func (f *FakeButtons) Press(b Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handler == nil {
		return errors.New("no handler registered")
	}
	f.handler(b)
	return nil
}

// Close marks the buttons as closed.
func (f *FakeButtons) Close() error {
	f.Closed = true
	return nil
}

// FakeLED records every state it is set to.
type FakeLED struct {
	mu     sync.Mutex
	States []bool
	Closed bool
}

// Set records the state.
func (f *FakeLED) Set(on bool) error {
	f.mu.Lock()
	f.States = append(f.States, on)
	f.mu.Unlock()
	return nil
}

// On reports the last state set.
func (f *FakeLED) On() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.States) > 0 && f.States[len(f.States)-1]
}

// Close marks the LED as closed.
func (f *FakeLED) Close() error {
	f.Closed = true
	return nil
}

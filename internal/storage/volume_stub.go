//go:build !linux

package storage

import "errors"

// LinuxVolume is not available on non-Linux platforms.
type LinuxVolume struct{}

// NewLinuxVolume returns a volume whose operations all fail.
func NewLinuxVolume(device, mountPoint, fsType string) *LinuxVolume {
	return &LinuxVolume{}
}

// Detect always reports the medium as present so Mount can report the error.
func (v *LinuxVolume) Detect() bool { return true }

// Mount is not implemented on non-Linux platforms.
func (v *LinuxVolume) Mount() error {
	return errors.New("storage: not supported on this platform (requires Linux)")
}

// Open is not implemented on non-Linux platforms.
func (v *LinuxVolume) Open(name string) (File, error) { return nil, ErrNotMounted }

// FreeSpace is not implemented on non-Linux platforms.
func (v *LinuxVolume) FreeSpace() (uint64, uint64, error) { return 0, 0, ErrNotMounted }

// Unmount is not implemented on non-Linux platforms.
func (v *LinuxVolume) Unmount() error { return nil }

//go:build linux

package sensor

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// i2cSlave is the i2c-dev ioctl selecting the target address.
const i2cSlave = 0x0703

// LinuxI2C is a drivers.I2C bus backed by a Linux i2c-dev node.
type LinuxI2C struct {
	mu   sync.Mutex
	fd   int
	addr uint16
	set  bool
}

// OpenI2C opens an i2c-dev node such as /dev/i2c-1.
func OpenI2C(dev string) (*LinuxI2C, error) {
	fd, err := unix.Open(dev, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dev, err)
	}
	return &LinuxI2C{fd: fd}, nil
}

// Tx writes w then reads len(r) bytes from the device at addr.
func (b *LinuxI2C) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.set || b.addr != addr {
		if err := unix.IoctlSetInt(b.fd, i2cSlave, int(addr)); err != nil {
			return fmt.Errorf("i2c select 0x%02x: %w", addr, err)
		}
		b.addr = addr
		b.set = true
	}
	if len(w) > 0 {
		n, err := unix.Write(b.fd, w)
		if err != nil {
			return fmt.Errorf("i2c write 0x%02x: %w", addr, err)
		}
		if n != len(w) {
			return fmt.Errorf("i2c write 0x%02x: short write %d/%d", addr, n, len(w))
		}
	}
	if len(r) > 0 {
		n, err := unix.Read(b.fd, r)
		if err != nil {
			return fmt.Errorf("i2c read 0x%02x: %w", addr, err)
		}
		if n != len(r) {
			return fmt.Errorf("i2c read 0x%02x: short read %d/%d", addr, n, len(r))
		}
	}
	return nil
}

// Close releases the device node.
func (b *LinuxI2C) Close() error {
	return unix.Close(b.fd)
}

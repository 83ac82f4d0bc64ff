//go:build linux

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// LinuxVolume mounts a block device at a mount point. With an empty Device it
// expects the mount point to be managed externally and only checks that it is
// reachable.
type LinuxVolume struct {
	Device     string // e.g. /dev/sda1; empty = externally mounted
	MountPoint string // e.g. /mnt/evlog
	FSType     string // e.g. vfat

	mounted bool
	owned   bool // we performed the mount and should undo it
}

// NewLinuxVolume creates a volume description. Nothing is touched until Mount.
func NewLinuxVolume(device, mountPoint, fsType string) *LinuxVolume {
	return &LinuxVolume{Device: device, MountPoint: mountPoint, FSType: fsType}
}

// Detect reports whether the device node (or the mount point) exists.
func (v *LinuxVolume) Detect() bool {
	target := v.Device
	if target == "" {
		target = v.MountPoint
	}
	_, err := os.Stat(target)
	return err == nil
}

// Mount mounts the device. A device that is already mounted there is accepted.
func (v *LinuxVolume) Mount() error {
	if v.mounted {
		return nil
	}
	if v.Device == "" {
		var st unix.Statfs_t
		if err := unix.Statfs(v.MountPoint, &st); err != nil {
			return fmt.Errorf("statfs %s: %w", v.MountPoint, err)
		}
		v.mounted = true
		return nil
	}

	if err := os.MkdirAll(v.MountPoint, 0o755); err != nil {
		return fmt.Errorf("create mount point: %w", err)
	}
	err := unix.Mount(v.Device, v.MountPoint, v.FSType, unix.MS_NOATIME|unix.MS_NODEV|unix.MS_NOSUID, "")
	if err != nil && !errors.Is(err, unix.EBUSY) {
		return fmt.Errorf("mount %s on %s: %w", v.Device, v.MountPoint, err)
	}
	v.mounted = true
	v.owned = err == nil
	return nil
}

// Open opens name under the mount point for appending.
func (v *LinuxVolume) Open(name string) (File, error) {
	if !v.mounted {
		return nil, ErrNotMounted
	}
	f, err := os.OpenFile(filepath.Join(v.MountPoint, name), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return &osFile{f: f}, nil
}

// FreeSpace reports filesystem capacity from statfs.
func (v *LinuxVolume) FreeSpace() (uint64, uint64, error) {
	if !v.mounted {
		return 0, 0, ErrNotMounted
	}
	var st unix.Statfs_t
	if err := unix.Statfs(v.MountPoint, &st); err != nil {
		return 0, 0, fmt.Errorf("statfs %s: %w", v.MountPoint, err)
	}
	bsize := uint64(st.Bsize)
	return st.Blocks * bsize, st.Bavail * bsize, nil
}

// Unmount undoes a mount performed by Mount.
func (v *LinuxVolume) Unmount() error {
	if !v.mounted {
		return nil
	}
	v.mounted = false
	if !v.owned {
		return nil
	}
	v.owned = false
	if err := unix.Unmount(v.MountPoint, 0); err != nil {
		return fmt.Errorf("unmount %s: %w", v.MountPoint, err)
	}
	return nil
}

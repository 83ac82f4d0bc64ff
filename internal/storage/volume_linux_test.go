//go:build linux

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLinuxVolumeExternalMount(t *testing.T) {
	dir := t.TempDir()
	v := NewLinuxVolume("", dir, "")

	if !v.Detect() {
		t.Fatal("Detect should find the mount point")
	}
	if _, err := v.Open("data.log"); !errors.Is(err, ErrNotMounted) {
		t.Errorf("Open before Mount: got %v, want ErrNotMounted", err)
	}
	if err := v.Mount(); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	total, free, err := v.FreeSpace()
	if err != nil {
		t.Fatalf("FreeSpace: %v", err)
	}
	if total == 0 || free > total {
		t.Errorf("FreeSpace: total=%d free=%d", total, free)
	}

	f, err := v.Open("data.log")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	f.Write([]byte("abc"))
	if err := f.Sync(); err != nil {
		t.Errorf("Sync: %v", err)
	}
	if size, _ := f.Size(); size != 3 {
		t.Errorf("Size: got %d, want 3", size)
	}
	f.Close()

	// Reopening appends.
	f, _ = v.Open("data.log")
	f.Write([]byte("def"))
	f.Close()
	got, _ := os.ReadFile(filepath.Join(dir, "data.log"))
	if string(got) != "abcdef" {
		t.Errorf("file contents: got %q, want %q", got, "abcdef")
	}

	if err := v.Unmount(); err != nil {
		t.Errorf("Unmount of external mount: %v", err)
	}
}

func TestLinuxVolumeMissingMountPoint(t *testing.T) {
	v := NewLinuxVolume("", filepath.Join(t.TempDir(), "absent"), "")
	if v.Detect() {
		t.Error("Detect should fail for a missing mount point")
	}
	if err := v.Mount(); err == nil {
		t.Error("Mount should fail for a missing mount point")
	}
}

package storage

import (
	"bytes"
	"sync"
)

// FakeVolume is a test double whose operations return scripted errors.
// Each call to Mount/Open consumes the next scripted error; once the script is
// exhausted the call succeeds.
type FakeVolume struct {
	mu sync.Mutex

	// Present controls Detect. DetectAfter, if > 0, makes Detect return false
	// for that many calls first.
	Present     bool
	DetectAfter int

	MountErrs []error
	OpenErrs  []error

	// Total and Free are returned by FreeSpace.
	Total, Free uint64
	FreeErr     error

	// NewFile, if set, builds the file returned by Open. Defaults to a FakeFile.
	NewFile func(name string) *FakeFile

	// Recorded activity.
	MountCalls  int
	OpenCalls   int
	DetectCalls int
	Opened      []*FakeFile
	Unmounted   bool
	mounted     bool
}

// NewFakeVolume creates a present volume with 1 GB free of 2 GB.
func NewFakeVolume() *FakeVolume {
	return &FakeVolume{Present: true, Total: 2_000_000_000, Free: 1_000_000_000}
}

// Detect reports Present after DetectAfter misses.
func (v *FakeVolume) Detect() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.DetectCalls++
	if v.DetectCalls <= v.DetectAfter {
		return false
	}
	return v.Present
}

// Mount returns the next scripted error.
func (v *FakeVolume) Mount() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.MountCalls++
	if err := pop(&v.MountErrs); err != nil {
		return err
	}
	v.mounted = true
	return nil
}

// Open returns the next scripted error or a new FakeFile.
func (v *FakeVolume) Open(name string) (File, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.OpenCalls++
	if !v.mounted {
		return nil, ErrNotMounted
	}
	if err := pop(&v.OpenErrs); err != nil {
		return nil, err
	}
	var f *FakeFile
	if v.NewFile != nil {
		f = v.NewFile(name)
	} else {
		f = &FakeFile{}
	}
	f.Name = name
	v.Opened = append(v.Opened, f)
	return f, nil
}

// FreeSpace returns the configured capacity.
func (v *FakeVolume) FreeSpace() (uint64, uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.FreeErr != nil {
		return 0, 0, v.FreeErr
	}
	return v.Total, v.Free, nil
}

// Unmount marks the volume unmounted.
func (v *FakeVolume) Unmount() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mounted = false
	v.Unmounted = true
	return nil
}

// LastFile returns the most recently opened file, or nil.
func (v *FakeVolume) LastFile() *FakeFile {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.Opened) == 0 {
		return nil
	}
	return v.Opened[len(v.Opened)-1]
}

// FakeFile records writes and returns scripted errors.
type FakeFile struct {
	mu sync.Mutex

	Name string

	// WriteErrs is consumed one per Write; a failed write stores nothing.
	WriteErrs []error
	SyncErr   error
	CloseErrs []error

	Data   bytes.Buffer
	Writes []int    // length of each successful write
	Calls  []string // "write", "sync", "close" in call order
	Closed bool
}

// Write appends p unless a scripted error is pending.
func (f *FakeFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "write")
	if err := pop(&f.WriteErrs); err != nil {
		return 0, err
	}
	f.Writes = append(f.Writes, len(p))
	return f.Data.Write(p)
}

// Sync returns SyncErr.
func (f *FakeFile) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "sync")
	return f.SyncErr
}

// Close returns the next scripted error, or marks the file closed.
func (f *FakeFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "close")
	if err := pop(&f.CloseErrs); err != nil {
		return err
	}
	f.Closed = true
	return nil
}

// Size returns the number of bytes written.
func (f *FakeFile) Size() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(f.Data.Len()), nil
}

// Bytes returns a copy of everything written.
func (f *FakeFile) Bytes() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.Data.Bytes()...)
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

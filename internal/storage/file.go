package storage

import (
	"errors"
	"os"
)

// osFile adapts *os.File to File.
type osFile struct {
	f *os.File

	closeTried bool
}

func (o *osFile) Write(p []byte) (int, error) { return o.f.Write(p) }
func (o *osFile) Sync() error                 { return o.f.Sync() }

// Close closes the file. *os.File releases its descriptor even when close(2)
// fails, so a retry after a failed attempt reports success.
func (o *osFile) Close() error {
	err := o.f.Close()
	if o.closeTried && errors.Is(err, os.ErrClosed) {
		return nil
	}
	o.closeTried = true
	return err
}

func (o *osFile) Size() (int64, error) {
	fi, err := o.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

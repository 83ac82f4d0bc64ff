package storage

import (
	"errors"
	"testing"
)

func TestFakeVolumeScriptedMount(t *testing.T) {
	v := NewFakeVolume()
	v.MountErrs = []error{errors.New("FR_NOT_READY"), errors.New("FR_DISK_ERR")}

	if err := v.Mount(); err == nil || err.Error() != "FR_NOT_READY" {
		t.Errorf("mount 1: got %v", err)
	}
	if err := v.Mount(); err == nil || err.Error() != "FR_DISK_ERR" {
		t.Errorf("mount 2: got %v", err)
	}
	if err := v.Mount(); err != nil {
		t.Errorf("mount 3: unexpected error %v", err)
	}
	if v.MountCalls != 3 {
		t.Errorf("MountCalls: got %d, want 3", v.MountCalls)
	}
}

func TestFakeVolumeOpenRequiresMount(t *testing.T) {
	v := NewFakeVolume()
	if _, err := v.Open("data.log"); !errors.Is(err, ErrNotMounted) {
		t.Errorf("Open before Mount: got %v, want ErrNotMounted", err)
	}
}

func TestFakeVolumeDetectAfter(t *testing.T) {
	v := NewFakeVolume()
	v.DetectAfter = 2
	got := []bool{v.Detect(), v.Detect(), v.Detect()}
	if got[0] || got[1] || !got[2] {
		t.Errorf("Detect sequence: got %v, want [false false true]", got)
	}
}

func TestFakeFileRecordsCalls(t *testing.T) {
	v := NewFakeVolume()
	v.Mount()
	f, err := v.Open("data.log")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ff := v.LastFile()
	ff.WriteErrs = []error{errors.New("FR_DISK_ERR")}
	ff.CloseErrs = []error{errors.New("FR_INT_ERR")}

	if _, err := f.Write([]byte("lost")); err == nil {
		t.Error("first write should fail")
	}
	f.Write([]byte("kept"))
	f.Sync()
	if err := f.Close(); err == nil {
		t.Error("first close should fail")
	}
	if err := f.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}

	if string(ff.Bytes()) != "kept" {
		t.Errorf("data: got %q, want %q", ff.Bytes(), "kept")
	}
	want := []string{"write", "write", "sync", "close", "close"}
	if len(ff.Calls) != len(want) {
		t.Fatalf("calls: got %v, want %v", ff.Calls, want)
	}
	for i := range want {
		if ff.Calls[i] != want[i] {
			t.Errorf("call %d: got %s, want %s", i, ff.Calls[i], want[i])
		}
	}
	if size, _ := f.Size(); size != 4 {
		t.Errorf("Size: got %d, want 4", size)
	}
	if ff.Name != "data.log" {
		t.Errorf("Name: got %q", ff.Name)
	}
}

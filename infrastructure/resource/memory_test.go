package resource

import (
	"errors"
	"io"
	"testing"

	"video-beeper/domain/audio"
)

func TestMemoryAllocator_AllocateAndRelease(t *testing.T) {
	alloc := NewMemoryAllocator()

	res, err := alloc.Allocate(audio.NewWAVBlob([]byte{0x41, 0x42}))
	if err != nil {
		t.Fatalf("Allocate() unexpected error: %v", err)
	}
	if res.MIMEType() != audio.MimeTypeWAV {
		t.Errorf("MIMEType() = %q, want %q", res.MIMEType(), audio.MimeTypeWAV)
	}
	if res.Size() != 2 {
		t.Errorf("Size() = %d, want 2", res.Size())
	}
	if alloc.Live() != 1 {
		t.Errorf("Live() = %d, want 1", alloc.Live())
	}

	rc, err := res.Open()
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "AB" {
		t.Errorf("Open() read %q, want %q", data, "AB")
	}

	if err := res.Release(); err != nil {
		t.Fatalf("Release() unexpected error: %v", err)
	}
	if err := res.Release(); err != nil {
		t.Fatalf("second Release() unexpected error: %v", err)
	}

	if alloc.Released() != 1 {
		t.Errorf("Released() = %d, want 1 after double release", alloc.Released())
	}
	if alloc.Live() != 0 {
		t.Errorf("Live() = %d, want 0", alloc.Live())
	}
	if !res.Released() {
		t.Error("Released() = false, want true")
	}
	if _, err := res.Open(); !errors.Is(err, audio.ErrReleased) {
		t.Errorf("Open() after release error = %v, want ErrReleased", err)
	}
}

func TestMemoryAllocator_CopiesBlob(t *testing.T) {
	alloc := NewMemoryAllocator()
	data := []byte{1, 2, 3}

	res, err := alloc.Allocate(audio.NewWAVBlob(data))
	if err != nil {
		t.Fatalf("Allocate() unexpected error: %v", err)
	}
	data[0] = 9

	rc, _ := res.Open()
	got, _ := io.ReadAll(rc)
	if got[0] != 1 {
		t.Errorf("resource shares caller buffer: got %v", got)
	}
}

func TestMemoryAllocator_EventsKeepCreationOrder(t *testing.T) {
	alloc := NewMemoryAllocator()

	var ids []string
	for _, b := range []string{"A", "B", "C"} {
		res, err := alloc.Allocate(audio.NewWAVBlob([]byte(b)))
		if err != nil {
			t.Fatalf("Allocate() unexpected error: %v", err)
		}
		ids = append(ids, res.ID())
		if err := res.Release(); err != nil {
			t.Fatalf("Release() unexpected error: %v", err)
		}
	}

	events := alloc.Events()
	if len(events) != len(ids) {
		t.Fatalf("Events() = %v, want %v", events, ids)
	}
	for i := range ids {
		if events[i] != ids[i] {
			t.Errorf("Events()[%d] = %q, want %q", i, events[i], ids[i])
		}
	}

	events[0] = "mutated"
	if alloc.Events()[0] != ids[0] {
		t.Error("Events() should return a copy")
	}
}

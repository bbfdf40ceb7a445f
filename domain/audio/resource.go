package audio

import (
	"errors"
	"io"
)

// ErrReleased is returned when a released resource is opened
var ErrReleased = errors.New("audio resource has been released")

// Resource is a revocable handle to decoded audio, the local equivalent of
// an object URL. Release must be safe to call more than once; only the
// first call frees anything.
type Resource interface {
	// ID uniquely identifies the resource within a session
	ID() string

	// Location is where a player or download can read the audio from
	Location() string

	// MIMEType of the underlying blob
	MIMEType() string

	// Size in bytes of the underlying blob
	Size() int64

	// Open returns a reader over the audio bytes, or ErrReleased
	Open() (io.ReadCloser, error)

	// Release frees the resource
	Release() error

	// Released reports whether Release has been called
	Released() bool
}

// Allocator creates resources from blobs.
// This is a port that can be implemented by different infrastructure adapters
type Allocator interface {
	Allocate(blob Blob) (Resource, error)
}

package resource

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"video-beeper/domain/audio"

	"github.com/google/uuid"
)

// TempAllocator writes each blob to its own file in a session directory.
// Releasing a resource deletes its file; Close deletes the directory.
type TempAllocator struct {
	dir string

	mu     sync.Mutex
	closed bool
}

// NewTempAllocator creates a session directory under baseDir (os.TempDir
// when empty)
func NewTempAllocator(baseDir string) (*TempAllocator, error) {
	dir, err := os.MkdirTemp(baseDir, "video-beeper-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create resource directory: %w", err)
	}
	return &TempAllocator{dir: dir}, nil
}

// Dir returns the session directory
func (a *TempAllocator) Dir() string {
	return a.dir
}

// Allocate implements audio.Allocator
func (a *TempAllocator) Allocate(blob audio.Blob) (audio.Resource, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, fmt.Errorf("resource directory %s is closed", a.dir)
	}

	id := uuid.NewString()
	path := filepath.Join(a.dir, id+extensionFor(blob.MIMEType))
	if err := os.WriteFile(path, blob.Data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write audio resource: %w", err)
	}

	return &fileResource{
		id:       id,
		path:     path,
		mimeType: blob.MIMEType,
		size:     blob.Size(),
	}, nil
}

// Close removes the session directory and anything still in it
func (a *TempAllocator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if err := os.RemoveAll(a.dir); err != nil {
		return fmt.Errorf("failed to remove resource directory: %w", err)
	}
	return nil
}

func extensionFor(mimeType string) string {
	if mimeType == audio.MimeTypeWAV {
		return ".wav"
	}
	return ".bin"
}

type fileResource struct {
	id       string
	path     string
	mimeType string
	size     int64

	once     sync.Once
	mu       sync.Mutex
	released bool
	err      error
}

func (r *fileResource) ID() string       { return r.id }
func (r *fileResource) Location() string { return r.path }
func (r *fileResource) MIMEType() string { return r.mimeType }
func (r *fileResource) Size() int64      { return r.size }

func (r *fileResource) Open() (io.ReadCloser, error) {
	if r.Released() {
		return nil, audio.ErrReleased
	}
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio resource: %w", err)
	}
	return f, nil
}

func (r *fileResource) Release() error {
	r.once.Do(func() {
		r.mu.Lock()
		r.released = true
		r.mu.Unlock()

		if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.err = fmt.Errorf("failed to remove audio resource: %w", err)
		}
	})
	return r.err
}

func (r *fileResource) Released() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

// Ensure TempAllocator implements audio.Allocator
var _ audio.Allocator = (*TempAllocator)(nil)

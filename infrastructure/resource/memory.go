package resource

import (
	"bytes"
	"io"
	"sync"

	"video-beeper/domain/audio"

	"github.com/google/uuid"
)

// MemoryAllocator keeps decoded audio in memory and counts allocations and
// releases, so callers can check that no resource leaks
type MemoryAllocator struct {
	mu        sync.Mutex
	allocated int
	released  int
	live      map[string]*memoryResource
	order     []string
}

// NewMemoryAllocator creates an empty in-memory allocator
func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{live: make(map[string]*memoryResource)}
}

// Allocate implements audio.Allocator
func (a *MemoryAllocator) Allocate(blob audio.Blob) (audio.Resource, error) {
	data := make([]byte, len(blob.Data))
	copy(data, blob.Data)

	r := &memoryResource{
		id:       uuid.NewString(),
		mimeType: blob.MIMEType,
		data:     data,
		owner:    a,
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.allocated++
	a.live[r.id] = r
	a.order = append(a.order, r.id)
	return r, nil
}

// Allocated returns how many resources were created
func (a *MemoryAllocator) Allocated() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocated
}

// Released returns how many resources were released
func (a *MemoryAllocator) Released() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.released
}

// Live returns how many resources are allocated and not yet released
func (a *MemoryAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// Events returns allocation IDs in creation order
func (a *MemoryAllocator) Events() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

func (a *MemoryAllocator) markReleased(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.live, id)
	a.released++
}

type memoryResource struct {
	id       string
	mimeType string
	owner    *MemoryAllocator

	mu       sync.Mutex
	data     []byte
	released bool
}

func (r *memoryResource) ID() string       { return r.id }
func (r *memoryResource) Location() string { return "mem://" + r.id }
func (r *memoryResource) MIMEType() string { return r.mimeType }

func (r *memoryResource) Size() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.data))
}

func (r *memoryResource) Open() (io.ReadCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return nil, audio.ErrReleased
	}
	return io.NopCloser(bytes.NewReader(r.data)), nil
}

func (r *memoryResource) Release() error {
	r.mu.Lock()
	if r.released {
		r.mu.Unlock()
		return nil
	}
	r.released = true
	r.data = nil
	r.mu.Unlock()

	r.owner.markReleased(r.id)
	return nil
}

func (r *memoryResource) Released() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

// Ensure MemoryAllocator implements audio.Allocator
var _ audio.Allocator = (*MemoryAllocator)(nil)

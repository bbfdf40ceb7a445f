package download

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"video-beeper/domain/audio"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process is writing the same download
var ErrLocked = errors.New("download target is locked by another process")

// Saver copies a live audio resource to a user-visible file, the
// equivalent of following the download link
type Saver struct{}

// NewSaver creates a new download saver
func NewSaver() *Saver {
	return &Saver{}
}

// Save writes res to dir/filename and returns the written path. The write
// goes through a temp file and rename, under a lock file next to the target.
func (s *Saver) Save(res audio.Resource, dir, filename string) (string, error) {
	if res == nil {
		return "", fmt.Errorf("no audio to download")
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		filename = audio.DefaultDownloadName
	}
	if filepath.Base(filename) != filename {
		return "", fmt.Errorf("download filename must not contain a directory: %q", filename)
	}
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	target := filepath.Join(dir, filename)
	lock := flock.New(filepath.Join(dir, "."+filename+".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return "", fmt.Errorf("acquire download lock: %w", err)
	}
	if !locked {
		return "", fmt.Errorf("%w: %s", ErrLocked, target)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	src, err := res.Open()
	if err != nil {
		return "", fmt.Errorf("open audio resource: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(dir, "."+filename+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create download file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write download file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write download file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move download into place: %w", err)
	}

	return target, nil
}

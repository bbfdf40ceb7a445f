package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"video-beeper/domain/video"
)

// ErrUnsupportedVideo is returned for files the picker would not offer
var ErrUnsupportedVideo = errors.New("only video/mp4 files are accepted")

// VideoFile implements video.SelectedFile for a file on local disk
type VideoFile struct {
	path string
	size int64
}

// OpenVideo validates that path names an existing .mp4 file and returns a
// handle to it. The file itself is opened lazily on upload.
func OpenVideo(path string) (*VideoFile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("video path is required")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("video file does not exist: %s", path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("video path is a directory: %s", path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".mp4") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVideo, filepath.Base(path))
	}

	return &VideoFile{path: path, size: info.Size()}, nil
}

// Name returns the base file name
func (f *VideoFile) Name() string {
	return filepath.Base(f.path)
}

// Size returns the file size recorded at selection time
func (f *VideoFile) Size() int64 {
	return f.size
}

// MIMEType implements video.SelectedFile
func (f *VideoFile) MIMEType() string {
	return video.MimeTypeMP4
}

// Open implements video.SelectedFile
func (f *VideoFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// Ensure VideoFile implements video.SelectedFile
var _ video.SelectedFile = (*VideoFile)(nil)

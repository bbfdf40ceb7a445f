package video

import "io"

// MimeTypeMP4 is the only container the processing service accepts
const MimeTypeMP4 = "video/mp4"

// SelectedFile is an opaque handle to the video chosen by the user.
// A new selection replaces the previous handle wholesale.
type SelectedFile interface {
	// Name returns the file name sent in the multipart upload
	Name() string

	// MIMEType returns the content type sent with the file part
	MIMEType() string

	// Open returns a reader over the raw file bytes
	Open() (io.ReadCloser, error)
}

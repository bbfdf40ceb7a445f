package audio

// MIME type and file name for processed audio
const (
	MimeTypeWAV         = "audio/wav"
	DefaultDownloadName = "beeped_audio.wav"
)

// Blob is decoded binary audio tagged with its MIME type
type Blob struct {
	Data     []byte
	MIMEType string
}

// NewWAVBlob wraps raw bytes as an audio/wav blob
func NewWAVBlob(data []byte) Blob {
	return Blob{Data: data, MIMEType: MimeTypeWAV}
}

// Size returns the number of bytes in the blob
func (b Blob) Size() int64 {
	return int64(len(b.Data))
}

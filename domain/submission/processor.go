package submission

import (
	"context"

	"video-beeper/domain/video"
)

// Request is one upload to the processing service
type Request struct {
	RequestID string
	File      video.SelectedFile
	Threshold video.Threshold
}

// Payload is the service response after transport-level validation.
// Audio holds the textual encoding of the processed WAV.
type Payload struct {
	Audio         string
	AudioEncoding string
	ProfaneWords  []string
}

// Processor sends a video to the processing service.
// This is a port that can be implemented by different infrastructure adapters
type Processor interface {
	// Process uploads the file and threshold and returns the decoded JSON
	// payload. Failures are *TransportError or *DecodeError.
	Process(ctx context.Context, req Request) (*Payload, error)
}

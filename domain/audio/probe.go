package audio

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-audio/wav"
)

// ErrNotWAV is returned by Probe when the blob has no readable WAV header
var ErrNotWAV = errors.New("not a valid wav stream")

// Info describes the PCM format of a WAV blob
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// String returns a short human readable description
func (i Info) String() string {
	return fmt.Sprintf("%d Hz, %d ch, %d-bit, %s", i.SampleRate, i.Channels, i.BitDepth, i.Duration.Round(time.Millisecond))
}

// Probe reads the WAV header of a blob. The audio is otherwise opaque, so
// callers treat a probe error as informational only.
func Probe(blob Blob) (*Info, error) {
	dec := wav.NewDecoder(bytes.NewReader(blob.Data))
	if !dec.IsValidFile() {
		return nil, ErrNotWAV
	}
	dur, err := dec.Duration()
	if err != nil {
		return nil, fmt.Errorf("read wav duration: %w", err)
	}
	return &Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Duration:   dur,
	}, nil
}

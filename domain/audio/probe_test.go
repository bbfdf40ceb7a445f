package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

// buildWAV returns a 16-bit PCM mono WAV containing the given number of
// silent samples
func buildWAV(sampleRate, samples int) []byte {
	const (
		channels = 1
		bits     = 16
	)
	dataLen := samples * channels * bits / 8

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*bits/8))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*bits/8))
	binary.Write(&buf, binary.LittleEndian, uint16(bits))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(make([]byte, dataLen))
	return buf.Bytes()
}

func TestProbe_ValidWAV(t *testing.T) {
	info, err := Probe(NewWAVBlob(buildWAV(16000, 16000)))
	if err != nil {
		t.Fatalf("Probe() unexpected error: %v", err)
	}
	if info.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", info.SampleRate)
	}
	if info.Channels != 1 {
		t.Errorf("Channels = %d, want 1", info.Channels)
	}
	if info.BitDepth != 16 {
		t.Errorf("BitDepth = %d, want 16", info.BitDepth)
	}
	if info.Duration < 900*time.Millisecond || info.Duration > 1100*time.Millisecond {
		t.Errorf("Duration = %v, want about 1s", info.Duration)
	}
}

func TestProbe_OpaqueBytes(t *testing.T) {
	_, err := Probe(NewWAVBlob([]byte("AB")))
	if !errors.Is(err, ErrNotWAV) {
		t.Errorf("Probe() error = %v, want ErrNotWAV", err)
	}
}

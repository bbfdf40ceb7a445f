package audio

import (
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Encoding names how the audio field of a response is encoded as text
type Encoding string

// Supported encodings. Latin1 maps each character to one byte and is what
// the processing service emits by default.
const (
	EncodingLatin1 Encoding = "latin1"
	EncodingBase64 Encoding = "base64"
)

// ParseEncoding normalizes an encoding name; empty means latin1
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "latin1", "latin-1", "iso-8859-1":
		return EncodingLatin1, nil
	case "base64":
		return EncodingBase64, nil
	default:
		return "", fmt.Errorf("unsupported audio encoding %q", s)
	}
}

// Decode turns the textual audio field back into raw bytes
func Decode(text string, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingLatin1, "":
		return decodeLatin1(text)
	case EncodingBase64:
		data, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("decode base64 audio: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported audio encoding %q", enc)
	}
}

// decodeLatin1 maps every code point to one byte. A code point above 0xFF
// cannot come from a byte-preserving encoding and is rejected.
func decodeLatin1(text string) ([]byte, error) {
	data, err := charmap.ISO8859_1.NewEncoder().String(text)
	if err != nil {
		return nil, fmt.Errorf("decode latin1 audio: %w", err)
	}
	return []byte(data), nil
}

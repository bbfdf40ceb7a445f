package video

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Threshold is the profanity sensitivity sent to the processing service.
// Values live in [0, 1] on a 0.1 grid.
type Threshold float64

// Threshold bounds and default
const (
	MinThreshold     Threshold = 0
	MaxThreshold     Threshold = 1
	ThresholdStep              = 0.1
	DefaultThreshold Threshold = 0.6
)

// NewThreshold snaps v to the 0.1 grid and rejects values outside [0, 1].
// It plays the role of the bounded range control: anything it returns can
// be sent to the backend without further checks.
func NewThreshold(v float64) (Threshold, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid threshold %v: must be a number", v)
	}
	snapped := math.Round(v/ThresholdStep) / 10
	if snapped < float64(MinThreshold) || snapped > float64(MaxThreshold) {
		return 0, fmt.Errorf("invalid threshold %v: must be between 0 and 1", v)
	}
	if snapped == 0 {
		snapped = 0 // drop the sign of -0
	}
	return Threshold(snapped), nil
}

// ParseThreshold parses a decimal string such as "0.6"
func ParseThreshold(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("invalid threshold: value is required")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold %q: %w", s, err)
	}
	return NewThreshold(v)
}

// String returns the shortest decimal form, e.g. "0.6", "0" or "1".
// This is the exact text sent in the threshold form field.
func (t Threshold) String() string {
	return strconv.FormatFloat(float64(t), 'f', -1, 64)
}

// Float64 returns the threshold as a float64
func (t Threshold) Float64() float64 {
	return float64(t)
}

// ThresholdChoices returns every selectable value from 0 to 1 in display form
func ThresholdChoices() []string {
	choices := make([]string, 0, 11)
	for i := 0; i <= 10; i++ {
		choices = append(choices, Threshold(float64(i)/10).String())
	}
	return choices
}

package epoch

import (
	"time"
)

// EpochSeconds is the fixed epoch length used throughout the pipeline.
// All classifiers and endpoints operate on non-overlapping windows of this
// duration.
const EpochSeconds = 3

// Sample is a single triaxial accelerometer reading in units of g.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Epoch is one fixed-length, non-overlapping window of raw accelerometer
// samples. Epochs are immutable once segmented; downstream stages read them
// but never modify them.
type Epoch struct {
	Index      int       `json:"index"`
	Start      time.Time `json:"start"`
	SampleRate float64   `json:"sample_rate"`
	Samples    []Sample  `json:"-"`
}

// Duration returns the epoch length.
func (e *Epoch) Duration() time.Duration {
	return EpochSeconds * time.Second
}

// End returns the timestamp just past the last sample of the epoch.
func (e *Epoch) End() time.Time {
	return e.Start.Add(e.Duration())
}

// Len returns the number of samples in the epoch.
func (e *Epoch) Len() int {
	return len(e.Samples)
}

// SamplesPerEpoch returns the sample count every epoch at the given rate
// must carry.
func SamplesPerEpoch(rate float64) int {
	return int(rate) * EpochSeconds
}

package epoch

import (
	"fmt"
	"time"
)

// InsufficientDataError reports a raw stream too short to fill a single
// epoch at the configured sample rate.
type InsufficientDataError struct {
	Samples  int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d samples, need at least %d for one epoch", e.Samples, e.Required)
}

// Segmenter slices a fixed-rate accelerometer stream into consecutive
// epochs. A trailing partial epoch is dropped, never zero-padded.
type Segmenter struct {
	rate    float64
	start   time.Time
	samples []Sample
}

// NewSegmenter validates the stream and prepares it for segmentation.
// It returns an InsufficientDataError when the stream cannot fill one
// full epoch.
func NewSegmenter(start time.Time, rate float64, samples []Sample) (*Segmenter, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %v", rate)
	}
	required := SamplesPerEpoch(rate)
	if len(samples) < required {
		return nil, &InsufficientDataError{Samples: len(samples), Required: required}
	}
	return &Segmenter{rate: rate, start: start, samples: samples}, nil
}

// Count returns the number of full epochs the stream yields.
func (s *Segmenter) Count() int {
	return len(s.samples) / SamplesPerEpoch(s.rate)
}

// SampleRate returns the nominal sample rate of the stream.
func (s *Segmenter) SampleRate() float64 {
	return s.rate
}

// Epochs returns a fresh cursor over the stream's epochs. Cursors are
// independent, so the same stream can be walked more than once.
func (s *Segmenter) Epochs() *Cursor {
	return &Cursor{seg: s}
}

// At returns the i-th epoch of the stream. The returned epoch shares the
// underlying sample storage read-only.
func (s *Segmenter) At(i int) (*Epoch, error) {
	if i < 0 || i >= s.Count() {
		return nil, fmt.Errorf("epoch index %d out of range [0,%d)", i, s.Count())
	}
	n := SamplesPerEpoch(s.rate)
	return &Epoch{
		Index:      i,
		Start:      s.start.Add(time.Duration(i) * EpochSeconds * time.Second),
		SampleRate: s.rate,
		Samples:    s.samples[i*n : (i+1)*n],
	}, nil
}

// Cursor walks the epochs of one stream lazily and in order.
type Cursor struct {
	seg  *Segmenter
	next int
}

// Next returns the next epoch, or false once the stream is exhausted.
func (c *Cursor) Next() (*Epoch, bool) {
	if c.next >= c.seg.Count() {
		return nil, false
	}
	e, err := c.seg.At(c.next)
	if err != nil {
		return nil, false
	}
	c.next++
	return e, true
}

// Reset rewinds the cursor to the first epoch.
func (c *Cursor) Reset() {
	c.next = 0
}

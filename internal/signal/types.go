// Package signal implements per-epoch accelerometer preprocessing: gravity
// removal and frequency-band isolation with zero-phase Butterworth filters,
// vector magnitude, and principal-component projection.
//
// Every function in this package is a pure, deterministic function of its
// input. The same epoch always yields bit-identical output.
package signal

import (
	"fmt"

	"pdmotion/internal/epoch"
)

// Band describes one band-pass isolation step: the passband edges in Hz and
// the Butterworth filter order. Cutoffs are clinical-calibration choices and
// therefore configurable; the defaults below follow the validated settings.
type Band struct {
	Low   float64 `yaml:"low" validate:"gt=0"`
	High  float64 `yaml:"high" validate:"gtfield=Low"`
	Order int     `yaml:"order" validate:"gte=1,lte=8"`
}

func (b Band) String() string {
	return fmt.Sprintf("%.2f-%.2fHz(n=%d)", b.Low, b.High, b.Order)
}

// Default bands. Voluntary hand movement and resting tremor occupy
// overlapping but distinguishable frequency ranges, so each classifier works
// on its own isolation band.
var (
	// MovementBand isolates voluntary hand movement.
	MovementBand = Band{Low: 0.25, High: 3.5, Order: 4}
	// TremorBand isolates the resting-tremor range for amplitude estimation.
	TremorBand = Band{Low: 3.5, High: 7.5, Order: 3}
	// TremorFeatureBand is the lighter-order tremor band used when building
	// classifier feature channels.
	TremorFeatureBand = Band{Low: 3.5, High: 7.5, Order: 1}
	// GaitBand isolates the ambulation range for gait features.
	GaitBand = Band{Low: 0.25, High: 3.0, Order: 1}
)

// MalformedSignalError reports an epoch whose sample count violates the
// fixed-length contract.
type MalformedSignalError struct {
	Got  int
	Want int
}

func (e *MalformedSignalError) Error() string {
	return fmt.Sprintf("malformed signal: epoch has %d samples, expected %d", e.Got, e.Want)
}

// Cleaned is the band-isolated view of one epoch. Sample count and
// dimensionality match the source epoch exactly.
type Cleaned struct {
	X, Y, Z    []float64
	SampleRate float64
}

// Len returns the per-axis sample count.
func (c *Cleaned) Len() int {
	return len(c.X)
}

// Magnitude returns the per-sample vector magnitude of the cleaned signal.
func (c *Cleaned) Magnitude() []float64 {
	out := make([]float64, len(c.X))
	for i := range out {
		out[i] = vecMag(c.X[i], c.Y[i], c.Z[i])
	}
	return out
}

// Magnitude returns the per-sample vector magnitude of raw samples.
func Magnitude(samples []epoch.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = vecMag(s.X, s.Y, s.Z)
	}
	return out
}

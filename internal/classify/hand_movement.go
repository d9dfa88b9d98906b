package classify

import (
	"fmt"
	"math"

	"pdmotion/internal/epoch"
	"pdmotion/internal/signal"
)

// Hand-movement gate defaults.
const (
	// DefaultCoVThreshold is the coefficient-of-variation level above which
	// a sample counts as moving.
	DefaultCoVThreshold = 0.01
	// handMovementLowPassHz removes tremor-range components before the gate
	// so resting tremor is not mistaken for voluntary movement.
	handMovementLowPassHz    = 3.0
	handMovementLowPassOrder = 6
	// movementFraction is the share of above-threshold samples an epoch
	// needs to be labeled movement.
	movementFraction = 0.5
)

// HandMovement is the heuristic context gate at the root of the decision
// tree. It thresholds the rolling coefficient of variation of the
// low-passed acceleration magnitude.
type HandMovement struct {
	CoVThreshold float64
}

// NewHandMovement returns the gate with default calibration.
func NewHandMovement() *HandMovement {
	return &HandMovement{CoVThreshold: DefaultCoVThreshold}
}

func (c *HandMovement) Axis() Axis {
	return AxisHandMovement
}

// Predict labels the epoch movement (positive) or rest. Value carries the
// fraction of above-threshold samples.
func (c *HandMovement) Predict(e *epoch.Epoch) (RawPrediction, error) {
	want := epoch.SamplesPerEpoch(e.SampleRate)
	if e.Len() != want {
		return RawPrediction{}, &signal.MalformedSignalError{Got: e.Len(), Want: want}
	}

	mag := signal.Magnitude(e.Samples)
	filtered, err := signal.LowPass(mag, e.SampleRate, handMovementLowPassHz, handMovementLowPassOrder)
	if err != nil {
		return RawPrediction{}, fmt.Errorf("hand movement gate: %w", err)
	}

	// Rolling CoV over roughly one second of samples.
	window := int(e.SampleRate) + 1
	cov := rollingCoV(filtered, window)

	var above int
	for _, v := range cov {
		if v > c.CoVThreshold {
			above++
		}
	}
	fraction := float64(above) / float64(len(cov))

	return RawPrediction{
		EpochIndex: e.Index,
		Axis:       AxisHandMovement,
		Positive:   fraction >= movementFraction,
		Value:      fraction,
		Producer:   "hand_movement_cov",
	}, nil
}

// rollingCoV computes std/mean over a centered window, shrinking the window
// at the signal edges.
func rollingCoV(x []float64, window int) []float64 {
	half := window / 2
	out := make([]float64, len(x))
	for i := range x {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(x) {
			hi = len(x)
		}
		m, s := meanStd(x[lo:hi])
		if m == 0 {
			out[i] = 0
			continue
		}
		out[i] = s / m
	}
	return out
}

func meanStd(x []float64) (float64, float64) {
	var sum float64
	for _, v := range x {
		sum += v
	}
	m := sum / float64(len(x))

	var sq float64
	for _, v := range x {
		d := v - m
		sq += d * d
	}
	return m, math.Sqrt(sq / float64(len(x)))
}

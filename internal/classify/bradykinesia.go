package classify

import (
	"fmt"

	"pdmotion/internal/epoch"
	"pdmotion/internal/features"
	"pdmotion/internal/signal"
)

// HandMovementAmplitude characterizes how large voluntary hand movements
// are: RMS of the movement-band acceleration magnitude. Valid only when the
// hand-movement gate labels the epoch movement.
type HandMovementAmplitude struct {
	// Band is the movement frequency range the RMS is taken over.
	Band signal.Band
}

func NewHandMovementAmplitude() *HandMovementAmplitude {
	return &HandMovementAmplitude{Band: signal.MovementBand}
}

func (c *HandMovementAmplitude) Axis() Axis {
	return AxisHandMovementAmplitude
}

func (c *HandMovementAmplitude) Predict(e *epoch.Epoch) (RawPrediction, error) {
	cleaned, err := signal.Clean(e, c.Band)
	if err != nil {
		return RawPrediction{}, fmt.Errorf("hand movement amplitude: %w", err)
	}
	return RawPrediction{
		EpochIndex: e.Index,
		Axis:       AxisHandMovementAmplitude,
		Value:      trueRMS(cleaned.Magnitude()),
		Producer:   "movement_band_rms",
	}, nil
}

// HandMovementJerk characterizes movement smoothness through the
// dimensionless jerk ratio of the movement-band magnitude. Higher means
// less smooth. Valid only when the epoch is labeled movement.
type HandMovementJerk struct {
	// Band is the movement frequency range the jerk ratio is taken over.
	Band signal.Band

	extractor *features.Extractor
}

func NewHandMovementJerk(extractor *features.Extractor) *HandMovementJerk {
	return &HandMovementJerk{Band: signal.MovementBand, extractor: extractor}
}

func (c *HandMovementJerk) Axis() Axis {
	return AxisHandMovementJerk
}

func (c *HandMovementJerk) Predict(e *epoch.Epoch) (RawPrediction, error) {
	cleaned, err := signal.Clean(e, c.Band)
	if err != nil {
		return RawPrediction{}, fmt.Errorf("hand movement jerk: %w", err)
	}

	cs := features.NewChannelSet(e.SampleRate)
	cs.Add("mag", cleaned.Magnitude())
	vector, err := c.extractor.Extract(cs, e.Index, []string{"mag_jerk_ratio"})
	if err != nil {
		return RawPrediction{}, fmt.Errorf("hand movement jerk: %w", err)
	}
	jerk, _ := vector.Get("mag_jerk_ratio")

	return RawPrediction{
		EpochIndex: e.Index,
		Axis:       AxisHandMovementJerk,
		Value:      jerk,
		Producer:   "movement_band_jerk_ratio",
	}, nil
}

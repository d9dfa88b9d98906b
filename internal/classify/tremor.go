package classify

import (
	"fmt"
	"math"

	"pdmotion/internal/epoch"
	"pdmotion/internal/features"
	"pdmotion/internal/model"
	"pdmotion/internal/signal"
)

// TremorPresence is the model-backed resting-tremor detector. Its output is
// only clinically meaningful when the hand is at rest and gait is absent;
// the hierarchical filter enforces that gating.
type TremorPresence struct {
	// TremorBand and MovementBand are the two ranges the presence features
	// are computed over.
	TremorBand   signal.Band
	MovementBand signal.Band

	forest    *model.Forest
	extractor *features.Extractor
}

// NewTremorPresence wires a trained tremor forest to the extractor.
func NewTremorPresence(forest *model.Forest, extractor *features.Extractor) *TremorPresence {
	return &TremorPresence{
		TremorBand:   signal.TremorFeatureBand,
		MovementBand: signal.Band{Low: signal.MovementBand.Low, High: signal.MovementBand.High, Order: 1},
		forest:       forest,
		extractor:    extractor,
	}
}

func (c *TremorPresence) Axis() Axis {
	return AxisTremorPresence
}

func (c *TremorPresence) Predict(e *epoch.Epoch) (RawPrediction, error) {
	cs := features.NewChannelSet(e.SampleRate)
	if err := addBandChannels(cs, e, c.TremorBand, ChannelXTremor, ChannelYTremor, ChannelZTremor, ChannelPC1Tremor); err != nil {
		return RawPrediction{}, fmt.Errorf("tremor channels: %w", err)
	}
	if err := addBandChannels(cs, e, c.MovementBand, ChannelXMove, ChannelYMove, ChannelZMove, ChannelPC1Move); err != nil {
		return RawPrediction{}, fmt.Errorf("movement channels: %w", err)
	}

	vector, err := c.extractor.Extract(cs, e.Index, c.forest.Schema())
	if err != nil {
		return RawPrediction{}, fmt.Errorf("tremor features: %w", err)
	}

	positive, score, err := c.forest.Predict(vector)
	if err != nil {
		return RawPrediction{}, err
	}
	return RawPrediction{
		EpochIndex: e.Index,
		Axis:       AxisTremorPresence,
		Positive:   positive,
		Value:      score,
		Producer:   c.forest.Name,
	}, nil
}

// TremorAmplitude is the heuristic tremor-strength estimate: RMS of the
// tremor-band acceleration magnitude. Valid only when tremor presence is
// positive.
type TremorAmplitude struct {
	// Band is the tremor frequency range the RMS is taken over.
	Band signal.Band
}

// NewTremorAmplitude returns the estimator with the default tremor band.
func NewTremorAmplitude() *TremorAmplitude {
	return &TremorAmplitude{Band: signal.TremorBand}
}

func (c *TremorAmplitude) Axis() Axis {
	return AxisTremorAmplitude
}

func (c *TremorAmplitude) Predict(e *epoch.Epoch) (RawPrediction, error) {
	cleaned, err := signal.Clean(e, c.Band)
	if err != nil {
		return RawPrediction{}, fmt.Errorf("tremor amplitude: %w", err)
	}
	return RawPrediction{
		EpochIndex: e.Index,
		Axis:       AxisTremorAmplitude,
		Value:      trueRMS(cleaned.Magnitude()),
		Producer:   "tremor_band_rms",
	}, nil
}

// trueRMS is the root mean square about zero, not about the mean: band
// isolation has already removed the static bias.
func trueRMS(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

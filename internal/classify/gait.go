package classify

import (
	"fmt"

	"pdmotion/internal/epoch"
	"pdmotion/internal/features"
	"pdmotion/internal/model"
	"pdmotion/internal/signal"
)

// Gait is the model-backed ambulation detector. Ambulation confounds the
// wrist tremor signal, so the hierarchical filter uses this axis to gate
// the tremor branch.
type Gait struct {
	// Band is the frequency range isolated before feature extraction.
	Band signal.Band

	forest    *model.Forest
	extractor *features.Extractor
}

// NewGait wires a trained gait forest to the extractor.
func NewGait(forest *model.Forest, extractor *features.Extractor) *Gait {
	return &Gait{Band: signal.GaitBand, forest: forest, extractor: extractor}
}

func (c *Gait) Axis() Axis {
	return AxisGait
}

func (c *Gait) Predict(e *epoch.Epoch) (RawPrediction, error) {
	cs := features.NewChannelSet(e.SampleRate)
	if err := addBandChannels(cs, e, c.Band, ChannelXGait, ChannelYGait, ChannelZGait, ChannelPC1Gait); err != nil {
		return RawPrediction{}, fmt.Errorf("gait channels: %w", err)
	}

	vector, err := c.extractor.Extract(cs, e.Index, c.forest.Schema())
	if err != nil {
		return RawPrediction{}, fmt.Errorf("gait features: %w", err)
	}

	positive, score, err := c.forest.Predict(vector)
	if err != nil {
		return RawPrediction{}, err
	}
	return RawPrediction{
		EpochIndex: e.Index,
		Axis:       AxisGait,
		Positive:   positive,
		Value:      score,
		Producer:   c.forest.Name,
	}, nil
}

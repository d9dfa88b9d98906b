// Package classify implements the per-epoch context and symptom
// classifiers: heuristic gates (hand movement, amplitudes, jerk) and
// model-backed predictors (gait, resting-tremor presence). Every classifier
// is stateless across epochs and safe for concurrent use.
package classify

import (
	"pdmotion/internal/epoch"
)

// Axis identifies one prediction axis. Axis identity is an enumerated tag,
// not a column name, so a typo is a compile-time mistake rather than a
// silent data error.
type Axis string

const (
	AxisHandMovement          Axis = "hand_movement"
	AxisGait                  Axis = "gait"
	AxisTremorPresence        Axis = "tremor_presence"
	AxisTremorAmplitude       Axis = "tremor_amplitude"
	AxisHandMovementAmplitude Axis = "hand_movement_amplitude"
	AxisHandMovementJerk      Axis = "hand_movement_jerk"
)

// Binary reports whether the axis carries a yes/no label rather than a
// continuous measure.
func (a Axis) Binary() bool {
	switch a {
	case AxisHandMovement, AxisGait, AxisTremorPresence:
		return true
	}
	return false
}

// RawPrediction is one classifier's unreconciled output for one epoch.
// Binary axes use Positive plus a confidence score in Value; continuous
// axes carry the measure in Value.
type RawPrediction struct {
	EpochIndex int     `json:"epoch_index"`
	Axis       Axis    `json:"axis"`
	Positive   bool    `json:"positive"`
	Value      float64 `json:"value"`
	Producer   string  `json:"producer"`
}

// Classifier is the capability every context/symptom predictor exposes:
// one prediction per epoch, no temporal memory beyond the epoch itself.
type Classifier interface {
	Axis() Axis
	Predict(e *epoch.Epoch) (RawPrediction, error)
}

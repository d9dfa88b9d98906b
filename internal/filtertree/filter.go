// Package filtertree reconciles the per-epoch classifier outputs into one
// mutually consistent label set. The gating tree:
//
//	hand movement
//	   ├─ rest ──► gait
//	   │            ├─ absent ──► tremor presence
//	   │            │               ├─ positive ──► tremor amplitude
//	   │            │               └─ negative ──► tremor amplitude NA
//	   │            └─ present ──► tremor axes NA (ambulation confounds
//	   │                           the wrist tremor signal)
//	   └─ movement ──► hand-movement amplitude + jerk; tremor axes NA
//	                   (tremor assessment during voluntary movement is not
//	                   clinically valid)
//
// A gated-off axis is set to an explicit not-applicable state, never left
// holding a stale computed value. The filter is evaluated once per epoch
// with no cross-epoch state and never drops an epoch.
package filtertree

import (
	"fmt"

	"pdmotion/internal/classify"
)

// BinaryState is a gated binary axis value: either not applicable, or a
// definite yes/no label.
type BinaryState struct {
	Applicable bool `json:"applicable"`
	Positive   bool `json:"positive"`
}

// ContinuousState is a gated continuous axis value.
type ContinuousState struct {
	Applicable bool    `json:"applicable"`
	Value      float64 `json:"value"`
}

// NA sentinels, distinct from any measured value.
func binaryNA() BinaryState         { return BinaryState{} }
func continuousNA() ContinuousState { return ContinuousState{} }

// FilteredRecord is the tree-consistent view of one epoch.
type FilteredRecord struct {
	EpochIndex            int             `json:"epoch_index"`
	HandMovement          BinaryState     `json:"hand_movement"`
	Gait                  BinaryState     `json:"gait"`
	TremorPresence        BinaryState     `json:"tremor_presence"`
	TremorAmplitude       ContinuousState `json:"tremor_amplitude"`
	HandMovementAmplitude ContinuousState `json:"hand_movement_amplitude"`
	HandMovementJerk      ContinuousState `json:"hand_movement_jerk"`
}

// Predictions carries the raw per-axis outputs available for one epoch.
// Axes the gating skipped stay nil.
type Predictions struct {
	HandMovement          *classify.RawPrediction
	Gait                  *classify.RawPrediction
	TremorPresence        *classify.RawPrediction
	TremorAmplitude       *classify.RawPrediction
	HandMovementAmplitude *classify.RawPrediction
	HandMovementJerk      *classify.RawPrediction
}

// MissingAxisError reports a classifier output the gating required but did
// not receive. It indicates a miswired pipeline, not bad data.
type MissingAxisError struct {
	EpochIndex int
	Axis       classify.Axis
}

func (e *MissingAxisError) Error() string {
	return fmt.Sprintf("epoch %d: gating requires axis %s but no prediction was supplied", e.EpochIndex, e.Axis)
}

// Evaluate runs the decision tree for one epoch. Exactly one record comes
// back for every call; inapplicable axes hold the NA sentinel.
func Evaluate(epochIndex int, preds Predictions) (FilteredRecord, error) {
	rec := FilteredRecord{
		EpochIndex:            epochIndex,
		Gait:                  binaryNA(),
		TremorPresence:        binaryNA(),
		TremorAmplitude:       continuousNA(),
		HandMovementAmplitude: continuousNA(),
		HandMovementJerk:      continuousNA(),
	}

	if preds.HandMovement == nil {
		return FilteredRecord{}, &MissingAxisError{EpochIndex: epochIndex, Axis: classify.AxisHandMovement}
	}
	rec.HandMovement = BinaryState{Applicable: true, Positive: preds.HandMovement.Positive}

	if rec.HandMovement.Positive {
		// Movement branch: bradykinesia axes apply, tremor axes do not.
		if preds.HandMovementAmplitude == nil {
			return FilteredRecord{}, &MissingAxisError{EpochIndex: epochIndex, Axis: classify.AxisHandMovementAmplitude}
		}
		if preds.HandMovementJerk == nil {
			return FilteredRecord{}, &MissingAxisError{EpochIndex: epochIndex, Axis: classify.AxisHandMovementJerk}
		}
		rec.HandMovementAmplitude = ContinuousState{Applicable: true, Value: preds.HandMovementAmplitude.Value}
		rec.HandMovementJerk = ContinuousState{Applicable: true, Value: preds.HandMovementJerk.Value}
		return rec, nil
	}

	// Rest branch: gait gates the tremor axes.
	if preds.Gait == nil {
		return FilteredRecord{}, &MissingAxisError{EpochIndex: epochIndex, Axis: classify.AxisGait}
	}
	rec.Gait = BinaryState{Applicable: true, Positive: preds.Gait.Positive}
	if rec.Gait.Positive {
		return rec, nil
	}

	if preds.TremorPresence == nil {
		return FilteredRecord{}, &MissingAxisError{EpochIndex: epochIndex, Axis: classify.AxisTremorPresence}
	}
	rec.TremorPresence = BinaryState{Applicable: true, Positive: preds.TremorPresence.Positive}
	if !rec.TremorPresence.Positive {
		return rec, nil
	}

	if preds.TremorAmplitude == nil {
		return FilteredRecord{}, &MissingAxisError{EpochIndex: epochIndex, Axis: classify.AxisTremorAmplitude}
	}
	rec.TremorAmplitude = ContinuousState{Applicable: true, Value: preds.TremorAmplitude.Value}
	return rec, nil
}

// Consistent reports whether a record satisfies the gating invariants.
func (r FilteredRecord) Consistent() bool {
	if !r.HandMovement.Applicable {
		return false
	}
	if r.HandMovement.Positive {
		return !r.Gait.Applicable &&
			!r.TremorPresence.Applicable &&
			!r.TremorAmplitude.Applicable &&
			r.HandMovementAmplitude.Applicable &&
			r.HandMovementJerk.Applicable
	}
	if r.HandMovementAmplitude.Applicable || r.HandMovementJerk.Applicable {
		return false
	}
	if !r.Gait.Applicable {
		return false
	}
	if r.Gait.Positive {
		return !r.TremorPresence.Applicable && !r.TremorAmplitude.Applicable
	}
	if !r.TremorPresence.Applicable {
		return false
	}
	if r.TremorPresence.Positive {
		return r.TremorAmplitude.Applicable
	}
	return !r.TremorAmplitude.Applicable
}

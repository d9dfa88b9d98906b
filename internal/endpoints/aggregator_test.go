package endpoints

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdmotion/internal/filtertree"
)

func restRecord(index int, tremor bool, amplitude float64) filtertree.FilteredRecord {
	rec := filtertree.FilteredRecord{
		EpochIndex:     index,
		HandMovement:   filtertree.BinaryState{Applicable: true, Positive: false},
		Gait:           filtertree.BinaryState{Applicable: true, Positive: false},
		TremorPresence: filtertree.BinaryState{Applicable: true, Positive: tremor},
	}
	if tremor {
		rec.TremorAmplitude = filtertree.ContinuousState{Applicable: true, Value: amplitude}
	}
	return rec
}

func moveRecord(index int, amplitude, jerk float64) filtertree.FilteredRecord {
	return filtertree.FilteredRecord{
		EpochIndex:            index,
		HandMovement:          filtertree.BinaryState{Applicable: true, Positive: true},
		HandMovementAmplitude: filtertree.ContinuousState{Applicable: true, Value: amplitude},
		HandMovementJerk:      filtertree.ContinuousState{Applicable: true, Value: jerk},
	}
}

func window() (time.Time, time.Time) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

func TestPercentileLinearInterpolation(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		q      float64
		want   float64
	}{
		{"85th of 1..5", []float64{1, 2, 3, 4, 5}, 85, 4.4},
		{"95th of 1..5", []float64{1, 2, 3, 4, 5}, 95, 4.8},
		{"median of 1..4", []float64{1, 2, 3, 4}, 50, 2.5},
		{"0th is min", []float64{3, 1, 2}, 0, 1},
		{"100th is max", []float64{3, 1, 2}, 100, 3},
		{"single value", []float64{7}, 85, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Percentile(tt.values, tt.q)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	_, err := Percentile(nil, 85)
	assert.Error(t, err)
	_, err = Percentile([]float64{1}, 101)
	assert.Error(t, err)
}

func TestSummarizeBoutScenario(t *testing.T) {
	// Labels [rest,rest,rest,move,rest,rest]: two rest bouts of 3 and 2
	// epochs, mean duration 2.5*3s = 7.5s.
	records := []filtertree.FilteredRecord{
		restRecord(0, false, 0),
		restRecord(1, false, 0),
		restRecord(2, false, 0),
		moveRecord(3, 0.3, 0.1),
		restRecord(4, false, 0),
		restRecord(5, false, 0),
	}
	start, end := window()

	measures, err := NewAggregator(nil).Summarize(context.Background(), records, start, end)
	require.NoError(t, err)

	count := measures[MeasureNoMovementBoutCount]
	require.False(t, count.Insufficient)
	assert.InDelta(t, 2.0, count.Value, 1e-12)

	meanSec := measures[MeasureNoMovementBoutMeanSec]
	require.False(t, meanSec.Insufficient)
	assert.InDelta(t, 7.5, meanSec.Value, 1e-12)

	noMove := measures[MeasureNoMovementFraction]
	require.False(t, noMove.Insufficient)
	assert.InDelta(t, 5.0/6.0, noMove.Value, 1e-12)
}

func TestSummarizeTremorMeasures(t *testing.T) {
	records := []filtertree.FilteredRecord{
		restRecord(0, true, 1),
		restRecord(1, true, 2),
		restRecord(2, true, 3),
		restRecord(3, true, 4),
		restRecord(4, true, 5),
		restRecord(5, false, 0),
	}
	start, end := window()

	measures, err := NewAggregator(nil).Summarize(context.Background(), records, start, end)
	require.NoError(t, err)

	constancy := measures[MeasureTremorConstancy]
	require.False(t, constancy.Insufficient)
	assert.InDelta(t, 5.0/6.0, constancy.Value, 1e-12)
	assert.GreaterOrEqual(t, constancy.Value, 0.0)
	assert.LessOrEqual(t, constancy.Value, 1.0)

	p85 := measures[MeasureTremorAmplitudeP85]
	require.False(t, p85.Insufficient)
	assert.InDelta(t, 4.4, p85.Value, 1e-12, "85th percentile of [1..5] by linear interpolation")
}

func TestSummarizeMovementMeasures(t *testing.T) {
	records := []filtertree.FilteredRecord{
		moveRecord(0, 0.2, 1),
		moveRecord(1, 0.4, 2),
		moveRecord(2, 0.6, 3),
		moveRecord(3, 0.8, 4),
		moveRecord(4, 1.0, 5),
	}
	start, end := window()

	measures, err := NewAggregator(nil).Summarize(context.Background(), records, start, end)
	require.NoError(t, err)

	meanAmp := measures[MeasureHandMovementAmplitudeMean]
	require.False(t, meanAmp.Insufficient)
	assert.InDelta(t, 0.6, meanAmp.Value, 1e-12)

	p95 := measures[MeasureHandMovementJerkP95]
	require.False(t, p95.Insufficient)
	assert.InDelta(t, 4.8, p95.Value, 1e-12)

	// All-movement window: tremor axis has no applicable epochs.
	tremor := measures[MeasureTremorConstancy]
	assert.True(t, tremor.Insufficient, "zero applicable epochs must report insufficient data, not zero")
	amp := measures[MeasureTremorAmplitudeP85]
	assert.True(t, amp.Insufficient)
}

func TestSummarizeEmptyWindow(t *testing.T) {
	start, end := window()
	measures, err := NewAggregator(nil).Summarize(context.Background(), nil, start, end)
	require.NoError(t, err)
	for name, m := range measures {
		assert.True(t, m.Insufficient, "measure %s over an empty window must be insufficient", name)
		assert.Equal(t, start, m.WindowStart)
		assert.Equal(t, end, m.WindowEnd)
	}
}

func TestSummarizeRejectsDisorder(t *testing.T) {
	start, end := window()
	records := []filtertree.FilteredRecord{restRecord(3, false, 0), restRecord(1, false, 0)}
	_, err := NewAggregator(nil).Summarize(context.Background(), records, start, end)
	assert.Error(t, err, "out-of-order records break bout detection and must be rejected")
}

func TestSummarizeRejectsInconsistentRecord(t *testing.T) {
	start, end := window()
	bad := restRecord(0, false, 0)
	// Tremor amplitude applicable while presence is negative violates the
	// gating invariant.
	bad.TremorAmplitude = filtertree.ContinuousState{Applicable: true, Value: 1}
	_, err := NewAggregator(nil).Summarize(context.Background(), []filtertree.FilteredRecord{bad}, start, end)
	assert.Error(t, err)
}

func TestSummarizeCancelled(t *testing.T) {
	start, end := window()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAggregator(nil).Summarize(ctx, []filtertree.FilteredRecord{restRecord(0, false, 0)}, start, end)
	assert.Error(t, err)
}

func TestBoutsBrokenByIndexGap(t *testing.T) {
	// A failed epoch between two rest epochs leaves an index gap; the rest
	// run is not continuous across it.
	records := []filtertree.FilteredRecord{
		restRecord(0, false, 0),
		restRecord(2, false, 0),
	}
	start, end := window()
	measures, err := NewAggregator(nil).Summarize(context.Background(), records, start, end)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, measures[MeasureNoMovementBoutCount].Value, 1e-12)
	assert.InDelta(t, 3.0, measures[MeasureNoMovementBoutMeanSec].Value, 1e-12)
}

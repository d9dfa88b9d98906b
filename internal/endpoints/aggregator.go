// Package endpoints turns a time-ordered sequence of filtered per-epoch
// records into clinically meaningful summary measures over a caller-chosen
// window: percentage-of-time metrics, bout statistics and percentile
// aggregates of the continuous measures.
package endpoints

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"pdmotion/internal/epoch"
	"pdmotion/internal/filtertree"
)

// Summary measure names.
const (
	MeasureTremorConstancy           = "tremor_constancy"
	MeasureTremorAmplitudeP85        = "tremor_amplitude_p85"
	MeasureHandMovementAmplitudeMean = "hand_movement_amplitude_mean"
	MeasureHandMovementJerkP95       = "hand_movement_jerk_p95"
	MeasureNoMovementFraction        = "no_hand_movement_fraction"
	MeasureNoMovementBoutCount       = "no_hand_movement_bout_count"
	MeasureNoMovementBoutMeanSec     = "no_hand_movement_bout_mean_seconds"
)

// Default aggregation percentiles. Clinical-calibration choices, exposed as
// aggregator fields rather than baked in.
const (
	DefaultTremorAmplitudePercentile = 85.0
	DefaultJerkPercentile            = 95.0
)

// SummaryMeasure is one named endpoint over one window. Insufficient marks
// a window with zero applicable epochs for the measure; the Value of such a
// measure is meaningless and must not be read as zero.
type SummaryMeasure struct {
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
	Name         string    `json:"name"`
	Value        float64   `json:"value"`
	Insufficient bool      `json:"insufficient"`
}

// Bout is a maximal run of consecutive applicable epochs sharing a
// qualifying label. Bouts live only within one aggregation scan.
type Bout struct {
	StartEpoch int
	EndEpoch   int
	Label      string
}

// Epochs returns the bout length in epochs.
func (b Bout) Epochs() int {
	return b.EndEpoch - b.StartEpoch + 1
}

// Duration returns the bout length in wall time.
func (b Bout) Duration() time.Duration {
	return time.Duration(b.Epochs()) * epoch.EpochSeconds * time.Second
}

// Aggregator computes the summary measures for a window of filtered
// records. It holds only configuration and is safe for concurrent windows.
type Aggregator struct {
	TremorAmplitudePercentile float64
	JerkPercentile            float64

	logger *slog.Logger
}

// NewAggregator returns an aggregator with default percentiles.
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		TremorAmplitudePercentile: DefaultTremorAmplitudePercentile,
		JerkPercentile:            DefaultJerkPercentile,
		logger:                    logger,
	}
}

// Summarize scans the window's records once, in epoch order, and returns
// every summary measure keyed by name. Records must arrive ordered by
// epoch index; bout detection depends on it.
func (a *Aggregator) Summarize(ctx context.Context, records []filtertree.FilteredRecord, windowStart, windowEnd time.Time) (map[string]SummaryMeasure, error) {
	var (
		tremorApplicable int
		tremorPositive   int
		tremorAmps       []float64
		moveAmps         []float64
		jerks            []float64
		restApplicable   int
		restEpochs       int
	)

	prevIndex := math.MinInt
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("aggregation cancelled: %w", err)
		}
		if rec.EpochIndex <= prevIndex {
			return nil, fmt.Errorf("records out of order at position %d: epoch %d after %d", i, rec.EpochIndex, prevIndex)
		}
		prevIndex = rec.EpochIndex

		if !rec.Consistent() {
			return nil, fmt.Errorf("epoch %d: record violates gating invariants", rec.EpochIndex)
		}

		if rec.TremorPresence.Applicable {
			tremorApplicable++
			if rec.TremorPresence.Positive {
				tremorPositive++
			}
		}
		if rec.TremorAmplitude.Applicable {
			tremorAmps = append(tremorAmps, rec.TremorAmplitude.Value)
		}
		if rec.HandMovementAmplitude.Applicable {
			moveAmps = append(moveAmps, rec.HandMovementAmplitude.Value)
		}
		if rec.HandMovementJerk.Applicable {
			jerks = append(jerks, rec.HandMovementJerk.Value)
		}
		if rec.HandMovement.Applicable {
			restApplicable++
			if !rec.HandMovement.Positive {
				restEpochs++
			}
		}
	}

	restBouts := a.restBouts(records)

	measures := make(map[string]SummaryMeasure)
	add := func(name string, value float64, ok bool) {
		measures[name] = SummaryMeasure{
			WindowStart:  windowStart,
			WindowEnd:    windowEnd,
			Name:         name,
			Value:        value,
			Insufficient: !ok,
		}
	}

	constancy, ok := fraction(tremorPositive, tremorApplicable)
	add(MeasureTremorConstancy, constancy, ok)
	addPercentile(add, MeasureTremorAmplitudeP85, tremorAmps, a.TremorAmplitudePercentile)
	moveMean, ok := meanOf(moveAmps)
	add(MeasureHandMovementAmplitudeMean, moveMean, ok)
	addPercentile(add, MeasureHandMovementJerkP95, jerks, a.JerkPercentile)
	noMove, ok := fraction(restEpochs, restApplicable)
	add(MeasureNoMovementFraction, noMove, ok)
	add(MeasureNoMovementBoutCount, float64(len(restBouts)), restApplicable > 0)
	boutMean, ok := meanBoutSeconds(restBouts)
	add(MeasureNoMovementBoutMeanSec, boutMean, ok)

	a.logger.DebugContext(ctx, "window summarized",
		"window_start", windowStart,
		"window_end", windowEnd,
		"records", len(records),
		"tremor_applicable", tremorApplicable,
		"rest_bouts", len(restBouts),
	)
	return measures, nil
}

func addPercentile(add func(string, float64, bool), name string, values []float64, q float64) {
	if len(values) == 0 {
		add(name, 0, false)
		return
	}
	p, err := Percentile(values, q)
	if err != nil {
		add(name, 0, false)
		return
	}
	add(name, p, true)
}

// restBouts finds maximal runs of consecutive rest epochs. A gap in epoch
// indices breaks a run.
func (a *Aggregator) restBouts(records []filtertree.FilteredRecord) []Bout {
	var bouts []Bout
	var current *Bout
	prevIndex := math.MinInt

	for _, rec := range records {
		resting := rec.HandMovement.Applicable && !rec.HandMovement.Positive
		contiguous := rec.EpochIndex == prevIndex+1

		if resting && current != nil && contiguous {
			current.EndEpoch = rec.EpochIndex
		} else if resting {
			if current != nil {
				bouts = append(bouts, *current)
			}
			current = &Bout{StartEpoch: rec.EpochIndex, EndEpoch: rec.EpochIndex, Label: "no_hand_movement"}
		} else if current != nil {
			bouts = append(bouts, *current)
			current = nil
		}
		prevIndex = rec.EpochIndex
	}
	if current != nil {
		bouts = append(bouts, *current)
	}
	return bouts
}

func fraction(qualifying, applicable int) (float64, bool) {
	if applicable == 0 {
		return 0, false
	}
	return float64(qualifying) / float64(applicable), true
}

func meanOf(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

func meanBoutSeconds(bouts []Bout) (float64, bool) {
	if len(bouts) == 0 {
		return 0, false
	}
	var total float64
	for _, b := range bouts {
		total += float64(b.Epochs())
	}
	return total / float64(len(bouts)) * epoch.EpochSeconds, true
}

// Percentile computes the q-th percentile (0..100) by linear interpolation
// between order statistics at rank q/100*(n-1).
func Percentile(values []float64, q float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("percentile of empty set")
	}
	if q < 0 || q > 100 {
		return 0, fmt.Errorf("percentile %v outside [0,100]", q)
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	rank := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo], nil
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo]), nil
}

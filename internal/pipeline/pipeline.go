// Package pipeline orchestrates the full per-epoch inference chain:
// segmentation, gated classification and filtering, fanned out across a
// bounded worker pool. Epochs are independent, so they are processed
// concurrently and reassembled in index order afterwards.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pdmotion/internal/classify"
	"pdmotion/internal/epoch"
	"pdmotion/internal/features"
	"pdmotion/internal/filtertree"
	"pdmotion/internal/infrastructure"
	"pdmotion/internal/model"
)

// EpochError records a single epoch that failed classification. The run
// continues past it; the epoch is simply absent from the output records.
type EpochError struct {
	EpochIndex int
	Err        error
}

func (e *EpochError) Error() string {
	return fmt.Sprintf("epoch %d: %v", e.EpochIndex, e.Err)
}

func (e *EpochError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one pipeline run. Records are ordered by epoch
// index and cover every epoch that classified cleanly; Failures lists the
// rest.
type Result struct {
	RunID    string
	Records  []filtertree.FilteredRecord
	Failures []*EpochError
}

// Pipeline wires the classifiers behind the gating order. It holds no
// per-run state and can serve concurrent runs.
type Pipeline struct {
	handMovement    classify.Classifier
	gait            classify.Classifier
	tremorPresence  classify.Classifier
	tremorAmplitude classify.Classifier
	moveAmplitude   classify.Classifier
	moveJerk        classify.Classifier

	workers int
	logger  *slog.Logger
}

// Option adjusts pipeline construction.
type Option func(*Pipeline)

// WithWorkers caps the number of epochs classified concurrently.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithClassifier replaces the classifier serving the axis it reports.
func WithClassifier(c classify.Classifier) Option {
	return func(p *Pipeline) {
		switch c.Axis() {
		case classify.AxisHandMovement:
			p.handMovement = c
		case classify.AxisGait:
			p.gait = c
		case classify.AxisTremorPresence:
			p.tremorPresence = c
		case classify.AxisTremorAmplitude:
			p.tremorAmplitude = c
		case classify.AxisHandMovementAmplitude:
			p.moveAmplitude = c
		case classify.AxisHandMovementJerk:
			p.moveJerk = c
		}
	}
}

// New builds a pipeline around the two trained forests. The remaining
// classifiers are closed-form and need no artifacts.
func New(gaitForest, tremorForest *model.Forest, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	extractor := features.NewExtractor()
	p := &Pipeline{
		handMovement:    classify.NewHandMovement(),
		gait:            classify.NewGait(gaitForest, extractor),
		tremorPresence:  classify.NewTremorPresence(tremorForest, extractor),
		tremorAmplitude: classify.NewTremorAmplitude(),
		moveAmplitude:   classify.NewHandMovementAmplitude(),
		moveJerk:        classify.NewHandMovementJerk(extractor),
		workers:         runtime.GOMAXPROCS(0),
		logger:          logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run classifies every epoch the segmenter yields and returns the filtered
// records in epoch order. A classifier failure on one epoch is recorded
// and skipped; a model contract violation or a cancelled context aborts
// the whole run, since every remaining epoch would fail the same way.
func (p *Pipeline) Run(ctx context.Context, seg *epoch.Segmenter) (*Result, error) {
	runID := uuid.NewString()
	ctx = infrastructure.WithRunID(ctx, runID)
	count := seg.Count()
	p.logger.InfoContext(ctx, "pipeline run starting",
		"run_id", runID,
		"epochs", count,
		"sample_rate", seg.SampleRate(),
		"workers", p.workers,
	)

	records := make([]*filtertree.FilteredRecord, count)
	failures := make([]*EpochError, count)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e, err := seg.At(i)
			if err != nil {
				return err
			}
			rec, err := p.classifyEpoch(e)
			if err != nil {
				var contract *model.ContractError
				if errors.As(err, &contract) {
					return fmt.Errorf("epoch %d: %w", i, contract)
				}
				failures[i] = &EpochError{EpochIndex: i, Err: err}
				return nil
			}
			records[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("run %s aborted: %w", runID, err)
	}

	res := &Result{RunID: runID}
	for i := 0; i < count; i++ {
		if records[i] != nil {
			res.Records = append(res.Records, *records[i])
		}
		if failures[i] != nil {
			res.Failures = append(res.Failures, failures[i])
		}
	}

	p.logger.InfoContext(ctx, "pipeline run finished",
		"run_id", runID,
		"classified", len(res.Records),
		"failed", len(res.Failures),
	)
	return res, nil
}

// classifyEpoch walks one epoch down the gating order, invoking only the
// classifiers the tree actually needs for it.
func (p *Pipeline) classifyEpoch(e *epoch.Epoch) (filtertree.FilteredRecord, error) {
	var preds filtertree.Predictions

	hm, err := p.handMovement.Predict(e)
	if err != nil {
		return filtertree.FilteredRecord{}, err
	}
	preds.HandMovement = &hm

	if hm.Positive {
		amp, err := p.moveAmplitude.Predict(e)
		if err != nil {
			return filtertree.FilteredRecord{}, err
		}
		jerk, err := p.moveJerk.Predict(e)
		if err != nil {
			return filtertree.FilteredRecord{}, err
		}
		preds.HandMovementAmplitude = &amp
		preds.HandMovementJerk = &jerk
		return filtertree.Evaluate(e.Index, preds)
	}

	gait, err := p.gait.Predict(e)
	if err != nil {
		return filtertree.FilteredRecord{}, err
	}
	preds.Gait = &gait

	if !gait.Positive {
		presence, err := p.tremorPresence.Predict(e)
		if err != nil {
			return filtertree.FilteredRecord{}, err
		}
		preds.TremorPresence = &presence
		if presence.Positive {
			amp, err := p.tremorAmplitude.Predict(e)
			if err != nil {
				return filtertree.FilteredRecord{}, err
			}
			preds.TremorAmplitude = &amp
		}
	}
	return filtertree.Evaluate(e.Index, preds)
}

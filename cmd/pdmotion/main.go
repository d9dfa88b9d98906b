// Command pdmotion runs the motor-symptom inference pipeline over one
// wrist accelerometer recording and writes per-epoch records plus window
// summary measures.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdmotion/internal/classify"
	"pdmotion/internal/config"
	"pdmotion/internal/endpoints"
	"pdmotion/internal/epoch"
	"pdmotion/internal/exporter"
	"pdmotion/internal/features"
	"pdmotion/internal/infrastructure"
	"pdmotion/internal/model"
	"pdmotion/internal/pipeline"
)

func main() {
	input := flag.String("input", "", "accelerometer recording CSV (timestamp,x,y,z)")
	configPath := flag.String("config", "", "configuration file (optional)")
	outDir := flag.String("out", "", "output directory (overrides config)")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: pdmotion -input recording.csv [-config config.yaml] [-out dir]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	logger, closer, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		slog.Error("logger setup failed", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *input, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, input string, logger *slog.Logger) error {
	gaitForest, err := model.Load(cfg.Models.GaitPath)
	if err != nil {
		return fmt.Errorf("load gait model: %w", err)
	}
	tremorForest, err := model.Load(cfg.Models.TremorPath)
	if err != nil {
		return fmt.Errorf("load tremor model: %w", err)
	}

	samples, start, err := readRecording(input)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "recording loaded",
		"input", input,
		"samples", len(samples),
		"start", start,
		"sample_rate", cfg.Sampling.Rate,
	)

	seg, err := epoch.NewSegmenter(start, cfg.Sampling.Rate, samples)
	if err != nil {
		var insufficient *epoch.InsufficientDataError
		if errors.As(err, &insufficient) {
			return fmt.Errorf("recording too short: %w", err)
		}
		return err
	}

	opts := append(
		[]pipeline.Option{pipeline.WithWorkers(cfg.Pipeline.Workers)},
		configuredClassifiers(cfg, gaitForest, tremorForest)...,
	)
	p := pipeline.New(gaitForest, tremorForest, logger, opts...)

	res, err := p.Run(ctx, seg)
	if err != nil {
		return err
	}
	for _, failure := range res.Failures {
		logger.WarnContext(ctx, "epoch skipped", "epoch", failure.EpochIndex, "error", failure.Err)
	}

	agg := endpoints.NewAggregator(logger)
	agg.TremorAmplitudePercentile = cfg.Thresholds.TremorAmplitudePercentile
	agg.JerkPercentile = cfg.Thresholds.JerkPercentile

	windowEnd := start.Add(time.Duration(seg.Count()) * epoch.EpochSeconds * time.Second)
	measures, err := agg.Summarize(ctx, res.Records, start, windowEnd)
	if err != nil {
		return fmt.Errorf("summarize window: %w", err)
	}

	writer := exporter.NewWriter(cfg.Output.Dir, logger)
	switch cfg.Output.Format {
	case "xlsx":
		if err := writer.WriteWorkbook("results.xlsx", res.Records, measures); err != nil {
			return err
		}
	default:
		if err := writer.WriteRecordsCSV("records.csv", res.Records); err != nil {
			return err
		}
		if err := writer.WriteSummaryCSV("summary.csv", measures); err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "run complete",
		"run_id", res.RunID,
		"epochs", seg.Count(),
		"classified", len(res.Records),
		"skipped", len(res.Failures),
		"output_dir", cfg.Output.Dir,
	)
	return nil
}

// configuredClassifiers rebuilds the classifiers whose calibration the
// configuration overrides: CoV threshold and per-classifier bands.
func configuredClassifiers(cfg *config.Config, gaitForest, tremorForest *model.Forest) []pipeline.Option {
	extractor := features.NewExtractor()

	gate := classify.NewHandMovement()
	gate.CoVThreshold = cfg.Thresholds.MovementCoV

	gait := classify.NewGait(gaitForest, extractor)
	gait.Band = cfg.Bands.Gait.Band()

	presence := classify.NewTremorPresence(tremorForest, extractor)

	tremorAmp := classify.NewTremorAmplitude()
	tremorAmp.Band = cfg.Bands.Tremor.Band()

	moveAmp := classify.NewHandMovementAmplitude()
	moveAmp.Band = cfg.Bands.Movement.Band()

	moveJerk := classify.NewHandMovementJerk(extractor)
	moveJerk.Band = cfg.Bands.Movement.Band()

	return []pipeline.Option{
		pipeline.WithClassifier(gate),
		pipeline.WithClassifier(gait),
		pipeline.WithClassifier(presence),
		pipeline.WithClassifier(tremorAmp),
		pipeline.WithClassifier(moveAmp),
		pipeline.WithClassifier(moveJerk),
	}
}

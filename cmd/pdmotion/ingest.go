package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"pdmotion/internal/epoch"
)

// readRecording parses a wrist accelerometer recording in CSV form:
// columns timestamp,x,y,z with an optional header row. Timestamps are
// RFC3339 or epoch seconds; acceleration is in g. The returned start time
// is the first sample's timestamp.
func readRecording(path string) ([]epoch.Sample, time.Time, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("open recording: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 4

	var samples []epoch.Sample
	var start time.Time
	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("read recording: %w", err)
		}
		line++

		ts, err := parseTimestamp(row[0])
		if err != nil {
			if line == 1 {
				// Header row.
				continue
			}
			return nil, time.Time{}, fmt.Errorf("line %d: %w", line, err)
		}
		if start.IsZero() {
			start = ts
		}

		var s epoch.Sample
		if s.X, err = strconv.ParseFloat(row[1], 64); err != nil {
			return nil, time.Time{}, fmt.Errorf("line %d: x value %q: %w", line, row[1], err)
		}
		if s.Y, err = strconv.ParseFloat(row[2], 64); err != nil {
			return nil, time.Time{}, fmt.Errorf("line %d: y value %q: %w", line, row[2], err)
		}
		if s.Z, err = strconv.ParseFloat(row[3], 64); err != nil {
			return nil, time.Time{}, fmt.Errorf("line %d: z value %q: %w", line, row[3], err)
		}
		samples = append(samples, s)
	}

	if len(samples) == 0 {
		return nil, time.Time{}, fmt.Errorf("recording %s holds no samples", path)
	}
	return samples, start, nil
}

func parseTimestamp(field string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, field); err == nil {
		return ts, nil
	}
	if secs, err := strconv.ParseFloat(field, 64); err == nil {
		sec := int64(secs)
		nsec := int64((secs - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("timestamp %q is neither RFC3339 nor epoch seconds", field)
}

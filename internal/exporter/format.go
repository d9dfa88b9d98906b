package exporter

import (
	"strconv"
	"time"

	"pdmotion/internal/filtertree"
)

// naMarker is the cell value for a gated-off axis or an insufficient
// measure.
const naMarker = "NA"

const timeLayout = time.RFC3339

// formatFloat formats a float64 with full round-trip precision.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

// formatBinary renders a gated binary axis: yes/no when applicable, the
// NA marker otherwise.
func formatBinary(s filtertree.BinaryState) string {
	if !s.Applicable {
		return naMarker
	}
	if s.Positive {
		return "yes"
	}
	return "no"
}

// formatContinuous renders a gated continuous axis.
func formatContinuous(s filtertree.ContinuousState) string {
	if !s.Applicable {
		return naMarker
	}
	return formatFloat(s.Value)
}

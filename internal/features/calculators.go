package features

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

func mean(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

// populationStd is the uncorrected standard deviation, matching the
// convention the trained models were fit against.
func populationStd(x []float64) float64 {
	mu := mean(x)
	var sum float64
	for _, v := range x {
		d := v - mu
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(x)))
}

func signalRange(x []float64) (float64, error) {
	lo, hi := x[0], x[0]
	for _, v := range x[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi - lo, nil
}

// signalRMS measures dispersion about the mean.
func signalRMS(x []float64) float64 {
	return populationStd(x)
}

// signalEntropy estimates entropy from a histogram of the std-normalized
// signal, with a bias correction, then stretches the estimate's range.
func signalEntropy(x []float64) (float64, error) {
	std := populationStd(x)
	if std == 0 {
		return 0, &ComputationError{Reason: "zero-variance signal"}
	}

	norm := make([]float64, len(x))
	for i, v := range x {
		norm[i] = v / std
	}

	lo, hi := norm[0], norm[0]
	for _, v := range norm[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return 0, &ComputationError{Reason: "constant signal"}
	}

	ncell := int(math.Ceil(math.Sqrt(float64(len(norm)))))
	delta := (hi - lo) / float64(len(norm)-1)
	lower := lo - delta/2
	upper := hi + delta/2

	counts := make([]float64, ncell)
	width := (hi - lo) / float64(ncell)
	for _, v := range norm {
		bin := int((v - lo) / width)
		if bin >= ncell {
			bin = ncell - 1
		}
		counts[bin]++
	}

	var estimate, total float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		total += c
		estimate -= c * math.Log(c)
	}
	nbias := -(float64(ncell) - 1) / (2 * total)

	estimate = estimate/total + math.Log(total) + math.Log((upper-lower)/float64(ncell)) - nbias
	return math.Exp(estimate*estimate) - 2, nil
}

// meanCrossRate is the fraction of consecutive sample pairs whose demeaned
// values change sign.
func meanCrossRate(x []float64) float64 {
	mu := mean(x)
	var crossings int
	for i := 0; i < len(x)-1; i++ {
		if math.Signbit(x[i]-mu) != math.Signbit(x[i+1]-mu) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(x))
}

// rangeCountPercentage is the fraction of samples inside [min,max].
func rangeCountPercentage(x []float64, min, max float64) float64 {
	var count int
	for _, v := range x {
		if v >= min && v < max {
			count++
		}
	}
	return float64(count) / float64(len(x))
}

// iqrOfAutocovariance computes the interquartile range of the normalized
// autocorrelation over lags up to half the signal length, with unbiased
// per-lag scaling.
func iqrOfAutocovariance(x []float64) (float64, error) {
	n := len(x)
	mu := mean(x)

	var variance float64
	for _, v := range x {
		d := v - mu
		variance += d * d
	}
	variance /= float64(n)
	if variance == 0 {
		return 0, &ComputationError{Reason: "zero-variance signal"}
	}

	nlags := n / 2
	acf := make([]float64, nlags+1)
	for k := 0; k <= nlags; k++ {
		var sum float64
		for i := 0; i+k < n; i++ {
			sum += (x[i] - mu) * (x[i+k] - mu)
		}
		acf[k] = (sum / float64(n-k)) / variance
	}

	sorted := append([]float64(nil), acf...)
	sort.Float64s(sorted)
	return quantileSorted(sorted, 0.75) - quantileSorted(sorted, 0.25), nil
}

// quantileSorted interpolates linearly between order statistics at rank
// q*(n-1). The input must be sorted.
func quantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := q * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// jerkRatio is a dimensionless smoothness measure: mean squared jerk of the
// signal scaled by 360*amplitude^2/duration. Lower is smoother.
func jerkRatio(x []float64, rate float64) (float64, error) {
	if len(x) < 2 {
		return 0, &ComputationError{Reason: "signal too short for derivative"}
	}
	dt := 1.0 / rate
	duration := float64(len(x)) * dt

	var amplitude float64
	for _, v := range x {
		if a := math.Abs(v); a > amplitude {
			amplitude = a
		}
	}
	if amplitude == 0 {
		return 0, &ComputationError{Reason: "zero-amplitude signal"}
	}

	var jerkSquaredSum float64
	for i := 0; i < len(x)-1; i++ {
		j := (x[i+1] - x[i]) / dt
		jerkSquaredSum += j * j
	}

	meanSquaredJerk := jerkSquaredSum * dt / (duration * 2)
	scale := 360 * amplitude * amplitude / duration
	return meanSquaredJerk / scale, nil
}

func correlationCoefficient(a, b []float64) (float64, error) {
	if populationStd(a) == 0 || populationStd(b) == 0 {
		return 0, &ComputationError{Reason: "zero-variance channel in correlation"}
	}
	return stat.Correlation(a, b, nil), nil
}

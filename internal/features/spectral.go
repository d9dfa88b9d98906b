package features

import (
	"math"
	"math/bits"

	"gonum.org/v1/gonum/dsp/fourier"
)

// spectrum holds the dominant-frequency feature family for one channel.
// All five features derive from a single normalized power spectrum bounded
// by the extractor's frequency cutoff.
type spectrum struct {
	dominantFrequency float64
	dominantMagnitude float64
	dominantRatio     float64
	flatness          float64
	entropy           float64
}

func newSpectrum(x []float64, rate, cutoff float64) (*spectrum, error) {
	if len(x) < 2 {
		return nil, &ComputationError{Reason: "signal too short for spectrum"}
	}

	// Zero-pad to the next power of two above the signal length.
	nfft := 1 << bits.Len(uint(len(x)))
	padded := make([]float64, nfft)
	copy(padded, x)

	fft := fourier.NewFFT(nfft)
	coeffs := fft.Coefficients(nil, padded)

	// Power spectrum over the one-sided bins at or below the cutoff.
	binHz := rate / float64(nfft)
	var power []float64
	var freqs []float64
	for i := 0; i < nfft/2; i++ {
		f := float64(i) * binHz
		if f > cutoff {
			break
		}
		c := coeffs[i]
		power = append(power, real(c)*real(c)+imag(c)*imag(c))
		freqs = append(freqs, f)
	}
	if len(power) == 0 {
		return nil, &ComputationError{Reason: "no spectral bins below cutoff"}
	}

	var total float64
	for _, p := range power {
		total += p
	}
	if total == 0 {
		return nil, &ComputationError{Reason: "zero spectral power"}
	}
	for i := range power {
		power[i] /= total
	}

	peak := 0
	for i, p := range power {
		if p > power[peak] {
			peak = i
		}
	}

	var ratio float64
	for i, f := range freqs {
		if f > freqs[peak]-0.5 && f < freqs[peak]+0.5 {
			ratio += power[i]
		}
	}

	return &spectrum{
		dominantFrequency: freqs[peak],
		dominantMagnitude: power[peak],
		dominantRatio:     ratio,
		flatness:          spectralFlatness(power),
		entropy:           spectralEntropy(power),
	}, nil
}

// spectralFlatness is the geometric-to-arithmetic mean power ratio in dB.
func spectralFlatness(power []float64) float64 {
	var logSum, sum float64
	for _, p := range power {
		if p <= 0 {
			p = math.SmallestNonzeroFloat64
		}
		logSum += math.Log(p)
		sum += p
	}
	n := float64(len(power))
	gmean := math.Exp(logSum / n)
	return 10 * math.Log10(gmean/(sum/n))
}

// spectralEntropy is the normalized Shannon entropy of the power
// distribution.
func spectralEntropy(power []float64) float64 {
	if len(power) < 2 {
		return 0
	}
	var h float64
	for _, p := range power {
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h / math.Log2(float64(len(power)))
}

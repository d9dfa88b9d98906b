package features

import (
	"strings"
)

// Default extraction parameters.
const (
	// DefaultFrequencyCutoff bounds the spectrum considered by the
	// dominant-frequency feature family.
	DefaultFrequencyCutoff = 12.0
	// DefaultRangeCountMin/Max bound the range-count feature.
	DefaultRangeCountMin = -0.1
	DefaultRangeCountMax = 0.1
)

// Extractor computes named features from a ChannelSet. It holds only
// numeric parameters, never per-epoch state, so one extractor can serve
// concurrent epochs.
type Extractor struct {
	FrequencyCutoff float64
	RangeCountMin   float64
	RangeCountMax   float64
}

// NewExtractor returns an extractor with default parameters.
func NewExtractor() *Extractor {
	return &Extractor{
		FrequencyCutoff: DefaultFrequencyCutoff,
		RangeCountMin:   DefaultRangeCountMin,
		RangeCountMax:   DefaultRangeCountMax,
	}
}

// featureSuffixes maps recognized feature-name suffixes to calculators,
// checked in declaration order. Longer suffixes come first so names like
// "_dom_freq_value" are never swallowed by a shorter match.
var featureSuffixes = []struct {
	suffix string
	kind   featureKind
}{
	{"_iqr_of_autocovariance", kindIQRAutocov},
	{"_dom_freq_magnitude", kindDomFreqMagnitude},
	{"_dom_freq_value", kindDomFreqValue},
	{"_dom_freq_ratio", kindDomFreqRatio},
	{"_spectral_flatness", kindSpectralFlatness},
	{"_spectral_entropy", kindSpectralEntropy},
	{"_signal_entropy", kindSignalEntropy},
	{"_mean_cross_rate", kindMeanCrossRate},
	{"_range_count_per", kindRangeCount},
	{"_jerk_ratio", kindJerkRatio},
	{"_corr_coef", kindCorrCoef},
	{"_range", kindRange},
	{"_rms", kindRMS},
}

type featureKind int

const (
	kindRange featureKind = iota
	kindRMS
	kindSignalEntropy
	kindMeanCrossRate
	kindRangeCount
	kindIQRAutocov
	kindJerkRatio
	kindCorrCoef
	kindDomFreqValue
	kindDomFreqMagnitude
	kindDomFreqRatio
	kindSpectralFlatness
	kindSpectralEntropy
)

// Extract computes exactly the requested schema from the channel set.
// The same channels and schema always yield bit-identical values. A feature
// that cannot be resolved or computed produces a ComputationError naming it.
func (ex *Extractor) Extract(cs *ChannelSet, epochIndex int, schema []string) (Vector, error) {
	v := Vector{EpochIndex: epochIndex, Values: make(map[string]float64, len(schema))}

	// Spectra are shared by the dominant-frequency family; compute each
	// channel's at most once per call.
	spectra := make(map[string]*spectrum)

	for _, name := range schema {
		val, err := ex.compute(cs, name, spectra)
		if err != nil {
			return Vector{}, err
		}
		v.Values[name] = val
	}
	return v, nil
}

func (ex *Extractor) compute(cs *ChannelSet, name string, spectra map[string]*spectrum) (float64, error) {
	for _, fs := range featureSuffixes {
		if !strings.HasSuffix(name, fs.suffix) {
			continue
		}
		base := strings.TrimSuffix(name, fs.suffix)

		if fs.kind == kindCorrCoef {
			a, b, ok := cs.splitChannelPair(base)
			if !ok {
				return 0, &ComputationError{Feature: name, Reason: "unknown channel pair " + base}
			}
			val, err := correlationCoefficient(a, b)
			if err != nil {
				if cerr, isComp := err.(*ComputationError); isComp {
					cerr.Feature = name
				}
				return 0, err
			}
			return val, nil
		}

		channel, ok := cs.Get(base)
		if !ok {
			return 0, &ComputationError{Feature: name, Reason: "unknown channel " + base}
		}
		if len(channel) == 0 {
			return 0, &ComputationError{Feature: name, Reason: "empty channel " + base}
		}

		val, err := ex.computeOn(channel, base, fs.kind, cs.SampleRate, spectra)
		if err != nil {
			if cerr, isComp := err.(*ComputationError); isComp {
				cerr.Feature = name
				return 0, cerr
			}
			return 0, err
		}
		return val, nil
	}
	return 0, &ComputationError{Feature: name, Reason: "unrecognized feature suffix"}
}

func (ex *Extractor) computeOn(channel []float64, base string, kind featureKind, rate float64, spectra map[string]*spectrum) (float64, error) {
	switch kind {
	case kindRange:
		return signalRange(channel)
	case kindRMS:
		return signalRMS(channel), nil
	case kindSignalEntropy:
		return signalEntropy(channel)
	case kindMeanCrossRate:
		return meanCrossRate(channel), nil
	case kindRangeCount:
		return rangeCountPercentage(channel, ex.RangeCountMin, ex.RangeCountMax), nil
	case kindIQRAutocov:
		return iqrOfAutocovariance(channel)
	case kindJerkRatio:
		return jerkRatio(channel, rate)
	case kindDomFreqValue, kindDomFreqMagnitude, kindDomFreqRatio, kindSpectralFlatness, kindSpectralEntropy:
		sp, ok := spectra[base]
		if !ok {
			var err error
			sp, err = newSpectrum(channel, rate, ex.FrequencyCutoff)
			if err != nil {
				return 0, err
			}
			spectra[base] = sp
		}
		switch kind {
		case kindDomFreqValue:
			return sp.dominantFrequency, nil
		case kindDomFreqMagnitude:
			return sp.dominantMagnitude, nil
		case kindDomFreqRatio:
			return sp.dominantRatio, nil
		case kindSpectralFlatness:
			return sp.flatness, nil
		default:
			return sp.entropy, nil
		}
	}
	return 0, &ComputationError{Reason: "unhandled feature kind"}
}

// splitChannelPair resolves "a_b" pair names where both a and b are known
// channels, trying every split point.
func (cs *ChannelSet) splitChannelPair(base string) (a, b []float64, ok bool) {
	for i := 1; i < len(base)-1; i++ {
		if base[i] != '_' {
			continue
		}
		first, okA := cs.Get(base[:i])
		second, okB := cs.Get(base[i+1:])
		if okA && okB && len(first) == len(second) && len(first) > 0 {
			return first, second, true
		}
	}
	return nil, nil, false
}

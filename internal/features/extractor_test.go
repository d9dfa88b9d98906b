package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineChannel(fs, freq, amp float64, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/fs)
	}
	return x
}

func testChannels(t *testing.T) *ChannelSet {
	t.Helper()
	cs := NewChannelSet(64)
	cs.Add("x_bp", sineChannel(64, 5, 0.5, 192))
	cs.Add("y_bp", sineChannel(64, 2, 0.3, 192))
	cs.Add("v", []float64{1, 2, 3, 4})
	return cs
}

func TestExtractBasicFeatures(t *testing.T) {
	ex := NewExtractor()
	cs := testChannels(t)

	v, err := ex.Extract(cs, 7, []string{"v_range", "v_rms"})
	require.NoError(t, err)
	assert.Equal(t, 7, v.EpochIndex)

	rng, ok := v.Get("v_range")
	require.True(t, ok)
	assert.InDelta(t, 3.0, rng, 1e-12)

	rms, ok := v.Get("v_rms")
	require.True(t, ok)
	assert.InDelta(t, math.Sqrt(1.25), rms, 1e-12)
}

func TestExtractDominantFrequency(t *testing.T) {
	ex := NewExtractor()
	cs := testChannels(t)

	v, err := ex.Extract(cs, 0, []string{
		"x_bp_dom_freq_value",
		"x_bp_dom_freq_magnitude",
		"x_bp_dom_freq_ratio",
		"x_bp_spectral_entropy",
		"x_bp_spectral_flatness",
	})
	require.NoError(t, err)

	freq, _ := v.Get("x_bp_dom_freq_value")
	assert.InDelta(t, 5.0, freq, 0.3, "a pure 5Hz sine must peak at 5Hz")

	magnitude, _ := v.Get("x_bp_dom_freq_magnitude")
	assert.Greater(t, magnitude, 0.15, "a pure tone concentrates its normalized power")

	ratio, _ := v.Get("x_bp_dom_freq_ratio")
	assert.Greater(t, ratio, magnitude-1e-12)
	assert.LessOrEqual(t, ratio, 1.0)

	entropy, _ := v.Get("x_bp_spectral_entropy")
	assert.Greater(t, entropy, 0.0)
	assert.Less(t, entropy, 1.0)

	flatness, _ := v.Get("x_bp_spectral_flatness")
	assert.Less(t, flatness, 0.0, "a pure tone is spectrally peaked, flatness in dB is negative")
}

func TestExtractCorrelation(t *testing.T) {
	ex := NewExtractor()
	cs := NewChannelSet(64)
	x := sineChannel(64, 3, 1, 192)
	scaled := make([]float64, len(x))
	for i, v := range x {
		scaled[i] = 2 * v
	}
	cs.Add("x_bp", x)
	cs.Add("y_bp", scaled)

	v, err := ex.Extract(cs, 0, []string{"x_bp_y_bp_corr_coef"})
	require.NoError(t, err)
	corr, _ := v.Get("x_bp_y_bp_corr_coef")
	assert.InDelta(t, 1.0, corr, 1e-9, "perfectly scaled channels correlate at 1")
}

func TestExtractMeanCrossRate(t *testing.T) {
	ex := NewExtractor()
	cs := NewChannelSet(64)
	cs.Add("v", []float64{1, -1, 1, -1})

	v, err := ex.Extract(cs, 0, []string{"v_mean_cross_rate"})
	require.NoError(t, err)
	mcr, _ := v.Get("v_mean_cross_rate")
	assert.InDelta(t, 0.75, mcr, 1e-12)
}

func TestExtractJerkRatio(t *testing.T) {
	ex := NewExtractor()
	cs := NewChannelSet(64)
	smooth := sineChannel(64, 1, 1, 192)
	rough := make([]float64, len(smooth))
	for i, v := range smooth {
		rough[i] = v + 0.2*math.Sin(2*math.Pi*20*float64(i)/64)
	}
	cs.Add("smooth", smooth)
	cs.Add("rough", rough)

	v, err := ex.Extract(cs, 0, []string{"smooth_jerk_ratio", "rough_jerk_ratio"})
	require.NoError(t, err)
	sj, _ := v.Get("smooth_jerk_ratio")
	rj, _ := v.Get("rough_jerk_ratio")
	assert.Greater(t, rj, sj, "a jerkier signal must score a higher jerk ratio")
	assert.Greater(t, sj, 0.0)
}

func TestExtractAutocovarianceIQR(t *testing.T) {
	ex := NewExtractor()
	cs := testChannels(t)

	v, err := ex.Extract(cs, 0, []string{"x_bp_iqr_of_autocovariance"})
	require.NoError(t, err)

	iqr, _ := v.Get("x_bp_iqr_of_autocovariance")
	assert.Greater(t, iqr, 0.0, "a periodic signal has a spread autocorrelation")
}

func TestExtractUnresolvableFeature(t *testing.T) {
	ex := NewExtractor()
	cs := testChannels(t)

	tests := []struct {
		name    string
		feature string
	}{
		{"unknown channel", "nope_rms"},
		{"unknown suffix", "x_bp_unheard_of"},
		{"unknown correlation pair", "x_bp_nope_corr_coef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ex.Extract(cs, 0, []string{tt.feature})
			require.Error(t, err)
			var cerr *ComputationError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.feature, cerr.Feature, "the error must name the unresolvable feature")
		})
	}
}

func TestExtractZeroVarianceSignal(t *testing.T) {
	ex := NewExtractor()
	cs := NewChannelSet(64)
	cs.Add("flat", []float64{2, 2, 2, 2})

	_, err := ex.Extract(cs, 0, []string{"flat_signal_entropy"})
	var cerr *ComputationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "flat_signal_entropy", cerr.Feature)
}

func TestExtractDeterministic(t *testing.T) {
	ex := NewExtractor()
	cs := testChannels(t)
	schema := []string{
		"x_bp_rms", "x_bp_range", "x_bp_dom_freq_value", "x_bp_signal_entropy",
		"x_bp_mean_cross_rate", "x_bp_range_count_per", "x_bp_y_bp_corr_coef",
	}

	first, err := ex.Extract(cs, 0, schema)
	require.NoError(t, err)
	second, err := ex.Extract(cs, 0, schema)
	require.NoError(t, err)
	assert.Equal(t, first.Values, second.Values, "extraction must be bit-identical across reruns")
}

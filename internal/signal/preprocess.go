package signal

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"pdmotion/internal/epoch"
)

// Clean band-isolates one epoch. The static gravity bias sits below every
// configured passband low edge, so band-pass filtering removes it along with
// out-of-band motion.
func Clean(e *epoch.Epoch, band Band) (*Cleaned, error) {
	want := epoch.SamplesPerEpoch(e.SampleRate)
	if e.Len() != want {
		return nil, &MalformedSignalError{Got: e.Len(), Want: want}
	}

	x := make([]float64, e.Len())
	y := make([]float64, e.Len())
	z := make([]float64, e.Len())
	for i, s := range e.Samples {
		x[i], y[i], z[i] = s.X, s.Y, s.Z
	}

	fx, err := BandPass(x, e.SampleRate, band)
	if err != nil {
		return nil, fmt.Errorf("filter x axis: %w", err)
	}
	fy, err := BandPass(y, e.SampleRate, band)
	if err != nil {
		return nil, fmt.Errorf("filter y axis: %w", err)
	}
	fz, err := BandPass(z, e.SampleRate, band)
	if err != nil {
		return nil, fmt.Errorf("filter z axis: %w", err)
	}

	return &Cleaned{X: fx, Y: fy, Z: fz, SampleRate: e.SampleRate}, nil
}

// BandPass applies a zero-phase Butterworth band-pass filter.
func BandPass(x []float64, fs float64, band Band) ([]float64, error) {
	coeffs, err := designBandPass(band.Order, band.Low, band.High, fs)
	if err != nil {
		return nil, fmt.Errorf("design band-pass %s: %w", band, err)
	}
	return filtfilt(coeffs, x), nil
}

// LowPass applies a zero-phase Butterworth low-pass filter.
func LowPass(x []float64, fs, cutoff float64, order int) ([]float64, error) {
	coeffs, err := designLowPass(order, cutoff, fs)
	if err != nil {
		return nil, fmt.Errorf("design low-pass %.2fHz: %w", cutoff, err)
	}
	return filtfilt(coeffs, x), nil
}

// FirstPrincipalComponent projects the three axes onto their first
// principal component. The component's sign is arbitrary; downstream
// features are sign-invariant.
func FirstPrincipalComponent(x, y, z []float64) ([]float64, error) {
	n := len(x)
	if n == 0 || len(y) != n || len(z) != n {
		return nil, fmt.Errorf("principal component: axis lengths %d/%d/%d", len(x), len(y), len(z))
	}

	m := mat.NewDense(n, 3, nil)
	for _, col := range []struct {
		idx  int
		data []float64
	}{{0, x}, {1, y}, {2, z}} {
		mean := 0.0
		for _, v := range col.data {
			mean += v
		}
		mean /= float64(n)
		for i, v := range col.data {
			m.Set(i, col.idx, v-mean)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		return nil, fmt.Errorf("principal component: SVD failed to converge")
	}

	var u mat.Dense
	svd.UTo(&u)
	s := svd.Values(nil)

	pc := make([]float64, n)
	for i := range pc {
		pc[i] = u.At(i, 0) * s[0]
	}
	return pc, nil
}

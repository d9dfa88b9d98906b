package signal

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// filtPadLen is the edge-extension length used by the zero-phase filter.
const filtPadLen = 10

// iirCoeffs holds one designed IIR filter as numerator/denominator
// coefficients in increasing powers of z^-1, with a[0] normalized to 1.
type iirCoeffs struct {
	b []float64
	a []float64
}

// designLowPass designs a digital Butterworth low-pass filter via the
// bilinear transform with frequency prewarping.
func designLowPass(order int, cutoff, fs float64) (iirCoeffs, error) {
	if err := checkDesign(order, cutoff, fs); err != nil {
		return iirCoeffs{}, err
	}

	warped := 2 * fs * math.Tan(math.Pi*cutoff/fs)

	sPoles := prototypePoles(order)
	for i := range sPoles {
		sPoles[i] *= complex(warped, 0)
	}

	zPoles := bilinear(sPoles, fs)
	// The order analog zeros at infinity map to z = -1.
	zZeros := make([]complex128, order)
	for i := range zZeros {
		zZeros[i] = -1
	}

	a := polyFromRoots(zPoles)
	b := polyFromRoots(zZeros)
	// Unity gain at DC.
	normalizeGain(b, a, 0)
	return iirCoeffs{b: b, a: a}, nil
}

// designBandPass designs a digital Butterworth band-pass filter via the
// low-pass prototype, analog band transform and bilinear transform.
func designBandPass(order int, low, high, fs float64) (iirCoeffs, error) {
	if err := checkDesign(order, high, fs); err != nil {
		return iirCoeffs{}, err
	}
	if low <= 0 || low >= high {
		return iirCoeffs{}, fmt.Errorf("invalid passband [%v,%v]", low, high)
	}

	w1 := 2 * fs * math.Tan(math.Pi*low/fs)
	w2 := 2 * fs * math.Tan(math.Pi*high/fs)
	bw := w2 - w1
	w0 := math.Sqrt(w1 * w2)

	proto := prototypePoles(order)
	sPoles := make([]complex128, 0, 2*order)
	for _, p := range proto {
		q := p * complex(bw/2, 0)
		disc := cmplx.Sqrt(q*q - complex(w0*w0, 0))
		sPoles = append(sPoles, q+disc, q-disc)
	}

	zPoles := bilinear(sPoles, fs)
	// order analog zeros at s=0 map to z=1; the order zeros at infinity map
	// to z=-1.
	zZeros := make([]complex128, 0, 2*order)
	for i := 0; i < order; i++ {
		zZeros = append(zZeros, 1, -1)
	}

	a := polyFromRoots(zPoles)
	b := polyFromRoots(zZeros)
	// Unity gain at the geometric center of the passband.
	center := 2 * math.Atan(w0/(2*fs))
	normalizeGain(b, a, center)
	return iirCoeffs{b: b, a: a}, nil
}

func checkDesign(order int, cutoff, fs float64) error {
	if order < 1 {
		return fmt.Errorf("filter order must be >= 1, got %d", order)
	}
	if fs <= 0 {
		return fmt.Errorf("sample rate must be positive, got %v", fs)
	}
	if cutoff <= 0 || cutoff >= fs/2 {
		return fmt.Errorf("cutoff %vHz outside (0, %vHz)", cutoff, fs/2)
	}
	return nil
}

// prototypePoles returns the poles of the analog Butterworth low-pass
// prototype with 1 rad/s cutoff.
func prototypePoles(order int) []complex128 {
	poles := make([]complex128, order)
	for k := 0; k < order; k++ {
		theta := math.Pi * float64(2*k+order+1) / float64(2*order)
		poles[k] = cmplx.Exp(complex(0, theta))
	}
	return poles
}

// bilinear maps analog s-plane roots to the digital z-plane.
func bilinear(roots []complex128, fs float64) []complex128 {
	out := make([]complex128, len(roots))
	fs2 := complex(2*fs, 0)
	for i, r := range roots {
		out[i] = (fs2 + r) / (fs2 - r)
	}
	return out
}

// polyFromRoots expands prod(1 - r*z^-1) into coefficients of increasing
// powers of z^-1. Complex roots arrive in conjugate pairs, so the result is
// real up to rounding.
func polyFromRoots(roots []complex128) []float64 {
	coeffs := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(coeffs)+1)
		for i, c := range coeffs {
			next[i] += c
			next[i+1] -= c * r
		}
		coeffs = next
	}
	out := make([]float64, len(coeffs))
	for i, c := range coeffs {
		out[i] = real(c)
	}
	return out
}

// normalizeGain scales b in place so |H(e^{jw})| = 1 at the given digital
// frequency w (radians/sample).
func normalizeGain(b, a []float64, w float64) {
	gain := cmplx.Abs(evalAt(a, w)) / cmplx.Abs(evalAt(b, w))
	for i := range b {
		b[i] *= gain
	}
}

func evalAt(coeffs []float64, w float64) complex128 {
	var sum complex128
	for i, c := range coeffs {
		sum += complex(c, 0) * cmplx.Exp(complex(0, -w*float64(i)))
	}
	return sum
}

// lfilter applies the IIR filter in direct form II transposed. The state
// vector starts at zi scaled by scale, which lets filtfilt start each pass
// in steady state relative to the first sample.
func lfilter(c iirCoeffs, x, zi []float64, scale float64) []float64 {
	n := len(c.a)
	b := c.b
	a := c.a

	z := make([]float64, n-1)
	for i := range z {
		z[i] = zi[i] * scale
	}

	y := make([]float64, len(x))
	for i, xi := range x {
		yi := b[0]*xi + z[0]
		for j := 1; j < n-1; j++ {
			z[j-1] = b[j]*xi + z[j] - a[j]*yi
		}
		z[n-2] = b[n-1]*xi - a[n-1]*yi
		y[i] = yi
	}
	return y
}

// stepInitialState returns the filter state that makes a constant input
// produce its steady-state output from the first sample.
func stepInitialState(c iirCoeffs) ([]float64, error) {
	b, a := c.b, c.a
	n := len(a)

	m := mat.NewDense(n-1, n-1, nil)
	for i := 0; i < n-1; i++ {
		if i > 0 {
			m.Set(i, i, 1)
		}
		m.Set(i, 0, m.At(i, 0)+a[i+1])
		if i == 0 {
			m.Set(0, 0, m.At(0, 0)+1)
		}
		if i+1 < n-1 {
			m.Set(i, i+1, -1)
		}
	}

	rhs := mat.NewVecDense(n-1, nil)
	for i := 0; i < n-1; i++ {
		rhs.SetVec(i, b[i+1]-a[i+1]*b[0])
	}

	var zi mat.VecDense
	if err := zi.SolveVec(m, rhs); err != nil {
		return nil, fmt.Errorf("initial filter state: %w", err)
	}

	out := make([]float64, n-1)
	for i := range out {
		out[i] = zi.AtVec(i)
	}
	return out, nil
}

// filtfilt applies the filter forward and backward for zero phase
// distortion, with odd extension at both edges and steady-state initial
// conditions to suppress edge transients.
func filtfilt(c iirCoeffs, x []float64) []float64 {
	padlen := filtPadLen
	if padlen >= len(x) {
		padlen = len(x) - 1
	}
	if padlen < 0 {
		padlen = 0
	}

	ext := make([]float64, 0, len(x)+2*padlen)
	for i := padlen; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	last := len(x) - 1
	for i := last - 1; i >= last-padlen; i-- {
		ext = append(ext, 2*x[last]-x[i])
	}

	zi, err := stepInitialState(c)
	if err != nil {
		// Singular state systems do not occur for Butterworth designs;
		// fall back to a zero state.
		zi = make([]float64, len(c.a)-1)
	}

	y := lfilter(c, ext, zi, ext[0])
	reverseInPlace(y)
	y = lfilter(c, y, zi, y[0])
	reverseInPlace(y)
	return y[padlen : len(y)-padlen]
}

func reverseInPlace(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}

func vecMag(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}

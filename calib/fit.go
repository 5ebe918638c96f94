/*
NAME
  fit.go

DESCRIPTION
  fit.go implements the noise-floor fitter: for each shift from 7 down
  to 0, decode and aggregate a no-antenna capture, take the per-bin
  median across windows, fftshift to centre DC, smooth with an
  8-wide box filter, and stop at the first shift whose smoothed noise
  floor is non-negative (in dB) across every bin. The accepted shift's
  curve is fit with a degree-2 polynomial, and bins departing from
  that fit by >=4dB get an outlier-corrected threshold.

AUTHOR
  SysNet SDR Group, UC San Diego
*/

package calib

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/utils/logging"
	"github.com/ucsdsysnet/sparsdr/stream"
)

// Version selects which wire format the calibration captures were
// recorded in.
type Version int

const (
	V1 Version = iota
	V2
)

// captureFilename is the calibration-folder naming convention:
// avgSamples.dat_<shift>_<rxgain>.
func captureFilename(folder string, shift, rxGain int) string {
	return filepath.Join(folder, fmt.Sprintf("avgSamples.dat_%d_%d", shift, rxGain))
}

// ErrMissingCalibration is returned (not fatal by itself; the caller
// decides whether to accept the degraded shift-0 result) when no
// shift in [0,7] produced an all-non-negative smoothed noise floor.
var ErrMissingCalibration = errors.New("calib: no shift produced a clean noise floor; degraded to shift 0")

// Result is the output of the noise-floor fitter.
type Result struct {
	ShiftValue            int
	BinIdx                []stream.BinIndex // FFT-native bin number of each centred entry.
	ThreshLinear          []float64
	ThreshLinearOutliers  []float64 // NaN for non-outlier bins.
	SmoothDb              []float64 // centred-bin order, for diagnostics.
	Degraded              bool
}

// Fit runs the shift-selection loop described above and returns the
// resulting thresholds. If every shift fails the quality check, it
// returns the shift-0 result alongside ErrMissingCalibration; the
// caller may treat that as fatal or accept the degraded calibration.
func Fit(folder string, nfft, rxGain int, version Version, log logging.Logger) (Result, error) {
	if nfft <= 0 || nfft&(nfft-1) != 0 {
		return Result{}, fmt.Errorf("calib: nfft must be a power of two, got %d", nfft)
	}

	var smoothDb, y1 []float64
	var accepted bool
	var shiftValue int

	for shiftValue = 7; shiftValue >= 0; shiftValue-- {
		path := captureFilename(folder, shiftValue, rxGain)
		mags, err := decodeAvgMagnitudes(path, nfft, version, log)
		if err != nil {
			return Result{}, errors.Wrapf(err, "calib: decoding capture for shift %d", shiftValue)
		}

		avgMat, err := Aggregate(mags, nfft)
		if err != nil {
			return Result{}, errors.Wrapf(err, "calib: aggregating capture for shift %d", shiftValue)
		}

		median := make([]float64, nfft)
		for b := 0; b < nfft; b++ {
			col := Column(avgMat, b)
			sort.Float64s(col)
			median[b] = stat.Quantile(0.5, stat.Empirical, col, nil)
		}

		centred := fftShift(median)
		smoothed := boxSmoothSame(centred, 8)
		smoothDb = make([]float64, nfft)
		for i, v := range smoothed {
			smoothDb[i] = 10 * math.Log10(v)
		}

		x := make([]float64, nfft)
		for i := range x {
			x[i] = float64(i)
		}
		y1 = polyfit2(x, smoothDb)

		log.Info("calib: evaluated shift", "shift", shiftValue, "allNonNegative", allNonNegative(smoothDb))
		if allNonNegative(smoothDb) {
			accepted = true
			break
		}
	}
	if shiftValue < 0 {
		shiftValue = 0
	}

	n := len(smoothDb)
	threshLinear := make([]float64, n)
	threshOutliers := make([]float64, n)
	for i := 0; i < n; i++ {
		threshLinear[i] = math.Ceil(math.Pow(10, y1[i]/10))
		errDb := smoothDb[i] - y1[i]
		if errDb >= 4 {
			y2 := y1[i] + errDb
			threshOutliers[i] = math.Ceil(math.Pow(10, y2/10))
		} else {
			threshOutliers[i] = math.NaN()
		}
	}

	binIdx := make([]stream.BinIndex, n)
	native := make([]float64, n)
	for i := range native {
		native[i] = float64(i)
	}
	for i, v := range fftShift(native) {
		binIdx[i] = stream.BinIndex(v)
	}

	res := Result{
		ShiftValue:           shiftValue,
		BinIdx:               binIdx,
		ThreshLinear:         threshLinear,
		ThreshLinearOutliers: threshOutliers,
		SmoothDb:             smoothDb,
		Degraded:             !accepted,
	}
	if !accepted {
		return res, ErrMissingCalibration
	}
	return res, nil
}

func allNonNegative(dB []float64) bool {
	for _, v := range dB {
		if !(v >= 0) { // false for NaN and -Inf too.
			return false
		}
	}
	return true
}

// decodeAvgMagnitudes opens path (scoped to this call; always
// closed), decodes it with the requested wire format, and returns the
// magnitude field of every AvgSample in wire order. FftSamples, if
// any appear in the capture, are ignored.
func decodeAvgMagnitudes(path string, nfft int, version Version, log logging.Logger) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "calib: open calibration capture")
	}
	defer f.Close()

	var mags []uint32
	next, err := newSampleSource(f, nfft, version, log)
	if err != nil {
		return nil, err
	}
	for {
		s, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "calib: decoding calibration capture")
		}
		if avg, ok := s.(*stream.AvgSample); ok {
			mags = append(mags, avg.Magnitude)
		}
	}
	return mags, nil
}

// newSampleSource returns a Next()-style function over the chosen
// wire format so decodeAvgMagnitudes doesn't need to care which
// decoder it's driving.
func newSampleSource(r io.Reader, nfft int, version Version, log logging.Logger) (func() (stream.Sample, error), error) {
	switch version {
	case V1:
		d, err := stream.NewV1Decoder(r, nfft, log)
		if err != nil {
			return nil, err
		}
		return d.Next, nil
	case V2:
		d, err := stream.NewV2Decoder(r, nfft, log)
		if err != nil {
			return nil, err
		}
		return d.Next, nil
	default:
		return nil, fmt.Errorf("calib: unknown wire format version %d", version)
	}
}

// fftShift centres DC: output[i] = input[(i+n/2) % n]. For the
// power-of-two lengths this core always deals with, fftShift is its
// own inverse.
func fftShift(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	half := n / 2
	for i := 0; i < n; i++ {
		out[i] = x[(i+half)%n]
	}
	return out
}

// boxSmoothSame applies a width-wide moving-average filter in the
// same way numpy.convolve(..., mode='same') does against a
// ones(width)/width kernel: zero-padded at the edges, output length
// equal to the input length. This biases the first and last bins low
// (documented behaviour, preserved for compatibility with existing
// calibration files).
func boxSmoothSame(a []float64, width int) []float64 {
	n := len(a)
	out := make([]float64, n)
	offset := (width - 1) / 2
	k := 1 / float64(width)
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < width; j++ {
			idx := i + offset - j
			if idx >= 0 && idx < n {
				sum += a[idx]
			}
		}
		out[i] = sum * k
	}
	return out
}

// polyfit2 fits y = c0*x^2 + c1*x + c2 by least squares and returns
// the evaluated fit at each x.
func polyfit2(x, y []float64) []float64 {
	n := len(x)
	design := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, x[i]*x[i])
		design.Set(i, 1, x[i])
		design.Set(i, 2, 1)
	}
	b := mat.NewDense(n, 1, append([]float64(nil), y...))

	var coeffs mat.Dense
	if err := coeffs.Solve(design, b); err != nil {
		// A least-squares solve over a well-posed Vandermonde-like
		// design matrix only fails for pathological (e.g. n<3,
		// duplicate-x) input; fall back to a flat fit rather than
		// panicking on a calibration edge case.
		c0, c1, c2 := 0.0, 0.0, stat.Mean(y, nil)
		return evalQuadratic(x, c0, c1, c2)
	}
	return evalQuadratic(x, coeffs.At(0, 0), coeffs.At(1, 0), coeffs.At(2, 0))
}

func evalQuadratic(x []float64, c0, c1, c2 float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = c0*xi*xi + c1*xi + c2
	}
	return out
}

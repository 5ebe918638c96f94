/*
NAME
  matrix.go

DESCRIPTION
  matrix.go implements the average-matrix aggregator: it reshapes a
  flat run of per-bin magnitude averages from a single shift-value
  capture into a (windows x nfft) matrix, subtracting the hardware's
  "count+1" bias.

AUTHOR
  SysNet SDR Group, UC San Diego
*/

// Package calib implements noise-floor calibration and
// threshold-synthesis for SparSDR captures: aggregating average-
// magnitude captures into a matrix, fitting a smoothed noise floor
// per shift value, computing the conservative shift, rescaling
// thresholds when the used shift differs from the suggested one, and
// reading/writing the threshold configuration file.
package calib

import "github.com/pkg/errors"

// ErrShortCapture is returned by Aggregate when a capture contains
// fewer than one full window of samples.
var ErrShortCapture = errors.New("calib: capture is shorter than one full fft window")

// Aggregate truncates mags to a multiple of nfft, reshapes it into a
// (windows x nfft) matrix in FFT-native bin order, and subtracts 1
// from every element (the radio reports count+1 to distinguish "no
// samples" from "zero magnitude").
func Aggregate(mags []uint32, nfft int) ([][]float64, error) {
	windows := len(mags) / nfft
	if windows < 1 {
		return nil, errors.Wrapf(ErrShortCapture, "got %d samples, need at least %d", len(mags), nfft)
	}

	mat := make([][]float64, windows)
	for w := 0; w < windows; w++ {
		row := make([]float64, nfft)
		for b := 0; b < nfft; b++ {
			row[b] = float64(mags[w*nfft+b]) - 1
		}
		mat[w] = row
	}
	return mat, nil
}

// Column returns the bth column of mat (the bin-b value across every
// window), used to compute per-bin statistics.
func Column(mat [][]float64, b int) []float64 {
	col := make([]float64, len(mat))
	for w, row := range mat {
		col[w] = row[b]
	}
	return col
}

/*
NAME
  shift.go

DESCRIPTION
  shift.go implements the dynamic-range bookkeeping: the conservative-
  shift calculation for a Pluto-class front end, and the threshold
  rescaling applied when the bit-shift actually in use differs from a
  calibration's suggested value.

AUTHOR
  SysNet SDR Group, UC San Diego
*/

package calib

import (
	"math"

	"github.com/ausocean/utils/logging"
)

// plutoSampleRateMHz is the Pluto ADC sample rate assumed by the
// conservative-shift formula.
const plutoSampleRateMHz = 61.44

// ConservativeShift returns the largest bit-shift that still fits the
// worst-case in-band signal into 12 bits after quantisation, given
// the estimated PAPR and bandwidth of the strongest expected signal.
func ConservativeShift(nfft int, estPAPRdB, estBWMHz float64) float64 {
	binsInBW := math.Ceil(float64(nfft) * estBWMHz / plutoSampleRateMHz)
	return 7 - math.Log2(math.Pow(10, (estPAPRdB+10*math.Log10(binsInBW))/20))
}

// Rescale recomputes threshold values for a calibration loaded with
// suggestedShift but used at binShift, applying offsetDB of headroom.
// It warns via log (never returns an error) when binShift implies a
// dynamic-range loss or risks numeric overflow relative to the
// conservative shift.
func Rescale(thresholds []float64, suggestedShift, binShift int, conservativeShift, offsetDB float64, log logging.Logger) []int {
	d := binShift - suggestedShift

	if float64(binShift) < conservativeShift {
		log.Warning("sparsdr: shift below conservative shift, numeric overflow possible",
			"conservativeShift", conservativeShift, "binShift", binShift)
	}
	if d > 0 {
		dynRangeLossDB := 20 * math.Log10(math.Pow(2, float64(d)))
		log.Warning("sparsdr: shift above suggested shift, dynamic range loss expected",
			"suggestedShift", suggestedShift, "binShift", binShift, "lossDB", dynRangeLossDB)
	}

	out := make([]int, len(thresholds))
	scale := math.Pow(10, offsetDB/10) / math.Pow(4, float64(d))
	for i, th := range thresholds {
		out[i] = int(math.Round(th * scale))
	}
	return out
}

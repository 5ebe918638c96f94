/*
NAME
  clipcheck.go

DESCRIPTION
  clipcheck.go implements the receive-gain clip check: given a raw IQ
  capture taken at a candidate gain, decide whether to halve the gain
  (clipping detected), keep it (already close to full-scale), or step
  it toward full-scale by the dB deficit measured.

AUTHOR
  SysNet SDR Group, UC San Diego
*/

package calib

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

// clipCheckFullScale is the ADC full-scale magnitude (2000 of 2^15)
// the clip check targets.
const clipCheckFullScale = 2000.0

// clipCheckThresholdDB is the minimum shortfall from full scale
// worth correcting for; anything closer than this is left alone.
const clipCheckThresholdDB = 2.0

// DefaultClipCheckFilename is the raw-IQ capture clipCheck looks for
// in the calibration folder.
const DefaultClipCheckFilename = "clipCheck.iq"

// ClipCheck reads path as a stream of little-endian int16 (real,
// imag) pairs recorded at rxGain, and returns the receive gain to
// use going forward: rxGain/2 if either component exceeded full scale
// (clipCheckFullScale), rxGain unchanged if it's already within
// clipCheckThresholdDB of full scale, or rxGain boosted by the
// measured dB shortfall otherwise.
func ClipCheck(path string, rxGain int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "calib: open clip check capture")
	}
	defer f.Close()
	return clipCheck(f, rxGain)
}

func clipCheck(r io.Reader, rxGain int) (int, error) {
	br := bufio.NewReader(r)

	var maxAbs int
	var n int
	for {
		var re, im int16
		if err := binary.Read(br, binary.LittleEndian, &re); err != nil {
			if err == io.EOF {
				break
			}
			return 0, errors.Wrap(err, "calib: reading clip check real component")
		}
		if err := binary.Read(br, binary.LittleEndian, &im); err != nil {
			return 0, errors.Wrap(err, "calib: reading clip check imag component (truncated pair)")
		}
		n++
		if a := abs32(int(re)); a > maxAbs {
			maxAbs = a
		}
		if a := abs32(int(im)); a > maxAbs {
			maxAbs = a
		}
	}
	if n == 0 {
		return 0, errors.New("calib: clip check capture is empty")
	}

	if maxAbs > clipCheckFullScale {
		return rxGain / 2, nil
	}

	deficitDB := 20 * math.Log10(clipCheckFullScale/float64(maxAbs))
	if deficitDB < clipCheckThresholdDB {
		return rxGain, nil
	}
	return rxGain + int(math.Round(deficitDB)), nil
}

func abs32(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

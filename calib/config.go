/*
NAME
  config.go

DESCRIPTION
  config.go implements the threshold configuration file codec: five
  fixed header lines followed by exactly NFFT "<bin> <threshold>"
  lines. Reading parses bin as int and threshold as float (the
  outlier value for outlier bins, otherwise the baseline linear
  threshold); writing ceils every threshold.

AUTHOR
  SysNet SDR Group, UC San Diego
*/

package calib

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/ucsdsysnet/sparsdr/stream"
)

// DefaultConfigFilename is the default threshold config filename.
const DefaultConfigFilename = "thresholdConfig.txt"

// CalibrationRecord is the in-memory form of a threshold config file.
// Thresholds may still be floats prior to writing; WriteConfig ceils
// them.
type CalibrationRecord struct {
	RxGainDB          int
	EstPAPRdB         float64
	EstBWMHz          float64
	ConservativeShift float64
	SuggestedShift    int
	Thresholds        map[stream.BinIndex]float64
}

// WriteConfig writes rec to path in the header-lines-then-per-bin-
// lines format, ceiling every threshold.
func WriteConfig(path string, rec CalibrationRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "calib: create config file")
	}
	defer f.Close()
	return writeConfig(f, rec)
}

func writeConfig(w io.Writer, rec CalibrationRecord) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "RxGaindB %d\n", rec.RxGainDB)
	fmt.Fprintf(bw, "EstPAPRdB %v\n", rec.EstPAPRdB)
	fmt.Fprintf(bw, "estBWMHz %v\n", rec.EstBWMHz)
	fmt.Fprintf(bw, "ConservativeShift %v\n", rec.ConservativeShift)
	fmt.Fprintf(bw, "SuggestedShift %d\n", rec.SuggestedShift)

	bins := make([]int, 0, len(rec.Thresholds))
	for b := range rec.Thresholds {
		bins = append(bins, int(b))
	}
	sort.Ints(bins)
	for _, b := range bins {
		fmt.Fprintf(bw, "%d %d\n", b, int64(math.Ceil(rec.Thresholds[stream.BinIndex(b)])))
	}
	return bw.Flush()
}

// ReadConfig reads a threshold config file from path. NFFT is
// inferred from the number of per-bin lines; every bin read is
// validated to be in range.
func ReadConfig(path string) (CalibrationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return CalibrationRecord{}, errors.Wrap(err, "calib: open config file")
	}
	defer f.Close()
	return readConfig(f)
}

func readConfig(r io.Reader) (CalibrationRecord, error) {
	sc := bufio.NewScanner(r)

	header := make(map[string]string, 5)
	headerKeys := []string{"RxGaindB", "EstPAPRdB", "estBWMHz", "ConservativeShift", "SuggestedShift"}
	for _, key := range headerKeys {
		if !sc.Scan() {
			return CalibrationRecord{}, errors.Errorf("calib: config file ended before header line %q", key)
		}
		var gotKey, value string
		if _, err := fmt.Sscan(sc.Text(), &gotKey, &value); err != nil {
			return CalibrationRecord{}, errors.Wrapf(err, "calib: parsing header line %q", sc.Text())
		}
		if gotKey != key {
			return CalibrationRecord{}, errors.Errorf("calib: expected header %q, got %q", key, gotKey)
		}
		header[key] = value
	}

	var rec CalibrationRecord
	if _, err := fmt.Sscan(header["RxGaindB"], &rec.RxGainDB); err != nil {
		return CalibrationRecord{}, errors.Wrap(err, "calib: parsing RxGaindB")
	}
	if _, err := fmt.Sscan(header["EstPAPRdB"], &rec.EstPAPRdB); err != nil {
		return CalibrationRecord{}, errors.Wrap(err, "calib: parsing EstPAPRdB")
	}
	if _, err := fmt.Sscan(header["estBWMHz"], &rec.EstBWMHz); err != nil {
		return CalibrationRecord{}, errors.Wrap(err, "calib: parsing estBWMHz")
	}
	if _, err := fmt.Sscan(header["ConservativeShift"], &rec.ConservativeShift); err != nil {
		return CalibrationRecord{}, errors.Wrap(err, "calib: parsing ConservativeShift")
	}
	if _, err := fmt.Sscan(header["SuggestedShift"], &rec.SuggestedShift); err != nil {
		return CalibrationRecord{}, errors.Wrap(err, "calib: parsing SuggestedShift")
	}

	rec.Thresholds = make(map[stream.BinIndex]float64)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		var bin int
		var thresh float64
		if _, err := fmt.Sscan(line, &bin, &thresh); err != nil {
			return CalibrationRecord{}, errors.Wrapf(err, "calib: parsing bin line %q", line)
		}
		rec.Thresholds[stream.BinIndex(bin)] = thresh
	}
	if err := sc.Err(); err != nil {
		return CalibrationRecord{}, errors.Wrap(err, "calib: scanning config file")
	}

	nfft := len(rec.Thresholds)
	for bin := range rec.Thresholds {
		if err := stream.ValidateBin(bin, nfft); err != nil {
			return CalibrationRecord{}, errors.Wrap(err, "calib: config file bin out of range")
		}
	}

	return rec, nil
}

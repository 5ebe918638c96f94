/*
NAME
  config_test.go

DESCRIPTION
  config_test.go tests the threshold configuration file codec
  round-trip.

AUTHOR
  SysNet SDR Group, UC San Diego
*/

package calib

import (
	"bytes"
	"math"
	"testing"

	"github.com/ucsdsysnet/sparsdr/stream"
)

func TestConfigRoundTrip(t *testing.T) {
	rec := CalibrationRecord{
		RxGainDB:          30,
		EstPAPRdB:         6.5,
		EstBWMHz:          0.2,
		ConservativeShift: 4.25,
		SuggestedShift:    5,
		Thresholds: map[stream.BinIndex]float64{
			0: 10.4,
			1: 20.9,
			2: 30.0,
			3: 40.1,
		},
	}

	var buf bytes.Buffer
	if err := writeConfig(&buf, rec); err != nil {
		t.Fatal(err)
	}

	got, err := readConfig(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if got.RxGainDB != rec.RxGainDB {
		t.Errorf("RxGainDB = %d, want %d", got.RxGainDB, rec.RxGainDB)
	}
	if got.EstPAPRdB != rec.EstPAPRdB {
		t.Errorf("EstPAPRdB = %v, want %v", got.EstPAPRdB, rec.EstPAPRdB)
	}
	if got.EstBWMHz != rec.EstBWMHz {
		t.Errorf("EstBWMHz = %v, want %v", got.EstBWMHz, rec.EstBWMHz)
	}
	if got.ConservativeShift != rec.ConservativeShift {
		t.Errorf("ConservativeShift = %v, want %v", got.ConservativeShift, rec.ConservativeShift)
	}
	if got.SuggestedShift != rec.SuggestedShift {
		t.Errorf("SuggestedShift = %d, want %d", got.SuggestedShift, rec.SuggestedShift)
	}
	if len(got.Thresholds) != len(rec.Thresholds) {
		t.Fatalf("got %d thresholds, want %d", len(got.Thresholds), len(rec.Thresholds))
	}
	for bin, want := range rec.Thresholds {
		gotVal, ok := got.Thresholds[bin]
		if !ok {
			t.Fatalf("missing bin %d in round trip", bin)
		}
		if gotVal != math.Ceil(want) {
			t.Errorf("Thresholds[%d] = %v, want %v (ceiled on write)", bin, gotVal, math.Ceil(want))
		}
	}
}

func TestReadConfigRejectsBadHeader(t *testing.T) {
	bad := bytes.NewBufferString("NotAHeader 1\n")
	if _, err := readConfig(bad); err == nil {
		t.Fatal("expected an error for a malformed header")
	}
}

func TestReadConfigRejectsOutOfRangeBin(t *testing.T) {
	var buf bytes.Buffer
	rec := CalibrationRecord{
		Thresholds: map[stream.BinIndex]float64{0: 1, 1: 2},
	}
	if err := writeConfig(&buf, rec); err != nil {
		t.Fatal(err)
	}
	s := buf.String() + "5 3\n"
	if _, err := readConfig(bytes.NewBufferString(s)); err == nil {
		t.Fatal("expected an error for a bin index outside the inferred NFFT range")
	}
}

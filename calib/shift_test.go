/*
NAME
  shift_test.go

DESCRIPTION
  shift_test.go tests the conservative-shift calculation and the
  threshold rescaler.

AUTHOR
  SysNet SDR Group, UC San Diego
*/

package calib

import (
	"io"
	"math"
	"testing"

	"github.com/ausocean/utils/logging"
)

func testLogger() logging.Logger {
	return logging.New(logging.Debug, io.Discard, true)
}

// TestConservativeShiftDefaultParams checks the degenerate case of a
// zero-PAPR, single-bin-wide signal estimate, for which the formula
// reduces to exactly 7 (no headroom needed).
func TestConservativeShiftDefaultParams(t *testing.T) {
	got := ConservativeShift(1024, 0, 0.01)
	if math.Abs(got-7) > 1e-9 {
		t.Errorf("ConservativeShift = %v, want 7", got)
	}
}

// TestConservativeShiftWidensWithBandwidth checks that a wider
// expected signal (more bins in band) tightens (lowers) the
// conservative shift.
func TestConservativeShiftWidensWithBandwidth(t *testing.T) {
	narrow := ConservativeShift(1024, 0, 0.01)
	wide := ConservativeShift(1024, 0, 10)
	if wide >= narrow {
		t.Errorf("ConservativeShift(wide)=%v should be less than ConservativeShift(narrow)=%v", wide, narrow)
	}
}

func TestRescaleNoOp(t *testing.T) {
	out := Rescale([]float64{10, 20}, 5, 5, 3, 0, testLogger())
	want := []int{10, 20}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}

// TestRescaleAboveSuggested checks that using a shift above the
// suggested one divides thresholds by 4^d, per the bit-shift-squares-
// the-power relationship.
func TestRescaleAboveSuggested(t *testing.T) {
	out := Rescale([]float64{40}, 5, 6, 3, 0, testLogger())
	if out[0] != 10 {
		t.Errorf("out[0] = %d, want 10", out[0])
	}
}

func TestRescaleOffset(t *testing.T) {
	out := Rescale([]float64{10}, 5, 5, 3, 10, testLogger())
	// offsetDB=10 -> scale by 10^(10/10) = 10.
	if out[0] != 100 {
		t.Errorf("out[0] = %d, want 100", out[0])
	}
}

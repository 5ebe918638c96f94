/*
NAME
  matrix_test.go

DESCRIPTION
  matrix_test.go tests the average-matrix aggregator.

AUTHOR
  SysNet SDR Group, UC San Diego
*/

package calib

import "testing"

func TestAggregate(t *testing.T) {
	// Two windows of nfft=4: window 0 carries 1..4, window 1 carries
	// 5..8 (before the count+1 bias is removed).
	mags := []uint32{1, 2, 3, 4, 5, 6, 7, 8}
	mat, err := Aggregate(mags, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(mat) != 2 {
		t.Fatalf("got %d windows, want 2", len(mat))
	}
	want := [][]float64{{0, 1, 2, 3}, {4, 5, 6, 7}}
	for w := range want {
		for b := range want[w] {
			if mat[w][b] != want[w][b] {
				t.Errorf("mat[%d][%d] = %v, want %v", w, b, mat[w][b], want[w][b])
			}
		}
	}
}

func TestAggregateTruncatesPartialWindow(t *testing.T) {
	mags := []uint32{1, 2, 3, 4, 5, 6} // one full window of 4, plus 2 leftover samples.
	mat, err := Aggregate(mags, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(mat) != 1 {
		t.Fatalf("got %d windows, want 1", len(mat))
	}
}

func TestAggregateShortCapture(t *testing.T) {
	if _, err := Aggregate([]uint32{1, 2, 3}, 4); err == nil {
		t.Fatal("expected an error for a capture shorter than one window")
	}
}

func TestColumn(t *testing.T) {
	mat := [][]float64{{1, 2, 3}, {4, 5, 6}}
	col := Column(mat, 1)
	want := []float64{2, 5}
	for i := range want {
		if col[i] != want[i] {
			t.Errorf("col[%d] = %v, want %v", i, col[i], want[i])
		}
	}
}

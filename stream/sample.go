/*
NAME
  sample.go

DESCRIPTION
  sample.go defines the sample types emitted by the V1 and V2 stream
  decoders, and the BinIndex/Timestamp types shared by the rest of the
  core.

AUTHOR
  SysNet SDR Group, UC San Diego
*/

// Package stream decodes SparSDR compressed-capture wire formats (V1
// and V2) into a time-tagged stream of FFT and average-magnitude
// samples.
package stream

import "github.com/pkg/errors"

// ClockHz is the ADC sample clock for a Pluto-class front end.
const ClockHz = 61.44e6

// sampleNs is the duration of one ADC sample in nanoseconds:
// 1e9/ClockHz, which works out to 16.2760417 ns for the Pluto clock.
// Computed from the clock constant rather than hard-coded so a
// different front end (e.g. USRP N210 at a different clock) only
// needs ClockHz changed.
const sampleNs = 1e9 / ClockHz

// windowScale returns the nanosecond duration of one wire-counter
// "tick" for an nfft-bin capture. The wire time field advances once
// per FFT hop, not once per ADC sample; the hop size is nfft/2
// samples (50% window overlap), so a raw counter value of 1
// corresponds to nfft/2 ADC sample periods.
func windowScale(nfft int) float64 {
	return sampleNs * float64(nfft/2)
}

// ticksToNs converts a raw wire-counter value to nanoseconds for a
// capture of the given NFFT size.
func ticksToNs(ticks int64, nfft int) int64 {
	return int64(float64(ticks) * windowScale(nfft))
}

// BinIndex is an FFT bin number in [0, NFFT).
type BinIndex int

// Timestamp is a reconstructed, monotonic tick count in units of the
// ADC sample clock.
type Timestamp int64

// FftSample is a single complex FFT bin that exceeded its threshold.
type FftSample struct {
	WindowID int      // low bit of the header time; diagnostics only.
	Bin      BinIndex // FFT bin index.
	TimeNs   int64    // reconstructed absolute time, nanoseconds.
	Re       int16
	Im       int16
}

// AvgSample is a per-bin running magnitude average.
type AvgSample struct {
	Bin       BinIndex
	TimeNs    int64
	Magnitude uint32
}

// Sample is a tagged variant over the two sample kinds a decoder can
// emit. Consumers type-switch on the concrete type; aggregators only
// care about *AvgSample.
type Sample interface {
	isSample()
}

func (*FftSample) isSample() {}
func (*AvgSample) isSample() {}

// ValidateBin rejects a BinIndex outside [0, nfft), per the data
// model's invariant that on-wire or on-disk bin values outside this
// range must be rejected. The V1/V2 wire decoders never need to call
// this themselves: their bin fields are always masked to width
// log2(nfft) by construction, so they can't produce an out-of-range
// BinIndex. It exists for callers that parse a BinIndex from
// unmasked input, such as the threshold config codec.
func ValidateBin(bin BinIndex, nfft int) error {
	if bin < 0 || int(bin) >= nfft {
		return errors.Wrapf(ErrBadBinIndex, "bin %d out of range [0,%d)", bin, nfft)
	}
	return nil
}

// log2 returns log2(n) for a power-of-two n, or -1 if n is not a
// power of two or is non-positive.
func log2(n int) int {
	if n <= 0 || n&(n-1) != 0 {
		return -1
	}
	l := 0
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}

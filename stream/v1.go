/*
NAME
  v1.go

DESCRIPTION
  v1.go implements the SparSDR V1 decoder: a fixed 8-byte-record
  stream, [imag:i16][real:i16][hdr:u32], little-endian. hdr packs
  is_avg (bit 31), a BinIndex of width L=log2(NFFT), and a wrapping
  time counter of width 31-L in the remaining bits. The first 4 bytes
  are re-read as a single unsigned avg_magnitude when is_avg is set.

AUTHOR
  SysNet SDR Group, UC San Diego
*/

package stream

import (
	"fmt"
	"io"

	"github.com/ausocean/utils/logging"
)

// section distinguishes the FFT and average-magnitude sub-streams,
// each of which wraps and is offset-corrected independently.
type section int

const (
	sectionFft section = iota
	sectionAvg
	numSections
)

// V1Decoder decodes a SparSDR V1 byte stream into a sequence of
// samples with reconstructed absolute timestamps. Construct with
// NewV1Decoder, feed it a reader, and drain with repeated calls to
// Next until it returns io.EOF.
type V1Decoder struct {
	r    *wordReader
	nfft int
	l    int   // log2(nfft)
	tb   uint  // time field width, 31-l
	tm   int64 // time field mask, (1<<tb)-1

	first      bool
	lastTime   [numSections]int64
	timeOffset [numSections]int64

	log logging.Logger
}

// NewV1Decoder constructs a V1 decoder for an NFFT-bin capture. NFFT
// must be a power of two no larger than 1024 (L=log2(NFFT) <= 10),
// per the V1 header's fixed bit layout.
func NewV1Decoder(r io.Reader, nfft int, log logging.Logger) (*V1Decoder, error) {
	l := log2(nfft)
	if l < 0 || l > 10 {
		return nil, fmt.Errorf("sparsdr: invalid nfft %d for v1 (must be a power of two <= 1024)", nfft)
	}
	return &V1Decoder{
		r:     newWordReader(r, 8),
		nfft:  nfft,
		l:     l,
		tb:    uint(31 - l),
		tm:    (1 << uint(31-l)) - 1,
		first: true,
		log:   log,
	}, nil
}

// Next decodes and returns the next sample. It returns io.EOF once
// the stream is cleanly exhausted, or ErrTruncatedRecord if the
// stream ends mid-record.
func (d *V1Decoder) Next() (Sample, error) {
	b, err := d.r.read()
	if err != nil {
		return nil, err
	}

	imag := le16(b[0:2])
	real := le16(b[2:4])
	avgMagnitude := le32u(b[0:4])
	hdr := le32u(b[4:8])

	isAvg := hdr>>31&1 == 1
	index := BinIndex((hdr >> d.tb) & uint32((1<<uint(d.l))-1))
	time := int64(hdr) & d.tm

	sec := sectionFft
	if isAvg {
		sec = sectionAvg
	}

	if d.first {
		d.timeOffset[sectionFft] = -time
		d.timeOffset[sectionAvg] = -time
		d.first = false
	}

	if time < d.lastTime[sec] {
		d.timeOffset[sec] += 1 << d.tb
	}
	d.lastTime[sec] = time

	if isAvg {
		ticks := (time &^ 1) + d.timeOffset[sectionAvg]
		return &AvgSample{
			Bin:       index,
			TimeNs:    ticksToNs(ticks, d.nfft),
			Magnitude: avgMagnitude,
		}, nil
	}

	ticks := time + d.timeOffset[sectionFft]
	return &FftSample{
		WindowID: int(time & 1),
		Bin:      index,
		TimeNs:   ticksToNs(ticks, d.nfft),
		Re:       real,
		Im:       imag,
	}, nil
}

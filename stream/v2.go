/*
NAME
  v2.go

DESCRIPTION
  v2.go implements the SparSDR V2 decoder: a stream of 4-byte
  little-endian words framed by zero markers, carrying FFT/average
  headers, an index-resync word, and payload words. The decoder is an
  explicit finite-state machine (sync state + section + "what comes
  next" expectation) rather than the scattered booleans the reference
  parser uses for the same job.

AUTHOR
  SysNet SDR Group, UC San Diego
*/

package stream

import (
	"fmt"
	"io"

	"github.com/ausocean/utils/logging"
)

// syncState is whether the decoder has found frame alignment yet.
type syncState int

const (
	searching syncState = iota
	locked
)

// expect is what kind of word the Locked state machine is ready to
// consume next.
type expect int

const (
	expectPayload expect = iota
	expectAfterZero
)

// V2Decoder decodes a SparSDR V2 word stream. Construct with
// NewV2Decoder and drain with repeated calls to Next.
type V2Decoder struct {
	r    *wordReader
	nfft int

	sync    syncState
	sawZero bool // Searching: have we seen the leading zero yet?

	section     section
	expect      expect
	fftIndex    BinIndex
	afterHeader bool // first FFT payload after a header is an index, not data.

	lastFftTime, lastAvgTime     int64
	fftTimeOffset, avgTimeOffset int64
	fixedFftTime, fixedAvgTime   int64
	fftWindowID                  int

	log logging.Logger
}

// NewV2Decoder constructs a V2 decoder for an NFFT-bin capture. NFFT
// must be a power of two (the payload bin-index mask is NFFT-1).
func NewV2Decoder(r io.Reader, nfft int, log logging.Logger) (*V2Decoder, error) {
	if log2(nfft) < 0 {
		return nil, fmt.Errorf("sparsdr: nfft must be a power of two, got %d", nfft)
	}
	return &V2Decoder{
		r:    newWordReader(r, 4),
		nfft: nfft,
		log:  log,
	}, nil
}

// Next decodes and returns the next sample, skipping over framing,
// headers and index-resync words internally. It returns io.EOF once
// the stream is cleanly exhausted, or ErrTruncatedRecord if the
// stream ends mid-word.
func (d *V2Decoder) Next() (Sample, error) {
	for {
		b, err := d.r.read()
		if err != nil {
			return nil, err
		}
		word := le32u(b)

		var sample Sample
		if d.sync == searching {
			sample = d.stepSearching(word)
		} else {
			sample = d.stepLocked(word)
		}
		if sample != nil {
			return sample, nil
		}
	}
}

// stepSearching consumes words until the (zero, header) sync pattern
// is observed, then hands the header word to stepLocked so the usual
// header-processing logic establishes the first window.
func (d *V2Decoder) stepSearching(word uint32) Sample {
	if !d.sawZero {
		if word == 0 {
			d.sawZero = true
		} else {
			d.log.Debug("sparsdr: searching for sync, discarding word")
		}
		return nil
	}

	if word == 0 {
		d.log.Debug("sparsdr: searching for sync, saw zero again")
		return nil
	}
	if !isHdr(word) {
		d.log.Debug("sparsdr: searching for sync, expected header")
		d.sawZero = false
		return nil
	}

	time := int64(word & 0x3FFFFFFF)
	d.fftTimeOffset = -time
	d.avgTimeOffset = -time
	d.sync = locked
	d.expect = expectAfterZero
	d.sawZero = false
	return d.stepLocked(word)
}

// stepLocked runs one word through the Locked state machine in
// §4.2's table, returning a sample if this word produced one.
func (d *V2Decoder) stepLocked(word uint32) Sample {
	switch d.expect {
	case expectAfterZero:
		return d.stepAfterZero(word)
	default:
		return d.stepPayload(word)
	}
}

func (d *V2Decoder) stepAfterZero(word uint32) Sample {
	if word == 0 {
		d.log.Warning("sparsdr: unexpected zero word while resyncing")
		d.sync = searching
		d.sawZero = false
		return nil
	}

	if isHdr(word) {
		time := int64(word & 0x3FFFFFFF)
		if word>>30&1 == 1 {
			if time < d.lastAvgTime {
				d.avgTimeOffset += 1 << 30
			}
			d.lastAvgTime = time
			ticks := (time &^ 1) + d.avgTimeOffset
			d.fixedAvgTime = ticksToNs(ticks, d.nfft)
			d.fftIndex = 0
			d.section = sectionAvg
		} else {
			if time < d.lastFftTime {
				d.fftTimeOffset += 1 << 30
			}
			d.lastFftTime = time
			ticks := time + d.fftTimeOffset
			d.fixedFftTime = ticksToNs(ticks, d.nfft)
			d.fftWindowID = int(time & 1)
			d.section = sectionFft
			d.afterHeader = true
		}
		d.expect = expectPayload
		return nil
	}

	// Index resync.
	d.fftIndex = BinIndex(word & uint32(d.nfft-1))
	d.expect = expectPayload
	return nil
}

func (d *V2Decoder) stepPayload(word uint32) Sample {
	if d.section == sectionFft {
		// The word right after an FFT header is always an index, even
		// when it is zero (bin 0).
		if d.afterHeader {
			d.fftIndex = BinIndex(word & uint32(d.nfft-1))
			d.afterHeader = false
			return nil
		}
		if word == 0 {
			d.expect = expectAfterZero
			return nil
		}
		im := int16(word & 0xFFFF)
		re := int16(word >> 16)
		s := &FftSample{
			WindowID: d.fftWindowID,
			Bin:      d.fftIndex,
			TimeNs:   d.fixedFftTime,
			Re:       re,
			Im:       im,
		}
		d.fftIndex++
		return s
	}

	// sectionAvg.
	if int(d.fftIndex) == d.nfft && word == 0 {
		d.expect = expectAfterZero
		return nil
	}
	s := &AvgSample{
		Bin:       d.fftIndex,
		TimeNs:    d.fixedAvgTime,
		Magnitude: word,
	}
	d.fftIndex++
	return s
}

func isHdr(word uint32) bool {
	return word>>31&1 == 1
}

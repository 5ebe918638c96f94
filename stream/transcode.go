/*
NAME
  transcode.go

DESCRIPTION
  transcode.go implements the optional V2->V1 transcoding mode: every
  sample emitted by a V2Decoder is additionally packed into an 8-byte
  V1 record and written out, so the resulting V1 stream is itself
  decodable by NewV1Decoder. The reference parser's version of this
  packing is a syntax-broken expression (see design notes); the
  packing below is the corrected form, bit-for-bit compatible with
  v1.go's unpacking.

AUTHOR
  SysNet SDR Group, UC San Diego
*/

package stream

import (
	"encoding/binary"
	"io"
)

// Transcoder wraps a V2Decoder, writing each decoded sample to w as
// an 8-byte V1 record in addition to returning it.
type Transcoder struct {
	d *V2Decoder
	w io.Writer
	l int // log2(nfft), shared with the V1 header layout.
}

// NewTranscoder returns a Transcoder that decodes from d and mirrors
// every sample onto w in V1 wire format.
func NewTranscoder(d *V2Decoder, w io.Writer) *Transcoder {
	return &Transcoder{d: d, w: w, l: log2(d.nfft)}
}

// Next decodes the next sample from the underlying V2Decoder, writes
// its V1 encoding to the configured writer, and returns the sample.
func (t *Transcoder) Next() (Sample, error) {
	s, err := t.d.Next()
	if err != nil {
		return nil, err
	}

	tb := uint(31 - t.l)
	timeMask := int64(1)<<tb - 1

	var rec [8]byte
	switch v := s.(type) {
	case *AvgSample:
		binary.LittleEndian.PutUint32(rec[0:4], v.Magnitude)
		time := uint32(t.d.lastAvgTime & timeMask)
		hdr := uint32(1)<<31 | uint32(v.Bin)<<tb | time
		binary.LittleEndian.PutUint32(rec[4:8], hdr)
	case *FftSample:
		binary.LittleEndian.PutUint16(rec[0:2], uint16(v.Im))
		binary.LittleEndian.PutUint16(rec[2:4], uint16(v.Re))
		time := uint32(t.d.lastFftTime & timeMask)
		hdr := uint32(v.Bin)<<tb | time
		binary.LittleEndian.PutUint32(rec[4:8], hdr)
	}

	if _, err := t.w.Write(rec[:]); err != nil {
		return nil, err
	}
	return s, nil
}

/*
NAME
  v2_test.go

DESCRIPTION
  v2_test.go tests the V2 decoder's sync acquisition, FFT section,
  and average section behaviour against the worked examples in the
  core design.

AUTHOR
  SysNet SDR Group, UC San Diego
*/

package stream

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func putWord(buf *bytes.Buffer, w uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], w)
	buf.Write(b[:])
}

func fftHeaderWord(time uint32) uint32   { return 1<<31 | (time & 0x3FFFFFFF) }
func avgHeaderWord(time uint32) uint32   { return 1<<31 | 1<<30 | (time & 0x3FFFFFFF) }
func payloadWord(re, im int16) uint32    { return uint32(uint16(re))<<16 | uint32(uint16(im)) }

// TestV2Sync exercises the worked example: four non-zero non-header
// words (noise before sync), then zero, then a header. The decoder
// should discard the prefix, initialise offsets to 0 and lock onto
// InFft.
func TestV2Sync(t *testing.T) {
	var buf bytes.Buffer
	putWord(&buf, 0xDEADBEEF)
	putWord(&buf, 0x12345678)
	putWord(&buf, 0x0BADF00D)
	putWord(&buf, 0x55555555)
	putWord(&buf, 0) // the sync-marking zero.
	putWord(&buf, fftHeaderWord(0))
	putWord(&buf, 0) // index resync to bin 0.
	putWord(&buf, payloadWord(5, 10))

	d, err := NewV2Decoder(&buf, 1024, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	s, err := d.Next()
	if err != nil {
		t.Fatal(err)
	}
	fft, ok := s.(*FftSample)
	if !ok {
		t.Fatalf("got %T, want *FftSample", s)
	}
	if fft.Bin != 0 || fft.TimeNs != 0 {
		t.Errorf("got %+v, want bin=0 time=0", fft)
	}
	if d.sync != locked || d.section != sectionFft {
		t.Errorf("decoder state = sync:%v section:%v, want locked/InFft", d.sync, d.section)
	}
}

// TestV2AvgSection exercises the worked example: an avg header at
// time 0 followed by 1024 payload words valued 1..1024 emits
// AvgSample{bin=i, magnitude=i+1}, then a zero word closes the frame.
func TestV2AvgSection(t *testing.T) {
	const nfft = 1024
	var buf bytes.Buffer
	putWord(&buf, 0)
	putWord(&buf, avgHeaderWord(0))
	for i := 1; i <= nfft; i++ {
		putWord(&buf, uint32(i))
	}
	putWord(&buf, 0) // end of avg frame.

	d, err := NewV2Decoder(&buf, nfft, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < nfft; i++ {
		s, err := d.Next()
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		avg, ok := s.(*AvgSample)
		if !ok {
			t.Fatalf("sample %d: got %T, want *AvgSample", i, s)
		}
		if int(avg.Bin) != i {
			t.Errorf("sample %d: Bin = %d, want %d", i, avg.Bin, i)
		}
		if avg.Magnitude != uint32(i+1) {
			t.Errorf("sample %d: Magnitude = %d, want %d", i, avg.Magnitude, i+1)
		}
	}
}

// TestV2IndexResync checks that a non-header word right after a zero
// frame boundary is interpreted as a bin-index resync, not payload.
func TestV2IndexResync(t *testing.T) {
	var buf bytes.Buffer
	putWord(&buf, 0)
	putWord(&buf, fftHeaderWord(0))
	putWord(&buf, 7) // initial index (consumed as the after-header index).
	putWord(&buf, payloadWord(1, 2))
	putWord(&buf, 0) // end of frame.
	putWord(&buf, 42) // resync to bin 42.
	putWord(&buf, payloadWord(3, 4))

	d, err := NewV2Decoder(&buf, 1024, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	s1, err := d.Next()
	if err != nil {
		t.Fatal(err)
	}
	if s1.(*FftSample).Bin != 7 {
		t.Errorf("first sample bin = %d, want 7", s1.(*FftSample).Bin)
	}

	s2, err := d.Next()
	if err != nil {
		t.Fatal(err)
	}
	if s2.(*FftSample).Bin != 42 {
		t.Errorf("second sample bin = %d, want 42", s2.(*FftSample).Bin)
	}
}

// TestV2SyncLostRecovers checks that an out-of-place zero while
// resyncing drops the decoder back to Searching, and it can
// re-acquire lock afterwards.
func TestV2SyncLostRecovers(t *testing.T) {
	var buf bytes.Buffer
	putWord(&buf, 0)
	putWord(&buf, fftHeaderWord(0))
	putWord(&buf, 0)        // index 0 (the word after a header is an index).
	putWord(&buf, 0)        // end of frame -> expectAfterZero.
	putWord(&buf, 0)        // corruption: zero while already after_zero.
	putWord(&buf, 0x1111)   // noise while searching.
	putWord(&buf, 0)        // sync-marking zero.
	putWord(&buf, fftHeaderWord(100))
	putWord(&buf, 0) // index.
	putWord(&buf, payloadWord(9, 9))

	d, err := NewV2Decoder(&buf, 1024, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	s, err := d.Next()
	if err != nil {
		t.Fatal(err)
	}
	if s.(*FftSample).Bin != 0 {
		t.Fatalf("got bin %d, want 0", s.(*FftSample).Bin)
	}
}

func TestV2TruncatedWord(t *testing.T) {
	d, err := NewV2Decoder(bytes.NewReader([]byte{0x01, 0x02}), 1024, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Next(); err == nil || err == io.EOF {
		t.Fatalf("got %v, want a truncated-record error", err)
	}
}

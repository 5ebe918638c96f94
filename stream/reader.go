/*
NAME
  reader.go

DESCRIPTION
  reader.go provides a little-endian fixed-width word reader shared by
  the V1 and V2 decoders. It distinguishes a clean end-of-stream (zero
  bytes read at a record boundary) from a truncated read (some, but
  not enough, bytes read), per the ShortRead/TruncatedRecord error
  kinds.

AUTHOR
  SysNet SDR Group, UC San Diego
*/

package stream

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// wordReader pulls fixed-width little-endian units from an
// io.Reader, one record at a time.
type wordReader struct {
	r   io.Reader
	buf []byte
}

func newWordReader(r io.Reader, width int) *wordReader {
	return &wordReader{r: r, buf: make([]byte, width)}
}

// read fills wr.buf with the next record. It returns io.EOF (clean
// end of stream) if zero bytes were read, or ErrTruncatedRecord if
// 1..width-1 bytes were read before the source was exhausted.
func (wr *wordReader) read() ([]byte, error) {
	n, err := io.ReadFull(wr.r, wr.buf)
	switch {
	case err == io.EOF && n == 0:
		return nil, io.EOF
	case err == io.ErrUnexpectedEOF || (err == io.EOF && n > 0):
		return nil, errors.Wrapf(ErrTruncatedRecord, "read %d of %d bytes", n, len(wr.buf))
	case err != nil:
		return nil, err
	}
	return wr.buf, nil
}

func le16(b []byte) int16   { return int16(binary.LittleEndian.Uint16(b)) }
func le32u(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

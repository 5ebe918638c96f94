/*
NAME
  errors.go

DESCRIPTION
  errors.go defines the sentinel errors surfaced by the V1/V2
  decoders, per the error kinds in the core design: ShortRead is not
  an error (it is io.EOF), TruncatedRecord is fatal for the stream,
  SyncLost is handled inside the V2 decoder (logged, never returned
  to the caller), and BadBinIndex is returned by ValidateBin.

AUTHOR
  SysNet SDR Group, UC San Diego
*/

package stream

import "github.com/pkg/errors"

// ErrTruncatedRecord is returned when a read ends partway through a
// fixed-size record. It is fatal for the current stream.
var ErrTruncatedRecord = errors.New("sparsdr: truncated record")

// ErrBadBinIndex is returned (wrapped) by ValidateBin for a bin index
// outside [0, NFFT). The V1/V2 decoders mask bin indices to NFFT-1
// and never produce it.
var ErrBadBinIndex = errors.New("sparsdr: bin index out of range")

// ErrSyncLost names the condition of the V2 decoder observing an
// unexpected zero word while Locked. The decoder logs that condition
// and returns to Searching; it does not return this error.
var ErrSyncLost = errors.New("sparsdr: sync lost")

/*
NAME
  scan.go

DESCRIPTION
  scan.go provides a restartable start-code scanner: it advances through a
  byte slice looking for the next ISO/IEC 13818-2 start code
  (0x000001xx), carrying its match state across calls so that scanning can
  resume exactly where it left off on the next block of input.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mpgv

// noSyncContext is the scan_context value meaning "no partial start code
// match carried over": all bits set, so no byte sequence can ever satisfy
// the 0x00000100 match test against it without first shifting in three
// fresh bytes.
const noSyncContext uint32 = 0xffffffff

// scanner holds the rolling 32-bit match state of the start-code search.
// Its zero value is not ready for use; call reset or assign noSyncContext.
type scanner struct {
	ctx uint32
}

// reset clears the scanner to the no-match state, as happens on loss of
// sync.
func (s *scanner) reset() { s.ctx = noSyncContext }

// find scans b for the next start code, starting from the scanner's
// carried context. It returns the offset one past the start code
// identifier byte (i.e. just past the whole 4-byte start code), the
// identifier byte, and true, if a start code is found.
// Otherwise it returns false, having folded the last up-to-3 bytes of b
// into the carried context so that a subsequent call with more input
// continues the search seamlessly across the block boundary.
func (s *scanner) find(b []byte) (pos int, code byte, ok bool) {
	ctx := s.ctx
	for i, c := range b {
		ctx = (ctx << 8) | uint32(c)
		if ctx&0xffffff00 == 0x00000100 {
			s.ctx = ctx
			return i + 1, c, true
		}
	}
	s.ctx = ctx
	return len(b), 0, false
}

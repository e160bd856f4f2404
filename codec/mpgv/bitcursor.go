/*
NAME
  bitcursor.go

DESCRIPTION
  bitcursor.go provides a fixed-length bit cursor over an in-memory byte
  slice, used to pick fixed-layout fields out of the small, already-peeked
  header windows the rest of this package works with.

AUTHOR
  Dan Kortschak <dan@ausocean.org>
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mpgv

// bitCursor reads fixed-width, most-significant-bit-first fields from a
// byte slice that is already wholly in memory. Unlike a streaming bit
// reader, it never blocks and never needs to buffer: every header this
// package parses is peeked as a whole window before any field extraction
// begins.
type bitCursor struct {
	b   []byte
	pos int // bit position from the start of b.
}

func newBitCursor(b []byte) *bitCursor { return &bitCursor{b: b} }

// bits reads the next n bits (n <= 32) and returns them in the
// least-significant part of the result.
func (c *bitCursor) bits(n int) uint32 {
	var v uint32
	for n > 0 {
		byteIdx := c.pos / 8
		bitIdx := c.pos % 8
		avail := 8 - bitIdx
		take := avail
		if take > n {
			take = n
		}
		shift := avail - take
		mask := byte(1<<uint(take) - 1)
		bits := (c.b[byteIdx] >> uint(shift)) & mask
		v = (v << uint(take)) | uint32(bits)
		c.pos += take
		n -= take
	}
	return v
}

// flag reads a single bit as a bool.
func (c *bitCursor) flag() bool { return c.bits(1) != 0 }

// skip advances the cursor by n bits without returning them.
func (c *bitCursor) skip(n int) { c.pos += n }

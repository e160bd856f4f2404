/*
NAME
  block.go

DESCRIPTION
  block.go provides the Block type, an immutable byte sequence shared between
  the input stream buffer and the frames extracted from it.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package block provides an immutable, garbage-collector-owned byte buffer
// used to carry elementary stream data and its associated clock metadata
// through a streaming parser.
//
// The upipe framer this package is modelled on tracks buffer lifetime with
// manual reference counting (ubuf/uref); in Go the garbage collector already
// gives every Block the same "last reader frees it" semantics for free, so
// Block carries no refcount of its own.
package block

import "bytes"

// Block is an immutable, shareable byte sequence. The zero Block is empty.
type Block struct {
	b []byte
}

// New wraps b as a Block. The caller must not modify b after the call.
func New(b []byte) Block { return Block{b: b} }

// Len returns the number of bytes in the block.
func (b Block) Len() int { return len(b.b) }

// Bytes returns a read-only view of the block's bytes. Callers must not
// modify the returned slice.
func (b Block) Bytes() []byte { return b.b }

// Slice returns a zero-copy window of b spanning [off, off+n). It panics if
// the range is out of bounds.
func (b Block) Slice(off, n int) Block {
	return Block{b: b.b[off : off+n]}
}

// ExtractPrefix copies the first n bytes of b into a new, independent Block.
func (b Block) ExtractPrefix(n int) Block {
	cp := make([]byte, n)
	copy(cp, b.b[:n])
	return Block{b: cp}
}

// Copy copies the n bytes of b starting at off into a new, independent
// Block, letting the caller drop its reference to b's backing array.
func (b Block) Copy(off, n int) Block {
	cp := make([]byte, n)
	copy(cp, b.b[off:off+n])
	return Block{b: cp}
}

// Concat returns a new Block holding the bytes of a followed by the bytes of
// b. It always copies, since the two blocks need not be adjacent in memory.
func Concat(a, b Block) Block {
	cp := make([]byte, a.Len()+b.Len())
	n := copy(cp, a.b)
	copy(cp[n:], b.b)
	return Block{b: cp}
}

// Equal reports whether a and b hold identical content.
func Equal(a, b Block) bool { return bytes.Equal(a.b, b.b) }

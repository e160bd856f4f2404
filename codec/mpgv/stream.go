/*
NAME
  stream.go

DESCRIPTION
  stream.go provides the input stream buffer: a queue of annotated blocks
  presented to the framer as a single logical byte sequence, with
  random-access read, head-consumption, and head-extraction of a prefix
  into a new block.

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

import "github.com/ausocean/mpeg2video/block"

// promoteFunc is invoked whenever the stream's head block changes: on the
// first append to an empty stream, or when consume/extract crosses a
// block boundary. It receives the new head's timestamps.
type promoteFunc func(block.Timestamps)

// inputStream is a FIFO queue of annotated blocks, read as one logical
// byte sequence starting at logical offset 0.
type inputStream struct {
	q       []block.Unit
	promote promoteFunc
}

// newInputStream returns an empty input stream that calls promote whenever
// its head block changes.
func newInputStream(promote promoteFunc) *inputStream {
	return &inputStream{promote: promote}
}

// append enqueues u, invoking the promotion callback if the stream was
// previously empty.
func (s *inputStream) append(u block.Unit) {
	wasEmpty := len(s.q) == 0
	s.q = append(s.q, u)
	if wasEmpty {
		s.promote(u.TS)
	}
}

// len returns the total number of logical bytes buffered.
func (s *inputStream) len() int {
	n := 0
	for _, u := range s.q {
		n += u.Block.Len()
	}
	return n
}

// peek returns n contiguous bytes starting at logical offset off. If the
// range spans more than one queued block, the bytes are copied into a
// freshly allocated slice; otherwise a zero-copy view is returned.
func (s *inputStream) peek(off, n int) ([]byte, bool) {
	if off < 0 || n < 0 {
		return nil, false
	}
	base := 0
	for i, u := range s.q {
		l := u.Block.Len()
		if off < base+l {
			start := off - base
			if start+n <= l {
				return u.Block.Bytes()[start : start+n], true
			}
			// Spans into later blocks: copy.
			out := make([]byte, 0, n)
			out = append(out, u.Block.Bytes()[start:]...)
			for _, u2 := range s.q[i+1:] {
				need := n - len(out)
				if need <= 0 {
					break
				}
				b := u2.Block.Bytes()
				if len(b) > need {
					b = b[:need]
				}
				out = append(out, b...)
			}
			if len(out) < n {
				return nil, false
			}
			return out, true
		}
		base += l
	}
	return nil, false
}

// find scans the logical stream starting at off using sc, returning the
// offset (relative to the start of the whole stream) of the byte past the
// start-code prefix, the identifier byte, and whether a code was found.
func (s *inputStream) find(off int, sc *scanner) (pos int, code byte, ok bool) {
	base := 0
	skip := off
	for _, u := range s.q {
		l := u.Block.Len()
		if skip >= l {
			skip -= l
			base += l
			continue
		}
		b := u.Block.Bytes()[skip:]
		if p, c, ok := sc.find(b); ok {
			return base + skip + p, c, true
		}
		base += l
		skip = 0
	}
	return off + s.len() - off, 0, false
}

// consume discards the first n logical bytes, invoking the promotion
// callback if the head block changes as a result.
func (s *inputStream) consume(n int) {
	headChanged := false
	for n > 0 && len(s.q) > 0 {
		l := s.q[0].Block.Len()
		if n < l {
			s.q[0].Block = s.q[0].Block.Slice(n, l-n)
			s.q[0].TS = block.Timestamps{}
			n = 0
			break
		}
		n -= l
		s.q = s.q[1:]
		headChanged = true
	}
	if headChanged && len(s.q) > 0 {
		s.promote(s.q[0].TS)
	}
}

// extract removes the first n logical bytes from the stream and returns
// them as a fresh, independent block, along with the timestamp
// annotations that were attached to the removed region's first byte.
func (s *inputStream) extract(n int) (block.Block, block.Timestamps) {
	if n == 0 {
		return block.Block{}, block.Timestamps{}
	}
	var ts block.Timestamps
	if len(s.q) > 0 {
		ts = s.q[0].TS
	}
	remain := n
	var out block.Block
	headChanged := false
	for remain > 0 && len(s.q) > 0 {
		l := s.q[0].Block.Len()
		if remain < l {
			part := s.q[0].Block.ExtractPrefix(remain)
			out = block.Concat(out, part)
			s.q[0].Block = s.q[0].Block.Slice(remain, l-remain)
			s.q[0].TS = block.Timestamps{}
			remain = 0
			break
		}
		out = block.Concat(out, s.q[0].Block)
		remain -= l
		s.q = s.q[1:]
		headChanged = true
	}
	if headChanged && len(s.q) > 0 {
		s.promote(s.q[0].TS)
	}
	return out, ts
}

// clear drops all queued input.
func (s *inputStream) clear() {
	s.q = nil
}

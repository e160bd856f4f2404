/*
NAME
  keyframe.go

DESCRIPTION
  keyframe.go provides a standalone helper for callers that only hold a
  single encoded access unit's bytes and need to know whether it is safe
  to start decoding from, without driving a full Framer.

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

// IsRandomAccess reports whether data, a single access unit's bytes,
// begins with (or is prefixed by headers leading to) an I-coded picture.
// It is a lightweight, stateless alternative to Frame.RandomAccess for
// callers, such as a muxer deciding when to resend program information,
// that only have the raw bytes of one frame and not a live Framer.
func IsRandomAccess(data []byte) bool {
	var sc scanner
	sc.reset()
	off := 0
	for {
		pos, code, ok := sc.find(data[off:])
		if !ok {
			return false
		}
		off += pos
		if code == pictureStartCode {
			// off is one past the 4-byte start code; parsePicture wants the
			// start code itself as the first 4 bytes of its input.
			start := off - 4
			if start+pictureHeaderSize > len(data) {
				return false
			}
			p, err := parsePicture(data[start:])
			return err == nil && p.codingType == TypeI
		}
	}
}

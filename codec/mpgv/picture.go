/*
NAME
  picture.go

DESCRIPTION
  picture.go parses the GOP header, picture header and picture coding
  extension, and derives per-picture metadata: coding type, temporal
  reference, field structure, VBV delay and duration.

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

import "fmt"

// parsedGOP holds the fields read from a GOP header.
type parsedGOP struct {
	closed     bool
	brokenLink bool
}

// parseGOP reads the closed-GOP and broken-link flags from b, which must
// start at the GOP header's own start code (b[0:4]) and be at least
// gopHeaderSize bytes.
func parseGOP(b []byte) (parsedGOP, error) {
	if len(b) < gopHeaderSize {
		return parsedGOP{}, fmt.Errorf("mpgv: short GOP header: %d bytes", len(b))
	}
	c := newBitCursor(b[4:])
	c.skip(25) // time_code (drop_frame_flag(1)+hour(5)+minute(6)+marker(1)+second(6)+pictures(6)).
	return parsedGOP{closed: c.flag(), brokenLink: c.flag()}, nil
}

// noTemporalReference marks an absent last_temporal_reference, treated as
// 0 for the purposes of picture number arithmetic (§3, §4.4 E4).
const noTemporalReference = -1

// parsedPicture holds the fields read from a picture header.
type parsedPicture struct {
	temporalRef int
	codingType  int
	vbvDelay    int // in CLOCK ticks; -1 when absent (raw value was 0xffff).
}

// parsePicture reads the temporal reference, coding type and VBV delay
// from b, which must start at the picture header's own start code
// (b[0:4]) and be at least pictureHeaderSize bytes.
func parsePicture(b []byte) (parsedPicture, error) {
	if len(b) < pictureHeaderSize {
		return parsedPicture{}, fmt.Errorf("mpgv: short picture header: %d bytes", len(b))
	}
	c := newBitCursor(b[4:])
	p := parsedPicture{
		temporalRef: int(c.bits(10)),
		codingType:  int(c.bits(3)),
	}
	raw := c.bits(16)
	if raw == 0xffff {
		p.vbvDelay = -1
	} else {
		p.vbvDelay = int(raw) * clockFreq / 90000
	}
	if p.codingType < TypeI || p.codingType > TypeB {
		return parsedPicture{}, fmt.Errorf("mpgv: invalid picture coding type %d", p.codingType)
	}
	return p, nil
}

// pictureNumber returns the picture number to assign to a picture whose
// temporal reference is tr, given the counter's current state, along with
// the counter state to carry forward. lastTR == noTemporalReference means
// no temporal reference has been seen since the last GOP reset.
func pictureNumber(lastPictureNumber, lastTR, tr int) (n, newLastPictureNumber, newLastTR int) {
	base := lastTR
	if base == noTemporalReference {
		base = 0
	}
	n = lastPictureNumber + (tr - base)
	if tr > base || lastTR == noTemporalReference {
		return n, n, tr
	}
	return n, lastPictureNumber, lastTR
}

// parsedPictureExt holds the fields read from a picture coding extension.
type parsedPictureExt struct {
	intraDCPrecision int
	structure        int
	topFieldFirst    bool
	repeatFirstField bool
	progressiveFrame bool
}

// parsePictureExt reads the fields this package cares about from a
// picture coding extension, which must start at the extension's own
// start code (b[0:4]) and be at least pictureCodingExtSize bytes.
func parsePictureExt(b []byte) (parsedPictureExt, error) {
	if len(b) < pictureCodingExtSize {
		return parsedPictureExt{}, fmt.Errorf("mpgv: short picture coding extension: %d bytes", len(b))
	}
	c := newBitCursor(b[4:])
	c.skip(4)  // extension_start_code_identifier.
	c.skip(16) // f_code[0][0..1], f_code[1][0..1].
	e := parsedPictureExt{
		intraDCPrecision: int(c.bits(2)),
		structure:        int(c.bits(2)),
	}
	e.topFieldFirst = c.flag()
	c.skip(1) // frame_pred_frame_dct.
	c.skip(1) // concealment_motion_vectors.
	c.skip(1) // q_scale_type.
	c.skip(1) // intra_vlc_format.
	c.skip(1) // alternate_scan.
	e.repeatFirstField = c.flag()
	c.skip(1) // chroma_420_type.
	e.progressiveFrame = c.flag()
	return e, nil
}

// pictureDuration computes the base duration of a coding-type-agnostic
// picture at fps, in CLOCK ticks, per §4.4 E4.
func pictureDuration(fps Rational) int64 {
	if fps.Num == 0 {
		return 0
	}
	return clockFreq * fps.Den / fps.Num
}

// adjustDuration applies the field/repeat-first-field adjustment of §4.4
// E5 to a base frame duration.
func adjustDuration(base int64, sequenceProgressive bool, ext *parsedPictureExt) int64 {
	if ext == nil {
		return base
	}
	switch {
	case sequenceProgressive:
		if ext.repeatFirstField {
			mul := int64(1)
			if ext.topFieldFirst {
				mul = 2
			}
			return base * mul
		}
		return base
	case ext.structure == structureFrame:
		if ext.repeatFirstField {
			return base + base/2
		}
		return base
	default:
		return base / 2
	}
}

/*
NAME
  sequence.go

DESCRIPTION
  sequence.go parses the sequence header, sequence extension and sequence
  display extension, and derives the FlowDescription the rest of the
  stream is described against. Parsed headers are cached as a triple so
  that byte-identical sequence information doesn't re-trigger a flow
  change, and so a cached triple can be prepended to an I-frame that is
  otherwise missing one.

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

import (
	"fmt"

	"github.com/ausocean/mpeg2video/block"
)

// cachedSequence is the most recently accepted sequence header triple and
// the values derived from it.
type cachedSequence struct {
	header, ext, display block.Block
	haveExt, haveDisplay  bool

	progressive bool
	fps         Rational
	flow        FlowDescription
}

// sameTriple reports whether c's header/ext/display blocks are
// byte-identical to the newly parsed ones.
func (c *cachedSequence) sameTriple(header, ext, display block.Block, haveExt, haveDisplay bool) bool {
	if c.header.Len() == 0 {
		return false
	}
	if haveExt != c.haveExt || haveDisplay != c.haveDisplay {
		return false
	}
	if !block.Equal(c.header, header) {
		return false
	}
	if haveExt && !block.Equal(c.ext, ext) {
		return false
	}
	if haveDisplay && !block.Equal(c.display, display) {
		return false
	}
	return true
}

// parsedSequenceHeader holds the fields read from the base sequence
// header, before any sequence extension is applied.
type parsedSequenceHeader struct {
	horizontal, vertical int
	aspect, frameRateCode int
	bitrate, vbv          uint32
	loadIntra, loadNonIntra bool
	matrixEnd             int // byte offset, relative to the header, one past the last matrix byte.
}

// parseSequenceHeader reads the fixed fields of a sequence header from b,
// which must start at the sequence header's own start code (b[0:4]) and
// be at least sequenceHeaderSize bytes long. Matrix presence flags are
// read per §4.4 E3, counting bytes from that start code: the intra matrix
// flag is bit 1 of byte 11, and, only when an intra matrix follows, the
// non-intra matrix flag is the low bit of byte 75 (the matrix's last
// byte); absent an intra matrix, the non-intra flag is the low bit of the
// same byte 11.
func parseSequenceHeader(b []byte) (parsedSequenceHeader, error) {
	if len(b) < sequenceHeaderSize {
		return parsedSequenceHeader{}, fmt.Errorf("mpgv: short sequence header: %d bytes", len(b))
	}
	c := newBitCursor(b[4:])
	h := parsedSequenceHeader{
		horizontal:    int(c.bits(12)),
		vertical:      int(c.bits(12)),
		aspect:        int(c.bits(4)),
		frameRateCode: int(c.bits(4)),
		bitrate:       c.bits(18),
	}
	c.skip(1) // marker_bit.
	h.vbv = c.bits(10)
	c.skip(1) // constrained_parameters_flag.

	h.loadIntra = b[11]&0x2 != 0
	end := sequenceHeaderSize
	if h.loadIntra {
		end += quantMatrixSize
		if len(b) < end+1 {
			return parsedSequenceHeader{}, fmt.Errorf("mpgv: short sequence header: missing intra matrix")
		}
		h.loadNonIntra = b[end-1]&0x1 != 0
	} else {
		h.loadNonIntra = b[11]&0x1 != 0
	}
	if h.loadNonIntra {
		end += quantMatrixSize
		if len(b) < end {
			return parsedSequenceHeader{}, fmt.Errorf("mpgv: short sequence header: missing non-intra matrix")
		}
	}
	h.matrixEnd = end
	return h, nil
}

// parsedSequenceExtension holds the fields read from a sequence
// extension.
type parsedSequenceExtension struct {
	profileLevel int
	progressive  bool
	chroma       int
	horizontalExt, verticalExt int
	bitrateExt, vbvExt         uint32
	lowDelay                   bool
	frameRateNum, frameRateDen int
}

// parseSequenceExtension reads the sequence extension fields from b,
// which must start at the extension's own start code and be at least
// sequenceExtensionSize bytes long (§4.4 E3's "capture 10 bytes", 4 of
// them the start code). The extension_start_code_identifier nibble is
// skipped so that profile_and_level_indication is read as the 8 bits
// that actually follow it (spanning the low nibble of the first payload
// byte and the high nibble of the next).
func parseSequenceExtension(b []byte) (parsedSequenceExtension, error) {
	if len(b) < sequenceExtensionSize {
		return parsedSequenceExtension{}, fmt.Errorf("mpgv: short sequence extension: %d bytes", len(b))
	}
	c := newBitCursor(b[4:])
	c.skip(4) // extension_start_code_identifier.
	var e parsedSequenceExtension
	e.profileLevel = int(c.bits(8))
	e.progressive = c.flag()
	e.chroma = int(c.bits(2))
	e.horizontalExt = int(c.bits(2))
	e.verticalExt = int(c.bits(2))
	e.bitrateExt = c.bits(12)
	c.skip(1) // marker_bit.
	e.vbvExt = c.bits(8)
	e.lowDelay = c.flag()
	e.frameRateNum = int(c.bits(2))
	e.frameRateDen = int(c.bits(5))
	return e, nil
}

// parsedSequenceDisplay holds the fields read from a sequence display
// extension.
type parsedSequenceDisplay struct {
	width, height int
}

// parseSequenceDisplay reads the display size fields from b, which must
// start at the extension's own start code. The colour-description
// trailer is present when the low bit of the extension's 5th byte (the
// first payload byte, shared with the identifier nibble and
// video_format) is set, per §4.4 E3. It returns the total number of
// bytes consumed, start code included, so the caller can capture exactly
// that many bytes as the cached block.
func parseSequenceDisplay(b []byte) (d parsedSequenceDisplay, consumed int, err error) {
	const startCodeLen = 4
	if len(b) < startCodeLen+1 {
		return parsedSequenceDisplay{}, 0, fmt.Errorf("mpgv: short sequence display extension: %d bytes", len(b))
	}
	hasColor := b[startCodeLen]&0x1 != 0
	need := startCodeLen + sequenceDisplaySize
	if hasColor {
		need += sequenceDisplayColorSize
	}
	if len(b) < need {
		return parsedSequenceDisplay{}, 0, fmt.Errorf("mpgv: short sequence display extension: %d bytes", len(b))
	}
	off := startCodeLen + 1
	if hasColor {
		off += sequenceDisplayColorSize
	}
	c := newBitCursor(b[off:])
	d.width = int(c.bits(14))
	c.skip(1) // marker_bit.
	d.height = int(c.bits(14))
	return d, need, nil
}

// buildFlowDescription derives a FlowDescription from a sequence header
// and, when present, a sequence extension and sequence display
// extension, per §4.4 E3.
func buildFlowDescription(h parsedSequenceHeader, e *parsedSequenceExtension, d *parsedSequenceDisplay) (FlowDescription, Rational, bool, error) {
	fr := frameRateTable[h.frameRateCode&0xf]
	if fr.Num == 0 {
		return FlowDescription{}, Rational{}, false, fmt.Errorf("mpgv: invalid frame rate code %d", h.frameRateCode)
	}

	width := h.horizontal
	height := h.vertical
	bitrate := h.bitrate
	vbv := h.vbv
	progressive := true
	chroma := Chroma420

	var f FlowDescription
	f.Width, f.Height = width, height
	if e != nil {
		width |= e.horizontalExt << 12
		height |= e.verticalExt << 12
		bitrate |= e.bitrateExt << 18
		vbv |= e.vbvExt << 10
		progressive = e.progressive

		var err error
		chroma, err = chromaFormat(e.chroma)
		if err != nil {
			return FlowDescription{}, Rational{}, false, err
		}

		fr.Num *= int64(e.frameRateNum + 1)
		fr.Den *= int64(e.frameRateDen + 1)
		fr = fr.Simplify()

		if _, ok := maxOctetRate(e.profileLevel); !ok {
			return FlowDescription{}, Rational{}, false, fmt.Errorf("mpgv: invalid level %#x", e.profileLevel&levelMask)
		}

		f.Width, f.Height = width, height
		f.HasExtension = true
		f.Profile = e.profileLevel >> 4
		f.Level = e.profileLevel & levelMask
		f.LowDelay = e.lowDelay
		f.Progressive = progressive
	}
	f.FrameRate = fr
	f.Chroma = chroma
	f.OctetRate = int(bitrate) * 400 / 8
	f.CPBOctets = int(vbv) * 16 * 1024 / 8

	sar, err := sampleAspectRatio(h.aspect, width, height)
	if err != nil {
		return FlowDescription{}, Rational{}, false, err
	}
	f.SAR = sar

	if d != nil {
		f.HasDisplaySize = true
		f.DisplayWidth, f.DisplayHeight = d.width, d.height
	}

	return f, fr, progressive, nil
}

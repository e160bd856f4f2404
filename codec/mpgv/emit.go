/*
NAME
  emit.go

DESCRIPTION
  emit.go implements frame emission (§4.4): splitting the prospective
  frame out of the input stream, interpreting whichever of sequence
  header, GOP header, picture header and picture coding extension are
  present, assigning the picture number, propagating timestamps, and
  handling random-access-point bookkeeping.

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

// emitFrame extracts the prospective frame of length n from the input
// stream, interprets its headers, assigns its metadata, and hands it to
// the sink. It returns false on any error, in which case the caller must
// resync (§4.3 step 4, §4.5).
func (f *Framer) emitFrame(n int) bool {
	// E1: extract the frame bytes. HeaderSize (the out-of-band leading
	// portion) is resolved below once the GOP/picture offsets are known.
	// incomingTS is whatever annotation was attached to the frame's own
	// first byte; unlike the six promoted prospective-frame slots in
	// f.pts, systime_rap is never promoted across block boundaries, so
	// this is the only source for it (§4.4 E6's "frame's systime_rap").
	bytes, incomingTS := f.in.extract(n)
	raw := bytes.Bytes()

	// E2: snapshot and flush the prospective timestamps.
	ts := f.pts
	f.pts = block.Timestamps{}

	var frame Frame
	frame.Bytes = bytes

	// E3: sequence header.
	if f.nextFrameSequence {
		if !f.interpretSequence(raw) {
			return false
		}
	}

	// E4: GOP and picture headers.
	var ext *parsedPictureExt
	if !f.interpretPicture(raw, &frame, &ext) {
		return false
	}

	// E5: picture coding extension (folded into interpretPicture above for
	// access to the GOP/picture offsets, but duration adjustment and field
	// tagging happen here since they need the sequence's progressive flag).
	base := pictureDuration(f.cached.fps)
	frame.Duration = adjustDuration(base, f.cached.progressive, ext)
	if ext != nil {
		frame.TopField = ext.structure == structureTopField || ext.structure == structureFrame
		frame.BottomField = ext.structure == structureBottomField || ext.structure == structureFrame
		frame.TopFieldFirst = ext.topFieldFirst
		frame.ProgressiveFrame = ext.progressiveFrame
	} else {
		frame.TopField = true
		frame.BottomField = true
		frame.ProgressiveFrame = true
	}

	// E6: random-access-point bookkeeping.
	f.bookkeepRAP(&frame, incomingTS.SystimeRAP)

	// E7: attach timestamps.
	frame.TS = ts

	// E8: interpolate DTS forward onto the next prospective frame.
	if f.pts.DTSOrig == nil && ts.DTSOrig != nil {
		f.pts.DTSOrig = block.U64(uint64(int64(*ts.DTSOrig) + frame.Duration))
	}
	if f.pts.DTS == nil && ts.DTS != nil {
		f.pts.DTS = block.U64(uint64(int64(*ts.DTS) + frame.Duration))
	}
	if f.pts.DTSSys == nil && ts.DTSSys != nil {
		f.pts.DTSSys = block.U64(uint64(int64(*ts.DTSSys) + frame.Duration))
	}

	frame.Flow = f.cached.flow
	frame.FlowChanged = f.flowJustChanged
	f.flowJustChanged = false

	// E9: hand off.
	if f.sink != nil {
		f.sink(frame)
	}
	return true
}

// interpretSequence implements §4.4 E3.
func (f *Framer) interpretSequence(raw []byte) bool {
	h, err := parseSequenceHeader(raw)
	if err != nil {
		if f.log != nil {
			f.log.Warning("mpgv malformed sequence header", "err", err)
		}
		return false
	}

	var ext *parsedSequenceExtension
	var extBlock block.Block
	haveExt := f.seqExtOff != noOffset
	if haveExt {
		e, err := parseSequenceExtension(raw[f.seqExtOff:])
		if err != nil {
			if f.log != nil {
				f.log.Warning("mpgv malformed sequence extension", "err", err)
			}
			return false
		}
		ext = &e
		extBlock = bytesBlock(raw, f.seqExtOff, sequenceExtensionSize)
	}

	var display *parsedSequenceDisplay
	var displayBlock block.Block
	haveDisplay := f.seqDisplayOff != noOffset
	if haveDisplay {
		d, consumed, err := parseSequenceDisplay(raw[f.seqDisplayOff:])
		if err != nil {
			if f.log != nil {
				f.log.Warning("mpgv malformed sequence display extension", "err", err)
			}
			return false
		}
		display = &d
		displayBlock = bytesBlock(raw, f.seqDisplayOff, consumed)
	}

	headerBlock := bytesBlock(raw, 0, h.matrixEnd)

	if f.cached.sameTriple(headerBlock, extBlock, displayBlock, haveExt, haveDisplay) {
		f.cached.header, f.cached.ext, f.cached.display = headerBlock, extBlock, displayBlock
		f.cached.haveExt, f.cached.haveDisplay = haveExt, haveDisplay
		return true
	}

	flow, fr, progressive, err := buildFlowDescription(h, ext, display)
	if err != nil {
		if f.log != nil {
			f.log.Warning("mpgv malformed sequence parameters", "err", err)
		}
		return false
	}

	f.cached.header, f.cached.ext, f.cached.display = headerBlock, extBlock, displayBlock
	f.cached.haveExt, f.cached.haveDisplay = haveExt, haveDisplay
	f.cached.fps = fr
	f.cached.progressive = progressive
	f.cached.flow = flow
	f.haveFlow = true
	f.flowJustChanged = true
	return true
}

// bytesBlock copies n bytes of raw starting at off into an independent
// Block, releasing references to the frame's own backing array once the
// frame itself is no longer needed.
func bytesBlock(raw []byte, off, n int) block.Block {
	return block.New(raw).Copy(off, n)
}

// interpretPicture implements the GOP-header and picture-header portions
// of §4.4 E4, plus the discontinuity tag and out-of-band header size.
// extOut is set to the parsed picture coding extension when one is
// present, for use by the caller's duration/field-tagging step (E5).
func (f *Framer) interpretPicture(raw []byte, frame *Frame, extOut **parsedPictureExt) bool {
	closed := f.closedGOP
	var brokenLink bool
	haveGOP := f.gopOff != noOffset
	if haveGOP {
		g, err := parseGOP(raw[f.gopOff:])
		if err != nil {
			if f.log != nil {
				f.log.Warning("mpgv malformed GOP header", "err", err)
			}
			return false
		}
		closed, brokenLink = g.closed, g.brokenLink
		f.lastTR = noTemporalReference
		if f.gopOff > 0 {
			frame.HeaderSize = f.gopOff
		}
	} else if f.pictureOff > 0 {
		frame.HeaderSize = f.pictureOff
	}

	if brokenLink || (f.gotDiscontinuity && !closed) {
		frame.Discontinuity = true
	}
	f.gotDiscontinuity = false

	p, err := parsePicture(raw[f.pictureOff:])
	if err != nil {
		if f.log != nil {
			f.log.Warning("mpgv malformed picture header", "err", err)
		}
		return false
	}

	n, lastN, lastTR := pictureNumber(f.lastPictureNumber, f.lastTR, p.temporalRef)
	f.lastPictureNumber, f.lastTR = lastN, lastTR

	frame.PictureNumber = n
	frame.CodingType = p.codingType
	if p.vbvDelay >= 0 {
		frame.HasVBVDelay = true
		frame.VBVDelay = int64(p.vbvDelay)
	}
	f.closedGOP = closed

	if f.pictureExtOff != noOffset {
		e, err := parsePictureExt(raw[f.pictureExtOff:])
		if err != nil {
			if f.log != nil {
				f.log.Warning("mpgv malformed picture coding extension", "err", err)
			}
			return false
		}
		if e.intraDCPrecision != 0 && f.log != nil {
			f.log.Warning("mpgv nonzero intra_dc_precision", "value", e.intraDCPrecision)
		}
		*extOut = &e
	}
	return true
}

// bookkeepRAP implements §4.4 E6. incomingRAP is the systime_rap annotation
// attached to the frame's own first byte, if any.
func (f *Framer) bookkeepRAP(frame *Frame, incomingRAP *uint64) {
	switch frame.CodingType {
	case TypeI:
		switch {
		case f.nextFrameSequence:
			frame.RandomAccess = true
		case f.insertSeq && f.cached.header.Len() > 0:
			f.prependSequence(frame)
			frame.RandomAccess = true
		}
		f.systimeRAPRef = f.systimeRAP
		f.systimeRAP = incomingRAP
	case TypeP:
		f.systimeRAPRef = f.systimeRAP
		if f.systimeRAP != nil {
			frame.HasSystimeRAP = true
			frame.SystimeRAP = *f.systimeRAP
		}
	case TypeB:
		if f.systimeRAPRef != nil {
			frame.HasSystimeRAP = true
			frame.SystimeRAP = *f.systimeRAPRef
		}
	}
	if f.closedGOP {
		f.systimeRAPRef = f.systimeRAP
	}
}

// prependSequence prefixes frame with clones of the cached sequence
// triple (display, extension, header, in that order so the header ends
// up first), per §4.4 E6's sequence-insertion behaviour.
func (f *Framer) prependSequence(frame *Frame) {
	out := f.cached.header
	if f.cached.haveExt {
		out = block.Concat(out, f.cached.ext)
	}
	if f.cached.haveDisplay {
		out = block.Concat(out, f.cached.display)
	}
	frame.HeaderSize += out.Len()
	frame.Bytes = block.Concat(out, frame.Bytes)
}

/*
NAME
  framer.go

DESCRIPTION
  framer.go implements the framer state machine: it drives the scanner
  over an input stream, classifies each start code, tracks offsets within
  the prospective next frame, and on frame completion hands off to the
  header interpreter and timestamp/RAP propagator.

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
	"github.com/ausocean/mpeg2video/codec/codecutil"
	"github.com/ausocean/utils/logging"
)

// Sink receives frames emitted by a Framer.
type Sink func(Frame)

// Framer turns a byte-aligned ISO/IEC 13818-2 elementary stream into a
// sequence of Frame access units. It is not safe for concurrent use: all
// of its methods must be called from a single goroutine, matching its
// single-threaded, cooperative design.
type Framer struct {
	in *inputStream
	sc scanner

	nextFrameSize int

	seqExtOff, seqDisplayOff, gopOff, pictureOff, pictureExtOff int

	nextFrameSequence bool
	nextFrameSlice    bool

	pts    block.Timestamps
	acquired         bool
	gotDiscontinuity bool

	cached          cachedSequence
	haveFlow        bool
	flowJustChanged bool
	closedGOP       bool

	systimeRAP, systimeRAPRef *uint64
	lastPictureNumber, lastTR int

	insertSeq bool

	sink Sink
	log  logging.Logger
}

// NewFramer returns a Framer that delivers completed frames to sink and
// logs probe events through log. flowKind is the expected input flow's
// codec tag (§6); NewFramer rejects any flowKind other than
// codecutil.MPEG2V, matching this package's sole contract.
func NewFramer(flowKind string, sink Sink, log logging.Logger) (*Framer, error) {
	if flowKind != codecutil.MPEG2V {
		if log != nil {
			log.Fatal("mpgv framer allocation failed: unsupported flow kind", "flowKind", flowKind)
		}
		return nil, fmt.Errorf("mpgv: unsupported flow kind %q", flowKind)
	}
	f := &Framer{sink: sink, log: log}
	f.resetState()
	f.sc.reset()
	f.in = newInputStream(f.promote)
	f.lastTR = noTemporalReference
	if log != nil {
		log.Info("mpgv framer ready")
	}
	return f, nil
}

// Close releases the framer's resources. No further calls should be made
// to it afterwards.
func (f *Framer) Close() {
	f.in.clear()
	f.cached = cachedSequence{}
	if f.log != nil {
		f.log.Info("mpgv framer dead")
	}
}

// SequenceInsertion reports whether sequence-insertion is enabled.
func (f *Framer) SequenceInsertion() bool { return f.insertSeq }

// SetSequenceInsertion enables or disables sequence-insertion: when
// enabled, an I-frame that does not already begin with a sequence header
// is prefixed with the cached sequence triple.
func (f *Framer) SetSequenceInsertion(v bool) { f.insertSeq = v }

// CurrentFlow returns the most recently derived flow description and
// whether one has been derived yet.
func (f *Framer) CurrentFlow() (FlowDescription, bool) { return f.cached.flow, f.haveFlow }

// promote is the input stream's promotion callback (§4.2): it copies the
// new head block's timestamps into any currently-absent prospective-frame
// timestamp slots.
func (f *Framer) promote(ts block.Timestamps) {
	if f.pts.PTSOrig == nil {
		f.pts.PTSOrig = ts.PTSOrig
	}
	if f.pts.PTS == nil {
		f.pts.PTS = ts.PTS
	}
	if f.pts.PTSSys == nil {
		f.pts.PTSSys = ts.PTSSys
	}
	if f.pts.DTSOrig == nil {
		f.pts.DTSOrig = ts.DTSOrig
	}
	if f.pts.DTS == nil {
		f.pts.DTS = ts.DTS
	}
	if f.pts.DTSSys == nil {
		f.pts.DTSSys = ts.DTSSys
	}
}

// Write appends a block of input bytes, annotated with ts, discontinuity
// and error flags, and runs the state machine until no more start codes
// can be found in the buffered input.
func (f *Framer) Write(b []byte, ts block.Timestamps, discontinuity, errFlag bool) {
	if discontinuity {
		f.discontinuity()
	}
	if len(b) == 0 {
		// Empty blocks carry only metadata and there is nothing for the
		// state machine to scan: one is queued only when it carries
		// timestamps or a discontinuity, and it is not handed to the sink.
		if ts != (block.Timestamps{}) || discontinuity {
			f.in.append(block.Unit{TS: ts, Discontinuity: discontinuity})
		}
		return
	}
	u := block.Unit{Block: block.New(b), TS: ts, Discontinuity: discontinuity, Error: errFlag}
	f.in.append(u)
	f.work()
}

// discontinuity implements §4.5's discontinuity handling.
func (f *Framer) discontinuity() {
	if !f.nextFrameSlice {
		f.in.clear()
		f.loseSync()
		f.gotDiscontinuity = true
		return
	}
	// Slice-interior discontinuity: mark the head unit and carry on.
	if len(f.in.q) > 0 {
		f.in.q[0].Error = true
	}
}

// resetState clears the per-prospective-frame fields (§4.5 reset).
func (f *Framer) resetState() {
	f.nextFrameSequence = false
	f.seqExtOff, f.seqDisplayOff, f.gopOff, f.pictureOff, f.pictureExtOff = noOffset, noOffset, noOffset, noOffset, noOffset
	f.nextFrameSlice = false
}

// loseSync implements §4.5's lose-sync transition.
func (f *Framer) loseSync() {
	f.resetState()
	f.nextFrameSize = 0
	f.sc.reset()
	f.acquired = false
	if f.log != nil {
		f.log.Warning("mpgv sync lost")
	}
}

// work drives the state machine (§4.3) until no start code can be found
// in the buffered input, or a step must wait for more bytes.
func (f *Framer) work() {
	for {
		pos, start, ok := f.in.find(f.nextFrameSize, &f.sc)
		if !ok {
			// The scanned bytes are already folded into f.sc; resume after
			// them when more input arrives.
			f.nextFrameSize = pos
			return
		}
		var next byte
		haveNext := false
		if start == extensionStartCode {
			if nb, ok := f.in.peek(pos, 1); ok {
				next = nb[0]
				haveNext = true
			} else {
				// Need one more byte to classify the extension; rewind and
				// wait for more input.
				f.nextFrameSize = pos - 4
				return
			}
		}
		f.nextFrameSize = pos

		if !f.acquired {
			f.in.consume(f.nextFrameSize - 4)
			f.nextFrameSize = 4
			switch start {
			case sequenceStartCode:
				f.nextFrameSequence = true
				f.acquired = true
				if f.log != nil {
					f.log.Info("mpgv sync acquired")
				}
			case pictureStartCode:
				f.pts = block.Timestamps{}
			}
			continue
		}

		if f.pictureOff == noOffset {
			switch {
			case start == extensionStartCode && haveNext && next>>4 == extIDSequence:
				f.seqExtOff = f.nextFrameSize - 4
			case start == extensionStartCode && haveNext && next>>4 == extIDSequenceDisplay:
				f.seqDisplayOff = f.nextFrameSize - 4
			case start == gopStartCode:
				f.gopOff = f.nextFrameSize - 4
			case start == pictureStartCode:
				f.pictureOff = f.nextFrameSize - 4
			}
			continue
		}

		switch {
		case start == extensionStartCode && haveNext && next>>4 == extIDPictureCoding:
			f.pictureExtOff = f.nextFrameSize - 4
			continue
		case start == userDataStartCode:
			continue
		case start >= sliceStartCodeFirst && start <= sliceStartCodeLast:
			f.nextFrameSlice = true
			continue
		case start == sequenceEndCode:
			f.completeFrame(f.nextFrameSize, start)
		default:
			f.completeFrame(f.nextFrameSize-4, start)
		}
	}
}

// completeFrame emits the prospective frame of length n, then seeds the
// next prospective frame based on the start code that follows it.
func (f *Framer) completeFrame(n int, next byte) {
	if !f.emitFrame(n) {
		f.loseSync()
		return
	}
	f.resetState()
	f.nextFrameSize = 4
	switch next {
	case sequenceStartCode:
		f.nextFrameSequence = true
	case gopStartCode:
		f.gopOff = 0
	case pictureStartCode:
		f.pictureOff = 0
	case sequenceEndCode:
		f.nextFrameSize = 0
		f.loseSync()
	default:
		if f.log != nil {
			f.log.Warning("mpgv unexpected start code at frame boundary", "code", next)
		}
		f.loseSync()
	}
}

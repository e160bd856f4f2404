/*
NAME
  frame.go

DESCRIPTION
  frame.go defines Frame, the access unit emitted by the framer: one
  compressed picture (plus any header bytes that precede it) together
  with the metadata a downstream decoder or muxer needs.

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

// Frame is one emitted access unit.
type Frame struct {
	Bytes block.Block

	// HeaderSize is the number of leading bytes of Bytes that are
	// out-of-band header material rather than picture payload proper:
	// the bytes before the GOP header when the frame has one, otherwise
	// the bytes before the picture start code, plus the length of any
	// sequence triple prepended by sequence insertion. Zero when the
	// frame begins with its GOP header or picture start code and nothing
	// was prepended.
	HeaderSize int

	PictureNumber int
	CodingType    int // TypeI, TypeP or TypeB.

	// HasVBVDelay is false when the picture header's VBV delay field was
	// the "unspecified" sentinel.
	HasVBVDelay bool
	VBVDelay    int64

	// HasSystimeRAP is true when the picture inherits a system time of
	// random access, per §4.4 E6.
	HasSystimeRAP bool
	SystimeRAP    uint64

	RandomAccess  bool
	Discontinuity bool

	Duration int64

	TS block.Timestamps

	// Field structure, set by the picture coding extension when present;
	// absent the extension, a frame is tagged both-fields-present and
	// progressive (§4.4 E5).
	TopField         bool
	BottomField      bool
	TopFieldFirst    bool
	ProgressiveFrame bool

	// Flow is the flow description in effect when this frame was
	// produced. FlowChanged is true when a sequence triple that is not
	// byte-identical to the cached one was accepted since the previously
	// emitted frame; the derived Flow may still equal the previous one.
	Flow        FlowDescription
	FlowChanged bool
}

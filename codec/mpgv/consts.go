/*
NAME
  consts.go

DESCRIPTION
  consts.go provides the ISO/IEC 13818-2 start code, header size and coded
  field constants used by the framer.

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

// Package mpgv provides a framer that turns an arbitrary byte-aligned stream
// of ISO/IEC 13818-2 (MPEG-2 video) elementary stream data into a sequence of
// access units, one per coded picture, annotated with the metadata a
// downstream decoder or muxer needs.
package mpgv

// Start codes, as per ISO/IEC 13818-2 §6.2.
const (
	pictureStartCode    = 0x00
	sliceStartCodeFirst = 0x01
	sliceStartCodeLast  = 0xaf
	userDataStartCode   = 0xb2
	sequenceStartCode   = 0xb3
	extensionStartCode  = 0xb5
	sequenceEndCode     = 0xb7
	gopStartCode        = 0xb8
)

// Extension start code identifiers, held in the top 4 bits of the first
// extension payload byte.
const (
	extIDSequence        = 0x1
	extIDSequenceDisplay = 0x2
	extIDPictureCoding   = 0x8
)

// Picture coding types, as read from the picture header.
const (
	TypeI = 1
	TypeP = 2
	TypeB = 3
)

// Header sizes, in bytes. sequenceHeaderSize, sequenceExtensionSize,
// gopHeaderSize, pictureHeaderSize and pictureCodingExtSize are measured
// from the header's own 4-byte start code (inclusive). sequenceDisplaySize
// and sequenceDisplayColorSize are measured from the first payload byte
// after the start code, since parseSequenceDisplay computes its own
// start-code-relative offsets directly.
const (
	sequenceHeaderSize       = 12
	quantMatrixSize          = 64
	sequenceExtensionSize    = 10
	sequenceDisplaySize      = 5
	sequenceDisplayColorSize = 3
	gopHeaderSize            = 8
	pictureHeaderSize        = 8
	pictureCodingExtSize     = 9
)

// Aspect ratio codes from the sequence header.
const (
	aspectSquare = 1
	aspect4_3    = 2
	aspect16_9   = 3
	aspect2_21   = 4
)

// Chroma formats from the sequence extension.
const (
	chroma420 = 1
	chroma422 = 2
	chroma444 = 3
)

// Profile/level masks within the sequence extension's profile/level byte.
const levelMask = 0x0f

// Known level values (low nibble of profile/level byte).
const (
	levelLow      = 0xa
	levelMain     = 0x8
	levelHigh1440 = 0x6
	levelHigh     = 0x4
)

// Picture structure values from the picture coding extension.
const (
	structureTopField    = 1
	structureBottomField = 2
	structureFrame       = 3
)

// clockFreq is the system clock rate (Hz) that durations and converted VBV
// delays are expressed in. 90kHz is the MPEG system clock rate used for PTS
// and DTS, scaled up to a finer-grained rate for duration arithmetic, as the
// upipe clock does.
const clockFreq = 27000000

// frameRateTable maps the sequence header's 4-bit frame_rate_code to a
// rational frames-per-second value. Index 0 and indices 14-15 are invalid.
// Codes 9-13 are nonstandard (Xing/libmpeg3) but accepted for
// interoperability.
var frameRateTable = [16]Rational{
	{0, 0},
	{24000, 1001},
	{24, 1},
	{25, 1},
	{30000, 1001},
	{30, 1},
	{50, 1},
	{60000, 1001},
	{60, 1},
	{15000, 1001},
	{5000, 1001},
	{10000, 1001},
	{12000, 1001},
	{15000, 1001},
	{0, 0},
	{0, 0},
}

// noOffset marks an absent, non-negative byte offset within the prospective
// frame.
const noOffset = -1

/*
NAME
  picture_test.go

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

import "testing"

// This pins the bug fixed this session: parseGOP used to read the GOP
// header's own start code bytes as if they were field data.
func TestParseGOPSkipsOwnStartCode(t *testing.T) {
	g, err := parseGOP(gopHeader(true, false))
	if err != nil {
		t.Fatalf("parseGOP: %v", err)
	}
	if !g.closed {
		t.Error("closed = false, want true")
	}
	if g.brokenLink {
		t.Error("brokenLink = true, want false")
	}

	g, err = parseGOP(gopHeader(false, true))
	if err != nil {
		t.Fatalf("parseGOP: %v", err)
	}
	if g.closed {
		t.Error("closed = true, want false")
	}
	if !g.brokenLink {
		t.Error("brokenLink = false, want true")
	}
}

// TestParseGOPBitLayout pins closed_gop/broken_link to their true ISO/IEC
// 13818-2 bit offsets (25/26 from the start of the payload) using raw bytes
// assembled independently of the gopHeader test builder, so a shared
// off-by-one in both reader and writer can't make this test pass spuriously.
func TestParseGOPBitLayout(t *testing.T) {
	// time_code (25 bits) all zero, followed by closed_gop=1, broken_link=0,
	// then padding: payload byte 3 (bits 24-31) is 0b01000000 = 0x40.
	closedOnly := append(startCode(gopStartCode), 0x00, 0x00, 0x00, 0x40)
	g, err := parseGOP(closedOnly)
	if err != nil {
		t.Fatalf("parseGOP: %v", err)
	}
	if !g.closed {
		t.Error("closed = false, want true (bit offset 25)")
	}
	if g.brokenLink {
		t.Error("brokenLink = true, want false")
	}

	// closed_gop=0, broken_link=1: payload byte 3 is 0b00100000 = 0x20.
	brokenOnly := append(startCode(gopStartCode), 0x00, 0x00, 0x00, 0x20)
	g, err = parseGOP(brokenOnly)
	if err != nil {
		t.Fatalf("parseGOP: %v", err)
	}
	if g.closed {
		t.Error("closed = true, want false")
	}
	if !g.brokenLink {
		t.Error("brokenLink = false, want true (bit offset 26)")
	}
}

func TestParseGOPTooShort(t *testing.T) {
	b := gopHeader(false, false)
	if _, err := parseGOP(b[:gopHeaderSize-1]); err == nil {
		t.Fatal("parseGOP accepted a buffer one byte too short")
	}
}

// This pins the bug fixed this session: parsePicture used to read the
// picture header's own start code bytes as if they were field data,
// corrupting temporal_reference and picture_coding_type.
func TestParsePictureSkipsOwnStartCode(t *testing.T) {
	p, err := parsePicture(pictureHeader(731, TypeP, 0xffff))
	if err != nil {
		t.Fatalf("parsePicture: %v", err)
	}
	if p.temporalRef != 731 {
		t.Errorf("temporalRef = %d, want 731", p.temporalRef)
	}
	if p.codingType != TypeP {
		t.Errorf("codingType = %d, want TypeP", p.codingType)
	}
	if p.vbvDelay != -1 {
		t.Errorf("vbvDelay = %d, want -1 (unspecified)", p.vbvDelay)
	}
}

func TestParsePictureVBVDelayConversion(t *testing.T) {
	p, err := parsePicture(pictureHeader(0, TypeI, 900))
	if err != nil {
		t.Fatalf("parsePicture: %v", err)
	}
	want := 900 * clockFreq / 90000
	if p.vbvDelay != want {
		t.Errorf("vbvDelay = %d, want %d", p.vbvDelay, want)
	}
}

func TestParsePictureRejectsInvalidCodingType(t *testing.T) {
	if _, err := parsePicture(pictureHeader(0, 0, 0xffff)); err == nil {
		t.Fatal("parsePicture accepted coding type 0")
	}
	if _, err := parsePicture(pictureHeader(0, 7, 0xffff)); err == nil {
		t.Fatal("parsePicture accepted coding type 7")
	}
}

func TestParsePictureTooShort(t *testing.T) {
	b := pictureHeader(0, TypeI, 0xffff)
	if _, err := parsePicture(b[:pictureHeaderSize-1]); err == nil {
		t.Fatal("parsePicture accepted a buffer one byte too short")
	}
}

// This pins the bug fixed this session: parsePictureExt used to read the
// extension's own start code, and failed to skip the
// extension_start_code_identifier nibble, misaligning every field after
// it.
func TestParsePictureExtSkipsStartCodeAndIdentifier(t *testing.T) {
	e, err := parsePictureExt(pictureExt(structureTopField, true, false, true))
	if err != nil {
		t.Fatalf("parsePictureExt: %v", err)
	}
	if e.structure != structureTopField {
		t.Errorf("structure = %d, want %d", e.structure, structureTopField)
	}
	if !e.topFieldFirst {
		t.Error("topFieldFirst = false, want true")
	}
	if e.repeatFirstField {
		t.Error("repeatFirstField = true, want false")
	}
	if !e.progressiveFrame {
		t.Error("progressiveFrame = false, want true")
	}

	e, err = parsePictureExt(pictureExt(structureBottomField, false, true, false))
	if err != nil {
		t.Fatalf("parsePictureExt: %v", err)
	}
	if e.structure != structureBottomField {
		t.Errorf("structure = %d, want %d", e.structure, structureBottomField)
	}
	if e.topFieldFirst {
		t.Error("topFieldFirst = true, want false")
	}
	if !e.repeatFirstField {
		t.Error("repeatFirstField = false, want true")
	}
	if e.progressiveFrame {
		t.Error("progressiveFrame = true, want false")
	}
}

func TestParsePictureExtTooShort(t *testing.T) {
	b := pictureExt(structureFrame, true, false, true)
	if _, err := parsePictureExt(b[:pictureCodingExtSize-1]); err == nil {
		t.Fatal("parsePictureExt accepted a buffer one byte too short")
	}
}

func TestPictureNumberSentinelForcesUpdate(t *testing.T) {
	n, lastN, lastTR := pictureNumber(0, noTemporalReference, 5)
	if n != 5 || lastN != 5 || lastTR != 5 {
		t.Errorf("pictureNumber(0,sentinel,5) = %d,%d,%d, want 5,5,5", n, lastN, lastTR)
	}
}

func TestPictureNumberBFrameDoesNotAdvanceBaseline(t *testing.T) {
	n, lastN, lastTR := pictureNumber(5, 5, 0)
	if n != 0 {
		t.Errorf("n = %d, want 0", n)
	}
	if lastN != 5 || lastTR != 5 {
		t.Errorf("lastN,lastTR = %d,%d, want 5,5 (unchanged)", lastN, lastTR)
	}
}

func TestPictureDuration(t *testing.T) {
	got := pictureDuration(Rational{25, 1})
	want := int64(clockFreq) / 25
	if got != want {
		t.Errorf("pictureDuration(25/1) = %d, want %d", got, want)
	}
	if pictureDuration(Rational{0, 1}) != 0 {
		t.Error("pictureDuration with zero frame rate did not return 0")
	}
}

func TestAdjustDurationProgressiveRepeatFirstField(t *testing.T) {
	base := int64(1000)
	ext := &parsedPictureExt{structure: structureFrame, topFieldFirst: true, repeatFirstField: true}
	if got := adjustDuration(base, true, ext); got != base*2 {
		t.Errorf("adjustDuration = %d, want %d", got, base*2)
	}
	ext.topFieldFirst = false
	if got := adjustDuration(base, true, ext); got != base {
		t.Errorf("adjustDuration with repeat but not top-field-first = %d, want %d", got, base)
	}
}

func TestAdjustDurationInterlacedField(t *testing.T) {
	base := int64(1000)
	ext := &parsedPictureExt{structure: structureTopField}
	if got := adjustDuration(base, false, ext); got != base/2 {
		t.Errorf("adjustDuration for a lone field = %d, want %d", got, base/2)
	}
}

func TestAdjustDurationNoExtension(t *testing.T) {
	if got := adjustDuration(1000, true, nil); got != 1000 {
		t.Errorf("adjustDuration with no extension = %d, want 1000", got)
	}
}

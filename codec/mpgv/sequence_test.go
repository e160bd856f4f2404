/*
NAME
  sequence_test.go

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

func TestParseSequenceHeaderFields(t *testing.T) {
	b := seqHeader(1920, 1080, aspect16_9, 3, 123456, 321)
	h, err := parseSequenceHeader(b)
	if err != nil {
		t.Fatalf("parseSequenceHeader: %v", err)
	}
	if h.horizontal != 1920 || h.vertical != 1080 {
		t.Errorf("dimensions = %dx%d, want 1920x1080", h.horizontal, h.vertical)
	}
	if h.aspect != aspect16_9 {
		t.Errorf("aspect = %d, want %d", h.aspect, aspect16_9)
	}
	if h.frameRateCode != 3 {
		t.Errorf("frameRateCode = %d, want 3", h.frameRateCode)
	}
	if h.bitrate != 123456 {
		t.Errorf("bitrate = %d, want 123456", h.bitrate)
	}
	if h.vbv != 321 {
		t.Errorf("vbv = %d, want 321", h.vbv)
	}
	if h.loadIntra || h.loadNonIntra {
		t.Error("matrix flags set when none were requested")
	}
	if h.matrixEnd != sequenceHeaderSize {
		t.Errorf("matrixEnd = %d, want %d", h.matrixEnd, sequenceHeaderSize)
	}
}

func TestParseSequenceHeaderTooShort(t *testing.T) {
	b := seqHeader(720, 576, aspect4_3, 3, 1000, 100)
	if _, err := parseSequenceHeader(b[:sequenceHeaderSize-1]); err == nil {
		t.Fatal("parseSequenceHeader accepted a buffer one byte too short")
	}
}

// This pins the bug fixed this session: without skipping the
// extension_start_code_identifier nibble, profile_and_level_indication
// would be read one nibble off and come back wrong.
func TestParseSequenceExtensionProfileLevelNibbleAlignment(t *testing.T) {
	b := seqExt(0x4a, true, chroma422, 1, 2, 0, 0, false, 1, 3)
	e, err := parseSequenceExtension(b)
	if err != nil {
		t.Fatalf("parseSequenceExtension: %v", err)
	}
	if e.profileLevel != 0x4a {
		t.Errorf("profileLevel = %#x, want 0x4a", e.profileLevel)
	}
	if !e.progressive {
		t.Error("progressive = false, want true")
	}
	if e.chroma != chroma422 {
		t.Errorf("chroma = %d, want %d", e.chroma, chroma422)
	}
	if e.horizontalExt != 1 || e.verticalExt != 2 {
		t.Errorf("horizontalExt,verticalExt = %d,%d, want 1,2", e.horizontalExt, e.verticalExt)
	}
	if e.frameRateNum != 1 || e.frameRateDen != 3 {
		t.Errorf("frameRateNum,frameRateDen = %d,%d, want 1,3", e.frameRateNum, e.frameRateDen)
	}
}

func TestParseSequenceExtensionTooShort(t *testing.T) {
	b := seqExt(0x48, true, chroma420, 0, 0, 0, 0, false, 0, 0)
	if _, err := parseSequenceExtension(b[:sequenceExtensionSize-1]); err == nil {
		t.Fatal("parseSequenceExtension accepted a buffer one byte too short")
	}
}

func TestBuildFlowDescriptionWithExtension(t *testing.T) {
	h, err := parseSequenceHeader(seqHeader(176, 144, aspectSquare, 4, 1000, 100))
	if err != nil {
		t.Fatalf("parseSequenceHeader: %v", err)
	}
	e, err := parseSequenceExtension(seqExt(0x48, true, chroma420, 0, 0, 0, 0, false, 1, 0))
	if err != nil {
		t.Fatalf("parseSequenceExtension: %v", err)
	}
	flow, fr, progressive, err := buildFlowDescription(h, &e, nil)
	if err != nil {
		t.Fatalf("buildFlowDescription: %v", err)
	}
	if !progressive {
		t.Error("progressive = false, want true")
	}
	want := Rational{60000, 1001}
	if fr != want {
		t.Errorf("fr = %v, want %v", fr, want)
	}
	if flow.FrameRate != want {
		t.Errorf("flow.FrameRate = %v, want %v", flow.FrameRate, want)
	}
	if flow.Profile != 0x4 || flow.Level != 0x8 {
		t.Errorf("Profile,Level = %#x,%#x, want 0x4,0x8", flow.Profile, flow.Level)
	}
}

func TestBuildFlowDescriptionRejectsInvalidLevel(t *testing.T) {
	h, err := parseSequenceHeader(seqHeader(176, 144, aspectSquare, 3, 1000, 100))
	if err != nil {
		t.Fatalf("parseSequenceHeader: %v", err)
	}
	e, err := parseSequenceExtension(seqExt(0x40, true, chroma420, 0, 0, 0, 0, false, 0, 0))
	if err != nil {
		t.Fatalf("parseSequenceExtension: %v", err)
	}
	if _, _, _, err := buildFlowDescription(h, &e, nil); err == nil {
		t.Fatal("buildFlowDescription accepted an unrecognised level nibble")
	}
}

func TestBuildFlowDescriptionRejectsInvalidFrameRateCode(t *testing.T) {
	h, err := parseSequenceHeader(seqHeader(176, 144, aspectSquare, 14, 1000, 100))
	if err != nil {
		t.Fatalf("parseSequenceHeader: %v", err)
	}
	if _, _, _, err := buildFlowDescription(h, nil, nil); err == nil {
		t.Fatal("buildFlowDescription accepted frame rate code 14")
	}
}

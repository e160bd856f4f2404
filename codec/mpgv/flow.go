/*
NAME
  flow.go

DESCRIPTION
  flow.go provides the FlowDescription type: the resolved picture
  geometry, rate and buffering parameters derived from a sequence header
  triple, re-emitted as a control message whenever it changes.

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

// Chroma identifies a planar chroma subsampling layout.
type Chroma int

// Recognised chroma subsampling layouts.
const (
	Chroma420 Chroma = iota // one chroma sample per 2x2 luma block.
	Chroma422               // one chroma sample per 2x1 luma block.
	Chroma444               // one chroma sample per luma sample.
)

func (c Chroma) String() string {
	switch c {
	case Chroma420:
		return "4:2:0"
	case Chroma422:
		return "4:2:2"
	case Chroma444:
		return "4:4:4"
	default:
		return "unknown"
	}
}

// FlowDescription is the resolved picture geometry and coding parameters
// of the stream currently being parsed, derived from the most recently
// accepted sequence header, sequence extension, and sequence display
// extension. A new value is produced only when the underlying header
// triple's content changes (see cachedSequence in sequence.go).
type FlowDescription struct {
	Width, Height int
	FrameRate     Rational
	SAR           Rational
	Chroma        Chroma

	// HasExtension is true when a sequence extension was present, making
	// Profile, Level, LowDelay and Progressive meaningful.
	HasExtension bool
	Profile      int
	Level        int
	LowDelay     bool
	Progressive  bool

	// OctetRate is the coded bitrate in octets per second.
	OctetRate int
	// CPBOctets is the coded picture buffer size in octets.
	CPBOctets int

	// HasDisplaySize is true when a sequence display extension was
	// present.
	HasDisplaySize        bool
	DisplayWidth, DisplayHeight int
}

func (f FlowDescription) String() string {
	return fmt.Sprintf("%dx%d %v fps=%d/%d sar=%d/%d profile=%#x level=%#x",
		f.Width, f.Height, f.Chroma, f.FrameRate.Num, f.FrameRate.Den, f.SAR.Num, f.SAR.Den, f.Profile, f.Level)
}

// sampleAspectRatio computes the sample aspect ratio from the sequence
// header's 4-bit aspect ratio code and the coded picture dimensions, per
// ISO/IEC 13818-2 §6.3.3 table 6-3.
func sampleAspectRatio(aspect int, width, height int) (Rational, error) {
	switch aspect {
	case aspectSquare:
		return Rational{1, 1}, nil
	case aspect4_3:
		return Rational{int64(height) * 4, int64(width) * 3}.Simplify(), nil
	case aspect16_9:
		return Rational{int64(height) * 16, int64(width) * 9}.Simplify(), nil
	case aspect2_21:
		return Rational{int64(height) * 221, int64(width) * 100}.Simplify(), nil
	default:
		return Rational{}, fmt.Errorf("mpgv: unknown aspect ratio code %#x", aspect)
	}
}

// chromaFormat maps the sequence extension's 2-bit chroma format field to
// a Chroma value.
func chromaFormat(c int) (Chroma, error) {
	switch c {
	case chroma420:
		return Chroma420, nil
	case chroma422:
		return Chroma422, nil
	case chroma444:
		return Chroma444, nil
	default:
		return 0, fmt.Errorf("mpgv: unknown chroma format code %#x", c)
	}
}

// maxOctetRate returns the profile/level's upper octet-rate bound and
// whether the level nibble is known. buildFlowDescription uses only the
// second result, to reject unknown levels; the bound is not compared with
// the header's own bitrate. Table values are ISO/IEC 13818-2 Table 8-12
// (max bit rate) expressed in octets/sec, keyed on the level nibble.
func maxOctetRate(level int) (int, bool) {
	switch level & levelMask {
	case levelLow:
		return 4 * 1000 * 1000 / 8, true
	case levelMain:
		return 15 * 1000 * 1000 / 8, true
	case levelHigh1440:
		return 60 * 1000 * 1000 / 8, true
	case levelHigh:
		return 80 * 1000 * 1000 / 8, true
	default:
		return 0, false
	}
}

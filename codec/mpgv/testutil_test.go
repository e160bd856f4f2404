/*
NAME
  testutil_test.go

DESCRIPTION
  testutil_test.go provides bit-exact builders for the ISO/IEC 13818-2
  headers the framer tests assemble synthetic streams from.

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

// bitWriter packs fields MSB-first into a byte slice, the write-side
// counterpart of bitCursor, used only to build synthetic test streams.
type bitWriter struct {
	bits []bool
}

func (w *bitWriter) put(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		w.bits = append(w.bits, v&(1<<uint(i)) != 0)
	}
}

func (w *bitWriter) flag(v bool) {
	if v {
		w.put(1, 1)
	} else {
		w.put(0, 1)
	}
}

func (w *bitWriter) bytes() []byte {
	for len(w.bits)%8 != 0 {
		w.bits = append(w.bits, false)
	}
	out := make([]byte, len(w.bits)/8)
	for i, b := range w.bits {
		if b {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

func startCode(code byte) []byte { return []byte{0, 0, 1, code} }

// seqHeader builds a 12-byte sequence header (no quantiser matrices).
func seqHeader(horizontal, vertical, aspect, frameRateCode int, bitrate, vbv uint32) []byte {
	w := &bitWriter{}
	w.put(uint32(horizontal), 12)
	w.put(uint32(vertical), 12)
	w.put(uint32(aspect), 4)
	w.put(uint32(frameRateCode), 4)
	w.put(bitrate, 18)
	w.put(1, 1) // marker_bit.
	w.put(vbv, 10)
	w.put(0, 1) // constrained_parameters_flag.
	w.put(0, 1) // load_intra_quantiser_matrix.
	w.put(0, 1) // load_non_intra_quantiser_matrix.
	return append(startCode(sequenceStartCode), w.bytes()...)
}

// seqExt builds a 10-byte sequence extension.
func seqExt(profileLevel int, progressive bool, chroma, hExt, vExt int, bitrateExt, vbvExt uint32, lowDelay bool, frNumExt, frDenExt int) []byte {
	w := &bitWriter{}
	w.put(uint32(extIDSequence), 4)
	w.put(uint32(profileLevel), 8)
	w.flag(progressive)
	w.put(uint32(chroma), 2)
	w.put(uint32(hExt), 2)
	w.put(uint32(vExt), 2)
	w.put(bitrateExt, 12)
	w.put(1, 1) // marker_bit.
	w.put(vbvExt, 8)
	w.flag(lowDelay)
	w.put(uint32(frNumExt), 2)
	w.put(uint32(frDenExt), 5)
	return append(startCode(extensionStartCode), w.bytes()...)
}

// gopHeader builds an 8-byte GOP header.
func gopHeader(closed, brokenLink bool) []byte {
	w := &bitWriter{}
	w.put(0, 25) // time_code (drop_frame_flag(1)+hour(5)+minute(6)+marker(1)+second(6)+pictures(6)).
	w.flag(closed)
	w.flag(brokenLink)
	return append(startCode(gopStartCode), w.bytes()...)
}

// pictureHeader builds an 8-byte picture header. vbvDelay is the raw
// 16-bit field value; pass 0xffff for "unspecified".
func pictureHeader(tr, codingType int, vbvDelay uint32) []byte {
	w := &bitWriter{}
	w.put(uint32(tr), 10)
	w.put(uint32(codingType), 3)
	w.put(vbvDelay, 16)
	return append(startCode(pictureStartCode), w.bytes()...)
}

// pictureExt builds a 9-byte picture coding extension.
func pictureExt(structure int, topFieldFirst, repeatFirstField, progressiveFrame bool) []byte {
	w := &bitWriter{}
	w.put(uint32(extIDPictureCoding), 4)
	w.put(0, 16) // f_code[0][0..1], f_code[1][0..1].
	w.put(0, 2)  // intra_dc_precision.
	w.put(uint32(structure), 2)
	w.flag(topFieldFirst)
	w.put(0, 1) // frame_pred_frame_dct.
	w.put(0, 1) // concealment_motion_vectors.
	w.put(0, 1) // q_scale_type.
	w.put(0, 1) // intra_vlc_format.
	w.put(0, 1) // alternate_scan.
	w.flag(repeatFirstField)
	w.put(0, 1) // chroma_420_type.
	w.flag(progressiveFrame)
	return append(startCode(extensionStartCode), w.bytes()...)
}

// concatAll joins byte slices into one.
func concatAll(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// collectingSink returns a Sink that appends every frame it receives to
// *frames.
func collectingSink(frames *[]Frame) Sink {
	return func(f Frame) { *frames = append(*frames, f) }
}

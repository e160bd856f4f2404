/*
NAME
  unit.go

DESCRIPTION
  unit.go provides the Unit type: a Block annotated with the clock and flow
  metadata that travels alongside it through the input stream buffer.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package block

// Timestamps is a bag of clock annotations. Each field is nil when absent,
// matching the "present or absent" timestamp slots of the data model this
// type supports.
type Timestamps struct {
	PTSOrig *uint64
	PTS     *uint64
	PTSSys  *uint64
	DTSOrig *uint64
	DTS     *uint64
	DTSSys  *uint64

	// SystimeRAP is the system time of the random access point that applies
	// to this unit, if known.
	SystimeRAP *uint64
}

// IsZero reports whether t carries no timestamps at all.
func (t Timestamps) IsZero() bool {
	return t.PTSOrig == nil && t.PTS == nil && t.PTSSys == nil &&
		t.DTSOrig == nil && t.DTS == nil && t.DTSSys == nil && t.SystimeRAP == nil
}

// U64 returns a pointer to v, for convenient Timestamps field literals.
func U64(v uint64) *uint64 { return &v }

// Unit is a Block plus the annotations that apply to its first byte: clock
// timestamps and flow flags. Unit is the currency of the input stream
// buffer: every enqueued chunk of the source byte stream is a Unit.
// Extraction from the stream returns a Block and the Timestamps of its
// first byte separately, not a Unit.
type Unit struct {
	Block Block
	TS    Timestamps

	// Discontinuity marks that this unit does not follow contiguously from
	// the previous one (a capture gap, a dropped packet, and so on).
	Discontinuity bool

	// Error marks that this unit's bytes are suspect, e.g. unreliable
	// reconstruction after a loss event inside slice data.
	Error bool
}

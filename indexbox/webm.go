package indexbox

import (
	"encoding/binary"
	"fmt"

	"github.com/dash-mpd-go/dashmpd/dmerrors"
)

// ParseCues decodes a WebM Cues element into an Index. No example in the
// corpus wires a WebM/Matroska parsing library (the pack is entirely
// ISO-BMFF focused), so this reads the EBML variable-length integer (VINT)
// structure directly per the Matroska spec; see DESIGN.md for why this one
// corner of indexbox stays on hand-rolled parsing rather than a
// third-party dependency.
const (
	ebmlIDCues          = 0x1C53BB6B
	ebmlIDCuePoint      = 0xBB
	ebmlIDCueTime       = 0xB3
	ebmlIDCueTrackPos   = 0xB7
	ebmlIDCueTrackNum   = 0xF7
	ebmlIDCueClusterPos = 0xF1
)

// ParseCues walks a Cues element's byte content (as fetched via indexRange)
// and returns one Entry per CuePoint, using the gap between consecutive
// cluster positions as that entry's byte size (Matroska Cues reference
// cluster offsets, not explicit sizes, so the size of the Nth cue is
// derived from the (N+1)th cue's offset; the final cue's size is totalSize
// minus its cluster offset, and its duration is 0).
func ParseCues(data []byte, timescale uint32, totalSize uint64) (*Index, error) {
	r := &ebmlReader{data: data}

	id, err := r.readID()
	if err != nil {
		return nil, &dmerrors.IndexParseError{Format: "webm-cues", Err: err}
	}
	if id != ebmlIDCues {
		return nil, &dmerrors.IndexParseError{Format: "webm-cues", Err: fmt.Errorf("expected Cues element (0x%X), got 0x%X", ebmlIDCues, id)}
	}
	size, err := r.readVintValue()
	if err != nil {
		return nil, &dmerrors.IndexParseError{Format: "webm-cues", Err: err}
	}
	body := r.data[r.pos : r.pos+int(size)]

	type cue struct {
		timeTicks uint64
		offset    uint64
	}
	var cues []cue

	br := &ebmlReader{data: body}
	for br.pos < len(br.data) {
		cpID, err := br.readID()
		if err != nil {
			break
		}
		cpSize, err := br.readVintValue()
		if err != nil {
			return nil, &dmerrors.IndexParseError{Format: "webm-cues", Err: err}
		}
		cpBody := br.data[br.pos : br.pos+int(cpSize)]
		br.pos += int(cpSize)

		if cpID != ebmlIDCuePoint {
			continue
		}

		var c cue
		cr := &ebmlReader{data: cpBody}
		for cr.pos < len(cr.data) {
			eid, err := cr.readID()
			if err != nil {
				break
			}
			esize, err := cr.readVintValue()
			if err != nil {
				return nil, &dmerrors.IndexParseError{Format: "webm-cues", Err: err}
			}
			ebody := cr.data[cr.pos : cr.pos+int(esize)]
			cr.pos += int(esize)

			switch eid {
			case ebmlIDCueTime:
				c.timeTicks = beUint(ebody)
			case ebmlIDCueTrackPos:
				tr := &ebmlReader{data: ebody}
				for tr.pos < len(tr.data) {
					tid, err := tr.readID()
					if err != nil {
						break
					}
					tsize, err := tr.readVintValue()
					if err != nil {
						return nil, &dmerrors.IndexParseError{Format: "webm-cues", Err: err}
					}
					tbody := tr.data[tr.pos : tr.pos+int(tsize)]
					tr.pos += int(tsize)
					if tid == ebmlIDCueClusterPos {
						c.offset = beUint(tbody)
					}
				}
			}
		}
		cues = append(cues, c)
	}

	idx := &Index{Timescale: timescale}
	for i, c := range cues {
		var next uint64
		if i+1 < len(cues) {
			next = cues[i+1].offset
		} else {
			next = totalSize
		}
		var durTicks uint64
		if i+1 < len(cues) {
			durTicks = cues[i+1].timeTicks - c.timeTicks
		}
		idx.Entries = append(idx.Entries, Entry{
			ReferencedSize:     uint32(next - c.offset),
			SubsegmentDuration: uint32(durTicks),
		})
	}
	return idx, nil
}

func beUint(b []byte) uint64 {
	var buf [8]byte
	copy(buf[8-len(b):], b)
	return binary.BigEndian.Uint64(buf[:])
}

// ebmlReader reads EBML IDs and variable-length integers (VINTs): both are
// the same physical encoding (leading 1-bit marks the width in the first
// byte), differing only in whether the marker bit is cleared for the value
// (VINT data) or kept (element ID).
type ebmlReader struct {
	data []byte
	pos  int
}

func (r *ebmlReader) readID() (uint32, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("ebml: unexpected end of data reading id")
	}
	first := r.data[r.pos]
	width := vintWidth(first)
	if width == 0 || r.pos+width > len(r.data) {
		return 0, fmt.Errorf("ebml: invalid id width at offset %d", r.pos)
	}
	var v uint32
	for i := 0; i < width; i++ {
		v = v<<8 | uint32(r.data[r.pos+i])
	}
	r.pos += width
	return v, nil
}

func (r *ebmlReader) readVintValue() (uint64, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("ebml: unexpected end of data reading vint")
	}
	first := r.data[r.pos]
	width := vintWidth(first)
	if width == 0 || r.pos+width > len(r.data) {
		return 0, fmt.Errorf("ebml: invalid vint width at offset %d", r.pos)
	}
	v := uint64(first) &^ (0xFF << uint(8-width)) // clear marker bit
	for i := 1; i < width; i++ {
		v = v<<8 | uint64(r.data[r.pos+i])
	}
	r.pos += width
	return v, nil
}

// vintWidth returns the total byte length of an EBML VINT/ID given its
// first byte, i.e. the position of the highest set bit counted from the
// top (1 through 8).
func vintWidth(first byte) int {
	for i := 0; i < 8; i++ {
		if first&(0x80>>uint(i)) != 0 {
			return i + 1
		}
	}
	return 0
}

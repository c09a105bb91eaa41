package indexbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteRangesComputesConsecutiveOffsets(t *testing.T) {
	idx := &Index{
		Timescale:   90000,
		FirstOffset: 0,
		Entries: []Entry{
			{ReferencedSize: 1000, SubsegmentDuration: 180000},
			{ReferencedSize: 2000, SubsegmentDuration: 180000},
			{ReferencedSize: 500, SubsegmentDuration: 90000},
		},
	}

	ranges := idx.ByteRanges(848)
	assert := assert.New(t)
	assert.Len(ranges, 3)
	assert.Equal(ByteRange{Start: 848, End: 1847, Duration: 180000}, ranges[0])
	assert.Equal(ByteRange{Start: 1848, End: 3847, Duration: 180000}, ranges[1])
	assert.Equal(ByteRange{Start: 3848, End: 4347, Duration: 90000}, ranges[2])
}

func TestByteRangesHonorsFirstOffset(t *testing.T) {
	idx := &Index{FirstOffset: 100, Entries: []Entry{{ReferencedSize: 50}}}
	ranges := idx.ByteRanges(0)
	assert.Equal(t, uint64(100), ranges[0].Start)
	assert.Equal(t, uint64(149), ranges[0].End)
}

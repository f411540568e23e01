package staticfile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name   string
		header string
		total  int64
		want   RangeResult
	}{
		{"first half", "bytes=0-49", 100, RangeResult{Kind: RangeSatisfiable, Ranges: []ByteRange{{0, 49}}}},
		{"open end", "bytes=90-", 100, RangeResult{Kind: RangeSatisfiable, Ranges: []ByteRange{{90, 99}}}},
		{"suffix", "bytes=-10", 100, RangeResult{Kind: RangeSatisfiable, Ranges: []ByteRange{{90, 99}}}},
		{"suffix longer than file", "bytes=-500", 100, RangeResult{Kind: RangeSatisfiable, Ranges: []ByteRange{{0, 99}}}},
		{"end clamped", "bytes=50-1000", 100, RangeResult{Kind: RangeSatisfiable, Ranges: []ByteRange{{50, 99}}}},
		{"two ranges kept in order", "bytes=90-99, 0-9", 100, RangeResult{Kind: RangeSatisfiable, Ranges: []ByteRange{{90, 99}, {0, 9}}}},
		{"overlap not merged", "bytes=0-10,5-15", 100, RangeResult{Kind: RangeSatisfiable, Ranges: []ByteRange{{0, 10}, {5, 15}}}},
		{"unit case", "Bytes=0-0", 100, RangeResult{Kind: RangeSatisfiable, Ranges: []ByteRange{{0, 0}}}},
		{"empty elements skipped", "bytes=,0-1,,", 100, RangeResult{Kind: RangeSatisfiable, Ranges: []ByteRange{{0, 1}}}},
		{"unsatisfiable drops", "bytes=200-300,0-1", 100, RangeResult{Kind: RangeSatisfiable, Ranges: []ByteRange{{0, 1}}}},
		{"start beyond end", "bytes=10-", 10, RangeResult{Kind: RangeUnsatisfiable}},
		{"inverted", "bytes=20-10", 100, RangeResult{Kind: RangeUnsatisfiable}},
		{"zero suffix", "bytes=-0", 100, RangeResult{Kind: RangeUnsatisfiable}},
		{"empty file", "bytes=0-", 0, RangeResult{Kind: RangeUnsatisfiable}},
		{"other unit", "items=0-1", 100, RangeResult{Kind: RangeNone}},
		{"no equals", "bytes 0-1", 100, RangeResult{Kind: RangeNone}},
		{"garbage", "bytes=abc", 100, RangeResult{Kind: RangeNone}},
		{"one bad spec poisons header", "bytes=0-1,x-2", 100, RangeResult{Kind: RangeNone}},
		{"signed number", "bytes=+1-2", 100, RangeResult{Kind: RangeNone}},
		{"no specs", "bytes=", 100, RangeResult{Kind: RangeNone}},
		{"huge number saturates", "bytes=0-99999999999999999999999", 100, RangeResult{Kind: RangeSatisfiable, Ranges: []ByteRange{{0, 99}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ParseRange(tt.header, tt.total))
		})
	}
}

func TestRangeParserMaxRanges(t *testing.T) {
	req := require.New(t)
	p := RangeParser{MaxRanges: 2}

	req.Equal(RangeSatisfiable, p.Parse("bytes=0-1,2-3", 10).Kind)
	req.Equal(RangeNone, p.Parse("bytes=0-1,2-3,4-5", 10).Kind)
}

func TestContentRangeFormatting(t *testing.T) {
	req := require.New(t)

	req.Equal("bytes 0-49/100", ByteRange{Start: 0, End: 49}.ContentRange(100))
	req.Equal("bytes */10", UnsatisfiedContentRange(10))
	req.EqualValues(50, ByteRange{Start: 0, End: 49}.Length())
	req.EqualValues(20, RangeResult{Ranges: []ByteRange{{0, 9}, {90, 99}}}.TotalLength())
}

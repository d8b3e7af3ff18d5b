package tomy_file

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZigZagEncoding(t *testing.T) {
	tests := []struct {
		original int64
		expected uint64
	}{
		{0, 0},
		{-1, 1},
		{1, 2},
		{-2, 3},
		{2, 4},
		{-3, 5},
		{math.MaxInt32, 4294967294},
		{math.MinInt32, 4294967295},
		{math.MaxInt64, 0xFFFFFFFFFFFFFFFE},
		{math.MinInt64, 0xFFFFFFFFFFFFFFFF},
	}

	for _, tc := range tests {
		encoded := ZigZagEncode(tc.original)
		assert.Equal(t, tc.expected, encoded, "encode %d", tc.original)
		assert.Equal(t, tc.original, ZigZagDecode(encoded), "decode %d", encoded)
	}
}

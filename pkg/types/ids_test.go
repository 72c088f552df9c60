package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParseID(t *testing.T) {
	for _, id := range []uint64{1, 12345, math.MaxInt64 + 1, math.MaxUint64} {
		s := FormatID(id)
		got, err := ParseID(s)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}

	// 超过 int64 的 ID 以无符号形式编码
	assert.Equal(t, "18446744073709551615", FormatID(math.MaxUint64))
}

func TestParseID_Invalid(t *testing.T) {
	for _, s := range []string{"", "-1", "abc", "18446744073709551616"} {
		_, err := ParseID(s)
		assert.Error(t, err, s)
		assert.Zero(t, ParseIDOrZero(s))
	}
}

func TestMilestoneBlockIDs_LastID(t *testing.T) {
	assert.Zero(t, MilestoneBlockIDs{}.LastID())
	assert.Equal(t, uint64(3), MilestoneBlockIDs{IDs: []uint64{1, 2, 3}}.LastID())
}

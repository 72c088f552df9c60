package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("2.5.0")
	require.NoError(t, err)
	assert.Equal(t, "v2.5.0", v.String())

	v, err = ParseVersion("v3.0.0-dev")
	require.NoError(t, err)
	assert.Equal(t, "v3.0.0-dev", v.String())

	for _, raw := range []string{"", "garbage", "v1.x.0", "1..2"} {
		_, err := ParseVersion(raw)
		assert.ErrorIs(t, err, ErrInvalidVersion, "raw=%q", raw)
	}
}

func TestVersion_Compare(t *testing.T) {
	v250 := MustParseVersion("v2.5.0")
	v300dev := MustParseVersion("v3.0.0-dev")
	v300 := MustParseVersion("v3.0.0")

	assert.True(t, v300.IsGreaterThan(v300dev))
	assert.True(t, v300dev.IsGreaterThan(v250))
	assert.True(t, v250.IsGreaterThanOrEqual(MustParseVersion("2.5.0")))
	assert.False(t, v250.IsGreaterThan(v250))

	// 空版本比任何有效版本都小
	assert.True(t, v250.IsGreaterThan(EmptyVersion))
	assert.False(t, EmptyVersion.IsGreaterThanOrEqual(v250))
	assert.Equal(t, 0, EmptyVersion.Compare(Version{}))
	assert.True(t, EmptyVersion.IsEmpty())
}

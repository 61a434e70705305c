package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  ", ""},
		{"2012-03-15", "2012-03-15"},
		{"2012-03-15 00:00:00", "2012-03-15"},
		{"2012-03-15T00:00:00", "2012-03-15"},
		{"15.3.2012", "2012-03-15"},
		{"15.03.2012.", "2012-03-15"},
		{"15. 3. 2012.", "2012-03-15"},
		{"2012/03/15", "2012-03-15"},
		{"40983", "2012-03-15"},
		{"23816", "1965-03-15"},
		{"40983.75", "2012-03-15"},
		{"20120315", "2012-03-15"},
	}
	for _, tc := range cases {
		got, err := NormalizeDate(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"sutra", "2012-13-40", "32.1.2012", "1965", "03-15-65", "3/15/65", "20121315", "99999999"} {
		_, err := NormalizeDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseFlag(t *testing.T) {
	for _, s := range []string{"", "0", "ne", "NO", "false", "0.0"} {
		v, err := parseFlag(s)
		require.NoError(t, err, s)
		assert.False(t, v, s)
	}
	for _, s := range []string{"1", "DA", "yes", "x", "1.0", "2"} {
		v, err := parseFlag(s)
		require.NoError(t, err, s)
		assert.True(t, v, s)
	}
	_, err := parseFlag("možda")
	assert.Error(t, err)
}

func TestParseNumbers(t *testing.T) {
	n, err := parseCount("3.0")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = parseCount("")
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = parseCount("2.5")
	assert.Error(t, err)
	_, err = parseCount("-1")
	assert.Error(t, err)

	fee, err := parseFee("")
	require.NoError(t, err)
	assert.Equal(t, 30.0, fee)
	fee, err = parseFee("22,5")
	require.NoError(t, err)
	assert.Equal(t, 22.5, fee)
	_, err = parseFee("-3")
	assert.Error(t, err)
}

func TestNormalizeOIB(t *testing.T) {
	assert.Equal(t, "11111111119", normalizeOIB(" 11111111119 "))
	assert.Equal(t, "11111111119", normalizeOIB("11111111119.0"))
	assert.Equal(t, "01234567890", normalizeOIB("1234567890"))
	assert.Equal(t, "ABC", normalizeOIB("ABC"))
	assert.Equal(t, "", normalizeOIB(""))
}

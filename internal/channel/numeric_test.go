package channel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"alice",
		"Player_42",
		"set;data/score;42",
		"respond;has account;true",
		alphabet,
	}

	for _, in := range inputs {
		encoded, err := EncodeNumeric(in)
		require.NoError(t, err)
		assert.Len(t, encoded, len(in)*2)
		assert.NotContains(t, encoded, "00")

		decoded, err := DecodeNumeric(encoded)
		require.NoError(t, err)
		assert.Equal(t, in, decoded)
	}
}

func TestEncodeNumericKnownValues(t *testing.T) {
	encoded, err := EncodeNumeric("abc")
	require.NoError(t, err)
	assert.Equal(t, "010203", encoded)

	encoded, err = EncodeNumeric("A0 ")
	require.NoError(t, err)
	assert.Equal(t, "275363", encoded)
}

func TestEncodeNumericRejects(t *testing.T) {
	_, err := EncodeNumeric("héllo")
	assert.ErrorIs(t, err, ErrUnencodable)

	_, err = EncodeNumeric("tab\there")
	assert.ErrorIs(t, err, ErrUnencodable)

	_, err = EncodeNumeric(strings.Repeat("a", MaxValueLength/2+1))
	assert.ErrorIs(t, err, ErrValueTooLong)

	_, err = EncodeNumeric(strings.Repeat("a", MaxValueLength/2))
	assert.NoError(t, err)
}

func TestDecodeNumericRejects(t *testing.T) {
	for _, in := range []string{"0", "123", "00", "0a", "99", "-1"} {
		_, err := DecodeNumeric(in)
		assert.ErrorIs(t, err, ErrInvalidEncoding, in)
	}
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("scratch")
	require.NoError(t, err)
	assert.Equal(t, VariantScratch, v)

	v, err = ParseVariant("turbowarp")
	require.NoError(t, err)
	assert.Equal(t, VariantTurbowarp, v)

	_, err = ParseVariant("gopher")
	assert.Error(t, err)
}

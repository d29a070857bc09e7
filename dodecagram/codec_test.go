package dodecagram

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trion-lang/trion/trionerr"
)

func TestEncodeKnownValues(t *testing.T) {
	require.Equal(t, "0", Encode(nil))
	require.Equal(t, "0", Encode([]byte{0, 0, 0}))
	require.Equal(t, "9ba461593", Encode([]byte{0xFF, 0xFF, 0xFF, 0xFF}))
}

func TestEncodeScaledFixedPoint(t *testing.T) {
	s, err := EncodeScaled([]byte{0x01, 0x00}, 2)
	require.NoError(t, err)
	require.Equal(t, "1.94", s)
}

func TestEncodeScaledPadsFraction(t *testing.T) {
	// 4 in base12 is "4"; scale 3 must left-pad to "0.004".
	s, err := EncodeScaled([]byte{0x04}, 3)
	require.NoError(t, err)
	require.Equal(t, "0.004", s)
}

func TestEncodeScaledNegativeIsInvalid(t *testing.T) {
	_, err := EncodeScaled([]byte{0x01}, -1)
	require.ErrorIs(t, err, trionerr.ErrInvalidArgs)
}

func TestDecodeKnownValue(t *testing.T) {
	mag, scale, neg, err := Decode("9ba461593")
	require.NoError(t, err)
	require.Equal(t, 0, scale)
	require.False(t, neg)
	require.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, mag)
}

func TestDecodeFixedPointRoundTrip(t *testing.T) {
	mag, scale, _, err := Decode("1.94")
	require.NoError(t, err)
	require.Equal(t, 2, scale)
	require.Equal(t, []byte{0x01, 0x00}, mag)
}

func TestDecodeSkipsUnderscoreAndSpace(t *testing.T) {
	a, sa, _, err := Decode("1_b")
	require.NoError(t, err)
	b, sb, _, err := Decode("1b")
	require.NoError(t, err)
	c, sc, _, err := Decode("1 B")
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, a, c)
	require.Equal(t, sa, sb)
	require.Equal(t, sa, sc)
}

func TestDecodeStrictRejectsSkippedChars(t *testing.T) {
	_, _, _, err := DecodeStrict("1_b")
	require.ErrorIs(t, err, trionerr.ErrInvalidArgs)

	_, _, _, err = DecodeStrict("1b")
	require.NoError(t, err)
}

func TestDecodeRejectsUnknownDigit(t *testing.T) {
	_, _, _, err := Decode("1c2")
	require.ErrorIs(t, err, trionerr.ErrInvalidArgs)
}

func TestRoundTripAcrossScales(t *testing.T) {
	inputs := [][]byte{
		nil,
		{0x00},
		{0x01},
		{0xFF},
		{0x01, 0x00},
		{0x12, 0x34, 0x56, 0x78, 0x9A},
	}
	for _, in := range inputs {
		for scale := 0; scale <= 4; scale++ {
			text, err := EncodeScaled(in, scale)
			require.NoError(t, err)

			mag, gotScale, _, err := Decode(text)
			require.NoError(t, err)
			require.Equal(t, scale, gotScale)
			require.Equal(t, trimLeadingZeros(in), mag)
		}
	}
}

func TestUint64RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 11, 12, 144, math.MaxUint64} {
		s := EncodeUint64(v)
		got, err := DecodeUint64(s)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestUint64Overflow(t *testing.T) {
	// MaxUint64 * 12 in base 12: a trailing zero digit multiplies by 12.
	s := EncodeUint64(math.MaxUint64) + "0"
	_, err := DecodeUint64(s)
	require.ErrorIs(t, err, trionerr.ErrOverflow)
}

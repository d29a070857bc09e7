// Package dodecagram converts between raw big-endian byte magnitudes and
// their base-12 ("dodecagram") textual form, including an optional
// fixed-point scale.
//
// The magnitude is modeled the way math/big/decimal.go models an arbitrary
// precision decimal: a big-endian byte slice that grows at the head when a
// multiply-add's carry escapes the top byte, rather than a fixed-width
// integer type. Encoding is the mirror operation: repeated byte-wise long
// division by 12, collecting remainders least-significant-digit first and
// reversing them at the end.
package dodecagram

import (
	"slices"
	"strings"

	"github.com/trion-lang/trion/trionerr"
)

const alphabet = "0123456789ab"

func digitChar(d int) byte {
	return alphabet[d]
}

// digitValue maps a base-12 digit character (either case for a/b) to its
// value. ok is false for anything else, including '_' and ' ', which are
// not digits - callers skip those explicitly before calling digitValue.
func digitValue(ch byte) (int, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0'), true
	case ch == 'a' || ch == 'A':
		return 10, true
	case ch == 'b' || ch == 'B':
		return 11, true
	default:
		return 0, false
	}
}

// trimLeadingZeros strips leading zero bytes from b, keeping at least one
// byte if the value is zero.
func trimLeadingZeros(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	if i == len(b) {
		if len(b) == 0 {
			return []byte{0}
		}
		return b[len(b)-1:]
	}
	return b[i:]
}

// Encode converts a big-endian byte magnitude to its base-12 text form,
// with no radix point. An empty or all-zero magnitude encodes as "0".
func Encode(magnitude []byte) string {
	work := slices.Clone(trimLeadingZeros(magnitude))
	if len(work) == 1 && work[0] == 0 {
		return "0"
	}

	var digits []byte
	for !isZero(work) {
		carry := 0
		for i := range work {
			acc := carry<<8 | int(work[i])
			work[i] = byte(acc / 12)
			carry = acc % 12
		}
		digits = append(digits, digitChar(carry))
		work = trimLeadingZeros(work)
	}

	slices.Reverse(digits)
	return string(digits)
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// EncodeScaled produces the base-12 form of magnitude with a radix point
// inserted so the fractional part is exactly scale digits long. Scale 0 is
// the plain integer form from Encode. A negative scale is ErrInvalidArgs.
func EncodeScaled(magnitude []byte, scale int) (string, error) {
	if scale < 0 {
		return "", trionerr.Wrap(trionerr.ErrInvalidArgs, "dodecagram: encode scaled: scale %d", scale)
	}
	intForm := Encode(magnitude)
	if scale == 0 {
		return intForm, nil
	}
	if len(intForm) <= scale {
		return "0." + strings.Repeat("0", scale-len(intForm)) + intForm, nil
	}
	split := len(intForm) - scale
	return intForm[:split] + "." + intForm[split:], nil
}

// mulAddDigit computes mag*12 + d in place where possible, growing mag at
// the head when the carry escapes the top byte. mag and the result are both
// big-endian.
func mulAddDigit(mag []byte, d int) []byte {
	carry := d
	for i := len(mag) - 1; i >= 0; i-- {
		acc := int(mag[i])*12 + carry
		mag[i] = byte(acc)
		carry = acc >> 8
	}
	for carry > 0 {
		mag = append([]byte{byte(carry)}, mag...)
		carry >>= 8
	}
	return mag
}

// Decode parses base-12 text into a big-endian magnitude, a fractional
// scale (the count of digits after the radix point), and a sign. '_' and
// space are silently skipped anywhere in the digit stream; case is ignored
// for the a/b digits. An optional leading '+' or '-' is reported separately
// - it is not folded into the returned magnitude.
func Decode(s string) (magnitude []byte, scale int, negative bool, err error) {
	return decode(s, false)
}

// DecodeStrict is Decode, but rejects any '_' or space in the input instead
// of skipping it - used to validate externally-supplied text that must
// already be in canonical form.
func DecodeStrict(s string) (magnitude []byte, scale int, negative bool, err error) {
	return decode(s, true)
}

func decode(s string, strict bool) ([]byte, int, bool, error) {
	i := 0
	negative := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		negative = s[i] == '-'
		i++
	}

	var mag []byte
	scale := 0
	seenPoint := false
	sawDigit := false

	for ; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '_' || ch == ' ':
			if strict {
				return nil, 0, false, trionerr.Wrap(trionerr.ErrInvalidArgs, "dodecagram: decode: unexpected %q in strict mode", ch)
			}
		case ch == '.':
			if seenPoint {
				return nil, 0, false, trionerr.Wrap(trionerr.ErrInvalidArgs, "dodecagram: decode: multiple radix points")
			}
			seenPoint = true
		default:
			d, ok := digitValue(ch)
			if !ok {
				return nil, 0, false, trionerr.Wrap(trionerr.ErrInvalidArgs, "dodecagram: decode: unknown digit %q", ch)
			}
			mag = mulAddDigit(mag, d)
			sawDigit = true
			if seenPoint {
				scale++
			}
		}
	}

	if !sawDigit {
		return nil, 0, false, trionerr.Wrap(trionerr.ErrInvalidArgs, "dodecagram: decode: no digits in %q", s)
	}

	return trimLeadingZeros(mag), scale, negative, nil
}

package dodecagram

import (
	"math"
	"slices"

	"github.com/trion-lang/trion/trionerr"
)

// EncodeUint64 is the fast-path specialization of Encode for a single
// 64-bit magnitude - no big-endian byte buffer is needed.
func EncodeUint64(v uint64) string {
	if v == 0 {
		return "0"
	}
	var digits []byte
	for v > 0 {
		digits = append(digits, digitChar(int(v%12)))
		v /= 12
	}
	slices.Reverse(digits)
	return string(digits)
}

// DecodeUint64 is the fast-path specialization of Decode for values known
// to fit in a uint64. A sign prefix is accepted syntactically but is only
// meaningful under the caller's own convention: the returned value is
// always produced modulo 2^64. Overflow is detected before each
// multiply-add via the standard pre-check val > (MAX-d)/12.
func DecodeUint64(s string) (uint64, error) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	var val uint64
	sawDigit := false
	for ; i < len(s); i++ {
		ch := s[i]
		if ch == '_' || ch == ' ' {
			continue
		}
		d, ok := digitValue(ch)
		if !ok {
			return 0, trionerr.Wrap(trionerr.ErrInvalidArgs, "dodecagram: decode u64: unknown digit %q", ch)
		}
		if val > (math.MaxUint64-uint64(d))/12 {
			return 0, trionerr.Wrap(trionerr.ErrOverflow, "dodecagram: decode u64: %q overflows", s)
		}
		val = val*12 + uint64(d)
		sawDigit = true
	}
	if !sawDigit {
		return 0, trionerr.Wrap(trionerr.ErrInvalidArgs, "dodecagram: decode u64: no digits in %q", s)
	}
	return val, nil
}

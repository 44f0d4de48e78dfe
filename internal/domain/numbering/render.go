package numbering

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"policyhub/internal/core/apperror"
)

// Render formats value into mask.
//
// The value is zero-padded to the width of the mask's placeholder run. When
// xorMask is set, each padded digit byte is XORed with the cyclically repeated
// xorMask and the result is hex-encoded (upper case), so the digit field
// becomes twice as wide. Literal mask characters pass through unchanged.
func Render(value int64, mask, xorMask string) (string, error) {
	layout, err := ParseMask(mask)
	if err != nil {
		return "", apperror.NewFormat("mask cannot be rendered").
			WithDetail("mask", mask).
			WithCause(err)
	}
	return layout.Render(value, xorMask)
}

// Render formats value into the parsed layout.
func (l Layout) Render(value int64, xorMask string) (string, error) {
	if value < 0 {
		return "", apperror.NewFormat("value must not be negative").WithDetail("value", value)
	}

	digits := fmt.Sprintf("%0*d", l.Width, value)
	if len(digits) > l.Width {
		return "", apperror.NewFormat("value does not fit the mask digit field").
			WithDetail("value", value).
			WithDetail("width", l.Width)
	}

	if xorMask != "" {
		digits = strings.ToUpper(hex.EncodeToString(xorBytes([]byte(digits), xorMask)))
	}

	return l.Prefix + digits + l.Suffix, nil
}

// Decode reverses Render and returns the counter value printed in number.
func Decode(number, mask, xorMask string) (int64, error) {
	layout, err := ParseMask(mask)
	if err != nil {
		return 0, apperror.NewFormat("mask cannot be decoded").
			WithDetail("mask", mask).
			WithCause(err)
	}
	return layout.Decode(number, xorMask)
}

// Decode reverses Layout.Render.
func (l Layout) Decode(number, xorMask string) (int64, error) {
	mismatch := func() error {
		return apperror.NewFormat("number does not match the generator mask").
			WithDetail("number", number)
	}

	if !strings.HasPrefix(number, l.Prefix) || !strings.HasSuffix(number, l.Suffix) {
		return 0, mismatch()
	}
	field := number[len(l.Prefix):]
	if len(field) < len(l.Suffix) {
		return 0, mismatch()
	}
	field = field[:len(field)-len(l.Suffix)]

	if xorMask != "" {
		if len(field) != 2*l.Width {
			return 0, mismatch()
		}
		raw, err := hex.DecodeString(field)
		if err != nil {
			return 0, mismatch()
		}
		field = string(xorBytes(raw, xorMask))
	}

	if len(field) != l.Width || !allDigits(field) {
		return 0, mismatch()
	}
	value, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return 0, mismatch()
	}
	return value, nil
}

// xorBytes XORs b with key repeated to len(b). It is its own inverse.
func xorBytes(b []byte, key string) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[i] = b[i] ^ key[i%len(key)]
	}
	return out
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

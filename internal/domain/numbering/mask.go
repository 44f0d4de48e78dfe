package numbering

import (
	"errors"
	"strings"
)

// Placeholder marks one digit position in a mask.
const Placeholder = '#'

// maxWidth is the widest digit field an int64 counter can fill.
const maxWidth = 18

var (
	ErrNoPlaceholder        = errors.New("mask has no digit placeholder run")
	ErrMultiplePlaceholders = errors.New("mask has more than one digit placeholder run")
	ErrFieldTooWide         = errors.New("mask digit field is wider than 18 positions")
)

// Layout is a parsed mask: literal prefix, digit field width, literal suffix.
type Layout struct {
	Prefix string
	Width  int
	Suffix string
}

// ParseMask splits a mask such as "POL-########/A" around its placeholder run.
func ParseMask(mask string) (Layout, error) {
	start := strings.IndexRune(mask, Placeholder)
	if start < 0 {
		return Layout{}, ErrNoPlaceholder
	}

	end := start
	for end < len(mask) && mask[end] == Placeholder {
		end++
	}
	if strings.ContainsRune(mask[end:], Placeholder) {
		return Layout{}, ErrMultiplePlaceholders
	}

	width := end - start
	if width > maxWidth {
		return Layout{}, ErrFieldTooWide
	}

	return Layout{
		Prefix: mask[:start],
		Width:  width,
		Suffix: mask[end:],
	}, nil
}

// Capacity is the largest value the digit field can print.
func (l Layout) Capacity() int64 {
	c := int64(1)
	for i := 0; i < l.Width; i++ {
		c *= 10
	}
	return c - 1
}

// Fits reports whether maxValue prints within the digit field.
func (l Layout) Fits(maxValue int64) bool {
	return maxValue <= l.Capacity()
}

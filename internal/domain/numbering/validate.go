package numbering

import (
	"errors"
	"fmt"
	"strings"

	"policyhub/internal/core/apperror"
)

// Field error codes reported by validation.
const (
	CodeRequired             = "required"
	CodeDuplicate            = "duplicate"
	CodeNoPlaceholder        = "no_placeholder"
	CodeMultiplePlaceholders = "multiple_placeholders"
	CodeFieldTooWide         = "field_too_wide"
	CodeNotPositive          = "not_positive"
	CodeExceedsMask          = "exceeds_mask"
	CodeInvalid              = "invalid"
)

// ValidateConfig checks the rules that need no storage lookup.
// The result depends only on g, so repeated calls return equal lists.
func ValidateConfig(g *Generator) apperror.FieldErrors {
	var errs apperror.FieldErrors

	if strings.TrimSpace(g.ProductCode) == "" {
		errs.Add("productCode", CodeRequired, "productCode is required")
	}

	layout, maskErr := ParseMask(g.Mask)
	switch {
	case errors.Is(maskErr, ErrNoPlaceholder):
		errs.Add("mask", CodeNoPlaceholder, fmt.Sprintf("mask must contain a run of '%c' digit placeholders", Placeholder))
	case errors.Is(maskErr, ErrMultiplePlaceholders):
		errs.Add("mask", CodeMultiplePlaceholders, fmt.Sprintf("mask must contain exactly one run of '%c'", Placeholder))
	case errors.Is(maskErr, ErrFieldTooWide):
		errs.Add("mask", CodeFieldTooWide, fmt.Sprintf("mask digit field must not exceed %d positions", maxWidth))
	}

	if !g.ResetPolicy.Valid() {
		errs.Add("resetPolicy", CodeInvalid, "resetPolicy must be one of YEARLY, MONTHLY, NEVER")
	}

	switch {
	case g.MaxValue <= 0:
		errs.Add("maxValue", CodeNotPositive, "maxValue must be greater than zero")
	case maskErr == nil && !layout.Fits(g.MaxValue):
		errs.Add("maxValue", CodeExceedsMask,
			fmt.Sprintf("maxValue %d does not fit a %d-digit field (max %d)", g.MaxValue, layout.Width, layout.Capacity()))
	}

	return errs
}

// Package normalize canonicalizes document text for matching and derives
// display strings from structured fields.
package normalize

import (
	"strings"

	"golang.org/x/text/width"

	"github.com/lehigh-university-libraries/docbrowser/internal/models"
)

// RangeSeparator joins the two bounds of a displayed date range.
const RangeSeparator = "〜"

// Text lower-cases s after folding full-width and half-width forms, so that
// "ＡＢＣ", "abc" and "ABC" compare equal. The empty string stands in for an
// absent value.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToLower(width.Fold.String(s))
}

// DateRange formats d for display. It returns false when d is absent or has
// neither bound.
func DateRange(d *models.DateRange) (string, bool) {
	if d == nil {
		return "", false
	}
	start, end := d.Start, d.End
	switch {
	case start == "" && end == "":
		return "", false
	case end == "" || end == start:
		return start, true
	case start == "":
		return end, true
	default:
		return start + RangeSeparator + end, true
	}
}

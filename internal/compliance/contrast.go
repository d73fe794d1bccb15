// Package compliance computes WCAG contrast ratios and keeps registered
// foreground/background token pairs above their minimum ratio.
package compliance

import (
	"fmt"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Luminance returns the WCAG relative luminance of a hex color.
func Luminance(hex string) (float64, error) {
	color, err := colorful.Hex(strings.ToLower(strings.TrimSpace(hex)))
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", hex, err)
	}
	r, g, b := color.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b, nil
}

// Ratio returns the contrast ratio between two hex colors, in [1, 21].
func Ratio(fgHex, bgHex string) (float64, error) {
	fg, err := Luminance(fgHex)
	if err != nil {
		return 0, err
	}
	bg, err := Luminance(bgHex)
	if err != nil {
		return 0, err
	}
	lighter := math.Max(fg, bg)
	darker := math.Min(fg, bg)
	return (lighter + 0.05) / (darker + 0.05), nil
}

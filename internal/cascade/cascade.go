// Package cascade regenerates color-scale shades from a single edited step
// using hue-preserving HSV interpolation.
package cascade

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/opencode-ai/tint/internal/models"
)

// Cascade errors.
var (
	ErrInvalidColorFormat = errors.New("invalid hex color")
	ErrInvalidStep        = errors.New("not a canonical scale step")
)

// Config holds the interpolation endpoints of the cascade. The defaults
// reproduce the stock scale shape; brands may tune them per engine.
type Config struct {
	// LightSaturation is the saturation at step 000 (near-white endpoint).
	LightSaturation float64

	// LightValue is the brightness at step 000.
	LightValue float64

	// DarkSaturationBoost multiplies the edited saturation to form the
	// step 1000 endpoint, capped at 1.
	DarkSaturationBoost float64

	// DarkValueScale multiplies the edited brightness to form the step
	// 1000 endpoint.
	DarkValueScale float64

	// DarkValueFloor is the minimum brightness at step 1000.
	DarkValueFloor float64
}

// DefaultConfig returns the stock cascade endpoints.
func DefaultConfig() Config {
	return Config{
		LightSaturation:     0.02,
		LightValue:          0.98,
		DarkSaturationBoost: 1.2,
		DarkValueScale:      0.08,
		DarkValueFloor:      0.03,
	}
}

// Engine computes cascades over the canonical 12-step index space.
type Engine struct {
	cfg Config
}

// New creates an engine. Zero-valued config fields fall back to defaults.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.LightSaturation <= 0 {
		cfg.LightSaturation = def.LightSaturation
	}
	if cfg.LightValue <= 0 {
		cfg.LightValue = def.LightValue
	}
	if cfg.DarkSaturationBoost <= 0 {
		cfg.DarkSaturationBoost = def.DarkSaturationBoost
	}
	if cfg.DarkValueScale <= 0 {
		cfg.DarkValueScale = def.DarkValueScale
	}
	if cfg.DarkValueFloor <= 0 {
		cfg.DarkValueFloor = def.DarkValueFloor
	}
	return &Engine{cfg: cfg}
}

// Apply writes hex at the edited step and regenerates the requested
// neighboring steps. Steps outside the requested direction(s) come back
// untouched. The input scale is not mutated; the regenerated scale is
// returned. Apply is idempotent: the derived shades depend only on the
// edited step and hex, never on previous shades.
func (e *Engine) Apply(scale models.ColorScale, step, hex string, cascadeDown, cascadeUp bool) (models.ColorScale, error) {
	idx, ok := models.StepIndex(step)
	if !ok {
		return models.ColorScale{}, fmt.Errorf("%w: %q", ErrInvalidStep, step)
	}

	color, normalized, err := parseHex(hex)
	if err != nil {
		return models.ColorScale{}, err
	}
	h, s, v := color.Hsv()
	h = normalizeHue(h)

	out := scale
	out.Hex[idx] = normalized

	last := models.NumScaleSteps - 1
	if cascadeDown && idx > 0 {
		// t runs from 0 at the near-white endpoint to 1 at the edit.
		for i := idx - 1; i >= 0; i-- {
			t := float64(i) / float64(idx)
			si := lerp(e.cfg.LightSaturation, s, t)
			vi := lerp(e.cfg.LightValue, v, t)
			out.Hex[i] = hsvHex(h, si, vi)
		}
	}
	if cascadeUp && idx < last {
		endS := math.Min(1, s*e.cfg.DarkSaturationBoost)
		endV := math.Max(e.cfg.DarkValueFloor, v*e.cfg.DarkValueScale)
		for i := idx + 1; i <= last; i++ {
			t := float64(i-idx) / float64(last-idx)
			si := lerp(s, endS, t)
			vi := lerp(v, endV, t)
			out.Hex[i] = hsvHex(h, si, vi)
		}
	}

	return out, nil
}

// Synthesize builds a brand-new 12-step scale from one seed color, seeded
// at step 500 with both cascade directions enabled. The alias is derived
// from the seed's hue bucket; callers may rename it.
func (e *Engine) Synthesize(seedHex string) (models.ColorScale, error) {
	scale, err := e.Apply(models.ColorScale{}, "500", seedHex, true, true)
	if err != nil {
		return models.ColorScale{}, err
	}
	scale.Alias = FamilyName(seedHex)
	return scale, nil
}

var hueBuckets = [12]string{
	"red", "orange", "yellow", "lime", "green", "teal",
	"cyan", "azure", "blue", "violet", "magenta", "pink",
}

// FamilyName derives a human-readable family name from a seed color's hue
// bucket. Desaturated seeds name as gray. Invalid input names as "custom";
// callers validate the hex before relying on the name.
func FamilyName(hex string) string {
	color, _, err := parseHex(hex)
	if err != nil {
		return "custom"
	}
	h, s, _ := color.Hsv()
	if s < 0.10 {
		return "gray"
	}
	// 30-degree buckets centered on the named hues.
	bucket := int(math.Floor(math.Mod(normalizeHue(h)+15, 360)/30)) % len(hueBuckets)
	return hueBuckets[bucket]
}

var strictHexPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// parseHex validates and parses a hex color, returning the parsed color
// and its normalized lowercase "#rrggbb" form.
func parseHex(hex string) (colorful.Color, string, error) {
	if !strictHexPattern.MatchString(hex) {
		return colorful.Color{}, "", fmt.Errorf("%w: %q", ErrInvalidColorFormat, hex)
	}
	color, err := colorful.Hex(strings.ToLower(hex))
	if err != nil {
		return colorful.Color{}, "", fmt.Errorf("%w: %q", ErrInvalidColorFormat, hex)
	}
	return color, color.Hex(), nil
}

func hsvHex(h, s, v float64) string {
	return colorful.Hsv(h, clamp01(s), clamp01(v)).Clamped().Hex()
}

func lerp(from, to, t float64) float64 {
	return from + (to-from)*t
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

func normalizeHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

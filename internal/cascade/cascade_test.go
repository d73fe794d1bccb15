package cascade

import (
	"errors"
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/opencode-ai/tint/internal/models"
)

func hsvOf(t *testing.T, hex string) (h, s, v float64) {
	t.Helper()
	color, err := colorful.Hex(hex)
	if err != nil {
		t.Fatalf("bad hex %q: %v", hex, err)
	}
	return color.Hsv()
}

func TestApplyMonotonicity(t *testing.T) {
	e := New(Config{})
	scale, err := e.Apply(models.ColorScale{}, "500", "#4169E1", true, true)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// 8-bit quantization wobble allowance.
	const eps = 0.01

	// Saturation rises from near-white toward the edited step.
	for i := 1; i <= 6; i++ {
		_, prev, _ := hsvOf(t, scale.Hex[i-1])
		_, cur, _ := hsvOf(t, scale.Hex[i])
		if prev > cur+eps {
			t.Fatalf("saturation not monotonic at step %s: %.3f > %.3f",
				models.StepAt(i), prev, cur)
		}
	}

	// Brightness falls from the edited step toward near-black.
	for i := 7; i < models.NumScaleSteps; i++ {
		_, _, prev := hsvOf(t, scale.Hex[i-1])
		_, _, cur := hsvOf(t, scale.Hex[i])
		if cur > prev+eps {
			t.Fatalf("value not monotonic at step %s: %.3f > %.3f",
				models.StepAt(i), cur, prev)
		}
	}
}

func TestApplyPreservesHue(t *testing.T) {
	e := New(Config{})
	scale, err := e.Apply(models.ColorScale{}, "500", "#4169e1", true, true)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	seedHue, _, _ := hsvOf(t, "#4169e1")
	for i, hex := range scale.Hex {
		h, s, _ := hsvOf(t, hex)
		if s < 0.05 {
			// Hue is numerically meaningless near the gray axis.
			continue
		}
		if diff := h - seedHue; diff > 2.5 || diff < -2.5 {
			t.Fatalf("hue drifted at step %s: %.1f vs %.1f", models.StepAt(i), h, seedHue)
		}
	}
}

func TestApplyIdempotent(t *testing.T) {
	e := New(Config{})
	first, err := e.Apply(models.ColorScale{Alias: "blue"}, "500", "#FF0000", true, false)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	second, err := e.Apply(first, "500", "#FF0000", true, false)
	if err != nil {
		t.Fatalf("second Apply failed: %v", err)
	}
	if first != second {
		t.Fatalf("cascade not idempotent:\n%v\n%v", first, second)
	}
}

func TestApplySelectiveDirection(t *testing.T) {
	e := New(Config{})
	base, err := e.Synthesize("#4169e1")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	edited, err := e.Apply(base, "500", "#aa3366", true, false)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// Steps above the edit are byte-identical.
	for i := 7; i < models.NumScaleSteps; i++ {
		if edited.Hex[i] != base.Hex[i] {
			t.Fatalf("step %s changed without cascadeUp: %q -> %q",
				models.StepAt(i), base.Hex[i], edited.Hex[i])
		}
	}
	// The edit and everything below it changed.
	if edited.Hex[6] != "#aa3366" {
		t.Fatalf("edited step = %q", edited.Hex[6])
	}
	for i := 0; i < 6; i++ {
		if edited.Hex[i] == base.Hex[i] {
			t.Fatalf("step %s untouched despite cascadeDown", models.StepAt(i))
		}
	}
}

func TestSynthesizeGraySeed(t *testing.T) {
	e := New(Config{})
	scale, err := e.Synthesize("#808080")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if scale.Alias != "gray" {
		t.Fatalf("alias = %q, want gray", scale.Alias)
	}
	if scale.Hex[6] != "#808080" {
		t.Fatalf("seed step altered: %q", scale.Hex[6])
	}

	_, s0, v0 := hsvOf(t, scale.Hex[0])
	if v0 < 0.95 || s0 > 0.05 {
		t.Fatalf("step 000 not near-white: s=%.3f v=%.3f (%s)", s0, v0, scale.Hex[0])
	}
	_, s11, v11 := hsvOf(t, scale.Hex[11])
	if v11 > 0.08 || s11 > 0.02 {
		t.Fatalf("step 1000 not near-black: s=%.3f v=%.3f (%s)", s11, v11, scale.Hex[11])
	}
}

func TestApplyInvalidInputs(t *testing.T) {
	e := New(Config{})

	if _, err := e.Apply(models.ColorScale{}, "500", "not-a-color", true, true); !errors.Is(err, ErrInvalidColorFormat) {
		t.Fatalf("bad hex = %v, want ErrInvalidColorFormat", err)
	}
	if _, err := e.Apply(models.ColorScale{}, "550", "#ffffff", true, true); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("bad step = %v, want ErrInvalidStep", err)
	}

	// Rejected edits leave the input untouched by construction: Apply
	// returns a zero scale alongside the error.
	out, err := e.Apply(models.ColorScale{}, "500", "#12345", true, true)
	if err == nil || out != (models.ColorScale{}) {
		t.Fatalf("partial mutation on invalid hex: %v %v", out, err)
	}
}

func TestShortHexAccepted(t *testing.T) {
	e := New(Config{})
	scale, err := e.Apply(models.ColorScale{}, "500", "#F00", false, false)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if scale.Hex[6] != "#ff0000" {
		t.Fatalf("short hex normalization: %q", scale.Hex[6])
	}
}

func TestFamilyName(t *testing.T) {
	cases := []struct {
		hex  string
		want string
	}{
		{"#ff0000", "red"},
		{"#ffa500", "orange"},
		{"#ffff00", "yellow"},
		{"#00ff00", "green"},
		{"#0000ff", "blue"},
		{"#ff00ff", "magenta"},
		{"#808080", "gray"},
		{"#f5f5f5", "gray"},
	}
	for _, tc := range cases {
		if got := FamilyName(tc.hex); got != tc.want {
			t.Errorf("FamilyName(%s) = %q, want %q", tc.hex, got, tc.want)
		}
	}
}

package models

// NumScaleSteps is the number of lightness positions in a color scale.
const NumScaleSteps = 12

// ScaleSteps lists the canonical lightness steps of a color scale, ordered
// from near-white (000) to near-black (1000).
var ScaleSteps = [NumScaleSteps]string{
	"000", "050", "100", "200", "300", "400",
	"500", "600", "700", "800", "900", "1000",
}

// StepIndex maps a canonical step name to its position in the scale.
// The second return value is false for unknown steps.
func StepIndex(step string) (int, bool) {
	for i, s := range ScaleSteps {
		if s == step {
			return i, true
		}
	}
	return 0, false
}

// StepAt returns the canonical step name at index i.
// It panics if i is out of range; callers index via StepIndex results.
func StepAt(i int) string {
	return ScaleSteps[i]
}

// ColorScale is a family of twelve color shades at fixed lightness steps.
// All twelve steps share one hue at any point in time; they are created
// and deleted together, never partially.
type ColorScale struct {
	// Alias is the family identifier, e.g. "cornflower".
	Alias string `json:"alias"`

	// Hex holds the shade at each canonical step, indexed per ScaleSteps.
	// Values are lowercase "#rrggbb".
	Hex [NumScaleSteps]string `json:"hex"`
}

// ScaleStepPath returns the token path for one step of a color family.
func ScaleStepPath(family, step string) Path {
	return Path{"colors", family, step}
}

// ScaleMember reports whether path addresses a step of a color scale,
// returning the family and step when it does.
func ScaleMember(path Path) (family, step string, ok bool) {
	if len(path) != 3 || path[0] != "colors" {
		return "", "", false
	}
	if _, known := StepIndex(path[2]); !known {
		return "", "", false
	}
	return path[1], path[2], true
}

// Validate checks that the scale has an alias and all twelve shades.
func (s *ColorScale) Validate() error {
	validation := &ValidationErrors{}
	if s.Alias == "" {
		validation.AddMessage("alias", "scale alias is required")
	}
	for i, hex := range s.Hex {
		if hex == "" {
			validation.AddMessage("hex", "missing shade at step "+ScaleSteps[i])
		}
	}
	return validation.Err()
}

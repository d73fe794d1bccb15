package models

// ComplianceStatus is the outcome of evaluating one compliance pair.
type ComplianceStatus string

const (
	// CompliancePass means the pair meets its minimum contrast ratio.
	CompliancePass ComplianceStatus = "pass"

	// ComplianceViolation means the pair fell under the minimum and no
	// fix has been applied yet.
	ComplianceViolation ComplianceStatus = "violation"

	// ComplianceUnsatisfiable means no shade in the foreground's scale
	// reaches the minimum; the best-effort value is left in place.
	ComplianceUnsatisfiable ComplianceStatus = "unsatisfiable"
)

// PairState tracks where a registered pair sits in the watcher's cycle.
type PairState string

const (
	PairIdle     PairState = "idle"
	PairScanning PairState = "scanning"
	PairFixing   PairState = "fixing"
)

// CompliancePair declares a minimum contrast ratio between a foreground
// and background token. The watcher reads the pair; only its derived
// last-known-compliant cache is mutable.
type CompliancePair struct {
	// ID is the unique identifier for the pair.
	ID string `json:"id"`

	// Foreground is the path of the foreground color token.
	Foreground Path `json:"foreground"`

	// Background is the path of the background color token.
	Background Path `json:"background"`

	// MinimumRatio is the contrast ratio the pair must satisfy,
	// e.g. 4.5 for WCAG AA body text.
	MinimumRatio float64 `json:"minimum_ratio"`
}

// Validate checks if the pair is well formed.
func (p *CompliancePair) Validate() error {
	validation := &ValidationErrors{}
	if len(p.Foreground) == 0 {
		validation.AddMessage("foreground", "foreground path is required")
	}
	if len(p.Background) == 0 {
		validation.AddMessage("background", "background path is required")
	}
	if p.MinimumRatio < 1 || p.MinimumRatio > 21 {
		validation.AddMessage("minimum_ratio", "minimum ratio must be in [1, 21]")
	}
	return validation.Err()
}

// AppliedFix records a corrective write made to restore compliance.
type AppliedFix struct {
	// Path is the token the watcher rewrote.
	Path Path `json:"path"`

	// NewValue is the hex value written at Path.
	NewValue string `json:"new_value"`
}

// ComplianceResult is the outcome of scanning one pair.
type ComplianceResult struct {
	// Pair is the pair that was evaluated.
	Pair CompliancePair `json:"pair"`

	// Ratio is the contrast ratio after any applied fix.
	Ratio float64 `json:"ratio"`

	// Status is the evaluation outcome.
	Status ComplianceStatus `json:"status"`

	// AppliedFix describes the corrective write, when one was made.
	AppliedFix *AppliedFix `json:"applied_fix,omitempty"`
}

package pipeline

import (
	"strings"

	"go_imagegen/core"
)

// Quality is a user-facing quality tier. The zero value is QualityMedium so
// that missing or unrecognized labels resolve to the medium profile.
type Quality int

const (
	// QualityMedium is the default tier (30 steps by default).
	QualityMedium Quality = iota
	// QualityHigh is the slowest, highest-fidelity tier (50 steps by default).
	QualityHigh
	// QualityLow is the fastest tier (20 steps by default).
	QualityLow
)

// ParseQuality maps a user-supplied label to a Quality tier.
// Unrecognized or empty labels map to QualityMedium; this is never an error.
func ParseQuality(label string) Quality {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "high":
		return QualityHigh
	case "low":
		return QualityLow
	default:
		return QualityMedium
	}
}

// String returns the canonical label for the tier.
func (q Quality) String() string {
	switch q {
	case QualityHigh:
		return "high"
	case QualityLow:
		return "low"
	default:
		return "medium"
	}
}

// QualityProfile holds the generation parameters a tier resolves to.
type QualityProfile struct {
	Steps         int
	GuidanceScale float64
}

// QualityPolicy translates quality tiers into generation parameters.
// The table is fixed at construction from process-wide configuration;
// Resolve is a pure function over it.
type QualityPolicy struct {
	high   QualityProfile
	medium QualityProfile
	low    QualityProfile
}

// NewQualityPolicy builds the tier table from configuration.
func NewQualityPolicy(cfg *core.Config) QualityPolicy {
	return QualityPolicy{
		high:   QualityProfile{Steps: cfg.HighQualitySteps, GuidanceScale: cfg.DefaultGuidanceScale},
		medium: QualityProfile{Steps: cfg.MediumQualitySteps, GuidanceScale: cfg.DefaultGuidanceScale},
		low:    QualityProfile{Steps: cfg.LowQualitySteps, GuidanceScale: cfg.DefaultGuidanceScale},
	}
}

// Resolve returns the profile for a tier. Tiers outside the known set
// resolve to the medium profile.
func (p QualityPolicy) Resolve(q Quality) QualityProfile {
	switch q {
	case QualityHigh:
		return p.high
	case QualityLow:
		return p.low
	default:
		return p.medium
	}
}

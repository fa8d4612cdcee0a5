package clustering

import (
	"fmt"
	"strings"
)

// MissingTimestampPolicy decides how an asset without a capture time fares
// against the time gate.
type MissingTimestampPolicy string

const (
	// PolicyPermissive lets an absent timestamp satisfy the time gate
	PolicyPermissive MissingTimestampPolicy = "permissive"
	// PolicyStrict makes an absent timestamp fail the time gate whenever the gate is enabled
	PolicyStrict MissingTimestampPolicy = "strict"
)

// ParsePolicy converts a configuration value into a policy
func ParsePolicy(raw string) (MissingTimestampPolicy, error) {
	switch MissingTimestampPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicyPermissive:
		return PolicyPermissive, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown missing timestamp policy %q (want permissive or strict)", raw)
	}
}

// Mode selects which assets a recluster considers
type Mode string

const (
	// ModeNew clusters every asset still awaiting a decision
	ModeNew Mode = "new"
	// ModeGlobal also matches against previously resolved keepers
	ModeGlobal Mode = "global"
)

const secondsPerDay = 86400

// Params configures one clustering pass
type Params struct {
	Threshold  int // max Hamming distance, inclusive
	RadiusDays int // time gate in days; 0 disables the gate
	Policy     MissingTimestampPolicy
	Scorer     Scorer
}

// DefaultParams mirrors the shipped configuration defaults
func DefaultParams() Params {
	return Params{
		Threshold:  16,
		RadiusDays: 10,
		Policy:     PolicyPermissive,
		Scorer:     DefaultScorer(),
	}
}

// Validate rejects parameter combinations the engine cannot honor
func (p Params) Validate() error {
	if p.Threshold < 0 {
		return fmt.Errorf("similarity threshold must be >= 0, got %d", p.Threshold)
	}
	if p.RadiusDays < 0 {
		return fmt.Errorf("time radius must be >= 0 days, got %d", p.RadiusDays)
	}
	if _, err := ParsePolicy(string(p.Policy)); err != nil {
		return err
	}
	return nil
}

func (p Params) gateEnabled() bool {
	return p.RadiusDays > 0
}

func (p Params) radiusSeconds() int64 {
	return int64(p.RadiusDays) * secondsPerDay
}

func (p Params) scorer() Scorer {
	if p.Scorer == nil {
		return DefaultScorer()
	}
	return p.Scorer
}

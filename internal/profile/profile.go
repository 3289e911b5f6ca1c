// Package profile loads, validates, and resolves redaction profiles
// (spec.md §3, §4.2, component B): named, versioned policies mapping
// PIIKind to enable flags, confidence thresholds, and rendering styles,
// with deterministic deep-merge inheritance.
package profile

import (
	"fmt"

	"github.com/forensicpipe/deidentify/internal/piikind"
)

// RuleSpec is the per-kind policy: whether detections of this kind are
// redacted at all, the confidence floor for doing so, and how.
type RuleSpec struct {
	Enabled       bool      `yaml:"enabled" json:"enabled"`
	MinConfidence float64   `yaml:"min_confidence" json:"min_confidence"`
	Style         StyleSpec `yaml:"style" json:"style"`
}

// Profile is the on-disk shape of a redaction profile document
// (spec.md §6): the raw, possibly-inheriting record as loaded from YAML/JSON,
// before inheritance resolution.
type Profile struct {
	Name             string                         `yaml:"name" json:"name"`
	Version          string                         `yaml:"version" json:"version"`
	Base             string                         `yaml:"base,omitempty" json:"base,omitempty"`
	PIIRules         map[piikind.Kind]RuleSpec      `yaml:"pii_rules" json:"pii_rules"`
	DefaultStyle     StyleSpec                      `yaml:"default_style" json:"default_style"`
	ConfidenceFloor  float64                        `yaml:"confidence_floor" json:"confidence_floor"`
	Languages        []string                       `yaml:"languages,omitempty" json:"languages,omitempty"`
}

// EffectiveProfile is the deterministic, immutable result of resolving a
// Profile's inheritance chain (spec.md §4.2). It is the only form the rest
// of the pipeline (Fusion, Redaction, Audit) ever sees.
type EffectiveProfile struct {
	Name             string
	Version          string
	Rules            map[piikind.Kind]RuleSpec
	DefaultStyle     StyleSpec
	ConfidenceFloor  float64
	Languages        []string
	PrecedenceNotes  []string
}

// EffectiveRule returns the resolved rule for kind, deterministic and pure
// (spec.md §4.2 query contract). Kinds absent from every ancestor are
// disabled, with min_confidence 1 and the profile's DefaultStyle.
func (e EffectiveProfile) EffectiveRule(kind piikind.Kind) RuleSpec {
	if r, ok := e.Rules[kind]; ok {
		return r
	}
	return RuleSpec{Enabled: false, MinConfidence: 1.0, Style: e.DefaultStyle}
}

// validateRaw checks structural validity rules 1-3 from spec.md §4.2 against
// a single (not-yet-merged) Profile document.
func validateRaw(p Profile) error {
	for kind, rule := range p.PIIRules {
		if !piikind.Known(kind) {
			return fmt.Errorf("profile %q: unknown pii kind %q", p.Name, kind)
		}
		if rule.MinConfidence < 0 || rule.MinConfidence > 1 {
			return fmt.Errorf("profile %q: rule %q min_confidence %v out of [0,1]", p.Name, kind, rule.MinConfidence)
		}
		if rule.Style.Kind != "" {
			if err := rule.Style.Validate(); err != nil {
				return fmt.Errorf("profile %q: rule %q style: %w", p.Name, kind, err)
			}
		}
	}
	if p.ConfidenceFloor < 0 || p.ConfidenceFloor > 1 {
		return fmt.Errorf("profile %q: confidence_floor %v out of [0,1]", p.Name, p.ConfidenceFloor)
	}
	if p.DefaultStyle.Kind != "" {
		if err := p.DefaultStyle.Validate(); err != nil {
			return fmt.Errorf("profile %q: default_style: %w", p.Name, err)
		}
	}
	return nil
}

package profile

import (
	"fmt"
	"sort"

	"github.com/forensicpipe/deidentify/internal/piikind"
)

// Store is a flat, name-keyed map of loaded (unresolved) profiles, the
// storage shape spec.md §9 calls for to make cyclic references detectable
// without walking live object references.
type Store map[string]Profile

// Resolve walks name's inheritance chain (base -> ... -> name), deep-merging
// child over base with child keys winning, and returns the deterministic,
// immutable EffectiveProfile (spec.md §4.2 rules 4-5).
func (s Store) Resolve(name string) (EffectiveProfile, error) {
	chain, err := s.chain(name)
	if err != nil {
		return EffectiveProfile{}, err
	}

	out := EffectiveProfile{
		Rules: make(map[piikind.Kind]RuleSpec),
	}
	owner := make(map[piikind.Kind]string) // kind -> profile name that last set it

	// chain is ordered root ancestor first, name last; applying in this
	// order means a closer ancestor naturally overrides a farther one,
	// satisfying the nearest-ancestor conflict rule.
	for _, p := range chain {
		if err := validateRaw(p); err != nil {
			return EffectiveProfile{}, err
		}
		out.Name = p.Name
		out.Version = p.Version
		if p.DefaultStyle.Kind != "" {
			out.DefaultStyle = p.DefaultStyle
		}
		if p.ConfidenceFloor > 0 {
			out.ConfidenceFloor = p.ConfidenceFloor
		}
		if len(p.Languages) > 0 {
			out.Languages = p.Languages
		}
		kinds := make([]piikind.Kind, 0, len(p.PIIRules))
		for k := range p.PIIRules {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
		for _, kind := range kinds {
			rule := p.PIIRules[kind]
			if prev, ok := owner[kind]; ok && prev != p.Name {
				out.PrecedenceNotes = append(out.PrecedenceNotes,
					fmt.Sprintf("%s: rule from %q overridden by %q", kind, prev, p.Name))
			}
			out.Rules[kind] = rule
			owner[kind] = p.Name
		}
	}

	// Rule 2 (clamp): confidence_floor <= min(rule.min_confidence); rules
	// below the floor are clamped upward.
	for kind, rule := range out.Rules {
		if rule.MinConfidence < out.ConfidenceFloor {
			rule.MinConfidence = out.ConfidenceFloor
			out.Rules[kind] = rule
			out.PrecedenceNotes = append(out.PrecedenceNotes,
				fmt.Sprintf("%s: min_confidence clamped up to confidence_floor %.3f", kind, out.ConfidenceFloor))
		}
		if rule.Style.Kind == "" {
			rule.Style = out.DefaultStyle
			out.Rules[kind] = rule
		}
	}

	sort.Strings(out.PrecedenceNotes)
	return out, nil
}

// chain resolves name's ancestry, root-first, detecting cycles (spec.md
// §4.2 rule 4: "cycle in inheritance is fatal").
func (s Store) chain(name string) ([]Profile, error) {
	visited := make(map[string]bool)
	var walk func(n string) ([]Profile, error)
	walk = func(n string) ([]Profile, error) {
		if visited[n] {
			return nil, fmt.Errorf("profile inheritance cycle detected at %q", n)
		}
		visited[n] = true
		p, ok := s[n]
		if !ok {
			return nil, fmt.Errorf("unknown base profile %q", n)
		}
		var ancestors []Profile
		if p.Base != "" {
			var err error
			ancestors, err = walk(p.Base)
			if err != nil {
				return nil, err
			}
		}
		return append(ancestors, p), nil
	}
	return walk(name)
}

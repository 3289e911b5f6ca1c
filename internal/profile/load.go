package profile

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// recognizedTopLevelKeys mirrors the table in spec.md §6: unknown top-level
// options are rejected at load time with a precise diagnostic (spec.md §9
// "Dynamic configuration... replace with an explicit configuration record
// whose recognized options are enumerated").
var recognizedTopLevelKeys = map[string]bool{
	"name": true, "version": true, "base": true, "pii_rules": true,
	"default_style": true, "confidence_floor": true, "languages": true,
}

// Load parses a single profile document (YAML, or JSON as a YAML subset)
// and rejects unrecognized top-level options before unmarshalling into the
// typed Profile struct.
func Load(data []byte) (Profile, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Profile{}, fmt.Errorf("parse profile document: %w", err)
	}
	for key := range raw {
		if !recognizedTopLevelKeys[key] {
			return Profile{}, fmt.Errorf("unrecognized profile option %q", key)
		}
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("decode profile document: %w", err)
	}
	if p.Name == "" {
		return Profile{}, fmt.Errorf("profile document missing required field \"name\"")
	}
	return p, nil
}

// LoadStore parses a set of profile documents into a Store keyed by name,
// the flat-map storage spec.md §9 requires for cycle detection.
func LoadStore(docs [][]byte) (Store, error) {
	store := make(Store, len(docs))
	for _, d := range docs {
		p, err := Load(d)
		if err != nil {
			return nil, err
		}
		if _, dup := store[p.Name]; dup {
			return nil, fmt.Errorf("duplicate profile name %q", p.Name)
		}
		store[p.Name] = p
	}
	return store, nil
}

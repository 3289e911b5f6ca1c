package profile

import "fmt"

// StyleSpec is a tagged variant over the four redaction rendering styles
// (spec.md §3): one struct whose Kind discriminator selects which of its
// fields are read. Only Solid reads Color; Pattern reads a deterministic
// overlay id. A Color set on a non-Solid style is ignored, not rejected.
type StyleSpec struct {
	Kind StyleKind `yaml:"kind" json:"kind"`

	// Solid
	Color string `yaml:"color,omitempty" json:"color,omitempty"`

	// Pixelate
	BlockPx int `yaml:"block_px,omitempty" json:"block_px,omitempty"`

	// Blur
	RadiusPx   int `yaml:"radius_px,omitempty" json:"radius_px,omitempty"`
	Iterations int `yaml:"iterations,omitempty" json:"iterations,omitempty"`

	// Pattern
	PatternID string `yaml:"id,omitempty" json:"id,omitempty"`
}

// StyleKind enumerates the recognized style variants.
type StyleKind string

const (
	StyleSolid    StyleKind = "solid"
	StylePixelate StyleKind = "pixelate"
	StyleBlur     StyleKind = "blur"
	StylePattern  StyleKind = "pattern"
)

// Validate checks internal consistency of a StyleSpec: the discriminator is
// known and the fields it requires are present and positive.
func (s StyleSpec) Validate() error {
	switch s.Kind {
	case StyleSolid:
		if s.Color == "" {
			return fmt.Errorf("solid style requires color")
		}
	case StylePixelate:
		if s.BlockPx <= 0 {
			return fmt.Errorf("pixelate style requires positive block_px")
		}
	case StyleBlur:
		if s.RadiusPx <= 0 {
			return fmt.Errorf("blur style requires positive radius_px")
		}
		if s.Iterations <= 0 {
			return fmt.Errorf("blur style requires positive iterations")
		}
	case StylePattern:
		if s.PatternID == "" {
			s.PatternID = "diagonal_hatch"
		}
	default:
		return fmt.Errorf("unknown style kind %q", s.Kind)
	}
	return nil
}

// DefaultSolidBlack is the fallback style used for degraded redactions
// (spec.md §4.6/§7): full-opacity black fill.
func DefaultSolidBlack() StyleSpec {
	return StyleSpec{Kind: StyleSolid, Color: "#000000"}
}

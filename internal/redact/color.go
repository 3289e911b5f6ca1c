package redact

import (
	"fmt"
	"image/color"
)

// parseHexColor parses "#RRGGBB" or "#RRGGBBAA" into an opaque-by-default
// color.RGBA. Adapted from the teacher's internal/pdf/utils.go
// parseHexColor (0-1 float channels there; 0-255 bytes here, since this
// engine writes directly into an image.RGBA rather than a PDF content
// stream color operator).
func parseHexColor(s string) (color.RGBA, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 && len(s) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", s)
	}
	var r, g, b, a uint8
	if _, err := fmt.Sscanf(s[0:2], "%02x", &r); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if _, err := fmt.Sscanf(s[2:4], "%02x", &g); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if _, err := fmt.Sscanf(s[4:6], "%02x", &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	a = 255
	if len(s) == 8 {
		if _, err := fmt.Sscanf(s[6:8], "%02x", &a); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
	}
	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

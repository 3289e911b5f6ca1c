// Package detect holds the Visual and Text Detector contracts (spec.md
// §4.3, §4.4, components D/E) plus one reference implementation of each:
// a regex/checksum-based text detector grounded on rmasci-piiredact's
// pattern table, and an OCR-backed word source grounded on the teacher's
// tesseract adapter. The core never ships a visual model; VisualDetector
// exists purely as the contract detectors are plugged into.
package detect

import (
	"context"

	"github.com/forensicpipe/deidentify/internal/model"
)

// VisualDetector produces visual-kind Detections from a page's raster
// alone (spec.md §4.3). Implementations must be deterministic given the
// same raster bytes and ModelTag.
type VisualDetector interface {
	ModelTag() string
	DetectVisual(ctx context.Context, page model.PageView) ([]model.Detection, error)
}

// TextDetector produces textual-kind Detections from a page's text layer,
// falling back to OCR internally when page.TextSpans is empty (spec.md
// §4.4).
type TextDetector interface {
	ModelTag() string
	DetectText(ctx context.Context, page model.PageView) ([]model.Detection, error)
}

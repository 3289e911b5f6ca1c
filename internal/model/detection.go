// Package model holds the core value types shared across the pipeline:
// Detection, PageView and ProcessingResult (spec.md §3, component A).
// Grounded on the teacher's internal/models/redact.go shape (RedactionRect,
// TextPosition, PageInfo) generalized to the richer Detection/PageView
// records this spec requires.
package model

import (
	"image"
	"math"
	"time"

	"github.com/forensicpipe/deidentify/internal/geometry"
	"github.com/forensicpipe/deidentify/internal/piikind"
)

// Source identifies which detector(s) produced a Detection.
type Source string

const (
	SourceVisual  Source = "visual"
	SourceTextual Source = "textual"
	SourceFused   Source = "fused"
)

// Detection is a localized claim that a page region contains PII of a
// specific kind with a confidence. Detections are immutable once created;
// fusion produces new records rather than mutating existing ones.
type Detection struct {
	ID         string              `json:"id"`
	Kind       piikind.Kind        `json:"kind"`
	PageIndex  int                 `json:"page_index"`
	BBox       geometry.BoundingBox `json:"bbox"`
	Confidence float64             `json:"confidence"`
	Source     Source              `json:"source"`
	Text       string              `json:"text,omitempty"`
	Language   string              `json:"language,omitempty"`
	ModelTag   string              `json:"model_tag"`
	Extras     map[string]string   `json:"extras,omitempty"`

	// ReadingOrder is carried from the contributing text span (if any) and
	// used as a fusion tie-breaker; visual-only detections leave it at 0.
	ReadingOrder int `json:"-"`
}

// Valid checks the Detection invariants from spec.md §3: confidence is
// finite, and source=fused only for detections formed from >=2 inputs
// (callers pass mergedFrom, the count of contributing detections).
func (d Detection) Valid(mergedFrom int) bool {
	if math.IsNaN(d.Confidence) || math.IsInf(d.Confidence, 0) {
		return false
	}
	if d.Source == SourceFused && mergedFrom < 2 {
		return false
	}
	return true
}

// TextSpan is a single run of text positioned on a page, as produced by an
// embedded text layer or OCR.
type TextSpan struct {
	Text         string
	BBox         geometry.BoundingBox
	Language     string
	FontSize     float64
	ReadingOrder int
}

// PageView is the immutable per-page working set: a raster plus an optional
// positioned text layer. It is produced once by the Document Loader and
// dropped after the Redaction Engine writes the corresponding output page.
type PageView struct {
	PageIndex int
	WidthPx   int
	HeightPx  int
	DPI       int

	// Raster holds the page pixels. Ownership: the Processor reads it via
	// detectors (read-only) and hands it, unmodified, to the Redaction
	// Engine, which writes into a distinct output buffer.
	Raster *image.RGBA

	// TextSpans is nil iff no embedded text layer was present (spec.md
	// §4.1); detectors then fall back to OCR.
	TextSpans []TextSpan
}

// Valid reports whether every text span's bbox is contained in the page,
// the PageView validity invariant from spec.md §3.
func (p PageView) Valid() bool {
	for _, s := range p.TextSpans {
		if !s.BBox.ValidOnPage(p.WidthPx, p.HeightPx) {
			return false
		}
	}
	return true
}

// Zero overwrites the raster buffer in place so sensitive pixel data does
// not linger in memory after release (spec.md §3 lifecycle, §5 memory
// discipline).
func (p *PageView) Zero() {
	if p.Raster == nil {
		return
	}
	pix := p.Raster.Pix
	for i := range pix {
		pix[i] = 0
	}
	for i := range p.TextSpans {
		p.TextSpans[i].Text = ""
	}
}

// ProcessingError carries one recoverable-or-surfaced failure, attributable
// to a page when applicable, without leaking sensitive content (spec.md §7).
type ProcessingError struct {
	Kind      string `json:"kind"`
	PageIndex *int   `json:"page_index,omitempty"`
	Message   string `json:"message"`
}

func (e ProcessingError) Error() string { return e.Kind + ": " + e.Message }

// ProcessingResult is the terminal, caller-facing summary of a single
// document run (spec.md §3).
type ProcessingResult struct {
	DocumentID        string            `json:"document_id"`
	InputFingerprint  string            `json:"input_fingerprint"`
	OutputFingerprint string            `json:"output_fingerprint"`
	ProfileRef        string            `json:"profile_ref"`
	Detections        []Detection       `json:"detections"`
	PagesProcessed    int               `json:"pages_processed"`
	RedactionsApplied int               `json:"redactions_applied"`
	StartedAt         time.Time         `json:"started_at"`
	FinishedAt        time.Time         `json:"finished_at"`
	Success           bool              `json:"success"`
	Errors            []ProcessingError `json:"errors,omitempty"`
}

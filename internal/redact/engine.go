// Package redact implements the Redaction Engine (spec.md §4.6, component
// G): applying a page's final Detection set to its raster, and optionally
// its text layer, producing a new output PageView without mutating the
// input. Grounded on the teacher's internal/pdf/redact/visual.go
// (deterministic overlap ordering, last-write-wins) and secure.go (text
// scrubbing via replacement runs), adapted from PDF content-stream
// rewriting to direct raster/TextSpan manipulation.
package redact

import (
	"image"
	"image/draw"
	"sort"
	"unicode/utf8"

	"github.com/forensicpipe/deidentify/internal/geometry"
	"github.com/forensicpipe/deidentify/internal/model"
	"github.com/forensicpipe/deidentify/internal/profile"
)

// neutralReplacement is the scrub character spec.md §4.6 names: U+25A0
// BLACK SQUARE, chosen over a space so a scrubbed run is visibly marked in
// any downstream text-extraction rather than silently vanishing.
const neutralReplacement = '■'

// textScrubIntersectionThreshold is the fraction of a text span's area that
// must be covered by a redaction bbox before the span is scrubbed.
const textScrubIntersectionThreshold = 0.2

// AppliedBox records one box actually rendered, including whether it had
// to fall back to the degraded Solid/black style (spec.md §4.6 failure
// model; spec.md §12 supplemented "redaction apply report").
type AppliedBox struct {
	DetectionID string
	Kind        string
	BBox        string
	Degraded    bool
	Reason      string
}

// Report summarizes one page's redaction pass for the audit engine.
type Report struct {
	PageIndex     int
	AppliedBoxes  []AppliedBox
	ScrubbedSpans int
}

// Apply renders eff-resolved styles for every detection onto a copy of
// page's raster and, if page has a text layer, returns a scrubbed copy of
// it. page itself is never modified (spec.md §4.6/§5: no in-place mutation
// of loader output).
func Apply(page model.PageView, detections []model.Detection, eff profile.EffectiveProfile) (model.PageView, Report) {
	ordered := make([]model.Detection, len(detections))
	copy(ordered, detections)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i].BBox, ordered[j].BBox
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return ordered[i].Kind < ordered[j].Kind
	})

	out := copyRaster(page.Raster)
	report := Report{PageIndex: page.PageIndex}

	for _, d := range ordered {
		bbox := d.BBox.Clip(page.WidthPx, page.HeightPx)
		if !bbox.Valid() {
			continue
		}
		style := eff.EffectiveRule(d.Kind).Style
		degraded := false
		reason := ""
		if err := renderStyle(out, bbox, style); err != nil {
			degraded = true
			reason = err.Error()
			_ = renderStyle(out, bbox, profile.DefaultSolidBlack())
		}
		report.AppliedBoxes = append(report.AppliedBoxes, AppliedBox{
			DetectionID: d.ID,
			Kind:        string(d.Kind),
			BBox:        bbox.String(),
			Degraded:    degraded,
			Reason:      reason,
		})
	}

	outSpans := page.TextSpans
	if len(outSpans) > 0 {
		outSpans = make([]model.TextSpan, len(page.TextSpans))
		copy(outSpans, page.TextSpans)
		for i := range outSpans {
			span := &outSpans[i]
			for _, d := range ordered {
				if intersectionRatio(span.BBox, d.BBox) >= textScrubIntersectionThreshold {
					span.Text = scrub(span.Text)
					report.ScrubbedSpans++
					break
				}
			}
		}
	}

	return model.PageView{
		PageIndex: page.PageIndex,
		WidthPx:   page.WidthPx,
		HeightPx:  page.HeightPx,
		DPI:       page.DPI,
		Raster:    out,
		TextSpans: outSpans,
	}, report
}

func copyRaster(src *image.RGBA) *image.RGBA {
	if src == nil {
		return nil
	}
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out
}

func scrub(s string) string {
	n := utf8.RuneCountInString(s)
	runes := make([]rune, n)
	for i := range runes {
		runes[i] = neutralReplacement
	}
	return string(runes)
}

// intersectionRatio returns the fraction of span's area covered by the
// intersection with redaction, the test spec.md §4.6 uses for scrubbing
// decisions ("intersects any redaction bbox by ≥ 20% area").
func intersectionRatio(span, redaction geometry.BoundingBox) float64 {
	inter, ok := geometry.Intersect(span, redaction)
	if !ok {
		return 0
	}
	area := span.Area()
	if area == 0 {
		return 0
	}
	return float64(inter.Area()) / float64(area)
}

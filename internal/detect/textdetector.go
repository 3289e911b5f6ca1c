package detect

import (
	"context"

	"github.com/google/uuid"

	"github.com/forensicpipe/deidentify/internal/geometry"
	"github.com/forensicpipe/deidentify/internal/model"
)

// ReferenceTextDetector is a regex/checksum-based TextDetector: one instance
// of the pattern-table approach rmasci-piiredact uses for flat-text
// scrubbing, adapted to emit positioned Detections against a PageView
// instead of redacting a string in place. It is not wired up by default:
// callers opt in through deidentify.Config.TextDetectors, and a stronger
// model can sit behind the same interface.
type ReferenceTextDetector struct {
	OCR OCRProvider // nil disables OCR fallback; pages without text_spans then yield nothing
}

func (d ReferenceTextDetector) ModelTag() string { return "reference-regex-text-detector-v1" }

func (d ReferenceTextDetector) DetectText(ctx context.Context, page model.PageView) ([]model.Detection, error) {
	if len(page.TextSpans) > 0 {
		return d.detectFromSpans(page), nil
	}
	if d.OCR == nil || page.Raster == nil {
		return nil, nil
	}
	words, err := d.OCR.ExtractWords(ctx, page.Raster, "")
	if err != nil {
		return nil, err
	}
	return d.detectFromWords(page.PageIndex, words), nil
}

func (d ReferenceTextDetector) detectFromSpans(page model.PageView) []model.Detection {
	var out []model.Detection
	for _, span := range page.TextSpans {
		for _, p := range textPatterns {
			for _, loc := range p.re.FindAllStringIndex(span.Text, -1) {
				bbox := subSpanBBox(span.BBox, len(span.Text), loc[0], loc[1])
				conf := p.baseConf
				if p.validate != nil {
					if p.validate(span.Text[loc[0]:loc[1]]) {
						conf += p.confBoost
					} else {
						continue // checksum failed: not a real match, skip
					}
				}
				if conf > 1 {
					conf = 1
				}
				out = append(out, model.Detection{
					ID:           uuid.NewString(),
					Kind:         p.kind,
					PageIndex:    page.PageIndex,
					BBox:         bbox,
					Confidence:   conf,
					Source:       model.SourceTextual,
					Text:         span.Text[loc[0]:loc[1]],
					Language:     span.Language,
					ModelTag:     d.ModelTag(),
					ReadingOrder: span.ReadingOrder,
				})
			}
		}
	}
	return out
}

func (d ReferenceTextDetector) detectFromWords(pageIndex int, words []OCRWord) []model.Detection {
	var out []model.Detection
	for i, w := range words {
		for _, p := range textPatterns {
			for _, loc := range p.re.FindAllStringIndex(w.Text, -1) {
				bbox := subSpanBBox(w.BBox, len(w.Text), loc[0], loc[1])
				conf := p.baseConf
				if p.validate != nil {
					if p.validate(w.Text[loc[0]:loc[1]]) {
						conf += p.confBoost
					} else {
						continue
					}
				}
				if conf > 1 {
					conf = 1
				}
				out = append(out, model.Detection{
					ID:           uuid.NewString(),
					Kind:         p.kind,
					PageIndex:    pageIndex,
					BBox:         bbox,
					Confidence:   conf,
					Source:       model.SourceTextual,
					Text:         w.Text[loc[0]:loc[1]],
					ModelTag:     d.ModelTag(),
					ReadingOrder: i,
				})
			}
		}
	}
	return out
}

// subSpanBBox narrows a span's full bounding box to the horizontal slice a
// regex match occupies, assuming roughly monospaced glyph advance — the
// same approximation the teacher's layout code uses when it has no real
// font metrics to consult.
func subSpanBBox(full geometry.BoundingBox, textLen, start, end int) geometry.BoundingBox {
	if textLen == 0 {
		return full
	}
	charW := float64(full.W) / float64(textLen)
	x := full.X + int(float64(start)*charW)
	w := int(float64(end-start) * charW)
	if w < 1 {
		w = 1
	}
	return geometry.BoundingBox{X: x, Y: full.Y, W: w, H: full.H}
}

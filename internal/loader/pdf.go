package loader

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/forensicpipe/deidentify/internal/geometry"
	"github.com/forensicpipe/deidentify/internal/model"
)

// defaultPDFRasterDPI is the fallback target resolution for page-point ->
// pixel conversion (spec.md §4.1 DPI policy: "rasterize at the configured
// target DPI, default 200") when a caller passes a non-positive DPI to
// newPDFSource. PDF geometry is expressed in 1/72 inch points, so the
// pixels-per-point scale factor is DPI/72.
const defaultPDFRasterDPI = 200

const pointsPerInch = 72.0

// pdfSource is a born-digital PDF document opened for reading. Page count
// and per-page geometry/text come from a real walk of the PDF's object
// graph (pdfobj.go); the per-page raster is NOT a faithful render of the
// PDF's content stream.
//
// A true PDF renderer has to interpret vector graphics operators, resolve
// embedded/standard fonts to glyph outlines, and composite transparency
// groups and images — out of reach here. Instead each page's raster is a
// deterministic "layout preview": a white canvas with a dark rectangle
// drawn at every recovered text run's position. This keeps downstream
// stages (visual detection, redaction's pixel operations, fusion) genuinely
// exercisable against real page geometry and real text positions, at the
// cost of the raster not looking like the source document. Detectors that
// need the actual rendered appearance of a PDF page (e.g. a face detector
// run against a scanned photo embedded in the PDF) are out of reach of
// this loader; only the text-layer side of detection is faithful for PDF
// input. Image inputs (PNG/JPEG) decode real pixels with no such gap.
type pdfSource struct {
	objMap map[string][]byte
	pages  []pageLeaf
	dpi    int
}

func newPDFSource(input []byte, dpi int) (*pdfSource, error) {
	if dpi <= 0 {
		dpi = defaultPDFRasterDPI
	}
	objMap, err := buildObjectMap(input)
	if err != nil {
		return nil, &CorruptInput{Reason: err.Error()}
	}
	pages, err := collectPages(input, objMap)
	if err != nil {
		return nil, &CorruptInput{Reason: err.Error()}
	}
	return &pdfSource{objMap: objMap, pages: pages, dpi: dpi}, nil
}

func (p *pdfSource) PageCount() int { return len(p.pages) }

func (p *pdfSource) Capability() PageCapability {
	return PageCapability{HasNativeRaster: false, HasNativeText: true, RequiresOCRForText: false}
}

func (p *pdfSource) Page(index int) (model.PageView, error) {
	leaf := p.pages[index]
	body, ok := p.objMap[leaf.key]
	if !ok {
		return model.PageView{}, &PageDecodeFailed{PageIndex: index, Reason: "page object missing from object map"}
	}

	widthPt := leaf.mediaBox[2] - leaf.mediaBox[0]
	heightPt := leaf.mediaBox[3] - leaf.mediaBox[1]
	if widthPt <= 0 || heightPt <= 0 {
		return model.PageView{}, &PageDecodeFailed{PageIndex: index, Reason: "non-positive MediaBox dimensions"}
	}
	scale := float64(p.dpi) / pointsPerInch
	widthPx := int(widthPt * scale)
	heightPx := int(heightPt * scale)

	runs := pageContentText(body, p.objMap)
	spans := make([]model.TextSpan, 0, len(runs))
	for i, r := range runs {
		// PDF user space has y increasing upward from the page's bottom-left
		// corner; pixel space has y increasing downward from the top-left.
		px := int((r.x - leaf.mediaBox[0]) * scale)
		py := heightPx - int((r.y-leaf.mediaBox[1])*scale)
		ph := int(r.fontSize * scale)
		if ph < 1 {
			ph = 1
		}
		pw := int(float64(len(r.text)) * r.fontSize * 0.5 * scale)
		if pw < 1 {
			pw = 1
		}
		spans = append(spans, model.TextSpan{
			Text:         r.text,
			BBox:         geometry.BoundingBox{X: px, Y: py - ph, W: pw, H: ph}.Clip(widthPx, heightPx),
			FontSize:     r.fontSize,
			ReadingOrder: i,
		})
	}

	raster := synthesizeLayoutPreview(widthPx, heightPx, spans)

	return model.PageView{
		PageIndex: index,
		WidthPx:   widthPx,
		HeightPx:  heightPx,
		DPI:       p.dpi,
		Raster:    raster,
		TextSpans: spans,
	}, nil
}

// synthesizeLayoutPreview draws a white page with a dark rectangle over
// every recovered text span's bounding box. See pdfSource's doc comment for
// why this stands in for true content-stream rendering.
func synthesizeLayoutPreview(width, height int, spans []model.TextSpan) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	ink := image.NewUniform(color.RGBA{R: 40, G: 40, B: 40, A: 255})
	for _, span := range spans {
		b := span.BBox
		if !b.Valid() {
			continue
		}
		rect := image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
		draw.Draw(img, rect, ink, image.Point{}, draw.Src)
	}
	return img
}

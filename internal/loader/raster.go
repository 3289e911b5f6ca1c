package loader

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder

	"github.com/forensicpipe/deidentify/internal/model"
)

// rasterSource wraps a single already-rasterized image (PNG/JPEG): a
// one-page document whose text layer, if any, must come from an external
// OCR provider at detection time rather than from the container itself.
type rasterSource struct {
	page model.PageView
}

func newRasterSource(input []byte) (*rasterSource, error) {
	img, format, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, &CorruptInput{Reason: fmt.Sprintf("decode %s: %v", format, err)}
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw := rgba.Bounds()
	for y := draw.Min.Y; y < draw.Max.Y; y++ {
		for x := draw.Min.X; x < draw.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}

	return &rasterSource{
		page: model.PageView{
			PageIndex: 0,
			WidthPx:   bounds.Dx(),
			HeightPx:  bounds.Dy(),
			DPI:       72, // spec.md §4.1: assume 72 DPI when the container carries none
			Raster:    rgba,
			TextSpans: nil,
		},
	}, nil
}

func (r *rasterSource) PageCount() int { return 1 }

func (r *rasterSource) Page(index int) (model.PageView, error) {
	if index != 0 {
		return model.PageView{}, &PageDecodeFailed{PageIndex: index, Reason: "raster source has exactly one page"}
	}
	// a defensive copy: callers own the PageView they receive and may Zero it.
	cp := r.page
	rasterCopy := *r.page.Raster
	pixCopy := make([]byte, len(r.page.Raster.Pix))
	copy(pixCopy, r.page.Raster.Pix)
	rasterCopy.Pix = pixCopy
	cp.Raster = &rasterCopy
	return cp, nil
}

func (r *rasterSource) Capability() PageCapability {
	return PageCapability{HasNativeRaster: true, HasNativeText: false, RequiresOCRForText: true}
}

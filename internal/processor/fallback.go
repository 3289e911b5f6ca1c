package processor

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/forensicpipe/deidentify/internal/geometry"
)

// newBlankRaster builds a white w x h canvas, the starting point for the
// synthetic full-page redaction degradedPagePlan applies when a page's
// real raster could not be decoded at all.
func newBlankRaster(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

// geometryFullPage returns a bbox covering the entire w x h page.
func geometryFullPage(w, h int) geometry.BoundingBox {
	return geometry.BoundingBox{X: 0, Y: 0, W: w, H: h}
}

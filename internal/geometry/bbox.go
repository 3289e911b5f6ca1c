// Package geometry provides the integer pixel-rectangle type shared by every
// stage of the pipeline and the overlap metric used to deduplicate and rank
// detections.
package geometry

import "fmt"

// BoundingBox is an integer pixel rectangle in page coordinates, top-left
// origin, y-down. It is the unit every Detection and RedactionRect is
// expressed in.
type BoundingBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Valid reports whether the box has positive area and non-negative origin.
// It does not check containment against a page; use ValidOnPage for that.
func (b BoundingBox) Valid() bool {
	return b.W > 0 && b.H > 0 && b.X >= 0 && b.Y >= 0
}

// ValidOnPage reports whether the box satisfies the invariant from the data
// model: w>0, h>0, x>=0, y>=0, x+w<=pageWidth, y+h<=pageHeight.
func (b BoundingBox) ValidOnPage(pageWidth, pageHeight int) bool {
	return b.Valid() && b.X+b.W <= pageWidth && b.Y+b.H <= pageHeight
}

// Clip returns b intersected with the page bounds [0,0,pageWidth,pageHeight].
// If b lies entirely outside the page, the returned box has zero area.
func (b BoundingBox) Clip(pageWidth, pageHeight int) BoundingBox {
	x0, y0 := max(b.X, 0), max(b.Y, 0)
	x1, y1 := min(b.X+b.W, pageWidth), min(b.Y+b.H, pageHeight)
	if x1 <= x0 || y1 <= y0 {
		return BoundingBox{}
	}
	return BoundingBox{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Area returns w*h.
func (b BoundingBox) Area() int {
	if b.W <= 0 || b.H <= 0 {
		return 0
	}
	return b.W * b.H
}

// Intersect returns the intersection rectangle of a and b. The result has
// zero area (and ok=false) when a and b do not overlap.
func Intersect(a, b BoundingBox) (BoundingBox, bool) {
	x0, y0 := max(a.X, b.X), max(a.Y, b.Y)
	x1, y1 := min(a.X+a.W, b.X+b.W), min(a.Y+a.H, b.Y+b.H)
	if x1 <= x0 || y1 <= y0 {
		return BoundingBox{}, false
	}
	return BoundingBox{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}, true
}

// Union returns the axis-aligned bounding box covering both a and b.
func Union(a, b BoundingBox) BoundingBox {
	x0, y0 := min(a.X, b.X), min(a.Y, b.Y)
	x1, y1 := max(a.X+a.W, b.X+b.W), max(a.Y+a.H, b.Y+b.H)
	return BoundingBox{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// IoU computes the intersection-over-union of a and b, the standard overlap
// metric used throughout fusion and deduplication.
func IoU(a, b BoundingBox) float64 {
	inter, ok := Intersect(a, b)
	if !ok {
		return 0
	}
	interArea := float64(inter.Area())
	unionArea := float64(a.Area()) + float64(b.Area()) - interArea
	if unionArea <= 0 {
		return 0
	}
	return interArea / unionArea
}

// ContainmentRatio returns the fraction of inner's area that overlaps outer,
// used for cross-modal co-location (a textual span contained within a
// visual box) and for text-layer-scrub-on-intersection decisions.
func ContainmentRatio(inner, outer BoundingBox) float64 {
	if inner.Area() == 0 {
		return 0
	}
	inter, ok := Intersect(inner, outer)
	if !ok {
		return 0
	}
	return float64(inter.Area()) / float64(inner.Area())
}

// String implements fmt.Stringer for log-friendly rendering.
func (b BoundingBox) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", b.X, b.Y, b.W, b.H)
}

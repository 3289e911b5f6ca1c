package redact

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/forensicpipe/deidentify/internal/geometry"
	"github.com/forensicpipe/deidentify/internal/profile"
)

// renderStyle applies one style to bbox of img, per spec.md §4.6's
// per-style operation definitions.
func renderStyle(img *image.RGBA, bbox geometry.BoundingBox, style profile.StyleSpec) error {
	rect := image.Rect(bbox.X, bbox.Y, bbox.X+bbox.W, bbox.Y+bbox.H).Intersect(img.Bounds())
	if rect.Empty() {
		return nil
	}
	switch style.Kind {
	case profile.StyleSolid:
		return renderSolid(img, rect, style.Color)
	case profile.StylePixelate:
		renderPixelate(img, rect, style.BlockPx)
		return nil
	case profile.StyleBlur:
		renderBlur(img, rect, style.RadiusPx, style.Iterations)
		return nil
	case profile.StylePattern:
		renderPattern(img, rect, style.PatternID)
		return nil
	default:
		return fmt.Errorf("unknown style kind %q", style.Kind)
	}
}

func renderSolid(img *image.RGBA, rect image.Rectangle, hex string) error {
	c, err := parseHexColor(hex)
	if err != nil {
		return err
	}
	draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Src)
	return nil
}

// renderPixelate splits rect into blockPx x blockPx cells, averages each
// cell's color (the downsample), then fills every pixel of the cell with
// that average (a nearest-neighbor upsample) — a downsample-then-upsample
// pass without a temporary smaller image.
func renderPixelate(img *image.RGBA, rect image.Rectangle, blockPx int) {
	if blockPx <= 0 {
		blockPx = 8
	}
	for y := rect.Min.Y; y < rect.Max.Y; y += blockPx {
		for x := rect.Min.X; x < rect.Max.X; x += blockPx {
			cell := image.Rect(x, y, min(x+blockPx, rect.Max.X), min(y+blockPx, rect.Max.Y))
			avg := averageColor(img, cell)
			draw.Draw(img, cell, image.NewUniform(avg), image.Point{}, draw.Src)
		}
	}
}

func averageColor(img *image.RGBA, rect image.Rectangle) color.RGBA {
	var rSum, gSum, bSum, aSum, n uint64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			c := img.RGBAAt(x, y)
			rSum += uint64(c.R)
			gSum += uint64(c.G)
			bSum += uint64(c.B)
			aSum += uint64(c.A)
			n++
		}
	}
	if n == 0 {
		return color.RGBA{}
	}
	return color.RGBA{
		R: uint8(rSum / n),
		G: uint8(gSum / n),
		B: uint8(bSum / n),
		A: uint8(aSum / n),
	}
}

// renderBlur applies a separable box blur of radiusPx, iterations times, to
// rect (spec.md §4.6: "horizontal + vertical passes" repeated).
func renderBlur(img *image.RGBA, rect image.Rectangle, radiusPx, iterations int) {
	if radiusPx <= 0 {
		radiusPx = 4
	}
	if iterations <= 0 {
		iterations = 1
	}
	for i := 0; i < iterations; i++ {
		boxBlurHorizontal(img, rect, radiusPx)
		boxBlurVertical(img, rect, radiusPx)
	}
}

func boxBlurHorizontal(img *image.RGBA, rect image.Rectangle, radius int) {
	src := copyRect(img, rect)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			var rSum, gSum, bSum, aSum, n int
			for dx := -radius; dx <= radius; dx++ {
				sx := x + dx
				if sx < rect.Min.X || sx >= rect.Max.X {
					continue
				}
				c := src.RGBAAt(sx, y)
				rSum += int(c.R)
				gSum += int(c.G)
				bSum += int(c.B)
				aSum += int(c.A)
				n++
			}
			if n == 0 {
				continue
			}
			img.SetRGBA(x, y, color.RGBA{uint8(rSum / n), uint8(gSum / n), uint8(bSum / n), uint8(aSum / n)})
		}
	}
}

func boxBlurVertical(img *image.RGBA, rect image.Rectangle, radius int) {
	src := copyRect(img, rect)
	for x := rect.Min.X; x < rect.Max.X; x++ {
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			var rSum, gSum, bSum, aSum, n int
			for dy := -radius; dy <= radius; dy++ {
				sy := y + dy
				if sy < rect.Min.Y || sy >= rect.Max.Y {
					continue
				}
				c := src.RGBAAt(x, sy)
				rSum += int(c.R)
				gSum += int(c.G)
				bSum += int(c.B)
				aSum += int(c.A)
				n++
			}
			if n == 0 {
				continue
			}
			img.SetRGBA(x, y, color.RGBA{uint8(rSum / n), uint8(gSum / n), uint8(bSum / n), uint8(aSum / n)})
		}
	}
}

func copyRect(img *image.RGBA, rect image.Rectangle) *image.RGBA {
	out := image.NewRGBA(rect)
	draw.Draw(out, rect, img, rect.Min, draw.Src)
	return out
}

// renderPattern overlays a deterministic diagonal hatch, the default
// pattern id spec.md §4.6 calls for; patternID is accepted for forward
// compatibility but only one pattern is currently implemented.
func renderPattern(img *image.RGBA, rect image.Rectangle, patternID string) {
	ink := color.RGBA{R: 20, G: 20, B: 20, A: 255}
	const stride = 6
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if (x-y)%stride == 0 {
				img.SetRGBA(x, y, ink)
			}
		}
	}
}

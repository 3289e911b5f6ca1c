package redact_test

import (
	"image"
	"image/color"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicpipe/deidentify/internal/geometry"
	"github.com/forensicpipe/deidentify/internal/model"
	"github.com/forensicpipe/deidentify/internal/piikind"
	"github.com/forensicpipe/deidentify/internal/profile"
	"github.com/forensicpipe/deidentify/internal/redact"
)

func whitePage(w, h int) model.PageView {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	return model.PageView{PageIndex: 0, WidthPx: w, HeightPx: h, Raster: img}
}

func solidProfile(t *testing.T) profile.EffectiveProfile {
	t.Helper()
	store, err := profile.LoadStore([][]byte{[]byte(`
name: t
default_style:
  kind: solid
  color: "#FF0000"
pii_rules:
  email:
    enabled: true
    min_confidence: 0.1
`)})
	require.NoError(t, err)
	eff, err := store.Resolve("t")
	require.NoError(t, err)
	return eff
}

func TestApplySolidFillsBox(t *testing.T) {
	page := whitePage(20, 20)
	eff := solidProfile(t)
	det := model.Detection{ID: "d1", Kind: piikind.Email, BBox: geometry.BoundingBox{X: 2, Y: 2, W: 5, H: 5}}

	out, report := redact.Apply(page, []model.Detection{det}, eff)

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, out.Raster.RGBAAt(3, 3))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, out.Raster.RGBAAt(15, 15))
	require.Len(t, report.AppliedBoxes, 1)
	assert.False(t, report.AppliedBoxes[0].Degraded)
}

func TestApplyDoesNotMutateInputRaster(t *testing.T) {
	page := whitePage(10, 10)
	eff := solidProfile(t)
	det := model.Detection{ID: "d1", Kind: piikind.Email, BBox: geometry.BoundingBox{X: 0, Y: 0, W: 10, H: 10}}

	redact.Apply(page, []model.Detection{det}, eff)

	assert.Equal(t, color.RGBA{255, 255, 255, 255}, page.Raster.RGBAAt(5, 5))
}

func TestApplyScrubsIntersectingTextSpan(t *testing.T) {
	page := whitePage(30, 10)
	page.TextSpans = []model.TextSpan{
		{Text: "secret", BBox: geometry.BoundingBox{X: 0, Y: 0, W: 10, H: 10}},
	}
	eff := solidProfile(t)
	det := model.Detection{ID: "d1", Kind: piikind.Email, BBox: geometry.BoundingBox{X: 0, Y: 0, W: 10, H: 10}}

	out, report := redact.Apply(page, []model.Detection{det}, eff)

	assert.Equal(t, 1, report.ScrubbedSpans)
	assert.NotEqual(t, "secret", out.TextSpans[0].Text)
	assert.Equal(t, utf8.RuneCountInString("secret"), utf8.RuneCountInString(out.TextSpans[0].Text))
}

func TestApplyUnknownStyleDegradesToSolidBlack(t *testing.T) {
	store, err := profile.LoadStore([][]byte{[]byte(`
name: t
default_style:
  kind: blur
  radius_px: 3
  iterations: 1
pii_rules:
  email:
    enabled: true
    min_confidence: 0.1
`)})
	require.NoError(t, err)
	eff, err := store.Resolve("t")
	require.NoError(t, err)
	// Force an invalid style to exercise the degraded-rendering fallback.
	rule := eff.Rules[piikind.Email]
	rule.Style.Kind = "not-a-real-style"
	eff.Rules[piikind.Email] = rule

	page := whitePage(10, 10)
	det := model.Detection{ID: "d1", Kind: piikind.Email, BBox: geometry.BoundingBox{X: 0, Y: 0, W: 5, H: 5}}

	_, report := redact.Apply(page, []model.Detection{det}, eff)
	require.Len(t, report.AppliedBoxes, 1)
	assert.True(t, report.AppliedBoxes[0].Degraded)
}

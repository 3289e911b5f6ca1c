package fusion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicpipe/deidentify/internal/fusion"
	"github.com/forensicpipe/deidentify/internal/geometry"
	"github.com/forensicpipe/deidentify/internal/model"
	"github.com/forensicpipe/deidentify/internal/piikind"
	"github.com/forensicpipe/deidentify/internal/profile"
)

func effectiveProfile(t *testing.T) profile.EffectiveProfile {
	t.Helper()
	doc := []byte(`
name: test
pii_rules:
  face:
    enabled: true
    min_confidence: 0.5
  email:
    enabled: true
    min_confidence: 0.5
  person_name:
    enabled: false
    min_confidence: 0.5
`)
	store, err := profile.LoadStore([][]byte{doc})
	require.NoError(t, err)
	eff, err := store.Resolve("test")
	require.NoError(t, err)
	return eff
}

func TestFuseDropsDisabledKind(t *testing.T) {
	eff := effectiveProfile(t)
	out := fusion.Fuse([]model.Detection{
		{ID: "a", Kind: piikind.PersonName, Confidence: 0.9, Source: model.SourceTextual, BBox: geometry.BoundingBox{X: 0, Y: 0, W: 10, H: 10}},
	}, eff)
	assert.Empty(t, out)
}

func TestFuseMergesOverlappingCrossModal(t *testing.T) {
	eff := effectiveProfile(t)
	visual := model.Detection{
		ID: "v", Kind: piikind.Face, Confidence: 0.8, Source: model.SourceVisual,
		BBox: geometry.BoundingBox{X: 0, Y: 0, W: 100, H: 100},
	}
	// textual detection fully inside the visual box: treated as cross-modal co-location.
	textual := model.Detection{
		ID: "t", Kind: piikind.Face, Confidence: 0.6, Source: model.SourceTextual, Text: "face-caption",
		BBox: geometry.BoundingBox{X: 10, Y: 10, W: 20, H: 20},
	}
	out := fusion.Fuse([]model.Detection{visual, textual}, eff)
	require.Len(t, out, 1)
	assert.Equal(t, model.SourceFused, out[0].Source)
	assert.Equal(t, "face-caption", out[0].Text)
	assert.Equal(t, geometry.BoundingBox{X: 0, Y: 0, W: 100, H: 100}, out[0].BBox)
}

func TestFuseOrdersDeterministically(t *testing.T) {
	eff := effectiveProfile(t)
	a := model.Detection{ID: "a", Kind: piikind.Email, Confidence: 0.9, Source: model.SourceTextual, BBox: geometry.BoundingBox{X: 50, Y: 5, W: 10, H: 10}}
	b := model.Detection{ID: "b", Kind: piikind.Email, Confidence: 0.9, Source: model.SourceTextual, BBox: geometry.BoundingBox{X: 5, Y: 1, W: 10, H: 10}}
	out := fusion.Fuse([]model.Detection{a, b}, eff)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ID)
	assert.Equal(t, "a", out[1].ID)
}

func TestFuseSingletonPassesThrough(t *testing.T) {
	eff := effectiveProfile(t)
	d := model.Detection{ID: "solo", Kind: piikind.Email, Confidence: 0.9, Source: model.SourceTextual, BBox: geometry.BoundingBox{X: 1, Y: 1, W: 5, H: 5}}
	out := fusion.Fuse([]model.Detection{d}, eff)
	require.Len(t, out, 1)
	assert.Equal(t, model.SourceTextual, out[0].Source)
}

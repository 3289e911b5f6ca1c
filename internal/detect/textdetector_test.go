package detect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicpipe/deidentify/internal/geometry"
	"github.com/forensicpipe/deidentify/internal/model"
	"github.com/forensicpipe/deidentify/internal/piikind"
)

func TestDetectFromSpansFindsEmail(t *testing.T) {
	page := model.PageView{
		PageIndex: 0,
		WidthPx:   400,
		HeightPx:  200,
		TextSpans: []model.TextSpan{
			{Text: "contact jane.doe@example.com for access", BBox: geometry.BoundingBox{X: 0, Y: 0, W: 400, H: 20}},
		},
	}
	det := ReferenceTextDetector{}
	found, err := det.DetectText(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, piikind.Email, found[0].Kind)
	assert.Equal(t, "jane.doe@example.com", found[0].Text)
	assert.True(t, found[0].BBox.ValidOnPage(400, 200))
}

func TestDetectFromSpansFindsPersonName(t *testing.T) {
	page := model.PageView{
		WidthPx:  400,
		HeightPx: 200,
		TextSpans: []model.TextSpan{
			{Text: "John Doe 555-123-4567 jane@example.com", BBox: geometry.BoundingBox{X: 0, Y: 0, W: 400, H: 20}},
		},
	}
	det := ReferenceTextDetector{}
	found, err := det.DetectText(context.Background(), page)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(found), 3)

	var sawName bool
	for _, d := range found {
		if d.Kind == piikind.PersonName {
			sawName = true
			assert.Equal(t, "John Doe", d.Text)
		}
	}
	assert.True(t, sawName, "expected a person_name detection")
}

func TestDetectFromSpansRejectsInvalidSSNChecksum(t *testing.T) {
	page := model.PageView{
		TextSpans: []model.TextSpan{
			{Text: "ref 000-00-0000 on file", BBox: geometry.BoundingBox{X: 0, Y: 0, W: 300, H: 20}},
		},
	}
	det := ReferenceTextDetector{}
	found, err := det.DetectText(context.Background(), page)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestDetectFromSpansAcceptsValidLuhnCard(t *testing.T) {
	page := model.PageView{
		TextSpans: []model.TextSpan{
			{Text: "card 4539148803436467 expires", BBox: geometry.BoundingBox{X: 0, Y: 0, W: 400, H: 20}},
		},
	}
	det := ReferenceTextDetector{}
	found, err := det.DetectText(context.Background(), page)
	require.NoError(t, err)
	require.NotEmpty(t, found)
	assert.Equal(t, piikind.FinancialAccount, found[0].Kind)
}

func TestDetectTextWithoutSpansAndNoOCRReturnsNothing(t *testing.T) {
	det := ReferenceTextDetector{}
	found, err := det.DetectText(context.Background(), model.PageView{})
	require.NoError(t, err)
	assert.Empty(t, found)
}

package loader

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var minimalPDF = []byte(`%PDF-1.7
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [3 0 R] /Count 1 >>
endobj
3 0 obj
<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Contents 4 0 R >>
endobj
4 0 obj
<< /Length 42 >>
stream
BT /F1 12 Tf 100 700 Td (Hello World) Tj ET
endstream
endobj
trailer
<< /Size 5 /Root 1 0 R >>
%%EOF
`)

func TestOpenPDFRecoversPageGeometry(t *testing.T) {
	doc, err := Open(minimalPDF, defaultPDFRasterDPI)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.PageCount())
	assert.True(t, doc.Capability().HasNativeText)
	assert.False(t, doc.Capability().HasNativeRaster)

	page, err := doc.Page(0)
	require.NoError(t, err)
	assert.Equal(t, 612*defaultPDFRasterDPI/int(pointsPerInch), page.WidthPx)
	assert.Equal(t, 792*defaultPDFRasterDPI/int(pointsPerInch), page.HeightPx)
	require.Len(t, page.TextSpans, 1)
	assert.Equal(t, "Hello World", page.TextSpans[0].Text)
}

func TestOpenPDFPageRasterMarksTextRegion(t *testing.T) {
	doc, err := Open(minimalPDF, defaultPDFRasterDPI)
	require.NoError(t, err)
	page, err := doc.Page(0)
	require.NoError(t, err)

	span := page.TextSpans[0]
	cx, cy := span.BBox.X+span.BBox.W/2, span.BBox.Y+span.BBox.H/2
	got := page.Raster.RGBAAt(cx, cy)
	assert.NotEqual(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, got)

	corner := page.Raster.RGBAAt(2, 2)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, corner)
}

func TestOpenRejectsUnknownFormat(t *testing.T) {
	_, err := Open([]byte("not a real document"), defaultPDFRasterDPI)
	require.Error(t, err)
	var uf *UnsupportedFormat
	assert.ErrorAs(t, err, &uf)
}

func TestOpenPageOutOfRange(t *testing.T) {
	doc, err := Open(minimalPDF, defaultPDFRasterDPI)
	require.NoError(t, err)
	_, err = doc.Page(5)
	assert.Error(t, err)
}

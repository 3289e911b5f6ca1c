package deidentify_test

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicpipe/deidentify/internal/detect"
	"github.com/forensicpipe/deidentify/internal/geometry"
	"github.com/forensicpipe/deidentify/internal/model"
	"github.com/forensicpipe/deidentify/internal/piikind"
	"github.com/forensicpipe/deidentify/pkg/deidentify"
)

type stubFaceDetector struct{}

func (stubFaceDetector) ModelTag() string { return "stub-face-v1" }
func (stubFaceDetector) DetectVisual(ctx context.Context, page model.PageView) ([]model.Detection, error) {
	w, h := page.WidthPx/2, page.HeightPx/2
	if w == 0 || h == 0 {
		return nil, nil
	}
	return []model.Detection{{
		ID:         "stub-face-1",
		Kind:       piikind.Face,
		PageIndex:  page.PageIndex,
		BBox:       geometry.BoundingBox{X: 0, Y: 0, W: w, H: h},
		Confidence: 0.9,
		Source:     model.SourceVisual,
		ModelTag:   "stub-face-v1",
	}}, nil
}

func testSigningKeyPEM(t *testing.T) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

func onePageWhitePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

const defaultProfileYAML = `
name: default
version: "1.0"
confidence_floor: 0.1
default_style:
  kind: solid
  color: "000000"
pii_rules:
  face:
    enabled: true
    min_confidence: 0.1
    style:
      kind: solid
      color: "000000"
`

func TestProcessEndToEndAndValidate(t *testing.T) {
	pipeline, err := deidentify.New(deidentify.Config{
		ProfileDocuments: [][]byte{[]byte(defaultProfileYAML)},
		VisualDetectors:  []detect.VisualDetector{stubFaceDetector{}},
		SigningKeyPEM:    testSigningKeyPEM(t),
		Runtime: deidentify.RuntimeConfig{
			MaxInFlightDocuments: 2,
			MaxInFlightPages:     2,
			PerPageDeadline:      5_000_000_000,
			TesseractBinaryPath:  "tesseract",
		},
	})
	require.NoError(t, err)

	result, record, outputBytes, err := pipeline.Process(context.Background(), onePageWhitePNG(t, 40, 40), "default")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.RedactionsApplied)

	envelope := &bytes.Buffer{}
	require.NoError(t, record.Persist(envelope))
	loaded, err := deidentify.LoadAuditRecord(envelope.Bytes())
	require.NoError(t, err)
	assert.Equal(t, record.DocumentID, loaded.DocumentID)

	_ = outputBytes
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	pipeline, err := deidentify.New(deidentify.Config{
		ProfileDocuments: [][]byte{[]byte(defaultProfileYAML)},
		SigningKeyPEM:    testSigningKeyPEM(t),
		Runtime: deidentify.RuntimeConfig{
			MaxInFlightDocuments: 2,
			MaxInFlightPages:     2,
			PerPageDeadline:      5_000_000_000,
			TesseractBinaryPath:  "tesseract",
		},
	})
	require.NoError(t, err)

	results := pipeline.ProcessBatch(context.Background(), []deidentify.BatchItem{
		{Input: onePageWhitePNG(t, 10, 10), ProfileRef: "default"},
		{Input: []byte("not a document"), ProfileRef: "default"},
		{Input: onePageWhitePNG(t, 20, 20), ProfileRef: "default"},
	}, deidentify.BatchOptions{})
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
}

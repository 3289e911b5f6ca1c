package processor_test

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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicpipe/deidentify/internal/config"
	"github.com/forensicpipe/deidentify/internal/detect"
	"github.com/forensicpipe/deidentify/internal/forensic"
	"github.com/forensicpipe/deidentify/internal/geometry"
	"github.com/forensicpipe/deidentify/internal/model"
	"github.com/forensicpipe/deidentify/internal/obs"
	"github.com/forensicpipe/deidentify/internal/piikind"
	"github.com/forensicpipe/deidentify/internal/processor"
	"github.com/forensicpipe/deidentify/internal/profile"
)

// fakeVisualDetector always reports one face-shaped detection covering
// the top-left quadrant of whatever page it sees.
type fakeVisualDetector struct{ tag string }

func (f fakeVisualDetector) ModelTag() string { return f.tag }
func (f fakeVisualDetector) DetectVisual(ctx context.Context, page model.PageView) ([]model.Detection, error) {
	w, h := page.WidthPx/2, page.HeightPx/2
	if w == 0 || h == 0 {
		return nil, nil
	}
	return []model.Detection{{
		ID:         "fake-face-1",
		Kind:       piikind.Face,
		PageIndex:  page.PageIndex,
		BBox:       geometry.BoundingBox{X: 0, Y: 0, W: w, H: h},
		Confidence: 0.95,
		Source:     model.SourceVisual,
		ModelTag:   f.tag,
	}}, nil
}

func testConfig() config.RuntimeConfig {
	return config.RuntimeConfig{
		MaxInFlightDocuments: 2,
		MaxInFlightPages:     2,
		PerPageDeadline:      5 * time.Second,
		TesseractBinaryPath:  "tesseract",
	}
}

func testSigner(t *testing.T) *forensic.Signer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	block := &pem.Block{Type: "PRIVATE KEY", Bytes: der}
	signer, err := forensic.NewSignerFromPEM(pem.EncodeToMemory(block))
	require.NoError(t, err)
	return signer
}

func testProfileStore(t *testing.T) profile.Store {
	t.Helper()
	doc := []byte(`
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
`)
	store, err := profile.LoadStore([][]byte{doc})
	require.NoError(t, err)
	return store
}

func onePagePNG(t *testing.T, w, h int) []byte {
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

func TestProcessDocumentRedactsDetectedFace(t *testing.T) {
	proc := processor.New(
		testProfileStore(t),
		[]detect.VisualDetector{fakeVisualDetector{tag: "fake-visual-v1"}},
		nil,
		testSigner(t),
		testConfig(),
		obs.NewDefault(),
		processor.NewMetrics(),
	)

	outcome, err := proc.ProcessDocument(context.Background(), onePagePNG(t, 40, 40), "default")
	require.NoError(t, err)

	assert.True(t, outcome.Result.Success)
	assert.Equal(t, 1, outcome.Result.PagesProcessed)
	assert.Equal(t, 1, outcome.Result.RedactionsApplied)
	require.Len(t, outcome.Result.Detections, 1)
	assert.Equal(t, piikind.Face, outcome.Result.Detections[0].Kind)

	verifier, err := forensic.NewVerifierFromSigner(proc.Signer)
	require.NoError(t, err)
	report := forensic.Validate(outcome.AuditRecord, verifier, outcome.OutputBytes, nil)
	assert.True(t, report.Valid)
}

func TestProcessDocumentRejectsUnsupportedFormat(t *testing.T) {
	proc := processor.New(testProfileStore(t), nil, nil, testSigner(t), testConfig(), obs.NewDefault(), processor.NewMetrics())
	_, err := proc.ProcessDocument(context.Background(), []byte("not a document"), "default")
	assert.Error(t, err)
}

func TestProcessBatchPreservesOrder(t *testing.T) {
	proc := processor.New(testProfileStore(t), nil, nil, testSigner(t), testConfig(), obs.NewDefault(), processor.NewMetrics())
	items := []processor.BatchItem{
		{Input: onePagePNG(t, 10, 10), ProfileRef: "default"},
		{Input: onePagePNG(t, 20, 20), ProfileRef: "default"},
		{Input: onePagePNG(t, 30, 30), ProfileRef: "default"},
	}
	results := proc.ProcessBatch(context.Background(), items, processor.BatchOptions{})
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		require.NoError(t, r.Err)
	}
}

func TestProcessBatchFailFastSkipsLaterItems(t *testing.T) {
	// MaxInFlightDocuments: 1 forces strict submission order so the
	// failure in item 0 is observed before item 1 starts.
	cfg := testConfig()
	cfg.MaxInFlightDocuments = 1
	proc := processor.New(testProfileStore(t), nil, nil, testSigner(t), cfg, obs.NewDefault(), processor.NewMetrics())

	items := []processor.BatchItem{
		{Input: []byte("not a document"), ProfileRef: "default"},
		{Input: onePagePNG(t, 10, 10), ProfileRef: "default"},
	}
	results := proc.ProcessBatch(context.Background(), items, processor.BatchOptions{FailFast: true})
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, processor.ErrSkippedFailFast)
}

func TestProcessDocumentHonorsCallerCancellation(t *testing.T) {
	proc := processor.New(testProfileStore(t), nil, nil, testSigner(t), testConfig(), obs.NewDefault(), processor.NewMetrics())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := proc.ProcessDocument(ctx, onePagePNG(t, 10, 10), "default")
	require.Error(t, err)
	assert.False(t, outcome.Result.Success)
	require.Len(t, outcome.Result.Errors, 1)
	assert.Equal(t, "cancelled_by_caller", outcome.Result.Errors[0].Kind)
}

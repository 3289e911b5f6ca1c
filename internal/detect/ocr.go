package detect

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"

	"github.com/forensicpipe/deidentify/internal/geometry"
)

// OCRWord is one recognized word with its page-pixel bounding box, the unit
// an OCRProvider hands back to the text detector when a page has no native
// text layer.
type OCRWord struct {
	Text string
	BBox geometry.BoundingBox
}

// OCRProvider is the adapter interface for OCR backends (spec.md §4.4: "the
// detector may invoke OCR internally"). Grounded on the teacher's
// OCRProvider interface in internal/pdf/redact/ocr_adapter.go, narrowed to
// operate on an already-decoded raster rather than re-rastering a PDF, since
// loader already produced page.Raster for every page.
type OCRProvider interface {
	ExtractWords(ctx context.Context, raster *image.RGBA, language string) ([]OCRWord, error)
}

// TesseractProvider shells out to the tesseract binary's TSV output mode,
// the same invocation and column layout the teacher's tesseractProvider
// parses, adapted to take a raster image directly instead of rendering a
// PDF page to PNG first.
type TesseractProvider struct {
	// BinaryPath overrides the "tesseract" lookup, primarily for tests.
	BinaryPath string
}

func (t TesseractProvider) lookPath() (string, error) {
	bin := t.BinaryPath
	if bin == "" {
		bin = "tesseract"
	}
	return exec.LookPath(bin)
}

func (t TesseractProvider) ExtractWords(ctx context.Context, raster *image.RGBA, language string) ([]OCRWord, error) {
	binPath, err := t.lookPath()
	if err != nil {
		return nil, fmt.Errorf("tesseract not available: %w", err)
	}
	if language == "" {
		language = "eng"
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, raster); err != nil {
		return nil, fmt.Errorf("encode raster for ocr: %w", err)
	}

	cmd := exec.CommandContext(ctx, binPath, "stdin", "stdout", "tsv", "-l", language)
	cmd.Stdin = &pngBuf
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w", err)
	}
	return parseTesseractTSV(out), nil
}

func parseTesseractTSV(out []byte) []OCRWord {
	var words []OCRWord
	scanner := bufio.NewScanner(bytes.NewReader(out))
	line := 0
	for scanner.Scan() {
		line++
		if line == 1 {
			continue // header row
		}
		cols := strings.Split(scanner.Text(), "\t")
		if len(cols) < 12 {
			continue
		}
		text := strings.TrimSpace(cols[11])
		if text == "" {
			continue
		}
		left, errL := strconv.Atoi(cols[6])
		top, errT := strconv.Atoi(cols[7])
		w, errW := strconv.Atoi(cols[8])
		h, errH := strconv.Atoi(cols[9])
		if errL != nil || errT != nil || errW != nil || errH != nil {
			continue
		}
		words = append(words, OCRWord{
			Text: text,
			BBox: geometry.BoundingBox{X: left, Y: top, W: w, H: h},
		})
	}
	return words
}

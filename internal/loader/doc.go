// Package loader opens a job's input bytes and exposes its pages as a
// restartable, ascending-order sequence of PageView values (spec.md §3,
// component C). It owns format sniffing and per-page decode; it never
// mutates caller-supplied input buffers.
package loader

import (
	"bytes"
	"fmt"

	"github.com/forensicpipe/deidentify/internal/model"
)

// UnsupportedFormat is returned when the input bytes do not match any
// recognized container (spec.md §4.1 "reject unknown formats up front").
type UnsupportedFormat struct {
	Detected string
}

func (e *UnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported input format %q", e.Detected)
}

// CorruptInput is returned when the container is recognized but its
// structure cannot be parsed (truncated stream, broken object graph).
type CorruptInput struct {
	Reason string
}

func (e *CorruptInput) Error() string {
	return fmt.Sprintf("corrupt input: %s", e.Reason)
}

// PageDecodeFailed is returned by page(i) when a single page's raster or
// text layer cannot be produced, without invalidating the rest of the
// document (spec.md §7 DetectionErrors/ResourceErrors boundary: a bad page
// must not abort a whole-document job under non-strict policy).
type PageDecodeFailed struct {
	PageIndex int
	Reason    string
}

func (e *PageDecodeFailed) Error() string {
	return fmt.Sprintf("page %d: decode failed: %s", e.PageIndex, e.Reason)
}

// pageSource is the internal contract a concrete format decoder satisfies.
// It is deliberately narrow: page count up front, one page built on demand,
// so a caller iterating a 500-page document never holds more than one
// decoded raster in memory at a time.
type pageSource interface {
	PageCount() int
	Page(index int) (model.PageView, error)
	Capability() PageCapability
}

// PageCapability records what a document's underlying format can actually
// provide, so callers can decide up front whether a detector stage is
// meaningful (spec.md §12 supplemented feature: page-capability
// classification). A scanned image has no native text layer; a born-digital
// PDF might.
type PageCapability struct {
	HasNativeRaster   bool
	HasNativeText     bool
	RequiresOCRForText bool
}

// DocumentHandle is an opened job input: format-identified, page-count
// known, ready to yield PageViews in ascending order. It holds no decoded
// page data itself — Page returns a fresh PageView each call.
type DocumentHandle struct {
	src pageSource
}

// Open sniffs input's container format and returns a DocumentHandle ready
// to serve pages. It never retains input beyond the call — the raster
// decoders and PDF object-map builder copy what they need. pdfRasterDPI is
// the target DPI for rasterizing a PDF's page-point geometry (spec.md §4.1
// "configured target DPI"); it has no effect on raster-container inputs,
// which carry or assume their own resolution.
func Open(input []byte, pdfRasterDPI int) (*DocumentHandle, error) {
	switch sniff(input) {
	case formatPNG, formatJPEG, formatTIFF, formatBMP:
		src, err := newRasterSource(input)
		if err != nil {
			return nil, err
		}
		return &DocumentHandle{src: src}, nil
	case formatPDF:
		src, err := newPDFSource(input, pdfRasterDPI)
		if err != nil {
			return nil, err
		}
		return &DocumentHandle{src: src}, nil
	default:
		return nil, &UnsupportedFormat{Detected: sniffLabel(input)}
	}
}

// PageCount returns the number of pages the document contains.
func (d *DocumentHandle) PageCount() int {
	return d.src.PageCount()
}

// Capability describes what the underlying format natively provides.
func (d *DocumentHandle) Capability() PageCapability {
	return d.src.Capability()
}

// Page decodes and returns the page at index (0-based). Callers may call
// Page in any order and any number of times; the handle is restartable by
// construction since it holds no decode cursor.
func (d *DocumentHandle) Page(index int) (model.PageView, error) {
	if index < 0 || index >= d.src.PageCount() {
		return model.PageView{}, fmt.Errorf("page index %d out of range [0,%d)", index, d.src.PageCount())
	}
	return d.src.Page(index)
}

type containerFormat int

const (
	formatUnknown containerFormat = iota
	formatPNG
	formatJPEG
	formatPDF
	formatTIFF
	formatBMP
)

// sniff recognizes PNG, JPEG, TIFF, BMP and PDF containers by magic bytes
// (spec.md §4.1/§6 raster-input contract). TIFF has two valid byte orders,
// "II*\x00" (little-endian) and "MM\x00*" (big-endian).
func sniff(b []byte) containerFormat {
	switch {
	case bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")):
		return formatPNG
	case len(b) >= 3 && b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF:
		return formatJPEG
	case bytes.HasPrefix(b, []byte("%PDF-")):
		return formatPDF
	case bytes.HasPrefix(b, []byte("II*\x00")), bytes.HasPrefix(b, []byte("MM\x00*")):
		return formatTIFF
	case bytes.HasPrefix(b, []byte("BM")):
		return formatBMP
	default:
		return formatUnknown
	}
}

func sniffLabel(b []byte) string {
	if len(b) == 0 {
		return "empty"
	}
	n := len(b)
	if n > 8 {
		n = 8
	}
	return fmt.Sprintf("% x", b[:n])
}

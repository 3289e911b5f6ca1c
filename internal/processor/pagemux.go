package processor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image/png"

	"github.com/forensicpipe/deidentify/internal/model"
)

// encodePageRaster renders one redacted page's raster to PNG bytes. This
// is the only place the Processor turns a PageView back into a byte
// stream: spec.md §1 places "file-format readers/writers beyond the
// per-page raster + text-layer contract" out of scope, so the Processor
// does not attempt to re-encode a redacted PDF, reflow a text layer back
// into a content stream, or otherwise produce a faithful container in the
// input's original format. PNG is used here purely as a stable,
// losslessly-hashable byte representation of a raster so output and
// per-page fingerprints are well-defined; a real multi-format Output
// Writer is an external collaborator this core does not implement.
func encodePageRaster(page model.PageView) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, page.Raster); err != nil {
		return nil, fmt.Errorf("encode page %d raster: %w", page.PageIndex, err)
	}
	return buf.Bytes(), nil
}

// muxDocumentBytes concatenates per-page encoded rasters into one
// length-prefixed byte stream, the document-level artifact
// output_fingerprint is computed over. It is a fingerprinting
// convenience, not a document container format: nothing downstream of
// this package treats muxDocumentBytes' output as a file to reopen.
func muxDocumentBytes(pages [][]byte) []byte {
	var buf bytes.Buffer
	var lenPrefix [8]byte
	for _, p := range pages {
		binary.BigEndian.PutUint64(lenPrefix[:], uint64(len(p)))
		buf.Write(lenPrefix[:])
		buf.Write(p)
	}
	return buf.Bytes()
}

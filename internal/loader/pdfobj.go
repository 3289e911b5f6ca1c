package loader

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// The functions in this file adapt the regex-based PDF object-map scanner
// used by the redaction-capable PDF tooling this package was grounded on:
// rather than a full incremental-update/xref-stream parser, every indirect
// object in the file is found by scanning for "N G obj ... endobj" and
// object streams (/ObjStm) are expanded into the same flat map. This is
// sufficient to walk the /Pages tree and recover page geometry and text
// runs; it does not reconstruct a writable object graph, which loader has
// no need for (it only ever reads).

var objRe = regexp.MustCompile(`(?s)(\d+)\s+(\d+)\s+obj(.*?)endobj`)
var objStmMarker = regexp.MustCompile(`/Type\s*/ObjStm`)
var streamRe = regexp.MustCompile(`(?s)stream\s*\r?\n(.*?)\r?\nendstream`)
var firstRe = regexp.MustCompile(`/First\s+(\d+)`)
var rootRefRe = regexp.MustCompile(`/Root\s+(\d+)\s+(\d+)\s+R`)
var pagesRefRe = regexp.MustCompile(`/Pages\s+(\d+)\s+(\d+)\s+R`)
var typePagesRe = regexp.MustCompile(`/Type\s*/Pages(\b|\s|/)`)
var typePageRe = regexp.MustCompile(`/Type\s*/Page(\b|\s|/)`)
var kidsArrRe = regexp.MustCompile(`/Kids\s*\[(.*?)\]`)
var indirectRefRe = regexp.MustCompile(`(\d+)\s+(\d+)\s+R`)
var mediaBoxInlineRe = regexp.MustCompile(`/MediaBox\s*\[\s*([\d.-]+)\s+([\d.-]+)\s+([\d.-]+)\s+([\d.-]+)\s*\]`)
var mediaBoxRefRe = regexp.MustCompile(`/MediaBox\s+(\d+)\s+(\d+)\s+R`)
var contentsRe = regexp.MustCompile(`/Contents\s+(?:(\d+)\s+(\d+)\s+R|\[(.*?)\])`)
var lengthInlineRe = regexp.MustCompile(`/Length\s+(\d+)`)

// usLetterMediaBox is the fallback page box when a page (and every one of
// its ancestors) omits /MediaBox entirely.
var usLetterMediaBox = [4]float64{0, 0, 612, 792}

func buildObjectMap(pdfBytes []byte) (map[string][]byte, error) {
	objMap := make(map[string][]byte)
	matches := objRe.FindAllSubmatch(pdfBytes, -1)
	if matches == nil {
		return nil, fmt.Errorf("no indirect objects found")
	}
	for _, m := range matches {
		key := string(m[1]) + " " + string(m[2])
		body := append([]byte(nil), m[3]...)
		objMap[key] = body

		if objStmMarker.Match(body) {
			expandObjectStream(body, objMap)
		}
	}
	return objMap, nil
}

// expandObjectStream decompresses an /ObjStm object and registers each
// object it carries in objMap under its own "num 0" key, mirroring how a
// conforming reader makes compressed objects addressable like any other.
func expandObjectStream(body []byte, objMap map[string][]byte) {
	sm := streamRe.FindSubmatch(body)
	if sm == nil {
		return
	}
	dec, err := tryZlibDecompress(sm[1])
	if err != nil {
		dec, err = tryFlateDecompress(sm[1])
		if err != nil {
			return
		}
	}

	first := 0
	if fm := firstRe.FindSubmatch(body); fm != nil {
		first, _ = strconv.Atoi(string(fm[1]))
	}
	if first <= 0 || first >= len(dec) {
		return
	}

	header := strings.Fields(strings.TrimSpace(string(dec[:first])))
	content := dec[first:]
	for i := 0; i+1 < len(header); i += 2 {
		objNum := header[i]
		off, err := strconv.Atoi(header[i+1])
		if err != nil || off < 0 || off > len(content) {
			continue
		}
		end := len(content)
		for j := i + 2; j+1 < len(header); j += 2 {
			if nextOff, err := strconv.Atoi(header[j+1]); err == nil {
				end = off + (nextOff - off)
				if end > off {
					break
				}
			}
		}
		if end > len(content) {
			end = len(content)
		}
		if end <= off {
			continue
		}
		objMap[objNum+" 0"] = content[off:end]
	}
}

func tryZlibDecompress(b []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var out bytes.Buffer
	if _, err := io.Copy(&out, r); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func tryFlateDecompress(b []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(b))
	defer r.Close()
	var out bytes.Buffer
	if _, err := io.Copy(&out, r); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func findRootRef(data []byte) (string, bool) {
	if m := rootRefRe.FindSubmatch(data); m != nil {
		return string(m[1]) + " " + string(m[2]), true
	}
	return "", false
}

func isPDFTypePages(body []byte) bool { return typePagesRe.Match(body) }

func isPDFTypePage(body []byte) bool { return typePageRe.Match(body) && !isPDFTypePages(body) }

func extractKidsRefs(body []byte) []string {
	m := kidsArrRe.FindSubmatch(body)
	if m == nil {
		return nil
	}
	var refs []string
	for _, r := range indirectRefRe.FindAllSubmatch(m[1], -1) {
		refs = append(refs, string(r[1])+" "+string(r[2]))
	}
	return refs
}

// pageLeaf is one leaf /Page node discovered during a /Pages tree walk, in
// document order.
type pageLeaf struct {
	key      string
	mediaBox [4]float64
}

// walkPages traverses the /Pages tree starting at rootKey, appending one
// pageLeaf per /Page leaf in document order. inherited carries the nearest
// ancestor /MediaBox found so far, since /MediaBox is inheritable in the
// PDF page tree.
func walkPages(key string, objMap map[string][]byte, inherited [4]float64, out *[]pageLeaf) {
	body, ok := objMap[key]
	if !ok {
		return
	}
	box := extractMediaBox(body, objMap, inherited)

	if isPDFTypePages(body) {
		for _, kid := range extractKidsRefs(body) {
			walkPages(kid, objMap, box, out)
		}
		return
	}
	if isPDFTypePage(body) {
		*out = append(*out, pageLeaf{key: key, mediaBox: box})
	}
}

func extractMediaBox(body []byte, objMap map[string][]byte, inherited [4]float64) [4]float64 {
	if m := mediaBoxInlineRe.FindSubmatch(body); m != nil {
		return parseFloat4(m)
	}
	if m := mediaBoxRefRe.FindSubmatch(body); m != nil {
		key := string(m[1]) + " " + string(m[2])
		if refBody, ok := objMap[key]; ok {
			if am := mediaBoxInlineRe.FindSubmatch(refBody); am != nil {
				return parseFloat4(am)
			}
		}
	}
	if inherited != ([4]float64{}) {
		return inherited
	}
	return usLetterMediaBox
}

func parseFloat4(m [][]byte) [4]float64 {
	var out [4]float64
	for i := 0; i < 4; i++ {
		out[i], _ = strconv.ParseFloat(string(m[i+1]), 64)
	}
	return out
}

// collectPages runs a full /Pages tree walk from the document's Root and
// returns pages in document order.
func collectPages(pdfBytes []byte, objMap map[string][]byte) ([]pageLeaf, error) {
	rootKey, ok := findRootRef(pdfBytes)
	if !ok {
		return nil, fmt.Errorf("missing /Root")
	}
	rootBody, ok := objMap[rootKey]
	if !ok {
		return nil, fmt.Errorf("root object %q not found", rootKey)
	}
	pm := pagesRefRe.FindSubmatch(rootBody)
	if pm == nil {
		return nil, fmt.Errorf("missing /Pages in Root")
	}
	pagesKey := string(pm[1]) + " " + string(pm[2])

	var leaves []pageLeaf
	walkPages(pagesKey, objMap, [4]float64{}, &leaves)
	if len(leaves) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}
	return leaves, nil
}

// pageContentText decodes a page's content stream(s) and extracts the
// literal text runs an ordinary reader would see, in source order.
func pageContentText(pageBody []byte, objMap map[string][]byte) []textRun {
	match := contentsRe.FindSubmatch(pageBody)
	if match == nil {
		return nil
	}

	var contentKeys []string
	switch {
	case len(match[1]) > 0:
		contentKeys = append(contentKeys, string(match[1])+" "+string(match[2]))
	case len(match[3]) > 0:
		for _, r := range indirectRefRe.FindAllSubmatch(match[3], -1) {
			contentKeys = append(contentKeys, string(r[1])+" "+string(r[2]))
		}
	}

	var combined bytes.Buffer
	for _, key := range contentKeys {
		streamBody, ok := objMap[key]
		if !ok {
			continue
		}
		start, end, ok := locateStreamSegment(streamBody)
		if !ok {
			continue
		}
		raw := streamBody[start:end]
		dec, err := tryFlateDecompress(raw)
		if err != nil {
			dec, err = tryZlibDecompress(raw)
			if err != nil {
				dec = raw
			}
		}
		combined.Write(dec)
		combined.WriteByte('\n')
	}
	return parseTextOperators(combined.Bytes())
}

func locateStreamSegment(obj []byte) (int, int, bool) {
	streamIdx := bytes.Index(obj, []byte("stream"))
	if streamIdx < 0 {
		return 0, 0, false
	}
	start := streamIdx + len("stream")
	if start < len(obj) && obj[start] == '\r' {
		start++
	}
	if start < len(obj) && obj[start] == '\n' {
		start++
	}

	if l := inlineLength(obj); l > 0 && start+l <= len(obj) {
		end := start + l
		k := end
		for k < len(obj) && (obj[k] == '\r' || obj[k] == '\n' || obj[k] == ' ' || obj[k] == '\t') {
			k++
		}
		if k < len(obj) && bytes.HasPrefix(obj[k:], []byte("endstream")) {
			return start, end, true
		}
	}

	endIdx := bytes.Index(obj[start:], []byte("endstream"))
	if endIdx < 0 {
		return 0, 0, false
	}
	end := start + endIdx
	for end > start && (obj[end-1] == '\r' || obj[end-1] == '\n') {
		end--
	}
	if end <= start {
		return 0, 0, false
	}
	return start, end, true
}

func inlineLength(obj []byte) int {
	m := lengthInlineRe.FindSubmatch(obj)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(string(m[1]))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

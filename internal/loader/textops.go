package loader

import (
	"regexp"
	"strconv"
	"strings"
)

// textRun is one positioned run of literal text recovered from a content
// stream, before it is turned into a model.TextSpan with page-pixel
// coordinates.
type textRun struct {
	text     string
	x, y     float64
	fontSize float64
}

var (
	btEtRe  = regexp.MustCompile(`(?s)BT(.*?)ET`)
	tmRe    = regexp.MustCompile(`([\d.-]+)\s+([\d.-]+)\s+([\d.-]+)\s+([\d.-]+)\s+([\d.-]+)\s+([\d.-]+)\s+Tm`)
	tdRe    = regexp.MustCompile(`([\d.-]+)\s+([\d.-]+)\s+T[dD]`)
	tfRe    = regexp.MustCompile(`/[A-Za-z0-9_.+-]+\s+([\d.-]+)\s+Tf`)
	tjOpRe  = regexp.MustCompile(`(?s)\[(?:.|\n|\r)*?\]\s*TJ|\((?:\\.|[^\\)])*\)\s*Tj`)
	tokenRe = regexp.MustCompile(`(?s)[\d.-]+\s+[\d.-]+\s+[\d.-]+\s+[\d.-]+\s+[\d.-]+\s+[\d.-]+\s+Tm|[\d.-]+\s+[\d.-]+\s+T[dD]|/[A-Za-z0-9_.+-]+\s+[\d.-]+\s+Tf|\[(?:.|\n|\r)*?\]\s*TJ|\((?:\\.|[^\\)])*\)\s*Tj`)
)

// parseTextOperators walks a decoded content stream's BT/ET text blocks,
// tracking the text/line matrix across Tm/Td/TD and font size across Tf,
// and emits one textRun per Tj/TJ showing operator.
func parseTextOperators(content []byte) []textRun {
	var runs []textRun
	for _, block := range btEtRe.FindAllSubmatch(content, -1) {
		inner := string(block[1])
		x, y := 0.0, 0.0
		lineX, lineY := 0.0, 0.0
		fontSize := 10.0

		for _, token := range tokenRe.FindAllString(inner, -1) {
			token = strings.TrimSpace(token)
			switch {
			case tmRe.MatchString(token):
				m := tmRe.FindStringSubmatch(token)
				x, _ = strconv.ParseFloat(m[5], 64)
				y, _ = strconv.ParseFloat(m[6], 64)
				lineX, lineY = x, y
			case tdRe.MatchString(token):
				m := tdRe.FindStringSubmatch(token)
				dx, _ := strconv.ParseFloat(m[1], 64)
				dy, _ := strconv.ParseFloat(m[2], 64)
				lineX += dx
				lineY += dy
				x, y = lineX, lineY
			case tfRe.MatchString(token):
				m := tfRe.FindStringSubmatch(token)
				if fs, err := strconv.ParseFloat(m[1], 64); err == nil && fs > 0 {
					fontSize = fs
				}
			case tjOpRe.MatchString(token):
				text := extractShownText(token)
				if text == "" {
					continue
				}
				runs = append(runs, textRun{text: text, x: x, y: y, fontSize: fontSize})
				x += estimateWidth(text, fontSize)
			}
		}
	}
	return runs
}

// extractShownText pulls the literal string payload out of a Tj or TJ
// operator, discarding TJ's inter-glyph kerning numbers.
func extractShownText(op string) string {
	if strings.HasSuffix(op, "TJ") {
		start := strings.Index(op, "[")
		end := strings.LastIndex(op, "]")
		if start < 0 || end <= start {
			return ""
		}
		return decodeLiteralsIn(op[start+1 : end])
	}
	// Tj: a single literal string.
	start := strings.Index(op, "(")
	end := strings.LastIndex(op, ")")
	if start < 0 || end <= start {
		return ""
	}
	return decodePDFLiteral(op[start+1 : end])
}

func decodeLiteralsIn(arr string) string {
	var out strings.Builder
	i := 0
	for i < len(arr) {
		if arr[i] == '(' {
			depth := 1
			j := i + 1
			for j < len(arr) && depth > 0 {
				switch arr[j] {
				case '\\':
					j++ // skip escaped char
				case '(':
					depth++
				case ')':
					depth--
				}
				j++
			}
			if j-1 <= len(arr) {
				out.WriteString(decodePDFLiteral(arr[i+1 : j-1]))
			}
			i = j
			continue
		}
		i++
	}
	return out.String()
}

// decodePDFLiteral resolves the small set of backslash escapes PDF literal
// strings use; unescaped parens are never seen here since callers already
// balance them.
func decodePDFLiteral(s string) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				out.WriteByte('\n')
			case 'r':
				out.WriteByte('\r')
			case 't':
				out.WriteByte('\t')
			case '(', ')', '\\':
				out.WriteByte(s[i+1])
			default:
				out.WriteByte(s[i+1])
			}
			i++
			continue
		}
		out.WriteByte(s[i])
	}
	return out.String()
}

// estimateWidth approximates the horizontal advance of text at fontSize,
// good enough to keep successive Tj runs on a text line from overlapping
// in the synthesized layout preview; it is not font metrics.
func estimateWidth(s string, fontSize float64) float64 {
	return float64(len(s)) * fontSize * 0.5
}

package addressfmt

import (
	"strings"
	"unicode"
)

// Delimiters joining the parts of each rendition.
const (
	MultilineDelimiter  = "\n"
	SinglelineDelimiter = ", "
)

// NormalizeMultiline cleans raw multi-line template output: blank lines are
// dropped, and leading or trailing commas, hyphens and whitespace are stripped
// from every line. A line left empty by stripping (a lone "-", a dangling ", ")
// is dropped as well. The result is idempotent.
//
// Every Unicode space counts as an edge rune, not only ' ', so tabs or
// non-breaking spaces interleaved with edge punctuation are stripped in the
// same pass. "\tfoo ,\t-" becomes "foo".
func NormalizeMultiline(raw string) string {
	lines := strings.Split(raw, MultilineDelimiter)
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimFunc(line, isLineEdge)
		if line == "" {
			continue
		}
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, MultilineDelimiter))
}

// NormalizeSingleline cleans raw single-line template output: the text is
// split on ", ", empty segments and segments consisting of exactly "-" are
// dropped, and the rest are rejoined. Hyphens inside a segment are kept.
func NormalizeSingleline(raw string) string {
	segments := strings.Split(raw, SinglelineDelimiter)
	out := make([]string, 0, len(segments))

	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		// A lone dash is the empty-field placeholder some layouts (BR) leave behind.
		if segment == "" || segment == "-" {
			continue
		}
		out = append(out, segment)
	}

	return strings.Join(out, SinglelineDelimiter)
}

// isLineEdge matches the punctuation a missing field leaves at either end of a
// line. Whitespace is included so stripping converges in a single pass.
func isLineEdge(r rune) bool {
	return r == ',' || r == '-' || unicode.IsSpace(r)
}

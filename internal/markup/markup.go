package markup

import (
	"strings"
)

// FoldEqualAt reports whether the byte window of len(phrase) starting at
// offset case-insensitively equals phrase. The window length is fixed in
// bytes, so a true result always identifies an exact byte span of the
// original text; case pairs whose UTF-8 encodings differ in length do not
// match. This is the single matching predicate shared by scanning,
// re-validation, and span detection.
func FoldEqualAt(text, phrase string, offset int) bool {
	if phrase == "" || offset < 0 || offset+len(phrase) > len(text) {
		return false
	}
	return strings.EqualFold(text[offset:offset+len(phrase)], phrase)
}

// Occurrences returns the byte offset of every case-insensitive occurrence
// of phrase in text, left to right and non-overlapping: after a match at p
// the search resumes at p+len(phrase).
func Occurrences(text, phrase string) []int {
	if phrase == "" || len(phrase) > len(text) {
		return nil
	}
	var offsets []int
	limit := len(text) - len(phrase)
	for i := 0; i <= limit; {
		if FoldEqualAt(text, phrase, i) {
			offsets = append(offsets, i)
			i += len(phrase)
			continue
		}
		i++
	}
	return offsets
}

// Span is a half-open byte range [Start, End) within a text.
type Span struct {
	Start int
	End   int
}

// Contains reports whether the byte offset falls inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Len returns the span length in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// Markers configures the comment labels that delimit a block wrapper unit.
// The defaults recognize <!-- start:LABEL --> ... <!-- end:LABEL -->.
type Markers struct {
	StartPrefix string
	EndPrefix   string
}

// DefaultMarkers returns the standard start:/end: marker prefixes.
func DefaultMarkers() Markers {
	return Markers{StartPrefix: "start:", EndPrefix: "end:"}
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// skipSpaceLeft returns the smallest index j <= i such that text[j:i] is all
// whitespace.
func skipSpaceLeft(text string, i int) int {
	for i > 0 && isSpaceByte(text[i-1]) {
		i--
	}
	return i
}

// skipSpaceRight returns the largest index j >= i such that text[i:j] is all
// whitespace.
func skipSpaceRight(text string, i int) int {
	for i < len(text) && isSpaceByte(text[i]) {
		i++
	}
	return i
}

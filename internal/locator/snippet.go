package locator

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/codethatfits/phrasematch/internal/markup"
)

// DefaultSnippetRadius is the context window, in display characters, taken
// on each side of a match.
const DefaultSnippetRadius = 80

const ellipsis = "…"

// BuildSnippet extracts a context window of radius characters on each side
// of the match at offset. A truncated left edge is trimmed forward to the
// next word boundary and prefixed with an ellipsis (none at text start); a
// truncated right edge is trimmed back to the previous word boundary and
// suffixed with one (none at text end). The matched substring keeps its
// original casing and is wrapped in <mark> tags; everything around it is
// HTML-escaped. The result is presentational only and must never be fed
// back into mutation.
func BuildSnippet(text, phrase string, offset, radius int) string {
	if !markup.FoldEqualAt(text, phrase, offset) {
		return ""
	}
	if radius <= 0 {
		radius = DefaultSnippetRadius
	}
	matchEnd := offset + len(phrase)

	start := offset
	for n := 0; n < radius && start > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	truncatedLeft := start > 0
	if truncatedLeft {
		start = trimLeftEdge(text, start, offset)
	}

	end := matchEnd
	for n := 0; n < radius && end < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	truncatedRight := end < len(text)
	if truncatedRight {
		end = trimRightEdge(text, end, matchEnd)
	}

	var b strings.Builder
	if truncatedLeft {
		b.WriteString(ellipsis)
	}
	b.WriteString(html.EscapeString(text[start:offset]))
	b.WriteString("<mark>")
	b.WriteString(html.EscapeString(text[offset:matchEnd]))
	b.WriteString("</mark>")
	b.WriteString(html.EscapeString(text[matchEnd:end]))
	if truncatedRight {
		b.WriteString(ellipsis)
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// trimLeftEdge moves a truncated left cut forward so the snippet does not
// start mid-word: the partial word is skipped, then any whitespace. The cut
// never advances past the match offset.
func trimLeftEdge(text string, cut, offset int) int {
	prev, _ := utf8.DecodeLastRuneInString(text[:cut])
	cur, _ := utf8.DecodeRuneInString(text[cut:])
	if isWordRune(prev) && isWordRune(cur) {
		for cut < offset {
			r, size := utf8.DecodeRuneInString(text[cut:])
			if !isWordRune(r) {
				break
			}
			cut += size
		}
	}
	for cut < offset {
		r, size := utf8.DecodeRuneInString(text[cut:])
		if !unicode.IsSpace(r) {
			break
		}
		cut += size
	}
	return cut
}

// trimRightEdge moves a truncated right cut backward so the snippet does not
// end mid-word, then drops trailing whitespace. The cut never retreats past
// the match end.
func trimRightEdge(text string, cut, matchEnd int) int {
	prev, _ := utf8.DecodeLastRuneInString(text[:cut])
	cur, _ := utf8.DecodeRuneInString(text[cut:])
	if isWordRune(prev) && isWordRune(cur) {
		for cut > matchEnd {
			r, size := utf8.DecodeLastRuneInString(text[:cut])
			if !isWordRune(r) {
				break
			}
			cut -= size
		}
	}
	for cut > matchEnd {
		r, size := utf8.DecodeLastRuneInString(text[:cut])
		if !unicode.IsSpace(r) {
			break
		}
		cut -= size
	}
	return cut
}

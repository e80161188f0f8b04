package markup

import (
	"strings"
)

// WrapperSpan finds an inline markup element whose sole trimmed content is
// the phrase (nested inline wrappers allowed) and whose full span contains
// the given byte offset. Every phrase occurrence in the text is considered a
// candidate; the first span containing the offset wins. The second return
// value is false when no such span exists.
//
// Detection is an explicit span scan, not a single pattern: open tags are
// walked leftward from a phrase occurrence, close tags rightward, and the
// close sequence must mirror the open stack (tag names compared
// case-insensitively, attributes tolerated).
func WrapperSpan(text, phrase string, offset int) (Span, bool) {
	for _, p := range Occurrences(text, phrase) {
		span, ok := expandWrapper(text, p, p+len(phrase))
		if ok && span.Contains(offset) {
			return span, true
		}
	}
	return Span{}, false
}

// BlockSpan finds a self-contained block unit (start marker, wrapper element
// whose sole trimmed content is the phrase, matching end marker) whose full
// span contains the given byte offset. The second return value is false when
// no such unit exists.
func BlockSpan(text, phrase string, offset int, markers Markers) (Span, bool) {
	for _, p := range Occurrences(text, phrase) {
		wrapper, ok := expandWrapper(text, p, p+len(phrase))
		if !ok {
			continue
		}
		block, ok := expandBlock(text, wrapper, markers)
		if ok && block.Contains(offset) {
			return block, true
		}
	}
	return Span{}, false
}

// expandWrapper grows the phrase span [ps, pe) outward over whitespace and
// tag pairs. It collects the maximal chain of open tags to the left, then
// accepts the longest sub-chain that is mirrored by close tags on the right.
// At least one tag pair is required.
func expandWrapper(text string, ps, pe int) (Span, bool) {
	// Walk open tags leftward; stack[0] is the innermost tag.
	var stack []string
	var starts []int
	left := ps
	for {
		l := skipSpaceLeft(text, left)
		name, tagStart, ok := openTagEndingAt(text, l)
		if !ok {
			break
		}
		stack = append(stack, name)
		starts = append(starts, tagStart)
		left = tagStart
	}
	if len(stack) == 0 {
		return Span{}, false
	}

	// Try the deepest chain first, then progressively drop outer levels so
	// that <p><em>X</em> tail</p> still yields the <em> span.
	for k := len(stack); k >= 1; k-- {
		right := pe
		matched := true
		for i := 0; i < k; i++ {
			r := skipSpaceRight(text, right)
			name, tagEnd, ok := closeTagStartingAt(text, r)
			if !ok || !strings.EqualFold(name, stack[i]) {
				matched = false
				break
			}
			right = tagEnd
		}
		if matched {
			return Span{Start: starts[k-1], End: right}, true
		}
	}
	return Span{}, false
}

// expandBlock checks for a start marker immediately left of the wrapper span
// and a label-matching end marker immediately right of it (whitespace
// tolerated on both sides).
func expandBlock(text string, wrapper Span, markers Markers) (Span, bool) {
	l := skipSpaceLeft(text, wrapper.Start)
	label, blockStart, ok := startMarkerEndingAt(text, l, markers.StartPrefix)
	if !ok {
		return Span{}, false
	}
	r := skipSpaceRight(text, wrapper.End)
	endLabel, blockEnd, ok := endMarkerStartingAt(text, r, markers.EndPrefix)
	if !ok || !strings.EqualFold(label, endLabel) {
		return Span{}, false
	}
	return Span{Start: blockStart, End: blockEnd}, true
}

// openTagEndingAt parses an open tag whose closing '>' sits at end-1. It
// returns the tag name and the index of the '<'. Close tags, comments,
// and self-closing tags are rejected. The tag body must not contain angle
// brackets, so the nearest preceding '<' is the tag start.
func openTagEndingAt(text string, end int) (string, int, bool) {
	if end < 3 || text[end-1] != '>' {
		return "", 0, false
	}
	start := strings.LastIndexByte(text[:end-1], '<')
	if start < 0 {
		return "", 0, false
	}
	tag := text[start:end]
	if strings.ContainsAny(tag[1:len(tag)-1], "<>") {
		return "", 0, false
	}
	if strings.HasSuffix(tag, "/>") {
		return "", 0, false
	}
	name, rest, ok := parseTagName(tag[1:])
	if !ok {
		return "", 0, false
	}
	// Anything after the name must be attribute text separated by whitespace.
	if rest != ">" && !isSpaceByte(rest[0]) {
		return "", 0, false
	}
	return name, start, true
}

// closeTagStartingAt parses a close tag beginning at start and returns the
// tag name and the index just past the '>'.
func closeTagStartingAt(text string, start int) (string, int, bool) {
	if start+3 > len(text) || text[start] != '<' || text[start+1] != '/' {
		return "", 0, false
	}
	gt := strings.IndexByte(text[start:], '>')
	if gt < 0 {
		return "", 0, false
	}
	end := start + gt + 1
	name, rest, ok := parseTagName(text[start+2 : end])
	if !ok {
		return "", 0, false
	}
	for i := 0; i < len(rest)-1; i++ {
		if !isSpaceByte(rest[i]) {
			return "", 0, false
		}
	}
	return name, end, true
}

// parseTagName splits a leading tag name ([A-Za-z][A-Za-z0-9]*) from s and
// returns the name plus the unconsumed remainder (which still includes the
// trailing '>').
func parseTagName(s string) (string, string, bool) {
	i := 0
	for i < len(s) {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			i++
			continue
		}
		if i > 0 && c >= '0' && c <= '9' {
			i++
			continue
		}
		break
	}
	if i == 0 || i >= len(s) {
		return "", "", false
	}
	return s[:i], s[i:], true
}

// startMarkerEndingAt parses a block-start comment marker whose final '>'
// sits at end-1 and returns its label and the index of the '<'.
func startMarkerEndingAt(text string, end int, prefix string) (string, int, bool) {
	if end < 7 || !strings.HasSuffix(text[:end], "-->") {
		return "", 0, false
	}
	start := strings.LastIndex(text[:end], "<!--")
	if start < 0 {
		return "", 0, false
	}
	inner := text[start+4 : end-3]
	// The marker must be one whole comment, so no earlier terminator inside.
	if strings.Contains(inner, "-->") || strings.Contains(inner, "<!--") {
		return "", 0, false
	}
	label, ok := markerLabel(inner, prefix)
	if !ok {
		return "", 0, false
	}
	return label, start, true
}

// endMarkerStartingAt parses a block-end comment marker beginning at start
// and returns its label and the index just past the closing "-->".
func endMarkerStartingAt(text string, start int, prefix string) (string, int, bool) {
	if !strings.HasPrefix(text[start:], "<!--") {
		return "", 0, false
	}
	term := strings.Index(text[start+4:], "-->")
	if term < 0 {
		return "", 0, false
	}
	inner := text[start+4 : start+4+term]
	label, ok := markerLabel(inner, prefix)
	if !ok {
		return "", 0, false
	}
	return label, start + 4 + term + 3, true
}

// markerLabel extracts the label from a comment body like " start:hero ".
// The prefix match is case-insensitive and the label must be non-empty.
func markerLabel(inner, prefix string) (string, bool) {
	body := strings.TrimSpace(inner)
	if len(body) < len(prefix) || !strings.EqualFold(body[:len(prefix)], prefix) {
		return "", false
	}
	label := strings.TrimSpace(body[len(prefix):])
	if label == "" || strings.ContainsAny(label, " \t") {
		return "", false
	}
	return label, true
}

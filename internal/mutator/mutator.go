// Package mutator rewrites document text by removing or replacing phrase
// occurrences at byte-exact offsets. Like the locator it is pure: one call,
// one rewritten pair of field texts, no side effects.
package mutator

import (
	"regexp"
	"sort"
	"strings"

	"github.com/codethatfits/phrasematch/internal/markup"
	"github.com/codethatfits/phrasematch/model"
)

// blankRunRegex matches a run of four or more newlines (three or more blank
// lines), allowing trailing spaces and carriage returns on the blank lines.
var blankRunRegex = regexp.MustCompile(`(\n[ \t\r]*){4,}`)

// Apply executes one mutation pass over a document's two fields. Requests
// are partitioned by field, sorted by offset descending, and applied in that
// order, so untouched offsets stay valid while the text shrinks and grows
// behind them. Each request is re-validated against the current text before
// acting; a stale offset is skipped, never an error. Title requests always
// use text_only semantics. When anything was modified, runs of three or more
// blank lines in content collapse to a single blank line and the title is
// whitespace-trimmed; a pass that modified nothing returns both texts
// untouched with zero counts.
func Apply(title, content, phrase string, requests []model.MutationRequest, markers markup.Markers) model.ApplyResult {
	result := model.ApplyResult{Title: title, Content: content}
	if phrase == "" || len(requests) == 0 {
		return result
	}

	var titleRequests, contentRequests []model.MutationRequest
	for _, req := range requests {
		if req.Field == model.FieldTitle {
			titleRequests = append(titleRequests, req)
		} else {
			contentRequests = append(contentRequests, req)
		}
	}

	result.Title = applyToField(result.Title, phrase, titleRequests, markers, true, &result)
	result.Content = applyToField(result.Content, phrase, contentRequests, markers, false, &result)

	if result.Modified() {
		result.Content = collapseBlankLines(result.Content)
		result.Title = strings.TrimSpace(result.Title)
	}
	return result
}

// applyToField mutates one field's text, highest offset first.
func applyToField(text, phrase string, requests []model.MutationRequest, markers markup.Markers, titleField bool, result *model.ApplyResult) string {
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].Offset > requests[j].Offset
	})

	for _, req := range requests {
		// The offset must still hold the phrase against the current,
		// partially mutated text; anything else is a stale edit.
		if !markup.FoldEqualAt(text, phrase, req.Offset) {
			continue
		}
		if req.Replacement != "" {
			text = splice(text, req.Offset, req.Offset+len(phrase), req.Replacement)
			result.Replaced++
			continue
		}

		mode := req.Mode
		if titleField {
			mode = model.ModeTextOnly
		}
		text = removeAt(text, phrase, req.Offset, mode, markers)
		result.Removed++
	}
	return text
}

// removeAt deletes the occurrence at offset according to mode, degrading
// block_wrapper -> inline_markup -> text_only when the expected structure is
// not present.
func removeAt(text, phrase string, offset int, mode model.RemovalMode, markers markup.Markers) string {
	if mode == model.ModeBlockWrapper {
		if span, ok := markup.BlockSpan(text, phrase, offset, markers); ok {
			return splice(text, span.Start, span.End, "")
		}
		mode = model.ModeInlineMarkup
	}
	if mode == model.ModeInlineMarkup {
		if span, ok := markup.WrapperSpan(text, phrase, offset); ok {
			return splice(text, span.Start, span.End, "")
		}
	}
	return splice(text, offset, offset+len(phrase), "")
}

// splice replaces text[start:end] with repl.
func splice(text string, start, end int, repl string) string {
	var b strings.Builder
	b.Grow(len(text) - (end - start) + len(repl))
	b.WriteString(text[:start])
	b.WriteString(repl)
	b.WriteString(text[end:])
	return b.String()
}

// collapseBlankLines reduces runs of three or more consecutive blank lines
// to a single blank line.
func collapseBlankLines(text string) string {
	return blankRunRegex.ReplaceAllString(text, "\n\n")
}

// Package locator finds phrase occurrences in document text, classifies
// their structural wrapping, and builds display snippets. All functions are
// pure: they read the text they are given and touch nothing else.
package locator

import (
	"github.com/codethatfits/phrasematch/internal/markup"
	"github.com/codethatfits/phrasematch/model"
)

// Scan returns every case-insensitive, non-overlapping occurrence of phrase
// in text, in strictly increasing offset order. Each record carries the byte
// offset and its 0-based scan-order index; wrapping and snippet are left for
// the caller to fill in, since title text is never classified.
func Scan(text, phrase string) []model.Occurrence {
	offsets := markup.Occurrences(text, phrase)

	occurrences := make([]model.Occurrence, 0, len(offsets)) // empty slice, not nil
	for i, offset := range offsets {
		occurrences = append(occurrences, model.Occurrence{
			Offset: offset,
			Index:  i,
		})
	}
	return occurrences
}

// DetectWrapping classifies the structural element around the phrase
// occurrence at offset, most specific first: block wrapper, then inline
// markup, then plain. Detection never fails; a structural miss is simply the
// next classification down.
func DetectWrapping(text, phrase string, offset int, markers markup.Markers) model.Wrapping {
	if _, ok := markup.BlockSpan(text, phrase, offset, markers); ok {
		return model.WrappingBlock
	}
	if _, ok := markup.WrapperSpan(text, phrase, offset); ok {
		return model.WrappingInline
	}
	return model.WrappingPlain
}

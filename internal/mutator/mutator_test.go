package mutator

import (
	"testing"

	"github.com/codethatfits/phrasematch/internal/markup"
	"github.com/codethatfits/phrasematch/model"
)

var markers = markup.DefaultMarkers()

func contentRequest(offset int, mode model.RemovalMode, replacement string) model.MutationRequest {
	return model.MutationRequest{Offset: offset, Field: model.FieldContent, Mode: mode, Replacement: replacement}
}

func TestApply_NoRequests(t *testing.T) {
	result := Apply("Title", "Content\n\n\n\n\nmore", "phrase", nil, markers)

	if result.Title != "Title" || result.Content != "Content\n\n\n\n\nmore" {
		t.Errorf("no-op pass changed text: %q / %q", result.Title, result.Content)
	}
	if result.Removed != 0 || result.Replaced != 0 {
		t.Errorf("no-op pass reported counts %d/%d", result.Removed, result.Replaced)
	}
	if result.Modified() {
		t.Error("no-op pass reported Modified")
	}
}

func TestApply_EmptyPhrase(t *testing.T) {
	requests := []model.MutationRequest{contentRequest(0, model.ModeTextOnly, "")}
	result := Apply("t", "content", "", requests, markers)

	if result.Content != "content" || result.Modified() {
		t.Errorf("empty phrase must be a no-op, got %q modified=%v", result.Content, result.Modified())
	}
}

func TestApply_TextOnlyRemoval(t *testing.T) {
	result := Apply("", "say deal now", "deal", []model.MutationRequest{
		contentRequest(4, model.ModeTextOnly, ""),
	}, markers)

	if result.Content != "say  now" {
		t.Errorf("content = %q, want %q", result.Content, "say  now")
	}
	if result.Removed != 1 || result.Replaced != 0 {
		t.Errorf("counts = %d/%d, want 1/0", result.Removed, result.Replaced)
	}
}

func TestApply_DescendingOrderKeepsOffsetsValid(t *testing.T) {
	text := "Buy now. Buy now!"
	ascending := []model.MutationRequest{
		contentRequest(0, model.ModeTextOnly, ""),
		contentRequest(9, model.ModeTextOnly, ""),
	}
	descending := []model.MutationRequest{
		contentRequest(9, model.ModeTextOnly, ""),
		contentRequest(0, model.ModeTextOnly, ""),
	}

	for name, requests := range map[string][]model.MutationRequest{"ascending input": ascending, "descending input": descending} {
		t.Run(name, func(t *testing.T) {
			result := Apply("", text, "Buy now", requests, markers)
			if result.Content != ". !" {
				t.Errorf("content = %q, want %q", result.Content, ". !")
			}
			if result.Removed != 2 {
				t.Errorf("removed = %d, want 2", result.Removed)
			}
		})
	}
}

func TestApply_StaleOffsetSkipped(t *testing.T) {
	// Both requests name offset 1; after the first removal the second no
	// longer holds the phrase and must be skipped, not fail the batch.
	result := Apply("", " deal", "deal", []model.MutationRequest{
		contentRequest(1, model.ModeTextOnly, ""),
		contentRequest(1, model.ModeTextOnly, ""),
	}, markers)

	if result.Removed != 1 {
		t.Errorf("removed = %d, want 1", result.Removed)
	}
	if result.Content != " " {
		t.Errorf("content = %q, want %q", result.Content, " ")
	}
}

func TestApply_AllStaleIsUntouchedNoOp(t *testing.T) {
	content := "padded   \n\n\n\n\ntext"
	result := Apply("  padded title  ", content, "deal", []model.MutationRequest{
		contentRequest(2, model.ModeTextOnly, ""),
	}, markers)

	// Nothing matched, so neither the blank-line collapse nor the title trim
	// may run.
	if result.Content != content {
		t.Errorf("content = %q, want untouched %q", result.Content, content)
	}
	if result.Title != "  padded title  " {
		t.Errorf("title = %q, want untouched", result.Title)
	}
	if result.Modified() {
		t.Error("all-stale pass reported Modified")
	}
}

func TestApply_Replacement(t *testing.T) {
	result := Apply("", "great deal today", "deal", []model.MutationRequest{
		contentRequest(6, model.ModeTextOnly, "offer"),
	}, markers)

	if result.Content != "great offer today" {
		t.Errorf("content = %q, want %q", result.Content, "great offer today")
	}
	if result.Replaced != 1 || result.Removed != 0 {
		t.Errorf("counts = %d/%d, want 0 removed, 1 replaced", result.Removed, result.Replaced)
	}
}

func TestApply_ReplacementIgnoresMode(t *testing.T) {
	result := Apply("", "<p>deal</p>", "deal", []model.MutationRequest{
		contentRequest(3, model.ModeBlockWrapper, "offer"),
	}, markers)

	if result.Content != "<p>offer</p>" {
		t.Errorf("content = %q, want %q (replacement never removes wrappers)", result.Content, "<p>offer</p>")
	}
}

func TestApply_InlineMarkupRemoval(t *testing.T) {
	result := Apply("", "before <p><em>deal</em></p> after", "deal", []model.MutationRequest{
		contentRequest(14, model.ModeInlineMarkup, ""),
	}, markers)

	if result.Content != "before  after" {
		t.Errorf("content = %q, want %q", result.Content, "before  after")
	}
	if result.Removed != 1 {
		t.Errorf("removed = %d, want 1", result.Removed)
	}
}

func TestApply_BlockWrapperRemoval(t *testing.T) {
	text := "x\n<!-- start:promo --><p>deal</p><!-- end:promo -->\ny"
	offset := 25 // the phrase inside <p>

	result := Apply("", text, "deal", []model.MutationRequest{
		contentRequest(offset, model.ModeBlockWrapper, ""),
	}, markers)

	if result.Content != "x\n\ny" {
		t.Errorf("content = %q, want %q", result.Content, "x\n\ny")
	}
}

func TestApply_BlockModeFallsBackToInline(t *testing.T) {
	result := Apply("", "<p>deal</p>", "deal", []model.MutationRequest{
		contentRequest(3, model.ModeBlockWrapper, ""),
	}, markers)

	if result.Content != "" {
		t.Errorf("content = %q, want empty (inline fallback removes the element)", result.Content)
	}
	if result.Removed != 1 {
		t.Errorf("removed = %d, want 1", result.Removed)
	}
}

func TestApply_BlockModeFallsBackToTextOnly(t *testing.T) {
	result := Apply("", "just a deal here", "deal", []model.MutationRequest{
		contentRequest(7, model.ModeBlockWrapper, ""),
	}, markers)

	if result.Content != "just a  here" {
		t.Errorf("content = %q, want %q (plain occurrence degrades to text removal)", result.Content, "just a  here")
	}
}

func TestApply_TitleForcedTextOnly(t *testing.T) {
	result := Apply("Big deal sale", "", "deal", []model.MutationRequest{
		{Offset: 4, Field: model.FieldTitle, Mode: model.ModeBlockWrapper},
	}, markers)

	if result.Title != "Big  sale" {
		t.Errorf("title = %q, want %q", result.Title, "Big  sale")
	}
	if result.Removed != 1 {
		t.Errorf("removed = %d, want 1", result.Removed)
	}
}

func TestApply_TitleTrimmedAfterEdit(t *testing.T) {
	result := Apply("deal Winter Sale", "", "deal", []model.MutationRequest{
		{Offset: 0, Field: model.FieldTitle, Mode: model.ModeTextOnly},
	}, markers)

	if result.Title != "Winter Sale" {
		t.Errorf("title = %q, want %q", result.Title, "Winter Sale")
	}
}

func TestApply_FieldsAreIndependentCoordinateSpaces(t *testing.T) {
	result := Apply("deal", "deal", "deal", []model.MutationRequest{
		{Offset: 0, Field: model.FieldTitle, Mode: model.ModeTextOnly},
		contentRequest(0, model.ModeTextOnly, "offer"),
	}, markers)

	if result.Title != "" {
		t.Errorf("title = %q, want empty", result.Title)
	}
	if result.Content != "offer" {
		t.Errorf("content = %q, want %q", result.Content, "offer")
	}
	if result.Removed != 1 || result.Replaced != 1 {
		t.Errorf("counts = %d/%d, want 1/1", result.Removed, result.Replaced)
	}
}

func TestApply_CaseInsensitiveRevalidation(t *testing.T) {
	result := Apply("", "DEAL here", "deal", []model.MutationRequest{
		contentRequest(0, model.ModeTextOnly, ""),
	}, markers)

	if result.Content != " here" {
		t.Errorf("content = %q, want %q", result.Content, " here")
	}
}

func TestApply_CollapsesBlankLineRuns(t *testing.T) {
	content := "para one\n\n\n\n\ndeal\n\npara two"
	result := Apply("", content, "deal", []model.MutationRequest{
		contentRequest(13, model.ModeTextOnly, ""),
	}, markers)

	if result.Content != "para one\n\npara two" {
		t.Errorf("content = %q, want %q", result.Content, "para one\n\npara two")
	}
}

func TestApply_KeepsShortBlankRuns(t *testing.T) {
	// Two blank lines stay; only runs of three or more collapse.
	content := "a\n\n\ndeal b"
	result := Apply("", content, "deal", []model.MutationRequest{
		contentRequest(4, model.ModeTextOnly, ""),
	}, markers)

	if result.Content != "a\n\n\n b" {
		t.Errorf("content = %q, want %q", result.Content, "a\n\n\n b")
	}
}

func TestApply_ManyOccurrencesAnyOrder(t *testing.T) {
	text := "deal one deal two deal three deal"
	offsets := []int{0, 9, 18, 29}
	requests := []model.MutationRequest{
		contentRequest(offsets[2], model.ModeTextOnly, ""),
		contentRequest(offsets[0], model.ModeTextOnly, ""),
		contentRequest(offsets[3], model.ModeTextOnly, ""),
		contentRequest(offsets[1], model.ModeTextOnly, ""),
	}

	result := Apply("", text, "deal", requests, markers)
	if result.Content != " one  two  three " {
		t.Errorf("content = %q, want %q", result.Content, " one  two  three ")
	}
	if result.Removed != 4 {
		t.Errorf("removed = %d, want 4", result.Removed)
	}
}

package markup

import (
	"strings"
	"testing"
)

// phraseAt returns the offset of the first case-insensitive occurrence of
// phrase in text and fails the test when it is absent.
func phraseAt(t *testing.T, text, phrase string) int {
	t.Helper()
	idx := strings.Index(strings.ToLower(text), strings.ToLower(phrase))
	if idx < 0 {
		t.Fatalf("fixture text %q does not contain %q", text, phrase)
	}
	return idx
}

func TestWrapperSpan(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		phrase    string
		wantFound bool
		wantSpan  string // the exact substring the span should cover
	}{
		{"simple element", "<p>HELLO</p>", "HELLO", true, "<p>HELLO</p>"},
		{"bare phrase", "HELLO", "HELLO", false, ""},
		{"nested elements", "<p><em>deal</em></p>", "deal", true, "<p><em>deal</em></p>"},
		{"nested with trailing text", "<p><em>deal</em> and more</p>", "deal", true, "<em>deal</em>"},
		{"attributes tolerated", `<a href="/offers" class="x">deal</a>`, "deal", true, `<a href="/offers" class="x">deal</a>`},
		{"whitespace inside wrapper", "<p>  deal\n</p>", "deal", true, "<p>  deal\n</p>"},
		{"case-insensitive tag names", "<P>deal</p>", "deal", true, "<P>deal</p>"},
		{"case-insensitive phrase", "<p>DEAL</p>", "deal", true, "<p>DEAL</p>"},
		{"mismatched close tag", "<p>deal</div>", "deal", false, ""},
		{"self-closing tag is no wrapper", "<br/>deal", "deal", false, ""},
		{"extra leading text breaks sole-content", "<p>big deal</p>", "deal", false, ""},
		{"numbered tag", "<h2>deal</h2>", "deal", true, "<h2>deal</h2>"},
		{"comment is not a wrapper", "<!-- x -->deal<!-- y -->", "deal", false, ""},
		{"close without open", "deal</p>", "deal", false, ""},
		{"unclosed open tag", "<p>deal", "deal", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset := phraseAt(t, tt.text, tt.phrase)
			span, found := WrapperSpan(tt.text, tt.phrase, offset)
			if found != tt.wantFound {
				t.Fatalf("WrapperSpan(%q, %q, %d) found = %v, want %v", tt.text, tt.phrase, offset, found, tt.wantFound)
			}
			if found {
				got := tt.text[span.Start:span.End]
				if got != tt.wantSpan {
					t.Errorf("span covers %q, want %q", got, tt.wantSpan)
				}
			}
		})
	}
}

func TestWrapperSpan_OffsetOutsideSpan(t *testing.T) {
	text := "<p>deal</p> deal"
	wrapped := 3
	plain := 12

	if _, found := WrapperSpan(text, "deal", plain); found {
		t.Error("plain occurrence should not inherit the wrapped occurrence's span")
	}
	span, found := WrapperSpan(text, "deal", wrapped)
	if !found {
		t.Fatal("wrapped occurrence should be inside a span")
	}
	if text[span.Start:span.End] != "<p>deal</p>" {
		t.Errorf("span covers %q, want %q", text[span.Start:span.End], "<p>deal</p>")
	}
}

func TestBlockSpan(t *testing.T) {
	markers := DefaultMarkers()

	tests := []struct {
		name      string
		text      string
		phrase    string
		wantFound bool
		wantSpan  string
	}{
		{
			"canonical block unit",
			"<!-- start:X --><p>HELLO</p><!-- end:X -->",
			"HELLO", true,
			"<!-- start:X --><p>HELLO</p><!-- end:X -->",
		},
		{
			"nested wrapper inside block",
			"<!-- start:promo --><div><b>deal</b></div><!-- end:promo -->",
			"deal", true,
			"<!-- start:promo --><div><b>deal</b></div><!-- end:promo -->",
		},
		{
			"whitespace between marker and element",
			"<!-- start:x -->\n  <p>deal</p>\n<!-- end:x -->",
			"deal", true,
			"<!-- start:x -->\n  <p>deal</p>\n<!-- end:x -->",
		},
		{
			"label mismatch",
			"<!-- start:a --><p>deal</p><!-- end:b -->",
			"deal", false, "",
		},
		{
			"label case-insensitive",
			"<!-- start:Hero --><p>deal</p><!-- end:hero -->",
			"deal", true,
			"<!-- start:Hero --><p>deal</p><!-- end:hero -->",
		},
		{
			"missing end marker",
			"<!-- start:x --><p>deal</p>",
			"deal", false, "",
		},
		{
			"missing start marker",
			"<p>deal</p><!-- end:x -->",
			"deal", false, "",
		},
		{
			"markers without wrapper element",
			"<!-- start:x -->deal<!-- end:x -->",
			"deal", false, "",
		},
		{
			"surrounded by other content",
			"before <!-- start:x --><p>deal</p><!-- end:x --> after",
			"deal", true,
			"<!-- start:x --><p>deal</p><!-- end:x -->",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset := phraseAt(t, tt.text, tt.phrase)
			span, found := BlockSpan(tt.text, tt.phrase, offset, markers)
			if found != tt.wantFound {
				t.Fatalf("BlockSpan(%q, %q, %d) found = %v, want %v", tt.text, tt.phrase, offset, found, tt.wantFound)
			}
			if found {
				got := tt.text[span.Start:span.End]
				if got != tt.wantSpan {
					t.Errorf("span covers %q, want %q", got, tt.wantSpan)
				}
			}
		})
	}
}

func TestBlockSpan_OffsetInsideMarkerLabel(t *testing.T) {
	// The phrase also appears inside the marker labels; those offsets still
	// fall within the block unit's full span.
	text := "<!-- start:hero --><p>hero</p><!-- end:hero -->"
	labelOffset := strings.Index(text, "hero") // the one inside the start marker

	span, found := BlockSpan(text, "hero", labelOffset, DefaultMarkers())
	if !found {
		t.Fatal("offset inside the start marker label should classify as part of the block unit")
	}
	if text[span.Start:span.End] != text {
		t.Errorf("span covers %q, want the whole unit", text[span.Start:span.End])
	}
}

func TestBlockSpan_CustomMarkers(t *testing.T) {
	markers := Markers{StartPrefix: "wp:", EndPrefix: "/wp:"}
	text := "<!-- wp:quote --><q>deal</q><!-- /wp:quote -->"
	offset := strings.Index(text, "deal")

	span, found := BlockSpan(text, "deal", offset, markers)
	if !found {
		t.Fatal("custom marker prefixes should be honored")
	}
	if text[span.Start:span.End] != text {
		t.Errorf("span covers %q, want the whole unit", text[span.Start:span.End])
	}

	if _, found := BlockSpan(text, "deal", offset, DefaultMarkers()); found {
		t.Error("default markers should not match wp-style comments")
	}
}

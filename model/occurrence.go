package model

// FieldKind names one of the two scannable document fields.
type FieldKind string

const (
	FieldTitle   FieldKind = "title"
	FieldContent FieldKind = "content"
)

// Valid reports whether f is one of the known fields.
func (f FieldKind) Valid() bool {
	return f == FieldTitle || f == FieldContent
}

// Wrapping classifies the structural element around a located phrase.
type Wrapping string

const (
	// WrappingPlain means no structural wrapper was detected.
	WrappingPlain Wrapping = "plain"
	// WrappingInline means the phrase is the sole trimmed content of an
	// inline markup element (nested wrappers allowed).
	WrappingInline Wrapping = "inline_markup"
	// WrappingBlock means the phrase sits inside a self-contained block
	// unit delimited by start/end markers.
	WrappingBlock Wrapping = "block_wrapper"
)

// Occurrence is one located instance of a phrase within a single document
// field. Offset is a byte position into the field text as it existed at scan
// time; it is valid only against that exact text version. Index is the
// 0-based scan-order position, for caller display.
type Occurrence struct {
	Offset   int       `json:"offset"`
	Index    int       `json:"index"`
	Field    FieldKind `json:"field"`
	Wrapping Wrapping  `json:"wrapping"`
	Snippet  string    `json:"snippet,omitempty"`
}

// RemovalMode selects how much surrounding structure a removal consumes.
// Modes degrade along the chain block_wrapper -> inline_markup -> text_only
// when the expected structure is not found.
type RemovalMode string

const (
	ModeTextOnly     RemovalMode = "text_only"
	ModeInlineMarkup RemovalMode = "inline_markup"
	ModeBlockWrapper RemovalMode = "block_wrapper"
)

// Valid reports whether m is one of the known removal modes.
func (m RemovalMode) Valid() bool {
	return m == ModeTextOnly || m == ModeInlineMarkup || m == ModeBlockWrapper
}

// MutationRequest asks for one occurrence to be removed or replaced. When
// Replacement is non-empty it always substitutes literal text and Mode is
// ignored. Title requests are applied with text_only semantics regardless of
// the declared mode.
type MutationRequest struct {
	Offset      int         `json:"offset"`
	Field       FieldKind   `json:"field"`
	Mode        RemovalMode `json:"mode,omitempty"`
	Replacement string      `json:"replacement,omitempty"`
}

// ApplyResult reports what a mutation pass changed in one document. When
// both counts are zero nothing was modified and callers must skip
// persistence for that document.
type ApplyResult struct {
	Title    string `json:"-"`
	Content  string `json:"-"`
	Removed  int    `json:"removed"`
	Replaced int    `json:"replaced"`
}

// Modified reports whether the pass changed anything.
func (r ApplyResult) Modified() bool {
	return r.Removed > 0 || r.Replaced > 0
}

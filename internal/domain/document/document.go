package document

import (
	"fmt"
)

// MaxTextSize is the maximum document text size in bytes.
const MaxTextSize = 163840 // 160KB

// Document is an opaque text fragment from one source collection
// (immutable value object). Once stored in an artifact it never changes;
// retrieval only reads it.
type Document struct {
	ref    string
	text   string
	source string
	meta   map[string]string
}

// New validates and creates a Document.
// Ref: non-empty, max 256 chars. Text: non-empty, max 160KB.
func New(ref, text, source string, meta map[string]string) (Document, error) {
	if ref == "" {
		return Document{}, fmt.Errorf("document ref is required")
	}
	if len(ref) > 256 {
		return Document{}, fmt.Errorf("document ref too long (max 256)")
	}
	if text == "" {
		return Document{}, fmt.Errorf("document text is required")
	}
	if len(text) > MaxTextSize {
		return Document{}, fmt.Errorf("document text too large (max %d bytes)", MaxTextSize)
	}
	return Document{ref: ref, text: text, source: source, meta: cloneMeta(meta)}, nil
}

// Reconstruct creates a Document without validation (artifact hydration).
func Reconstruct(ref, text, source string, meta map[string]string) Document {
	return Document{ref: ref, text: text, source: source, meta: meta}
}

// Ref returns the stable document identifier within its collection.
func (d Document) Ref() string { return d.ref }

// Text returns the document text fragment.
func (d Document) Text() string { return d.text }

// Source returns the name of the collection the document belongs to.
func (d Document) Source() string { return d.source }

// Meta returns optional string metadata.
func (d Document) Meta() map[string]string { return d.meta }

func cloneMeta(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
